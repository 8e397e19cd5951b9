package store

import "database/sql"

// Уникальность (name_norm, source_system) держит именно БД: импорты
// ходят параллельно, и два первых разрешения одного имени не должны
// породить две строки.
const schema = `
CREATE TABLE IF NOT EXISTS name_mappings (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	external_name TEXT NOT NULL,
	name_norm     TEXT NOT NULL,
	source_system TEXT NOT NULL,
	entry_id      INTEGER NOT NULL,
	entry_kind    TEXT NOT NULL,
	confidence    INTEGER NOT NULL,
	manual        INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(name_norm, source_system)
);

CREATE TABLE IF NOT EXISTS catalog_entries (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mappings_source ON name_mappings(source_system);
`

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
