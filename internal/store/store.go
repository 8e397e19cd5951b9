package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"nameres-service/internal/resolve/model"
)

// Store — sqlite-хранилище таблицы соответствий и локальной копии
// каталога. Один файл, нулевое администрирование.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: один писатель, без SQLITE_BUSY
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ===== соответствия =====

// Lookup — O(1) чтение по уникальному ключу; nil без ошибки = промах.
func (s *Store) Lookup(ctx context.Context, nameNorm, source string) (*model.Mapping, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, external_name, name_norm, source_system, entry_id, entry_kind, confidence, manual, created_at
		FROM name_mappings
		WHERE name_norm = ? AND source_system = ?`,
		nameNorm, source)
	m, err := scanMapping(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup mapping: %w", err)
	}
	return m, nil
}

// Upsert — автоматическая запись. Повторная запись того же ключа
// обновляет ссылку и уверенность; строку, выправленную оператором
// вручную, автоматика не перетирает.
func (s *Store) Upsert(ctx context.Context, m model.Mapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO name_mappings (external_name, name_norm, source_system, entry_id, entry_kind, confidence, manual)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(name_norm, source_system) DO UPDATE SET
			external_name = excluded.external_name,
			entry_id      = excluded.entry_id,
			entry_kind    = excluded.entry_kind,
			confidence    = excluded.confidence
		WHERE name_mappings.manual = 0`,
		m.ExternalName, m.NameNorm, m.Source, m.EntryID, m.EntryKind, m.Confidence)
	if err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}

// UpsertManual — ручная правка оператора; перекрывает что угодно.
func (s *Store) UpsertManual(ctx context.Context, m model.Mapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO name_mappings (external_name, name_norm, source_system, entry_id, entry_kind, confidence, manual)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(name_norm, source_system) DO UPDATE SET
			external_name = excluded.external_name,
			entry_id      = excluded.entry_id,
			entry_kind    = excluded.entry_kind,
			confidence    = excluded.confidence,
			manual        = 1`,
		m.ExternalName, m.NameNorm, m.Source, m.EntryID, m.EntryKind, m.Confidence)
	if err != nil {
		return fmt.Errorf("upsert manual mapping: %w", err)
	}
	return nil
}

// Delete удаляет соответствие насовсем: следующий Resolve этого имени
// обязан пройти полный конвейер, а не воскресить удалённую строку.
func (s *Store) Delete(ctx context.Context, nameNorm, source string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM name_mappings WHERE name_norm = ? AND source_system = ?`,
		nameNorm, source)
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return nil
}

// ListMappings — для операторского просмотра; source == "" значит все.
func (s *Store) ListMappings(ctx context.Context, source string) ([]model.Mapping, error) {
	q := `SELECT id, external_name, name_norm, source_system, entry_id, entry_kind, confidence, manual, created_at
		FROM name_mappings`
	args := []any{}
	if source != "" {
		q += ` WHERE source_system = ?`
		args = append(args, source)
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var out []model.Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ===== каталог (локальная read-модель) =====

func (s *Store) Entries(ctx context.Context) ([]model.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, kind FROM catalog_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var out []model.CatalogEntry
	for rows.Next() {
		var e model.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Kind); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceEntries — полная перезагрузка каталога одной транзакцией;
// вызывающий обязан следом сбросить кэш профилей.
func (s *Store) ReplaceEntries(ctx context.Context, entries []model.CatalogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_entries`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO catalog_entries (id, name, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Name, e.Kind); err != nil {
			return fmt.Errorf("insert catalog entry %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// ===== helpers =====

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(r rowScanner) (*model.Mapping, error) {
	var m model.Mapping
	var manual int
	if err := r.Scan(&m.ID, &m.ExternalName, &m.NameNorm, &m.Source,
		&m.EntryID, &m.EntryKind, &m.Confidence, &manual, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Manual = manual != 0
	return &m, nil
}
