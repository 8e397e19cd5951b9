package model

import "time"

// Вид записи каталога.
type EntryKind string

const (
	KindComponent EntryKind = "component"
	KindProduct   EntryKind = "product"
)

// CatalogEntry — запись нашего каталога (читаем, не владеем).
type CatalogEntry struct {
	ID   int64     `json:"id"`
	Name string    `json:"name"`
	Kind EntryKind `json:"kind"`
}

// CatalogRef — ссылка на запись каталога, которую получает вызывающий.
type CatalogRef struct {
	ID   int64     `json:"id"`
	Kind EntryKind `json:"kind"`
}

// Value — числовое значение с (возможно пустой) единицей измерения.
// Unit хранится в канонической форме словаря единиц ("kom", "mkf", "mm", ...).
type Value struct {
	Num  float64
	Unit string
}

// Profile — нормализованный профиль имени: токен для сравнения,
// извлечённые коды и значения. Считается одинаково для входящих имён
// и для записей каталога, поэтому сравнение симметрично.
type Profile struct {
	Token  string
	Codes  []string
	Values []Value
}

// Candidate — один претендент со счётом и причинами (для диагностики).
// Живёт только внутри одного вызова Resolve, никуда не сохраняется.
type Candidate struct {
	Entry   CatalogEntry `json:"entry"`
	Score   int          `json:"score"`
	Reasons []string     `json:"reasons,omitempty"`
}

// Способ, которым получен результат.
const (
	MethodCache  = "cache"  // найдено в таблице соответствий
	MethodScored = "scored" // полный прогон скоринга
)

// Resolution — принятый результат разрешения имени.
type Resolution struct {
	Ref        CatalogRef `json:"entry"`
	Confidence int        `json:"confidence"`
	Method     string     `json:"method"`
	Reasons    []string   `json:"reasons,omitempty"`
}

// Mapping — сохранённый факт «внешнее имя X из системы S указывает на
// запись E с уверенностью C». Ключ уникальности — (NameNorm, Source).
type Mapping struct {
	ID           int64     `json:"id"`
	ExternalName string    `json:"externalName"` // как пришло, для отображения
	NameNorm     string    `json:"nameNorm"`     // ключ сравнения
	Source       string    `json:"source"`
	EntryID      int64     `json:"entryId"`
	EntryKind    EntryKind `json:"entryKind"`
	Confidence   int       `json:"confidence"`
	Manual       bool      `json:"manual"` // поставлено оператором вручную
	CreatedAt    time.Time `json:"createdAt"`
}
