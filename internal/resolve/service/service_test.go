package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nameres-service/internal/resolve/model"
)

// ===== фейки =====

type memStore struct {
	mu        sync.Mutex
	m         map[string]model.Mapping
	lookupErr error
	upsertErr error
	lookups   int
}

func newMemStore() *memStore { return &memStore{m: make(map[string]model.Mapping)} }

func key(nameNorm, source string) string { return nameNorm + "|" + source }

func (s *memStore) Lookup(_ context.Context, nameNorm, source string) (*model.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if m, ok := s.m[key(nameNorm, source)]; ok {
		cp := m
		return &cp, nil
	}
	return nil, nil
}

func (s *memStore) Upsert(_ context.Context, m model.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.m[key(m.NameNorm, m.Source)] = m
	return nil
}

func (s *memStore) delete(nameNorm, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key(nameNorm, source))
}

type memCatalog struct {
	entries []model.CatalogEntry
	err     error
	calls   int
}

func (c *memCatalog) Entries(context.Context) ([]model.CatalogEntry, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.entries, nil
}

func testCatalog() *memCatalog {
	return &memCatalog{entries: []model.CatalogEntry{
		{ID: 1, Name: "R0603 4,7 kOm 1%", Kind: model.KindComponent},
		{ID: 2, Name: "BAT54C", Kind: model.KindComponent},
		{ID: 3, Name: "XTR 111  AIDGQR", Kind: model.KindComponent},
		{ID: 4, Name: "Конденсатор 0603 12 пФ", Kind: model.KindComponent},
		{ID: 5, Name: "Корпус пластиковый", Kind: model.KindProduct},
	}}
}

func newTestResolver(st *memStore, cat *memCatalog) *Resolver {
	return NewResolver(st, cat, DefaultWeights(), zerolog.Nop())
}

// ===== сценарии =====

func TestResolveSharedValueAndCodePrefix(t *testing.T) {
	r := newTestResolver(newMemStore(), testCatalog())

	rs, err := r.Resolve(context.Background(), "0603 4,7 kOm", "1C")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, int64(1), rs.Ref.ID)
	assert.Equal(t, model.KindComponent, rs.Ref.Kind)
	assert.Equal(t, model.MethodScored, rs.Method)
}

func TestResolveCodeOverlap(t *testing.T) {
	r := newTestResolver(newMemStore(), testCatalog())

	rs, err := r.Resolve(context.Background(), "Діод BAT54CW", "1C")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, int64(2), rs.Ref.ID)
}

func TestResolveCompoundCode(t *testing.T) {
	r := newTestResolver(newMemStore(), testCatalog())

	rs, err := r.Resolve(context.Background(), "Мікросхема XTR111", "1C")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, int64(3), rs.Ref.ID)
	assert.GreaterOrEqual(t, rs.Confidence, DefaultWeights().ExactCode)
}

func TestResolveBelowThreshold(t *testing.T) {
	r := newTestResolver(newMemStore(), testCatalog())

	rs, err := r.Resolve(context.Background(), "Микросхема LD1117S33TR", "1C")
	require.NoError(t, err)
	assert.Nil(t, rs, "слабый сигнал должен быть отвергнут, а не приклеен к чему попало")
}

func TestResolveCategoryVeto(t *testing.T) {
	// каталог из одной пассивки: все кандидаты с числовым совпадением
	// попадают под вето, уцелевших нет
	cat := &memCatalog{entries: []model.CatalogEntry{
		{ID: 4, Name: "Конденсатор 0603 12 пФ", Kind: model.KindComponent},
		{ID: 6, Name: "Резистор 0603 1 кОм", Kind: model.KindComponent},
	}}
	r := newTestResolver(newMemStore(), cat)

	// числовое совпадение 0603 есть, но фреза — инструмент
	rs, err := r.Resolve(context.Background(), "Фреза концевая 0603 12мм", "1C")
	require.NoError(t, err)
	assert.Nil(t, rs, "вето категории абсолютно, счёт не важен")
}

func TestResolveVetoFallsToNextCandidate(t *testing.T) {
	// лидер по счёту попадает под вето, берётся следующий уцелевший
	cat := &memCatalog{entries: []model.CatalogEntry{
		{ID: 7, Name: "Конденсатор 0603 4,7 мкФ", Kind: model.KindComponent},
		{ID: 8, Name: "Резистор 4,7 кОм", Kind: model.KindComponent},
	}}
	r := newTestResolver(newMemStore(), cat)

	rs, err := r.Resolve(context.Background(), "Резистор 0603 4,7 кОм", "1C")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, int64(8), rs.Ref.ID, "конденсатор с лучшим счётом заблокирован категорией")
}

func TestResolveEmptyName(t *testing.T) {
	st := newMemStore()
	st.lookupErr = errors.New("must not be called")
	r := newTestResolver(st, testCatalog())

	rs, err := r.Resolve(context.Background(), "  --- ", "1C")
	require.NoError(t, err)
	assert.Nil(t, rs)
	assert.Zero(t, st.lookups, "пустой токен не должен трогать хранилище")
}

// ===== кэш соответствий =====

func TestResolveCacheHit(t *testing.T) {
	st := newMemStore()
	r := newTestResolver(st, testCatalog())

	first, err := r.Resolve(context.Background(), "Діод BAT54CW", "1C")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, model.MethodScored, first.Method)

	second, err := r.Resolve(context.Background(), "Діод BAT54CW", "1C")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, model.MethodCache, second.Method, "повтор должен идти мимо скоринга")
	assert.Equal(t, first.Ref, second.Ref)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestResolveSourceSystemsIndependent(t *testing.T) {
	st := newMemStore()
	r := newTestResolver(st, testCatalog())

	_, err := r.Resolve(context.Background(), "BAT54C", "1C")
	require.NoError(t, err)

	rs, err := r.Resolve(context.Background(), "BAT54C", "wms")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, model.MethodScored, rs.Method, "другая система — отдельное пространство кэша")
}

func TestResolveDeletionReopens(t *testing.T) {
	st := newMemStore()
	r := newTestResolver(st, testCatalog())

	first, err := r.Resolve(context.Background(), "BAT54C", "1C")
	require.NoError(t, err)
	require.NotNil(t, first)

	st.delete(r.Normalize("BAT54C"), "1C")

	again, err := r.Resolve(context.Background(), "BAT54C", "1C")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, model.MethodScored, again.Method, "после удаления — полный конвейер заново")
}

// ===== ошибки =====

func TestResolveCatalogError(t *testing.T) {
	cat := &memCatalog{err: errors.New("catalog down")}
	r := newTestResolver(newMemStore(), cat)

	_, err := r.Resolve(context.Background(), "BAT54C", "1C")
	assert.Error(t, err, "нет каталога — это ошибка, а не «не нашли»")
}

func TestResolveLookupError(t *testing.T) {
	st := newMemStore()
	st.lookupErr = errors.New("db down")
	r := newTestResolver(st, testCatalog())

	_, err := r.Resolve(context.Background(), "BAT54C", "1C")
	assert.Error(t, err, "непроверенный промах кэша — ошибка вызова")
}

func TestResolveUpsertErrorStillReturnsResult(t *testing.T) {
	st := newMemStore()
	st.upsertErr = errors.New("disk full")
	r := newTestResolver(st, testCatalog())

	rs, err := r.Resolve(context.Background(), "BAT54C", "1C")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, int64(2), rs.Ref.ID, "неудачная запись кэша не отменяет найденный результат")
}

// ===== кэш профилей каталога =====

func TestCatalogProfilesMemoized(t *testing.T) {
	cat := testCatalog()
	r := newTestResolver(newMemStore(), cat)

	_, err := r.Resolve(context.Background(), "BAT54C", "1C")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "XTR111", "1C")
	require.NoError(t, err)
	assert.Equal(t, 1, cat.calls, "профили каталога считаются один раз")

	r.Invalidate()
	_, err = r.Resolve(context.Background(), "TNY274GN", "1C")
	require.NoError(t, err)
	assert.Equal(t, 2, cat.calls, "после инвалидации — свежее чтение")
}

func TestCandidatesDiagnostics(t *testing.T) {
	r := newTestResolver(newMemStore(), testCatalog())

	cands, err := r.Candidates(context.Background(), "BAT54C", 5)
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, int64(2), cands[0].Entry.ID)
	assert.NotEmpty(t, cands[0].Reasons)
}
