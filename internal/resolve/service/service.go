package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nameres-service/internal/resolve/model"
)

// MappingStore — персистентная таблица соответствий (кэш разрешений).
type MappingStore interface {
	Lookup(ctx context.Context, nameNorm, source string) (*model.Mapping, error)
	Upsert(ctx context.Context, m model.Mapping) error
}

// Resolver — единственная точка входа движка: resolve(имя, система) →
// ссылка на каталог или «нет совпадения».
type Resolver struct {
	store   MappingStore
	catalog Catalog
	ext     *Extractor
	blocker *Blocker
	weights Weights
	cache   profileCache
	log     zerolog.Logger
}

func NewResolver(store MappingStore, catalog Catalog, w Weights, log zerolog.Logger) *Resolver {
	norm := NewNormalizer()
	return &Resolver{
		store:   store,
		catalog: catalog,
		ext:     NewExtractor(norm),
		blocker: NewBlocker(norm),
		weights: w,
		log:     log,
	}
}

// Invalidate сбрасывает кэш профилей каталога; дергается при любой записи
// в каталог. Уже разрешённые строки задним числом не пересматриваются.
func (r *Resolver) Invalidate() { r.cache.invalidate() }

// Normalize — канонический токен для внешнего имени (он же ключ кэша).
func (r *Resolver) Normalize(name string) string {
	return r.ext.Normalizer().Normalize(name)
}

// Resolve — полный конвейер: кэш → нормализация → извлечение → скоринг →
// категорийное вето → порог. nil-результат без ошибки — это штатное
// «совпадения нет», решает вызывающий.
func (r *Resolver) Resolve(ctx context.Context, name, source string) (*model.Resolution, error) {
	norm := r.Normalize(name)
	if norm == "" {
		return nil, nil // пустой токен — сигнала нет
	}

	// быстрый путь: сохранённое соответствие
	m, err := r.store.Lookup(ctx, norm, source)
	if err != nil {
		// непроверенному промаху кэша верить нельзя
		return nil, fmt.Errorf("mapping lookup: %w", err)
	}
	if m != nil {
		return &model.Resolution{
			Ref:        model.CatalogRef{ID: m.EntryID, Kind: m.EntryKind},
			Confidence: m.Confidence,
			Method:     model.MethodCache,
		}, nil
	}

	// «нет каталога» — ошибка, а не «не нашли»
	profs, err := r.cache.snapshot(ctx, r.catalog, r.ext)
	if err != nil {
		return nil, fmt.Errorf("catalog profiles: %w", err)
	}

	in := r.ext.Profile(name)
	for _, c := range rank(in, profs, r.weights) {
		if c.score < r.weights.Threshold {
			break // отсортировано по убыванию, дальше только хуже
		}
		if r.blocker.Blocked(in.Token, c.ep.Profile.Token) {
			r.log.Debug().
				Str("name", name).
				Str("candidate", c.ep.Entry.Name).
				Int("score", c.score).
				Msg("category veto")
			continue
		}

		res := &model.Resolution{
			Ref:        model.CatalogRef{ID: c.ep.Entry.ID, Kind: c.ep.Entry.Kind},
			Confidence: c.score,
			Method:     model.MethodScored,
			Reasons:    c.reasons,
		}
		// неудачная запись стоит лишь повторного прогона в следующий раз,
		// сам результат вызывающему отдаём
		up := model.Mapping{
			ExternalName: name,
			NameNorm:     norm,
			Source:       source,
			EntryID:      res.Ref.ID,
			EntryKind:    res.Ref.Kind,
			Confidence:   res.Confidence,
		}
		if err := r.store.Upsert(ctx, up); err != nil {
			r.log.Warn().Err(err).Str("name_norm", norm).Str("source", source).Msg("mapping upsert failed")
		}
		return res, nil
	}

	return nil, nil
}

// Candidates — ранжированный список без порога и вето, для отладки и
// ручного разбора спорных имён оператором.
func (r *Resolver) Candidates(ctx context.Context, name string, limit int) ([]model.Candidate, error) {
	profs, err := r.cache.snapshot(ctx, r.catalog, r.ext)
	if err != nil {
		return nil, fmt.Errorf("catalog profiles: %w", err)
	}
	in := r.ext.Profile(name)
	ranked := rank(in, profs, r.weights)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.Candidate, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, model.Candidate{Entry: c.ep.Entry, Score: c.score, Reasons: c.reasons})
	}
	return out, nil
}
