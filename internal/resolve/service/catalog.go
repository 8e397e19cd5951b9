package service

import (
	"context"
	"sync"

	"nameres-service/internal/resolve/model"
)

// Catalog — источник записей каталога (подсистема каталога, read-only).
type Catalog interface {
	Entries(ctx context.Context) ([]model.CatalogEntry, error)
}

type entryProfile struct {
	Entry   model.CatalogEntry
	Profile model.Profile
}

// profileCache — профили каталога, посчитанные один раз и разделяемые
// всеми конкурентными Resolve. Перестраивается лениво после Invalidate.
type profileCache struct {
	mu    sync.RWMutex
	profs []entryProfile
	ready bool
}

func (c *profileCache) snapshot(ctx context.Context, src Catalog, ext *Extractor) ([]entryProfile, error) {
	c.mu.RLock()
	if c.ready {
		profs := c.profs
		c.mu.RUnlock()
		return profs, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return c.profs, nil
	}
	entries, err := src.Entries(ctx)
	if err != nil {
		return nil, err
	}
	profs := make([]entryProfile, 0, len(entries))
	for _, e := range entries {
		p := ext.Profile(e.Name)
		if p.Token == "" {
			continue // пустое имя нечем сравнивать
		}
		profs = append(profs, entryProfile{Entry: e, Profile: p})
	}
	c.profs = profs
	c.ready = true
	return profs, nil
}

func (c *profileCache) invalidate() {
	c.mu.Lock()
	c.profs = nil
	c.ready = false
	c.mu.Unlock()
}
