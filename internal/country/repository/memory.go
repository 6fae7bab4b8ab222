package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/countrycache/countrycache/internal/country"
)

// MemoryRepo is an in-memory repository used by unit tests and STORE_DRIVER=memory.
// Records are keyed by exact name; the mutex makes Upsert atomic.
type MemoryRepo struct {
	mu    sync.RWMutex
	seq   int64
	store map[string]*country.Country
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*country.Country)}
}

func (m *MemoryRepo) Upsert(ctx context.Context, c *country.Country) (*country.Country, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := *c
	existing, ok := m.store[c.Name]
	if ok {
		rec.ID = existing.ID
		if existing.LastRefreshedAt.After(rec.LastRefreshedAt) {
			rec.LastRefreshedAt = existing.LastRefreshedAt
		}
	} else {
		m.seq++
		rec.ID = m.seq
	}
	m.store[c.Name] = &rec
	out := rec
	return &out, ok, nil
}

func (m *MemoryRepo) FindByName(ctx context.Context, name string, caseInsensitive bool) (*country.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !caseInsensitive {
		if c, ok := m.store[name]; ok {
			out := *c
			return &out, nil
		}
		return nil, ErrNotFound
	}
	// lowest id wins, matching the postgres ORDER BY id
	var found *country.Country
	for _, c := range m.store {
		if strings.EqualFold(c.Name, name) && (found == nil || c.ID < found.ID) {
			found = c
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	out := *found
	return &out, nil
}

func (m *MemoryRepo) List(ctx context.Context, f country.Filter) ([]*country.Country, error) {
	m.mu.RLock()
	out := make([]*country.Country, 0, len(m.store))
	for _, c := range m.store {
		if f.Region != "" && !strings.EqualFold(c.Region, f.Region) {
			continue
		}
		if f.Currency != "" && !strings.EqualFold(c.CurrencyCode, f.Currency) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	switch f.Sort {
	case country.SortGDPDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].EstimatedGDP > out[j].EstimatedGDP })
	case country.SortGDPAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].EstimatedGDP < out[j].EstimatedGDP })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryRepo) DeleteByName(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[name]; !ok {
		return ErrNotFound
	}
	delete(m.store, name)
	return nil
}

func (m *MemoryRepo) Stats(ctx context.Context) (country.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := country.Stats{Total: int64(len(m.store))}
	for _, c := range m.store {
		if st.LastRefreshedAt == nil || c.LastRefreshedAt.After(*st.LastRefreshedAt) {
			ts := c.LastRefreshedAt
			st.LastRefreshedAt = &ts
		}
	}
	return st, nil
}

func (m *MemoryRepo) Ping(ctx context.Context) error { return nil }
