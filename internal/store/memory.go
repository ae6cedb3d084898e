package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/i474232898/skimeister/internal/resort"
)

// MemoryStore is a concurrency-safe in-memory implementation of resort.Repository.
type MemoryStore struct {
	mu sync.RWMutex

	// key: resort id
	data map[uint]resort.Resort
	// key: slug, value: resort id
	bySlug map[string]uint
	nextID uint

	defaultStatus resort.Status
	now           func() time.Time
}

// NewMemoryStore creates an empty MemoryStore. defaultStatus is written into
// conditions stored without a status.
func NewMemoryStore(defaultStatus resort.Status) *MemoryStore {
	return &MemoryStore{
		data:          make(map[uint]resort.Resort),
		bySlug:        make(map[string]uint),
		nextID:        1,
		defaultStatus: defaultStatus,
		now:           time.Now,
	}
}

// UpsertResort merges r into the resort sharing its slug, or inserts it.
func (s *MemoryStore) UpsertResort(ctx context.Context, r resort.Resort) (uint, error) {
	if err := validateForUpsert(r); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing resort.Resort
	id, ok := s.bySlug[r.Slug]
	if ok {
		existing = s.data[id]
	} else {
		id = s.nextID
		s.nextID++
		existing = resort.Resort{ID: id}
	}

	merged := resort.Merge(existing, r, s.now().UTC(), s.defaultStatus)
	merged.ID = id
	s.data[id] = clone(merged)
	s.bySlug[merged.Slug] = id
	return id, nil
}

// ListResorts returns every resort ordered by id.
func (s *MemoryStore) ListResorts(ctx context.Context) ([]resort.Resort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]resort.Resort, 0, len(s.data))
	for _, r := range s.data {
		out = append(out, clone(r))
	}
	slices.SortFunc(out, func(a, b resort.Resort) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetResort returns the resort with the given id.
func (s *MemoryStore) GetResort(ctx context.Context, id uint) (resort.Resort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return resort.Resort{}, resort.ErrNotFound
	}
	return clone(r), nil
}

// Stats reports the number of resorts and the distinct countries, sorted.
func (s *MemoryStore) Stats(ctx context.Context) (resort.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	countries := make([]string, 0)
	for _, r := range s.data {
		if r.Country != "" && !slices.Contains(countries, r.Country) {
			countries = append(countries, r.Country)
		}
	}
	slices.Sort(countries)
	return resort.Stats{TotalResorts: len(s.data), Countries: countries}, nil
}

// clone deep copies r so callers cannot mutate stored state.
func clone(r resort.Resort) resort.Resort {
	return r.Clone()
}
