package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/vecviz/pkg/vecviz/dataset"
	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/store"
)

// Store is an in-memory implementation of store.Store. Datasets are kept
// encoded so callers never share records with the store.
type Store struct {
	mu     sync.RWMutex
	ids    *store.IDGenerator
	builds map[string]store.Build
	data   map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		ids:    store.NewIDGenerator(),
		builds: make(map[string]store.Build),
		data:   make(map[string][]byte),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

func (s *Store) SaveBuild(ctx context.Context, b store.Build, ds *dataset.Dataset) (store.Build, error) {
	if ds == nil {
		return store.Build{}, fmt.Errorf("save build: nil dataset: %w", internalerr.ErrInvalidInput)
	}
	raw, err := json.Marshal(ds)
	if err != nil {
		return store.Build{}, err
	}
	b = b.Complete(ds, s.ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds[b.ID] = b
	s.data[b.ID] = raw
	return b, nil
}

func (s *Store) GetBuild(ctx context.Context, id string) (store.Build, *dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

func (s *Store) LatestBuild(ctx context.Context) (store.Build, *dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := ""
	for id := range s.builds {
		if id > latest {
			latest = id
		}
	}
	if latest == "" {
		return store.Build{}, nil, fmt.Errorf("latest build: %w", internalerr.ErrNotFound)
	}
	return s.load(latest)
}

func (s *Store) ListBuilds(ctx context.Context, limit int) ([]store.Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Build, 0, len(s.builds))
	for _, b := range s.builds {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteBuild(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.builds[id]; !ok {
		return fmt.Errorf("build %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.builds, id)
	delete(s.data, id)
	return nil
}

func (s *Store) load(id string) (store.Build, *dataset.Dataset, error) {
	b, ok := s.builds[id]
	if !ok {
		return store.Build{}, nil, fmt.Errorf("build %s: %w", id, internalerr.ErrNotFound)
	}
	var ds dataset.Dataset
	if err := json.Unmarshal(s.data[id], &ds); err != nil {
		return store.Build{}, nil, err
	}
	return b, &ds, nil
}
