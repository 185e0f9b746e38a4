// Package memstore is a process-local EmbeddingStore used by tests and the
// "memory" backend. Nothing survives a restart.
package memstore

import (
	"context"
	"errors"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store"
)

var errEmptyKey = errors.New("identity key is empty")

type Store struct {
	dim     int
	records cmap.ConcurrentMap[string, domain.Descriptor]
}

func New(dim int) *Store {
	return &Store{
		dim:     dim,
		records: cmap.New[domain.Descriptor](),
	}
}

func (s *Store) Put(ctx context.Context, key string, descriptor domain.Descriptor) error {
	if key == "" {
		return domain.ErrValidationFailed.WithError(errEmptyKey)
	}
	if err := store.Check(descriptor, s.dim); err != nil {
		return err
	}
	s.records.Set(key, descriptor.Clone())
	return nil
}

// LoadAll copies every record; callers may mutate the result freely.
func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Descriptor, error) {
	result := make(map[string]domain.Descriptor, s.records.Count())
	for item := range s.records.IterBuffered() {
		result[item.Key] = item.Val.Clone()
	}
	return result, nil
}

func (s *Store) Get(ctx context.Context, key string) (domain.Descriptor, error) {
	d, ok := s.records.Get(key)
	if !ok {
		return nil, domain.ErrEnrollmentNotFound
	}
	return d.Clone(), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.records.Count(), nil
}

var _ store.EmbeddingStore = (*Store)(nil)
