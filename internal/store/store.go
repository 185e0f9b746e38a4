// Package store defines the durable identity-key → descriptor mapping and
// the record codec shared by every backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// EmbeddingStore persists one descriptor per identity key.
//
// Implementations must give every LoadAll a per-record consistent snapshot
// (the old or the new value of a concurrently written key, never a partial
// one) and must not serialize writes to different keys.
type EmbeddingStore interface {
	// Put writes or overwrites the enrollment for key.
	Put(ctx context.Context, key string, descriptor domain.Descriptor) error
	// LoadAll returns every decodable enrollment. Corrupted records are
	// logged and skipped; a missing storage location is an empty store.
	LoadAll(ctx context.Context) (map[string]domain.Descriptor, error)
	// Get returns the enrollment for key or domain.ErrEnrollmentNotFound.
	Get(ctx context.Context, key string) (domain.Descriptor, error)
	// Count returns the number of decodable enrollments.
	Count(ctx context.Context) (int, error)
}

// Encode serializes a descriptor as a JSON array of numbers.
func Encode(d domain.Descriptor) ([]byte, error) {
	if err := Check(d, 0); err != nil {
		return nil, err
	}
	data, err := json.Marshal([]float64(d))
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return data, nil
}

// Decode parses a record written by Encode and checks it against dim
// (0 skips the dimensionality check).
func Decode(data []byte, dim int) (domain.Descriptor, error) {
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, domain.ErrStoreReadCorruption.WithError(err)
	}
	d := domain.Descriptor(values)
	if err := Check(d, dim); err != nil {
		return nil, domain.ErrStoreReadCorruption.WithError(err)
	}
	return d, nil
}

// Check validates a descriptor before it is written or after it is read.
// A record that passes can always be compared: its squared norm is finite and
// non-zero.
func Check(d domain.Descriptor, dim int) error {
	if len(d) == 0 {
		return domain.ErrInvalidDescriptor.WithError(fmt.Errorf("empty descriptor"))
	}
	if dim > 0 && len(d) != dim {
		return domain.ErrInvalidDescriptor.WithError(fmt.Errorf("dimension %d, want %d", len(d), dim))
	}
	if !d.IsFinite() {
		return domain.ErrInvalidDescriptor.WithError(fmt.Errorf("non-finite component"))
	}

	var normSq float64
	for _, v := range d {
		normSq += v * v
	}
	if normSq == 0 {
		return domain.ErrInvalidDescriptor.WithError(fmt.Errorf("zero-norm descriptor"))
	}
	if math.IsInf(normSq, 0) {
		return domain.ErrInvalidDescriptor.WithError(fmt.Errorf("descriptor norm overflows"))
	}
	return nil
}
