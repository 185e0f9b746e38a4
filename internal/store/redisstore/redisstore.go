// Package redisstore keeps every enrollment as one field of a Redis hash.
// HSET replaces a field atomically, and HGETALL reads all fields in a single
// command, so a LoadAll never observes a half-written record.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store"
)

// Hash abstracts the Redis hash commands used by the store to make testing easier.
type Hash interface {
	HSet(ctx context.Context, key, field string, value []byte) error
	HGet(ctx context.Context, key, field string) ([]byte, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HLen(ctx context.Context, key string) (int64, error)
}

// ClientHash is the go-redis backed Hash.
type ClientHash struct {
	client *redis.Client
}

func NewClientHash(client *redis.Client) *ClientHash {
	return &ClientHash{client: client}
}

func (h *ClientHash) HSet(ctx context.Context, key, field string, value []byte) error {
	return h.client.HSet(ctx, key, field, value).Err()
}

func (h *ClientHash) HGet(ctx context.Context, key, field string) ([]byte, error) {
	return h.client.HGet(ctx, key, field).Bytes()
}

func (h *ClientHash) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return h.client.HGetAll(ctx, key).Result()
}

func (h *ClientHash) HLen(ctx context.Context, key string) (int64, error) {
	return h.client.HLen(ctx, key).Result()
}

// Connect dials addr and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

type Store struct {
	hash      Hash
	namespace string
	dim       int
	logger    *slog.Logger
}

// New returns a store that keeps records under the hash named namespace.
func New(hash Hash, namespace string, dim int, logger *slog.Logger) *Store {
	return &Store{
		hash:      hash,
		namespace: namespace,
		dim:       dim,
		logger:    logger.With(slog.String("component", "redisstore")),
	}
}

func (s *Store) Put(ctx context.Context, key string, descriptor domain.Descriptor) error {
	if key == "" {
		return domain.ErrValidationFailed.WithError(errors.New("identity key is empty"))
	}
	if err := store.Check(descriptor, s.dim); err != nil {
		return err
	}

	data, err := store.Encode(descriptor)
	if err != nil {
		return err
	}

	if err := s.hash.HSet(ctx, s.namespace, key, data); err != nil {
		return domain.ErrStoreWriteFailure.WithError(fmt.Errorf("hset %s: %w", key, err))
	}
	return nil
}

func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Descriptor, error) {
	fields, err := s.hash.HGetAll(ctx, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}

	result := make(map[string]domain.Descriptor, len(fields))
	for key, raw := range fields {
		descriptor, err := store.Decode([]byte(raw), s.dim)
		if err != nil {
			s.logger.Warn("skipping unreadable enrollment",
				slog.String("identity_key", key),
				slog.Any("error", err),
			)
			continue
		}
		result[key] = descriptor
	}

	return result, nil
}

func (s *Store) Get(ctx context.Context, key string) (domain.Descriptor, error) {
	raw, err := s.hash.HGet(ctx, s.namespace, key)
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return store.Decode(raw, s.dim)
}

// Count reports HLEN when no dimension is enforced. Otherwise it has to
// decode every record to exclude corrupted ones.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.dim == 0 {
		n, err := s.hash.HLen(ctx, s.namespace)
		if err != nil {
			return 0, fmt.Errorf("count enrollments: %w", err)
		}
		return int(n), nil
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

var _ store.EmbeddingStore = (*Store)(nil)
