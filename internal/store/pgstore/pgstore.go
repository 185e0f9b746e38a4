// Package pgstore keeps enrollments in PostgreSQL using the pgvector
// extension. One row per identity key; writes are upserts.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store"
)

// PgxPool is the subset of *pgxpool.Pool the store needs. pgxmock satisfies it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool   PgxPool
	dim    int
	logger *slog.Logger
}

func New(pool PgxPool, dim int, logger *slog.Logger) *Store {
	return &Store{
		pool:   pool,
		dim:    dim,
		logger: logger.With(slog.String("component", "pgstore")),
	}
}

func (s *Store) Put(ctx context.Context, key string, descriptor domain.Descriptor) error {
	if key == "" {
		return domain.ErrValidationFailed.WithError(errors.New("identity key is empty"))
	}
	if err := store.Check(descriptor, s.dim); err != nil {
		return err
	}

	query := `
		INSERT INTO enrollments (identity_key, embedding, dimension, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (identity_key) DO UPDATE
		SET embedding = EXCLUDED.embedding, dimension = EXCLUDED.dimension, updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, key, toVector(descriptor), len(descriptor)); err != nil {
		return domain.ErrStoreWriteFailure.WithError(fmt.Errorf("upsert enrollment: %w", err))
	}
	return nil
}

func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Descriptor, error) {
	query := `SELECT identity_key, embedding FROM enrollments`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	defer rows.Close()

	result := make(map[string]domain.Descriptor)
	for rows.Next() {
		var key string
		var embedding *pgvector.Vector
		if err := rows.Scan(&key, &embedding); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}

		descriptor, err := s.decode(embedding)
		if err != nil {
			s.logger.Warn("skipping unreadable enrollment",
				slog.String("identity_key", key),
				slog.Any("error", err),
			)
			continue
		}
		result[key] = descriptor
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return result, nil
}

func (s *Store) Get(ctx context.Context, key string) (domain.Descriptor, error) {
	query := `SELECT embedding FROM enrollments WHERE identity_key = $1`

	var embedding *pgvector.Vector
	err := s.pool.QueryRow(ctx, query, key).Scan(&embedding)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	return s.decode(embedding)
}

// Count only counts rows of the configured dimensionality, matching what
// LoadAll would return.
func (s *Store) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM enrollments WHERE ($1 = 0 OR dimension = $1) AND vector_norm(embedding) > 0`

	var count int
	if err := s.pool.QueryRow(ctx, query, s.dim).Scan(&count); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

func (s *Store) decode(embedding *pgvector.Vector) (domain.Descriptor, error) {
	if embedding == nil {
		return nil, domain.ErrStoreReadCorruption.WithError(errors.New("null embedding"))
	}
	values := embedding.Slice()
	d := make(domain.Descriptor, len(values))
	for i, v := range values {
		d[i] = float64(v)
	}
	if err := store.Check(d, s.dim); err != nil {
		return nil, domain.ErrStoreReadCorruption.WithError(err)
	}
	return d, nil
}

func toVector(d domain.Descriptor) pgvector.Vector {
	floats := make([]float32, len(d))
	for i, v := range d {
		floats[i] = float32(v)
	}
	return pgvector.NewVector(floats)
}

var _ store.EmbeddingStore = (*Store)(nil)
