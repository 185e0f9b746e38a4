package redisstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubHash struct {
	data   map[string]map[string]string
	setErr error
	getErr error
}

func newStubHash() *stubHash {
	return &stubHash{data: map[string]map[string]string{}}
}

func (s *stubHash) HSet(ctx context.Context, key, field string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	if s.data[key] == nil {
		s.data[key] = map[string]string{}
	}
	s.data[key][field] = string(value)
	return nil
}

func (s *stubHash) HGet(ctx context.Context, key, field string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key][field]
	if !ok {
		return nil, redis.Nil
	}
	return []byte(v), nil
}

func (s *stubHash) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	out := map[string]string{}
	for k, v := range s.data[key] {
		out[k] = v
	}
	return out, nil
}

func (s *stubHash) HLen(ctx context.Context, key string) (int64, error) {
	return int64(len(s.data[key])), nil
}

func TestStore_PutLoadAll(t *testing.T) {
	ctx := context.Background()
	hash := newStubHash()
	s := New(hash, "facematch:enrollments", 2, testLogger())

	require.NoError(t, s.Put(ctx, "alice", domain.Descriptor{1, 0}))
	require.NoError(t, s.Put(ctx, "alice", domain.Descriptor{0.6, 0.8}))
	require.NoError(t, s.Put(ctx, "bob", domain.Descriptor{0, 1}))

	assert.JSONEq(t, `[0.6, 0.8]`, hash.data["facematch:enrollments"]["alice"])

	all, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Descriptor{
		"alice": {0.6, 0.8},
		"bob":   {0, 1},
	}, all)
}

func TestStore_SkipsCorruptedFields(t *testing.T) {
	ctx := context.Background()
	hash := newStubHash()
	hash.data["ns"] = map[string]string{
		"alice":  "[1, 0]",
		"broken": "{not json",
		"short":  "[1]",
		"zero":   "[0, 0]",
		"huge":   "[1e300, 1e300]",
	}
	s := New(hash, "ns", 2, testLogger())

	all, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Descriptor{"alice": {1, 0}}, all)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.Get(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrStoreReadCorruption)
}

func TestStore_EmptyNamespace(t *testing.T) {
	s := New(newStubHash(), "ns", 0, testLogger())

	all, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = s.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrEnrollmentNotFound)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()

	hash := newStubHash()
	hash.setErr = errors.New("READONLY You can't write against a read only replica")
	s := New(hash, "ns", 0, testLogger())

	assert.ErrorIs(t, s.Put(ctx, "alice", domain.Descriptor{1}), domain.ErrStoreWriteFailure)
	assert.ErrorIs(t, s.Put(ctx, "", domain.Descriptor{1}), domain.ErrValidationFailed)
	assert.ErrorIs(t, s.Put(ctx, "alice", nil), domain.ErrInvalidDescriptor)
	assert.ErrorIs(t, s.Put(ctx, "alice", domain.Descriptor{0, 0}), domain.ErrInvalidDescriptor)

	hash.getErr = errors.New("connection refused")
	_, err := s.LoadAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load enrollments")
}
