// Package filestore keeps one file per identity key: <dir>/<key>.json holding
// exactly the JSON-encoded descriptor. Files are replaced atomically with a
// temp file + rename, so readers see either the old or the new record.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store"
)

const extension = ".json"

type Store struct {
	dir    string
	dim    int
	logger *slog.Logger
}

// New returns a store rooted at dir. dim > 0 makes records of any other
// dimensionality count as corrupted.
func New(dir string, dim int, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		dim:    dim,
		logger: logger.With(slog.String("component", "filestore")),
	}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Put(ctx context.Context, key string, descriptor domain.Descriptor) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := store.Check(descriptor, s.dim); err != nil {
		return err
	}

	data, err := store.Encode(descriptor)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.ErrStoreWriteFailure.WithError(fmt.Errorf("create %s: %w", s.dir, err))
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return domain.ErrStoreWriteFailure.WithError(fmt.Errorf("write %s: %w", path, err))
	}

	s.logger.Debug("enrollment written", slog.String("identity_key", key), slog.String("path", path))
	return nil
}

func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Descriptor, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("embeddings directory not found", slog.String("dir", s.dir))
		return map[string]domain.Descriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read embeddings directory: %w", err)
	}

	result := make(map[string]domain.Descriptor, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != extension {
			continue
		}
		key := strings.TrimSuffix(name, extension)

		descriptor, err := s.read(filepath.Join(s.dir, name))
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			// removed between ReadDir and ReadFile
			continue
		}
		if err != nil {
			s.logger.Warn("skipping unreadable enrollment",
				slog.String("identity_key", key),
				slog.Any("error", err),
			)
			continue
		}
		result[key] = descriptor
	}

	s.logger.Debug("enrollments loaded", slog.Int("count", len(result)))
	return result, nil
}

func (s *Store) Get(ctx context.Context, key string) (domain.Descriptor, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return s.read(path)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *Store) read(path string) (domain.Descriptor, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, domain.ErrStoreReadCorruption.WithError(err)
	}
	return store.Decode(data, s.dim)
}

// path maps a key to its file. Keys are used verbatim; anything that cannot
// be a single file name inside dir is refused rather than rewritten.
func (s *Store) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`+"\x00") {
		return "", domain.ErrValidationFailed.WithError(fmt.Errorf("identity key %q is not a valid file name", key))
	}
	return filepath.Join(s.dir, key+extension), nil
}

var _ store.EmbeddingStore = (*Store)(nil)
