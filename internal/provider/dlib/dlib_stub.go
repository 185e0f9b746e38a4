//go:build !dlib

package dlib

import (
	"context"
	"errors"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// ErrNotCompiled is returned when the binary was built without -tags dlib.
var ErrNotCompiled = errors.New("dlib extractor not compiled in (build with -tags dlib)")

type Extractor struct{}

func NewExtractor(modelsDir string, logger *slog.Logger) *Extractor {
	return &Extractor{}
}

func (e *Extractor) Init(ctx context.Context) error {
	return ErrNotCompiled
}

func (e *Extractor) Extract(ctx context.Context, image []byte) ([]domain.Detection, error) {
	return nil, ErrNotCompiled
}

func (e *Extractor) Close() error {
	return nil
}
