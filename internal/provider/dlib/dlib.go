//go:build dlib

// Package dlib runs face detection and description in-process with dlib
// through github.com/Kagami/go-face. Build with -tags dlib; the models
// directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat.
package dlib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/faceimage"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

var errModelNotLoaded = errors.New("recognition models not loaded")

// Extractor wraps a go-face recognizer. The recognizer is not safe for
// concurrent use, so calls are serialized.
type Extractor struct {
	modelsDir string
	logger    *slog.Logger

	mu  sync.Mutex
	rec *face.Recognizer
}

func NewExtractor(modelsDir string, logger *slog.Logger) *Extractor {
	return &Extractor{
		modelsDir: modelsDir,
		logger:    logger.With(slog.String("component", "dlib")),
	}
}

// Init loads the models. It is slow and meant to run once.
func (e *Extractor) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec != nil {
		return nil
	}

	e.logger.Info("loading face recognition models", slog.String("dir", e.modelsDir))
	rec, err := face.NewRecognizer(e.modelsDir)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	e.rec = rec
	return nil
}

func (e *Extractor) Extract(ctx context.Context, image []byte) ([]domain.Detection, error) {
	// go-face only decodes JPEG
	jpegData, err := faceimage.ToJPEG(image)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec == nil {
		return nil, errModelNotLoaded
	}

	faces, err := e.rec.Recognize(jpegData)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	detections := make([]domain.Detection, 0, len(faces))
	for _, f := range faces {
		descriptor := make(domain.Descriptor, len(f.Descriptor))
		for i, v := range f.Descriptor {
			descriptor[i] = float64(v)
		}

		rect := f.Rectangle
		detections = append(detections, domain.Detection{
			Descriptor: descriptor,
			BoundingBox: domain.BoundingBox{
				X:      float64(rect.Min.X),
				Y:      float64(rect.Min.Y),
				Width:  float64(rect.Dx()),
				Height: float64(rect.Dy()),
			},
			// the HOG detector does not expose its score
			Confidence: 1.0,
		})
	}

	return detections, nil
}

func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec != nil {
		e.rec.Close()
		e.rec = nil
	}
	return nil
}

var (
	_ provider.Extractor   = (*Extractor)(nil)
	_ provider.Initializer = (*Extractor)(nil)
	_ provider.Closer      = (*Extractor)(nil)
)
