package faceimage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio"
	"github.com/nfnt/resize"
)

const timestampLayout = "20060102_150405"

// Archive keeps a copy of every registration photo as
// <dir>/<key>_<YYYYMMDD_HHMMSS>.jpg, downscaled to fit maxSide.
type Archive struct {
	dir     string
	maxSide uint
	logger  *slog.Logger
	now     func() time.Time
}

func NewArchive(dir string, maxSide uint, logger *slog.Logger) *Archive {
	return &Archive{
		dir:     dir,
		maxSide: maxSide,
		logger:  logger.With(slog.String("component", "archive")),
		now:     time.Now,
	}
}

// Save writes the photo and returns its path.
func (a *Archive) Save(key string, data []byte) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`+"\x00") || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("identity key %q is not a valid file name", key)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode photo: %w", err)
	}

	if a.maxSide > 0 {
		img = resize.Thumbnail(a.maxSide, a.maxSide, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", a.dir, err)
	}

	path := filepath.Join(a.dir, fmt.Sprintf("%s_%s.jpg", key, a.now().Format(timestampLayout)))
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

// SaveBestEffort is Save for callers that must not fail on archive errors.
func (a *Archive) SaveBestEffort(key string, data []byte) {
	path, err := a.Save(key, data)
	if err != nil {
		a.logger.Warn("registration photo not archived",
			slog.String("identity_key", key),
			slog.Any("error", err),
		)
		return
	}
	a.logger.Debug("registration photo archived", slog.String("path", path))
}
