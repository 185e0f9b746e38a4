// Package faceimage validates uploaded stills before they reach an extractor
// and archives registration photos.
package faceimage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

const (
	DefaultMaxBytes  = 5 * 1024 * 1024
	DefaultMinSide   = 50
	DefaultMaxPixels = 40_000_000
	jpegQuality      = 90
)

// Limits bounds what an upload may look like.
type Limits struct {
	MaxBytes int64
	MinSide  int
	// MaxPixels caps width*height; compressed formats can declare far more
	// pixels than MaxBytes suggests.
	MaxPixels int64
}

func DefaultLimits() Limits {
	return Limits{MaxBytes: DefaultMaxBytes, MinSide: DefaultMinSide, MaxPixels: DefaultMaxPixels}
}

// Validate checks the declared content type, size and decodability of data.
// An empty contentType is sniffed from the bytes. Pixel dimensions are read
// from the header and checked before anything is decoded.
func (l Limits) Validate(data []byte, contentType string) (image.Config, error) {
	if len(data) == 0 {
		return image.Config{}, domain.ErrInvalidImage.WithError(fmt.Errorf("empty image"))
	}
	if l.MaxBytes > 0 && int64(len(data)) > l.MaxBytes {
		return image.Config{}, domain.ErrInvalidImage.WithError(fmt.Errorf("image is %d bytes, limit %d", len(data), l.MaxBytes))
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return image.Config{}, domain.ErrInvalidImage.WithError(fmt.Errorf("content type %q is not an image", contentType))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, domain.ErrInvalidImage.WithError(fmt.Errorf("decode header: %w", err))
	}

	if cfg.Width < l.MinSide || cfg.Height < l.MinSide {
		return image.Config{}, domain.ErrInvalidImage.WithError(fmt.Errorf("%s image is %dx%d, minimum side %d", format, cfg.Width, cfg.Height, l.MinSide))
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); l.MaxPixels > 0 && pixels > l.MaxPixels {
		return image.Config{}, domain.ErrInvalidImage.WithError(fmt.Errorf("%s image is %dx%d, limit %d pixels", format, cfg.Width, cfg.Height, l.MaxPixels))
	}

	// truncated or corrupt pixel data only shows up on a full decode
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return image.Config{}, domain.ErrInvalidImage.WithError(fmt.Errorf("decode: %w", err))
	}

	return cfg, nil
}

// ToJPEG returns data unchanged when it already is a JPEG and re-encodes
// any other supported format.
func ToJPEG(data []byte) ([]byte, error) {
	if http.DetectContentType(data) == "image/jpeg" {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("decode: %w", err))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
