package domain

import "math"

// Descriptor is a face embedding produced by a descriptor extractor.
// Two descriptors are only comparable when produced by the same extractor
// configuration.
type Descriptor []float64

// Clone returns an independent copy.
func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}

// Dimension returns the number of components.
func (d Descriptor) Dimension() int {
	return len(d)
}

// IsFinite reports whether every component is a finite number.
func (d Descriptor) IsFinite() bool {
	for _, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns width × height; negative extents count as zero.
func (b BoundingBox) Area() float64 {
	return math.Max(b.Width, 0) * math.Max(b.Height, 0)
}

// Corners returns [x1, y1, x2, y2].
func (b BoundingBox) Corners() [4]float64 {
	return [4]float64{b.X, b.Y, b.X + b.Width, b.Y + b.Height}
}

// Detection is one face found by the extractor in an input image.
type Detection struct {
	Descriptor  Descriptor  `json:"-"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
}

// Enrollment associates an identity key with exactly one descriptor.
type Enrollment struct {
	IdentityKey string     `json:"identity_key"`
	Descriptor  Descriptor `json:"-"`
}

// MatchResult is the outcome of comparing a query against all enrollments.
// IdentityKey is empty when no candidate reached the threshold; Score is the
// best similarity found either way.
type MatchResult struct {
	IdentityKey         string  `json:"identity_key,omitempty"`
	Score               float64 `json:"similarity"`
	IsMatch             bool    `json:"is_match"`
	DetectionConfidence float64 `json:"detection_confidence"`
}
