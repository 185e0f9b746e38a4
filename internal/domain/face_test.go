package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptor_Clone(t *testing.T) {
	original := Descriptor{0.1, 0.2, 0.3}
	clone := original.Clone()

	clone[0] = 9
	assert.Equal(t, 0.1, original[0])
	assert.Equal(t, 3, clone.Dimension())

	var empty Descriptor
	assert.Nil(t, empty.Clone())
}

func TestDescriptor_IsFinite(t *testing.T) {
	assert.True(t, Descriptor{1, -2, 0}.IsFinite())
	assert.False(t, Descriptor{1, math.NaN()}.IsFinite())
	assert.False(t, Descriptor{math.Inf(1)}.IsFinite())
}

func TestBoundingBox_Area(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want float64
	}{
		{"regular box", BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}, 1200},
		{"zero width", BoundingBox{Width: 0, Height: 40}, 0},
		{"negative extent", BoundingBox{Width: -5, Height: 40}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.box.Area())
		})
	}
}

func TestBoundingBox_Corners(t *testing.T) {
	box := BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}
	assert.Equal(t, [4]float64{10, 20, 40, 60}, box.Corners())
}
