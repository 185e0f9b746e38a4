package deepface

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestExtractor_Extract(t *testing.T) {
	confidence := 0.93
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RepresentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, strings.HasPrefix(req.Img, "data:image/jpeg;base64,"), req.Img)

		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{0.1, 0.2}, FacialArea: FacialArea{X: 5, Y: 6, W: 100, H: 120}, FaceConfidence: &confidence},
			{Embedding: []float64{0.3, 0.4}, FacialArea: FacialArea{X: 200, Y: 10, W: 20, H: 20}},
		}})
	}))
	defer server.Close()

	e := NewExtractor(testConfig(server.URL), testLogger())
	detections, err := e.Extract(context.Background(), jpegHeader)
	require.NoError(t, err)
	require.Len(t, detections, 2)

	assert.Equal(t, domain.Descriptor{0.1, 0.2}, detections[0].Descriptor)
	assert.Equal(t, domain.BoundingBox{X: 5, Y: 6, Width: 100, Height: 120}, detections[0].BoundingBox)
	assert.InDelta(t, 0.93, detections[0].Confidence, 1e-9)

	// no reported confidence: small faces get the low estimate
	assert.InDelta(t, 0.5, detections[1].Confidence, 1e-9)
}

func TestExtractor_NoFaceIsEmptyNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Exception while representing: Face could not be detected in numpy array.",
		})
	}))
	defer server.Close()

	e := NewExtractor(testConfig(server.URL), testLogger())
	detections, err := e.Extract(context.Background(), jpegHeader)
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestExtractor_OtherClientErrorsPropagate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "you must pass img as base64 encoded string"})
	}))
	defer server.Close()

	e := NewExtractor(testConfig(server.URL), testLogger())
	_, err := e.Extract(context.Background(), jpegHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "represent")
}

func TestExtractor_Init(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	e := NewExtractor(testConfig(server.URL), testLogger())
	assert.NoError(t, e.Init(context.Background()))

	server.Close()
	assert.ErrorIs(t, e.Init(context.Background()), ErrDeepFaceUnavailable)
}

func TestEstimateConfidence(t *testing.T) {
	assert.Equal(t, 0.5, estimateConfidence(100))
	assert.InDelta(t, 0.7, estimateConfidence(minFaceArea), 1e-9)
	assert.InDelta(t, 0.99, estimateConfidence(maxFaceArea*4), 1e-9)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.2))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.4, clamp01(0.4))
}
