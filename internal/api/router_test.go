package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/faceimage"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store/memstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                8001,
		AllowedOrigins:      "*",
		RateLimitMax:        100,
		RateLimitWindow:     time.Minute,
		SimilarityThreshold: service.DefaultThreshold,
	}
}

// facePNG draws a distinct gradient per seed so each seed yields its own descriptor
func facePNG(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x) + seed, G: uint8(y), B: seed, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path, employeeID string, img []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if employeeID != "" {
		require.NoError(t, writer.WriteField("employee_id", employeeID))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="face.png"`)
	h.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write(img)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type testServer struct {
	router  *Router
	runtime *provider.Runtime
}

func newTestServer(t *testing.T, cfg *config.Config, initialized bool) *testServer {
	t.Helper()
	logger := testLogger()

	runtime := provider.NewRuntime(mock.New(0), logger)
	if initialized {
		require.NoError(t, runtime.Init(context.Background()))
	}

	svc := service.NewMatchingService(runtime, memstore.New(mock.DefaultDimension), logger).
		WithThreshold(cfg.SimilarityThreshold)

	router := NewRouter(logger, cfg, &Dependencies{
		Service:   svc,
		Readiness: runtime,
		Limits:    faceimage.DefaultLimits(),
	})
	router.Setup()
	t.Cleanup(func() { _ = router.Shutdown() })

	return &testServer{router: router, runtime: runtime}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := s.router.App().Test(req, -1)
	require.NoError(t, err)

	var body map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp, body
}

func TestRouter_RegisterThenRecognize(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)
	alice := facePNG(t, 1)
	stranger := facePNG(t, 200)

	resp, body := srv.do(t, uploadRequest(t, "/api/face/register", "EMP001", alice))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "EMP001", body["employee_id"])
	assert.Len(t, body["bbox"], 4)

	resp, body = srv.do(t, uploadRequest(t, "/recognize", "", alice))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "EMP001", body["employee_id"])
	assert.Equal(t, "EMP001", body["nik"])
	assert.InDelta(t, 1.0, body["similarity"], 1e-9)

	resp, body = srv.do(t, uploadRequest(t, "/recognize", "", stranger))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Less(t, body["similarity"], service.DefaultThreshold)

	resp, body = srv.do(t, httptest.NewRequest("GET", "/api/face/EMP001", nil))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["registered"])
	assert.EqualValues(t, mock.DefaultDimension, body["dimension"])

	resp, _ = srv.do(t, httptest.NewRequest("GET", "/api/face/EMP999", nil))
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRouter_RecognizeWithNoEnrollments(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)

	resp, body := srv.do(t, uploadRequest(t, "/recognize", "", facePNG(t, 1)))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.EqualValues(t, 0, body["similarity"])
}

func TestRouter_NotReady(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	resp, _ := srv.do(t, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, 503, resp.StatusCode)

	resp, body := srv.do(t, uploadRequest(t, "/recognize", "", facePNG(t, 1)))
	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, "EXTRACTOR_NOT_READY", body["error"].(map[string]any)["code"])

	require.NoError(t, srv.runtime.Init(context.Background()))

	resp, body = srv.do(t, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, 200, resp.StatusCode)
	assert.EqualValues(t, 0, body["enrolled"])
}

func TestRouter_Probes(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)

	resp, body := srv.do(t, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Face Recognition API Running", body["message"])

	resp, body = srv.do(t, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, handler.Version, body["version"])

	resp, _ = srv.do(t, httptest.NewRequest("GET", "/nonexistent", nil))
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRouter_APIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "s3cret"
	srv := newTestServer(t, cfg, true)

	resp, body := srv.do(t, uploadRequest(t, "/recognize", "", facePNG(t, 1)))
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	req := uploadRequest(t, "/recognize", "", facePNG(t, 1))
	req.Header.Set("X-API-Key", "s3cret")
	resp, _ = srv.do(t, req)
	assert.Equal(t, 200, resp.StatusCode)

	// probes stay open
	resp, _ = srv.do(t, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMax = 1
	srv := newTestServer(t, cfg, true)

	resp, _ := srv.do(t, httptest.NewRequest("GET", "/api/face/EMP001", nil))
	assert.Equal(t, 404, resp.StatusCode)

	resp, body := srv.do(t, httptest.NewRequest("GET", "/api/face/EMP001", nil))
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"].(map[string]any)["code"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRouter_RequestIDHeader(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)

	resp, _ := srv.do(t, httptest.NewRequest("GET", "/health", nil))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
