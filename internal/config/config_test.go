package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
		check   func(*testing.T, *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 8001, c.Port)
				assert.Equal(t, "development", c.Environment)
				assert.Equal(t, StoreFile, c.StoreBackend)
				assert.Equal(t, filepath.Join("data", "embeddings"), c.EmbeddingsDir)
				assert.Equal(t, filepath.Join("data", "faces"), c.FacesDir)
				assert.Equal(t, ProviderDeepFace, c.ProviderType)
				assert.Equal(t, 0.4, c.SimilarityThreshold)
				assert.Equal(t, 0.0, c.MinFaceConfidence)
				assert.Equal(t, int64(5*1024*1024), c.MaxFileSize)
				assert.Equal(t, int64(40_000_000), c.MaxImagePixels)
				assert.Equal(t, time.Minute, c.RateLimitWindow)
				assert.Equal(t, 512, c.Dimension())
			},
		},
		{
			name: "explicit values",
			envVars: map[string]string{
				"PORT":                 "9000",
				"ENV":                  "production",
				"STORE_BACKEND":        "postgres",
				"DATABASE_URL":         "postgres://localhost/facematch",
				"DATA_DIR":             "/var/lib/facematch",
				"FACES_DIR":            "/srv/photos",
				"PROVIDER_TYPE":        "dlib",
				"SIMILARITY_THRESHOLD": "0.55",
				"RATE_LIMIT_WINDOW":    "30s",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 9000, c.Port)
				assert.True(t, c.IsProduction())
				assert.Equal(t, "/var/lib/facematch/embeddings", c.EmbeddingsDir)
				assert.Equal(t, "/srv/photos", c.FacesDir)
				assert.Equal(t, 0.55, c.SimilarityThreshold)
				assert.Equal(t, 128, c.Dimension())
				assert.Equal(t, 30*time.Second, c.RateLimitWindow)
			},
		},
		{
			name:    "threshold out of range",
			envVars: map[string]string{"SIMILARITY_THRESHOLD": "1.5"},
			wantErr: "SIMILARITY_THRESHOLD",
		},
		{
			name:    "zero threshold",
			envVars: map[string]string{"SIMILARITY_THRESHOLD": "0"},
			wantErr: "SIMILARITY_THRESHOLD",
		},
		{
			name:    "postgres without url",
			envVars: map[string]string{"STORE_BACKEND": "postgres"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown backend",
			envVars: map[string]string{"STORE_BACKEND": "s3"},
			wantErr: "STORE_BACKEND",
		},
		{
			name:    "unknown provider",
			envVars: map[string]string{"PROVIDER_TYPE": "rekognition"},
			wantErr: "PROVIDER_TYPE",
		},
		{
			name:    "malformed number",
			envVars: map[string]string{"PORT": "eighty"},
			wantErr: "load config",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_Dimension(t *testing.T) {
	assert.Equal(t, 512, (&Config{ProviderType: ProviderMock}).Dimension())
	assert.Equal(t, 128, (&Config{ProviderType: ProviderDlib}).Dimension())
	assert.Equal(t, 2048, (&Config{ProviderType: ProviderDlib, DescriptorDim: 2048}).Dimension())
}

func TestConfig_Origins(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "*", want: "*"},
		{in: "", want: "*"},
		{in: "https://a.example, https://b.example ,", want: "https://a.example,https://b.example"},
	}

	for _, tt := range tests {
		c := &Config{AllowedOrigins: tt.in}
		assert.Equal(t, tt.want, c.Origins(), "input %q", tt.in)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			assert.Equal(t, tt.want, c.IsDevelopment())
		})
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewLogger("production", "").Handler().Enabled(ctx, slog.LevelInfo))
	assert.False(t, NewLogger("production", "").Handler().Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewLogger("development", "").Handler().Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("development", "warn").Handler().Enabled(ctx, slog.LevelInfo))
}
