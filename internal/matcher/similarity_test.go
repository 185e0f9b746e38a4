package matcher

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// unitAt returns a 2-d unit vector whose cosine with (1, 0) equals score.
func unitAt(score float64) domain.Descriptor {
	return domain.Descriptor{score, math.Sqrt(1 - score*score)}
}

func randomDescriptor(r *rand.Rand, dim int) domain.Descriptor {
	d := make(domain.Descriptor, dim)
	for i := range d {
		d[i] = r.Float64()*2 - 1
	}
	return d
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    domain.Descriptor
		want    float64
		wantErr error
	}{
		{
			name: "identical vectors",
			a:    domain.Descriptor{1, 2, 3},
			b:    domain.Descriptor{1, 2, 3},
			want: 1.0,
		},
		{
			name: "scaled vectors",
			a:    domain.Descriptor{1, 2, 3},
			b:    domain.Descriptor{2, 4, 6},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    domain.Descriptor{1, 0},
			b:    domain.Descriptor{0, 1},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			a:    domain.Descriptor{1, 0},
			b:    domain.Descriptor{-1, 0},
			want: -1.0,
		},
		{
			name:    "dimension mismatch",
			a:       domain.Descriptor{1, 0, 0},
			b:       domain.Descriptor{1, 0},
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "empty descriptor",
			a:       domain.Descriptor{},
			b:       domain.Descriptor{},
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "zero norm",
			a:       domain.Descriptor{0, 0},
			b:       domain.Descriptor{1, 0},
			wantErr: domain.ErrInvalidDescriptor,
		},
		{
			name:    "NaN component",
			a:       domain.Descriptor{math.NaN(), 1},
			b:       domain.Descriptor{1, 0},
			wantErr: domain.ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Similarity(tt.a, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSimilarity_SelfIsOne(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := randomDescriptor(r, 512)
		got, err := Similarity(a, a)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-9)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		a := randomDescriptor(r, 128)
		b := randomDescriptor(r, 128)

		ab, err := Similarity(a, b)
		require.NoError(t, err)
		ba, err := Similarity(b, a)
		require.NoError(t, err)

		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, -1.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
}

func TestBestMatch(t *testing.T) {
	query := domain.Descriptor{1, 0}
	candidates := map[string]domain.Descriptor{
		"A": unitAt(0.9),
		"B": unitAt(0.95),
	}

	tests := []struct {
		name       string
		candidates map[string]domain.Descriptor
		threshold  float64
		wantKey    string
		wantScore  float64
		wantMatch  bool
	}{
		{
			name:       "empty candidate set",
			candidates: map[string]domain.Descriptor{},
			threshold:  0.4,
			wantScore:  0.0,
		},
		{
			name:       "nil candidate set",
			candidates: nil,
			threshold:  0.4,
			wantScore:  0.0,
		},
		{
			name:       "best candidate above threshold",
			candidates: candidates,
			threshold:  0.4,
			wantKey:    "B",
			wantScore:  0.95,
			wantMatch:  true,
		},
		{
			name:       "best score reported on reject",
			candidates: candidates,
			threshold:  0.97,
			wantScore:  0.95,
		},
		{
			name:       "score equal to threshold accepts",
			candidates: map[string]domain.Descriptor{"A": unitAt(0.5)},
			threshold:  0.5,
			wantKey:    "A",
			wantScore:  0.5,
			wantMatch:  true,
		},
		{
			name: "all candidates dissimilar",
			candidates: map[string]domain.Descriptor{
				"A": {-1, 0},
				"B": {0, -1},
			},
			threshold: 0.4,
			wantScore: 0.0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := BestMatch(query, tt.candidates, tt.threshold)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKey, got.IdentityKey)
			assert.Equal(t, tt.wantMatch, got.IsMatch)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
		})
	}
}

func TestBestMatch_TiesResolveDeterministically(t *testing.T) {
	query := domain.Descriptor{1, 0}
	same := unitAt(0.8)
	candidates := map[string]domain.Descriptor{
		"zeta":  same,
		"alpha": same,
		"mu":    same,
	}

	for i := 0; i < 50; i++ {
		got, err := BestMatch(query, candidates, 0.4)
		require.NoError(t, err)
		assert.Equal(t, "alpha", got.IdentityKey)
	}
}

func TestBestMatch_NeverBelowThreshold(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		candidates := make(map[string]domain.Descriptor)
		for j := 0; j < 20; j++ {
			candidates[string(rune('a'+j))] = randomDescriptor(r, 16)
		}
		query := randomDescriptor(r, 16)
		threshold := r.Float64()

		got, err := BestMatch(query, candidates, threshold)
		require.NoError(t, err)

		if got.IsMatch {
			assert.GreaterOrEqual(t, got.Score, threshold)
			assert.NotEmpty(t, got.IdentityKey)
		} else {
			assert.Empty(t, got.IdentityKey)
			assert.Less(t, got.Score, threshold)
		}
	}
}

func TestBestMatch_InvalidCandidateFails(t *testing.T) {
	candidates := map[string]domain.Descriptor{
		"short": {1, 0, 0},
	}

	_, err := BestMatch(domain.Descriptor{1, 0}, candidates, 0.4)
	assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
	assert.Contains(t, err.Error(), "short")
}

func TestNormalize(t *testing.T) {
	got := Normalize(domain.Descriptor{3, 4})
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, []float64(got), 1e-12)

	zero := domain.Descriptor{0, 0}
	assert.Equal(t, zero, Normalize(zero))

	original := domain.Descriptor{3, 4}
	_ = Normalize(original)
	assert.Equal(t, domain.Descriptor{3, 4}, original)
}
