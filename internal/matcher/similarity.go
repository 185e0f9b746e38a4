// Package matcher holds the pure comparison logic: cosine similarity and the
// thresholded nearest-neighbor decision over a set of enrollments. It does no I/O.
package matcher

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Similarity calculates the cosine similarity between two descriptors.
// Returns a value between -1.0 (opposite) and 1.0 (identical).
// Empty, zero-norm or differently sized descriptors are a contract
// violation and yield domain.ErrInvalidDescriptor.
func Similarity(a, b domain.Descriptor) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, domain.ErrInvalidDescriptor.WithError(fmt.Errorf("empty descriptor (dims %d and %d)", len(a), len(b)))
	}
	if len(a) != len(b) {
		return 0, domain.ErrInvalidDescriptor.WithError(fmt.Errorf("dimension mismatch: %d != %d", len(a), len(b)))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, domain.ErrInvalidDescriptor.WithError(fmt.Errorf("zero-norm descriptor"))
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0, domain.ErrInvalidDescriptor.WithError(fmt.Errorf("non-finite descriptor component"))
	}

	// rounding can push identical vectors a hair past the mathematical range
	return math.Max(-1, math.Min(1, sim)), nil
}

// BestMatch scans every candidate and keeps the highest score. Equal scores
// resolve to the lexicographically smaller key. That rule takes the place of
// "first one seen": Go randomizes map iteration, so visiting order cannot
// pick a stable winner.
//
// The result is a match only when the best score is >= threshold. Otherwise
// IdentityKey is empty and Score still carries the best score found (0.0 for
// an empty candidate set).
func BestMatch(query domain.Descriptor, candidates map[string]domain.Descriptor, threshold float64) (domain.MatchResult, error) {
	var (
		bestKey   string
		bestScore float64
		found     bool
	)

	for key, candidate := range candidates {
		score, err := Similarity(query, candidate)
		if err != nil {
			return domain.MatchResult{}, fmt.Errorf("compare with %q: %w", key, err)
		}

		if !found || score > bestScore || (score == bestScore && key < bestKey) {
			bestKey, bestScore, found = key, score, true
		}
	}

	if !found {
		return domain.MatchResult{}, nil
	}

	if bestScore >= threshold {
		return domain.MatchResult{IdentityKey: bestKey, Score: bestScore, IsMatch: true}, nil
	}

	return domain.MatchResult{Score: bestScore}, nil
}

// Normalize returns a unit-length copy of d. Zero-norm input is returned as a copy unchanged.
func Normalize(d domain.Descriptor) domain.Descriptor {
	out := d.Clone()
	if len(out) == 0 {
		return out
	}

	var norm float64
	for _, v := range out {
		norm += v * v
	}
	if norm == 0 {
		return out
	}

	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}
