// Package matching scores and ranks reference records against a free-text query.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Algorithm names a similarity measure
type Algorithm string

const (
	// AlgorithmQuickRatio is the multiset character overlap 2*M/T
	AlgorithmQuickRatio Algorithm = "quick_ratio"
	// AlgorithmJaroWinkler is the Jaro-Winkler similarity
	AlgorithmJaroWinkler Algorithm = "jaro_winkler"
	// AlgorithmLevenshtein is one minus the normalized Levenshtein distance
	AlgorithmLevenshtein Algorithm = "levenshtein"
)

// below is the largest score a non-identical pair can get
var below = math.Nextafter(1, 0)

// ParseAlgorithm validates an algorithm name. An empty name selects quick_ratio.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", AlgorithmQuickRatio:
		return AlgorithmQuickRatio, nil
	case AlgorithmJaroWinkler:
		return AlgorithmJaroWinkler, nil
	case AlgorithmLevenshtein:
		return AlgorithmLevenshtein, nil
	default:
		return "", fmt.Errorf("unknown similarity algorithm %q (expected quick_ratio, jaro_winkler or levenshtein)", name)
	}
}

// Scorer computes a similarity in [0,1] between two fingerprinted strings.
//
// Whatever the algorithm, identical inputs score exactly 1.0 and different inputs score
// strictly less, so the exact-match verdict only ever depends on string equality.
type Scorer struct {
	algorithm Algorithm
}

// NewScorer creates a scorer for the given algorithm
func NewScorer(algorithm Algorithm) *Scorer {
	if algorithm == "" {
		algorithm = AlgorithmQuickRatio
	}
	return &Scorer{algorithm: algorithm}
}

// Algorithm returns the configured algorithm
func (s *Scorer) Algorithm() Algorithm {
	return s.algorithm
}

// Score returns the similarity of a and b
func (s *Scorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	var score float64
	switch s.algorithm {
	case AlgorithmJaroWinkler:
		score = edlibSimilarity(a, b, edlib.JaroWinkler)
	case AlgorithmLevenshtein:
		score = edlibSimilarity(a, b, edlib.Levenshtein)
	default:
		score = QuickRatio(a, b)
	}

	switch {
	case math.IsNaN(score) || score < 0:
		return 0.0
	case score >= 1:
		return below
	}
	return score
}

// QuickRatio is the upper bound on the matching-block ratio: twice the size of the
// multiset intersection of the two rune sequences over their combined length.
// Two empty strings score 1.0.
func QuickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}

	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2.0 * float64(matches) / float64(total)
}

func edlibSimilarity(a, b string, algo edlib.Algorithm) float64 {
	score, err := edlib.StringsSimilarity(a, b, algo)
	if err != nil {
		return 0.0
	}
	return float64(score)
}
