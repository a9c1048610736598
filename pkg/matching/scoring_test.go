package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", AlgorithmQuickRatio, false},
		{"quick_ratio", AlgorithmQuickRatio, false},
		{" Jaro_Winkler ", AlgorithmJaroWinkler, false},
		{"levenshtein", AlgorithmLevenshtein, false},
		{"soundex", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuickRatio(t *testing.T) {
	assert.Equal(t, 1.0, QuickRatio("", ""))
	assert.Equal(t, 0.0, QuickRatio("abc", ""))
	assert.Equal(t, 0.0, QuickRatio("abc", "xyz"))
	assert.Equal(t, 0.75, QuickRatio("abcd", "bcde"))
	assert.Equal(t, 1.0, QuickRatio("ab", "ba"))
	// repeated characters only match as often as they occur on both sides
	assert.InDelta(t, 2.0*2/7, QuickRatio("aaaa", "aab"), 1e-9)
}

func TestScorer_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"coast ivory", "coast ivory"},
		{"coast ivory", "cote d ivoire"},
		{"ab", "ba"},
		{"bolivia", "xyz"},
		{"", "korea"},
		{"", ""},
	}

	for _, algo := range []Algorithm{AlgorithmQuickRatio, AlgorithmJaroWinkler, AlgorithmLevenshtein} {
		s := NewScorer(algo)
		t.Run(string(algo), func(t *testing.T) {
			for _, p := range pairs {
				score := s.Score(p[0], p[1])
				assert.GreaterOrEqual(t, score, 0.0, "%q vs %q", p[0], p[1])
				assert.LessOrEqual(t, score, 1.0, "%q vs %q", p[0], p[1])
				if p[0] == p[1] {
					assert.Equal(t, 1.0, score, "%q vs %q", p[0], p[1])
				} else {
					assert.Less(t, score, 1.0, "%q vs %q", p[0], p[1])
				}
			}
		})
	}
}

func TestScorer_QuickRatio(t *testing.T) {
	s := NewScorer("")
	assert.Equal(t, AlgorithmQuickRatio, s.Algorithm())

	assert.Equal(t, 0.0, s.Score("abc", "xyz"))
	assert.Equal(t, 0.0, s.Score("korea", ""))
	assert.Equal(t, 0.75, s.Score("abcd", "bcde"))

	// an anagram has full overlap but is not the same string
	anagram := s.Score("ab", "ba")
	assert.Less(t, anagram, 1.0)
	assert.InDelta(t, 1.0, anagram, 1e-9)
}

func TestScorer_Levenshtein(t *testing.T) {
	s := NewScorer(AlgorithmLevenshtein)
	assert.InDelta(t, 1-3.0/7, s.Score("kitten", "sitting"), 1e-3)
}

func TestScorer_JaroWinkler(t *testing.T) {
	s := NewScorer(AlgorithmJaroWinkler)
	score := s.Score("martha", "marhta")
	assert.Greater(t, score, 0.9)
	assert.Less(t, score, 1.0)
}
