// Package fingerprint derives the bucket keys used to group name variants.
//
// A fingerprint is lowercased, folded to ASCII where possible, stripped of punctuation and
// reduced to its sorted set of tokens, so "Bolivia, Plurinational State of" and
// "Plurinational State of Bolivia" share one key.
package fingerprint

import (
	"strings"

	"github.com/owid/lc-reconcile/pkg/normalizers"
)

// folding can surface new capitals (ℌ -> H), so case is folded on both sides of it
var chain = []string{"lowercase", "fold_diacritics", "lowercase", "remove_punctuation", "sort_tokens"}

// Generate creates the fingerprint for a name. It never fails; input with no letters
// or digits yields the empty fingerprint.
func Generate(name string) string {
	return normalizers.ApplyChain(name, chain...)
}

// GenerateDisplay cleans a name the same way as Generate but keeps word order
func GenerateDisplay(name string) string {
	return normalizers.NormalizeName(name)
}

// Tokens returns the sorted, de-duplicated tokens of a name's fingerprint
func Tokens(name string) []string {
	fp := Generate(name)
	if fp == "" {
		return nil
	}
	return strings.Split(fp, " ")
}

// Equal reports whether two names share a fingerprint
func Equal(a, b string) bool {
	return Generate(a) == Generate(b)
}
