// Package normalizers provides the named string normalizers used to build name fingerprints
package normalizers

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("fold_diacritics", FoldDiacritics)
	Register("remove_punctuation", RemovePunctuation)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("sort_tokens", SortTokens)
	Register("nname", NormalizeName)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// letters that survive canonical decomposition and need an explicit ASCII spelling
var foldReplacer = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
	"ł", "l", "Ł", "L",
	"ı", "i",
)

// FoldDiacritics strips combining marks (Côte d’Ivoire -> Cote d’Ivoire) and spells out
// the Latin letters that have no decomposition.
func FoldDiacritics(s string) string {
	// transform chains carry state, so one is built per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return foldReplacer.Replace(folded)
}

// RemovePunctuation replaces every rune that is not a letter or digit with a space
func RemovePunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
}

// CollapseWhitespace trims and joins whitespace-separated tokens with single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SortTokens splits on whitespace, sorts, drops duplicates and joins with single spaces
func SortTokens(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ""
	}
	sort.Strings(tokens)

	unique := tokens[:1]
	for _, tok := range tokens[1:] {
		if tok != unique[len(unique)-1] {
			unique = append(unique, tok)
		}
	}
	return strings.Join(unique, " ")
}

// NormalizeName normalizes a display name without reordering it
// - Lowercase
// - Fold diacritics and compatibility forms, then lowercase what folding produced
// - Replace punctuation with spaces
// - Collapse whitespace
func NormalizeName(s string) string {
	return ApplyChain(s, "lowercase", "fold_diacritics", "lowercase", "remove_punctuation", "collapse_whitespace")
}
