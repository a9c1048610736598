package models

import (
	"fmt"
	"strings"
)

// Kind distinguishes reference countries from the looser entity list
type Kind string

const (
	KindCountry Kind = "country" // Canonical country, eligible for an automatic match
	KindEntity  Kind = "entity"  // Free-form entity (regions, groupings); never auto-matched
)

// ParseKind converts a stored kind value into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCountry:
		return KindCountry, nil
	case KindEntity:
		return KindEntity, nil
	default:
		return "", fmt.Errorf("unknown record kind %q", s)
	}
}

// CanonicalRecord is one name variant pointing at its canonical display name.
// Records are immutable once loaded into a reference index.
type CanonicalRecord struct {
	ID            string `json:"id" db:"id"`
	RawName       string `json:"raw_name" db:"raw_name"`
	CanonicalName string `json:"canonical_name" db:"canonical_name"`
	Kind          Kind   `json:"kind" db:"kind"`
}

// IsCountry reports whether the record can produce an automatic match
func (r CanonicalRecord) IsCountry() bool {
	return r.Kind == KindCountry
}

// MatchCandidate is a record scored against a single query
type MatchCandidate struct {
	Record CanonicalRecord
	Score  float64 // 0.0-1.0
}
