// Package index holds the in-memory reference index: canonical records bucketed by the
// fingerprint of their raw name.
package index

import (
	"slices"
	"time"

	"github.com/owid/lc-reconcile/pkg/fingerprint"
	"github.com/owid/lc-reconcile/pkg/models"
)

// ReferenceIndex is an immutable snapshot of the reference data. A snapshot is never
// modified after Build returns; reloads replace the whole snapshot.
type ReferenceIndex struct {
	buckets    map[string][]models.CanonicalRecord
	records    int
	countries  int
	entities   int
	skipped    int
	generation uint64
	builtAt    time.Time
	loadTime   time.Duration
}

// Build buckets records by fingerprint, preserving retrieval order inside each bucket.
// Records whose raw name has an empty fingerprint cannot be looked up and are skipped.
func Build(records []models.CanonicalRecord) *ReferenceIndex {
	idx := &ReferenceIndex{
		buckets: make(map[string][]models.CanonicalRecord),
		builtAt: time.Now(),
	}

	for _, r := range records {
		fp := fingerprint.Generate(r.RawName)
		if fp == "" {
			idx.skipped++
			continue
		}

		idx.buckets[fp] = append(idx.buckets[fp], r)
		idx.records++
		if r.IsCountry() {
			idx.countries++
		} else {
			idx.entities++
		}
	}

	return idx
}

// Lookup returns a copy of the bucket for a fingerprint, or nil when there is none
func (idx *ReferenceIndex) Lookup(fp string) []models.CanonicalRecord {
	if fp == "" {
		return nil
	}
	return slices.Clone(idx.buckets[fp])
}

// Len returns the number of indexed records
func (idx *ReferenceIndex) Len() int {
	return idx.records
}

// Buckets returns the number of distinct fingerprints
func (idx *ReferenceIndex) Buckets() int {
	return len(idx.buckets)
}

// Skipped returns the number of records left out because their name has no fingerprint
func (idx *ReferenceIndex) Skipped() int {
	return idx.skipped
}

// Generation identifies which load produced this snapshot
func (idx *ReferenceIndex) Generation() uint64 {
	return idx.generation
}

// Stats summarizes the snapshot
func (idx *ReferenceIndex) Stats() models.IndexStats {
	return models.IndexStats{
		Loaded:      true,
		Generation:  idx.generation,
		Records:     idx.records,
		Buckets:     len(idx.buckets),
		Countries:   idx.countries,
		Entities:    idx.entities,
		BuiltAt:     idx.builtAt,
		LoadSeconds: idx.loadTime.Seconds(),
	}
}
