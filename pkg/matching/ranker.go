package matching

import (
	"context"
	"fmt"
	"slices"

	"github.com/Gobusters/ectologger"

	"github.com/owid/lc-reconcile/pkg/fingerprint"
	"github.com/owid/lc-reconcile/pkg/index"
	"github.com/owid/lc-reconcile/pkg/metrics"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

// IndexSource provides the reference index snapshot to rank against
type IndexSource interface {
	Get(ctx context.Context) (*index.ReferenceIndex, error)
}

// Ranker turns a query into an ordered list of reconciliation results
type Ranker struct {
	source IndexSource
	scorer *Scorer
	logger ectologger.Logger
}

// NewRanker creates a ranker
func NewRanker(source IndexSource, scorer *Scorer, logger ectologger.Logger) *Ranker {
	if scorer == nil {
		scorer = NewScorer(AlgorithmQuickRatio)
	}
	return &Ranker{
		source: source,
		scorer: scorer,
		logger: logger,
	}
}

// Rank fingerprints the query, scores every record in its bucket and returns the
// results best first. A query with no bucket yields an empty list, not an error.
func (r *Ranker) Rank(ctx context.Context, query, queryType string) ([]models.ReconciliationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Ranker.Rank")
	defer span.End()

	idx, err := r.source.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIndexNotReady, err)
	}

	fp := fingerprint.Generate(query)
	candidates := r.score(fp, idx.Lookup(fp))
	metrics.CandidatesPerQuery.Observe(float64(len(candidates)))

	// ties keep retrieval order
	slices.SortStableFunc(candidates, func(a, b models.MatchCandidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	results := make([]models.ReconciliationResult, 0, len(candidates))
	matched := false
	for _, c := range candidates {
		res := toResult(c)
		matched = matched || res.Match
		results = append(results, res)
	}

	outcome := "empty"
	switch {
	case matched:
		outcome = "matched"
	case len(results) > 0:
		outcome = "candidates"
	}
	metrics.QueriesTotal.WithLabelValues(outcome).Inc()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"query":       query,
		"type":        queryType,
		"fingerprint": fp,
		"results":     len(results),
		"outcome":     outcome,
	}).Debug("Ranked query")

	return results, nil
}

func (r *Ranker) score(fp string, bucket []models.CanonicalRecord) []models.MatchCandidate {
	candidates := make([]models.MatchCandidate, 0, len(bucket))
	for _, rec := range bucket {
		candidates = append(candidates, models.MatchCandidate{
			Record: rec,
			Score:  r.scorer.Score(fp, fingerprint.Generate(rec.RawName)),
		})
	}
	return candidates
}

func toResult(c models.MatchCandidate) models.ReconciliationResult {
	pct := c.Score * 100
	return models.ReconciliationResult{
		ID:    c.Record.ID,
		Name:  c.Record.CanonicalName,
		Type:  []string{models.CountryQueryType.ID},
		Score: pct,
		Match: c.Record.IsCountry() && c.Score == 1.0,
		AllLabels: models.AllLabels{
			Score:    pct,
			Weighted: pct,
		},
	}
}
