package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owid/lc-reconcile/pkg/index"
	"github.com/owid/lc-reconcile/pkg/models"
)

type staticSource struct {
	idx *index.ReferenceIndex
	err error
}

func (s staticSource) Get(_ context.Context) (*index.ReferenceIndex, error) {
	return s.idx, s.err
}

func newTestRanker(src IndexSource) *Ranker {
	return NewRanker(src, NewScorer(AlgorithmQuickRatio), ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func referenceIndex() *index.ReferenceIndex {
	return index.Build([]models.CanonicalRecord{
		{ID: "7", RawName: "Ivory Coast", CanonicalName: "Cote d'Ivoire", Kind: models.KindCountry},
		{ID: "7", RawName: "Côte d'Ivoire", CanonicalName: "Cote d'Ivoire", Kind: models.KindCountry},
		{ID: "301", RawName: "Coast, Ivory", CanonicalName: "Ivory Coast Region", Kind: models.KindEntity},
		{ID: "12", RawName: "Bolivia (Plurinational State of)", CanonicalName: "Bolivia", Kind: models.KindCountry},
		{ID: "404", RawName: "World", CanonicalName: "World", Kind: models.KindEntity},
	})
}

func TestRanker_ExactCountryMatch(t *testing.T) {
	r := newTestRanker(staticSource{idx: referenceIndex()})

	results, err := r.Rank(context.Background(), "ivory coast", models.CountryQueryType.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, models.ReconciliationResult{
		ID:        "7",
		Name:      "Cote d'Ivoire",
		Type:      []string{"/geo/country"},
		Score:     100,
		Match:     true,
		AllLabels: models.AllLabels{Score: 100, Weighted: 100},
	}, results[0])

	// same key, but entities never auto-match
	assert.Equal(t, "301", results[1].ID)
	assert.Equal(t, 100.0, results[1].Score)
	assert.False(t, results[1].Match)
}

func TestRanker_VariantsShareBucket(t *testing.T) {
	r := newTestRanker(staticSource{idx: referenceIndex()})

	for _, q := range []string{"Plurinational State of Bolivia", "BOLIVIA, plurinational state of", "  bolivia  (plurinational  state of) "} {
		results, err := r.Rank(context.Background(), q, models.CountryQueryType.ID)
		require.NoError(t, err, q)
		require.Len(t, results, 1, q)
		assert.Equal(t, "12", results[0].ID)
		assert.True(t, results[0].Match)
	}
}

func TestRanker_EntityOnly(t *testing.T) {
	r := newTestRanker(staticSource{idx: referenceIndex()})

	results, err := r.Rank(context.Background(), "world", "/geo/country")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 100.0, results[0].Score)
	assert.False(t, results[0].Match)
}

func TestRanker_NoBucket(t *testing.T) {
	r := newTestRanker(staticSource{idx: referenceIndex()})

	for _, q := range []string{"Atlantis", "", "?!"} {
		results, err := r.Rank(context.Background(), q, models.CountryQueryType.ID)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestRanker_Deterministic(t *testing.T) {
	r := newTestRanker(staticSource{idx: referenceIndex()})

	first, err := r.Rank(context.Background(), "Coast Ivory", models.CountryQueryType.ID)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Rank(context.Background(), "Coast Ivory", models.CountryQueryType.ID)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRanker_IndexUnavailable(t *testing.T) {
	storeErr := errors.Join(models.ErrStoreUnavailable, errors.New("dial tcp: connection refused"))
	r := newTestRanker(staticSource{err: storeErr})

	results, err := r.Rank(context.Background(), "ivory coast", models.CountryQueryType.ID)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, models.ErrIndexNotReady)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}
