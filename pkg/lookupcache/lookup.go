package lookupcache

import (
	"context"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/owid/lc-reconcile/pkg/metrics"
	"github.com/owid/lc-reconcile/pkg/models"
)

const (
	kindSuggest = "suggest"
	kindFlyout  = "flyout"
)

// Source answers lookups the cache does not hold
type Source interface {
	Suggest(ctx context.Context, text string, limit int) ([]models.SuggestResult, error)
	GetCountryByID(ctx context.Context, id string) (*models.Country, error)
}

// Service is a read-through cache for suggest and flyout lookups. Errors from the
// source are returned as-is and never cached.
type Service struct {
	source Source
	store  Store
	logger ectologger.Logger
}

// NewService creates a lookup service. A nil store caches nothing.
func NewService(source Source, store Store, logger ectologger.Logger) *Service {
	if store == nil {
		store = NoopStore{}
	}
	return &Service{
		source: source,
		store:  store,
		logger: logger,
	}
}

// SuggestKey is the cache key for a suggest lookup
func SuggestKey(text string, limit int) string {
	return KeyPrefix + kindSuggest + ":" + strconv.Itoa(limit) + ":" + strings.ToLower(text)
}

// FlyoutKey is the cache key for a flyout lookup
func FlyoutKey(id string) string {
	return KeyPrefix + kindFlyout + ":" + id
}

// Suggest returns the names containing text
func (s *Service) Suggest(ctx context.Context, text string, limit int) ([]models.SuggestResult, error) {
	key := SuggestKey(text, limit)

	var cached []models.SuggestResult
	if s.store.Get(ctx, key, &cached) {
		metrics.LookupCacheTotal.WithLabelValues(kindSuggest, "hit").Inc()
		if cached == nil {
			cached = []models.SuggestResult{}
		}
		return cached, nil
	}
	metrics.LookupCacheTotal.WithLabelValues(kindSuggest, "miss").Inc()

	results, err := s.source.Suggest(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	s.store.Set(ctx, key, results)
	return results, nil
}

// Country returns the canonical country for a flyout
func (s *Service) Country(ctx context.Context, id string) (*models.Country, error) {
	key := FlyoutKey(id)

	var cached models.Country
	if s.store.Get(ctx, key, &cached) {
		metrics.LookupCacheTotal.WithLabelValues(kindFlyout, "hit").Inc()
		return &cached, nil
	}
	metrics.LookupCacheTotal.WithLabelValues(kindFlyout, "miss").Inc()

	country, err := s.source.GetCountryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store.Set(ctx, key, country)
	return country, nil
}

// Purge drops every cached lookup, used after the reference data changes
func (s *Service) Purge(ctx context.Context) {
	s.store.Purge(ctx)
}
