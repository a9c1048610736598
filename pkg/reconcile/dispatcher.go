// Package reconcile answers OpenRefine reconciliation calls: the service metadata document
// and batches of keyed queries.
package reconcile

import (
	"context"
	"fmt"
	"slices"

	"github.com/Gobusters/ectologger"

	"github.com/owid/lc-reconcile/pkg/metrics"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

// Ranker ranks a single query
type Ranker interface {
	Rank(ctx context.Context, query, queryType string) ([]models.ReconciliationResult, error)
}

// MetadataConfig describes how the service advertises itself
type MetadataConfig struct {
	Name              string
	IdentifierSpace   string
	SchemaSpace       string
	ViewURL           string
	ServiceURL        string
	SuggestPath       string
	FlyoutPath        string
	DefaultQueryTypes []models.QueryType
}

// DefaultMetadataConfig returns the metadata of a locally running service
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		Name:              "OWID Country Reconciliation Service",
		IdentifierSpace:   "http://localhost/identifier",
		SchemaSpace:       "http://localhost/schema",
		ViewURL:           "{{id}}",
		ServiceURL:        "http://localhost:5000",
		SuggestPath:       "/suggest/entity",
		FlyoutPath:        "/flyout/entity?id=${id}",
		DefaultQueryTypes: []models.QueryType{models.CountryQueryType},
	}
}

// Dispatcher routes a reconcile call to either the metadata document or the ranker
type Dispatcher struct {
	ranker   Ranker
	metadata models.ServiceMetadata
	logger   ectologger.Logger
}

// NewDispatcher creates a dispatcher. Empty metadata fields fall back to DefaultMetadataConfig.
func NewDispatcher(ranker Ranker, cfg MetadataConfig, logger ectologger.Logger) *Dispatcher {
	def := DefaultMetadataConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.IdentifierSpace == "" {
		cfg.IdentifierSpace = def.IdentifierSpace
	}
	if cfg.SchemaSpace == "" {
		cfg.SchemaSpace = def.SchemaSpace
	}
	if cfg.ViewURL == "" {
		cfg.ViewURL = def.ViewURL
	}
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = def.ServiceURL
	}
	if cfg.SuggestPath == "" {
		cfg.SuggestPath = def.SuggestPath
	}
	if cfg.FlyoutPath == "" {
		cfg.FlyoutPath = def.FlyoutPath
	}
	if len(cfg.DefaultQueryTypes) == 0 {
		cfg.DefaultQueryTypes = def.DefaultQueryTypes
	}

	return &Dispatcher{
		ranker: ranker,
		metadata: models.ServiceMetadata{
			Name:            cfg.Name,
			DefaultTypes:    slices.Clone(cfg.DefaultQueryTypes),
			IdentifierSpace: cfg.IdentifierSpace,
			SchemaSpace:     cfg.SchemaSpace,
			View:            models.View{URL: cfg.ViewURL},
			Suggest: models.Suggest{
				Entity: models.SuggestService{
					ServicePath:       cfg.SuggestPath,
					ServiceURL:        cfg.ServiceURL,
					FlyoutServicePath: cfg.FlyoutPath,
				},
			},
		},
		logger: logger,
	}
}

// Metadata returns the service metadata document
func (d *Dispatcher) Metadata() models.ServiceMetadata {
	m := d.metadata
	m.DefaultTypes = slices.Clone(m.DefaultTypes)
	return m
}

// Dispatch answers a batch. Without a batch (nil), or when any query has no type, the whole
// call answers with the metadata document. Otherwise every key maps to its ranked results;
// an empty batch answers with an empty mapping.
// A ranking failure fails the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, queries map[string]models.ReconciliationQuery) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Dispatcher.Dispatch")
	defer span.End()

	log := d.logger.WithContext(ctx)

	if queries == nil {
		metrics.BatchesTotal.WithLabelValues("metadata").Inc()
		return d.Metadata(), nil
	}

	for key, q := range queries {
		if !q.HasType() {
			log.WithFields(map[string]any{
				"key":     key,
				"queries": len(queries),
			}).Info("Query without type, answering with service metadata")
			metrics.BatchesTotal.WithLabelValues("metadata").Inc()
			return d.Metadata(), nil
		}
	}

	out := make(map[string]models.BatchResult, len(queries))
	for key, q := range queries {
		results, err := d.ranker.Rank(ctx, q.Query, *q.Type)
		if err != nil {
			metrics.BatchesTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("failed to reconcile query %q: %w", key, err)
		}
		if q.Limit > 0 && len(results) > q.Limit {
			results = results[:q.Limit]
		}
		out[key] = models.BatchResult{Result: results}
	}

	metrics.BatchesTotal.WithLabelValues("results").Inc()
	log.WithField("queries", len(queries)).Debug("Reconciled batch")
	return out, nil
}
