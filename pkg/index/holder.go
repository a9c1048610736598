package index

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/singleflight"

	"github.com/owid/lc-reconcile/pkg/metrics"
	"github.com/owid/lc-reconcile/pkg/models"
	"github.com/owid/lc-reconcile/pkg/tracing"
)

// Loader reads every canonical record from the backing store
type Loader interface {
	LoadCanonicalRecords(ctx context.Context) ([]models.CanonicalRecord, error)
}

// Config contains configuration for the index holder
type Config struct {
	LoadTimeout time.Duration // Upper bound for a single load (default: 30s)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		LoadTimeout: 30 * time.Second,
	}
}

const flightKey = "reference-index"

// Holder owns the reference index served to the ranker.
//
// The first Get loads the index; concurrent callers wait on the same load. Readers share
// the snapshot without locking. Reload builds a fresh snapshot and swaps it in atomically,
// so requests already holding the old snapshot finish against it. A failed load caches
// nothing.
type Holder struct {
	loader     Loader
	logger     ectologger.Logger
	cfg        Config
	current    atomic.Pointer[ReferenceIndex]
	generation atomic.Uint64
	group      singleflight.Group
}

// NewHolder creates a holder with no index loaded
func NewHolder(loader Loader, logger ectologger.Logger, cfg Config) *Holder {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultConfig().LoadTimeout
	}
	return &Holder{
		loader: loader,
		logger: logger,
		cfg:    cfg,
	}
}

// Get returns the current index, loading it first if nothing has been loaded yet
func (h *Holder) Get(ctx context.Context) (*ReferenceIndex, error) {
	if idx := h.current.Load(); idx != nil {
		return idx, nil
	}
	return h.load(ctx, "initial")
}

// Reload loads a fresh index and swaps it in. On failure the previous index stays in service.
func (h *Holder) Reload(ctx context.Context) (*ReferenceIndex, error) {
	return h.load(ctx, "reload")
}

// Invalidate drops the current index; the next Get loads a new one
func (h *Holder) Invalidate() {
	h.current.Store(nil)
	h.logger.Info("Reference index invalidated")
}

// Ready reports whether an index is loaded
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Stats describes the index currently in service
func (h *Holder) Stats() models.IndexStats {
	idx := h.current.Load()
	if idx == nil {
		return models.IndexStats{}
	}
	return idx.Stats()
}

func (h *Holder) load(ctx context.Context, trigger string) (*ReferenceIndex, error) {
	ch := h.group.DoChan(flightKey, func() (any, error) {
		// the load outlives any single waiter, so it only inherits values from ctx
		return h.build(context.WithoutCancel(ctx), trigger)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ReferenceIndex), nil
	}
}

func (h *Holder) build(ctx context.Context, trigger string) (*ReferenceIndex, error) {
	ctx, span := tracing.StartSpan(ctx, "index.Holder.build")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.LoadTimeout)
	defer cancel()

	log := h.logger.WithContext(ctx).WithFields(map[string]any{
		"trigger": trigger,
	})

	start := time.Now()
	records, err := h.loader.LoadCanonicalRecords(ctx)
	elapsed := time.Since(start)
	metrics.IndexLoadDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.IndexLoadsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: load timed out after %s: %w", models.ErrStoreUnavailable, h.cfg.LoadTimeout, err)
		}
		log.WithError(err).Error("Failed to load reference index")
		tracing.MarkError(ctx, err)
		return nil, fmt.Errorf("failed to load reference index: %w", err)
	}

	idx := Build(records)
	idx.loadTime = elapsed
	idx.generation = h.generation.Add(1)
	h.current.Store(idx)

	metrics.IndexLoadsTotal.WithLabelValues("success").Inc()
	metrics.IndexRecords.WithLabelValues(string(models.KindCountry)).Set(float64(idx.countries))
	metrics.IndexRecords.WithLabelValues(string(models.KindEntity)).Set(float64(idx.entities))
	metrics.IndexBuckets.Set(float64(idx.Buckets()))

	log.WithFields(map[string]any{
		"generation": idx.generation,
		"records":    idx.records,
		"buckets":    idx.Buckets(),
		"skipped":    idx.skipped,
		"elapsed":    elapsed.String(),
	}).Info("Loaded reference index")

	return idx, nil
}
