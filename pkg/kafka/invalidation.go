package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/owid/lc-reconcile/pkg/metrics"
)

// ReferenceTables are the tables the reference index is built from
var ReferenceTables = []string{"country_data", "country_names", "entities"}

// ReloadFunc rebuilds whatever depends on the reference tables
type ReloadFunc func(ctx context.Context) error

// ReloadTrigger coalesces change notifications into reloads. The first notification
// opens a window of Debounce; every notification inside the window is folded into the
// one reload that runs when it closes.
type ReloadTrigger struct {
	reload   ReloadFunc
	debounce time.Duration
	logger   ectologger.Logger
	pending  chan struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewReloadTrigger creates a trigger; call Start before Notify has any effect
func NewReloadTrigger(reload ReloadFunc, debounce time.Duration, logger ectologger.Logger) *ReloadTrigger {
	return &ReloadTrigger{
		reload:   reload,
		debounce: debounce,
		logger:   logger,
		pending:  make(chan struct{}, 1),
	}
}

// Start runs the reload loop until Stop or ctx is done
func (t *ReloadTrigger) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.loop(ctx)
}

// Stop ends the loop and waits for a running reload to finish
func (t *ReloadTrigger) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

// Notify records that the reference data changed. It never blocks.
func (t *ReloadTrigger) Notify() {
	select {
	case t.pending <- struct{}{}:
	default:
	}
}

func (t *ReloadTrigger) loop(ctx context.Context) {
	defer t.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.pending:
		}

		if t.debounce > 0 {
			timer := time.NewTimer(t.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		// notifications that arrived during the window are covered by this reload
		select {
		case <-t.pending:
		default:
		}

		if err := t.reload(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			t.logger.WithContext(ctx).WithError(err).Error("Reload after reference data change failed")
			continue
		}
		t.logger.WithContext(ctx).Info("Reloaded after reference data change")
	}
}

// NewChangeHandler returns a handler that notifies trigger for every change to one of
// tables. Changes to other tables and tombstones are acknowledged and ignored.
func NewChangeHandler(tables []string, trigger *ReloadTrigger, logger ectologger.Logger) MessageHandler {
	watched := make(map[string]struct{}, len(tables))
	for _, table := range tables {
		watched[table] = struct{}{}
	}

	return func(ctx context.Context, msg *IncomingMessage) error {
		log := logger.WithContext(ctx).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		})

		payload, err := ParseDebeziumMessage(msg.Value)
		if err != nil {
			if errors.Is(err, ErrTombstone) {
				return nil
			}
			// a message we cannot read will not become readable on retry
			log.WithError(err).Warn("Skipping unparseable change event")
			return nil
		}

		table := payload.Source.Table
		if table == "" {
			table = TableFromTopic(msg.Topic)
		}
		if _, ok := watched[table]; !ok {
			log.WithField("table", table).Debug("Ignoring change to unwatched table")
			return nil
		}

		metrics.ChangeEventsTotal.WithLabelValues(table, payload.OpName()).Inc()
		log.WithFields(map[string]any{
			"table": table,
			"op":    payload.OpName(),
		}).Debug("Reference data changed")

		trigger.Notify()
		return nil
	}
}
