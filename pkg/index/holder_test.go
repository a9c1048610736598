package index

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owid/lc-reconcile/pkg/fingerprint"
	"github.com/owid/lc-reconcile/pkg/models"
)

type fakeLoader struct {
	calls   atomic.Int32
	records []models.CanonicalRecord
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeLoader) LoadCanonicalRecords(ctx context.Context) ([]models.CanonicalRecord, error) {
	f.calls.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestHolder_LazyLoad(t *testing.T) {
	loader := &fakeLoader{records: testRecords()}
	h := NewHolder(loader, testLogger(), DefaultConfig())

	assert.False(t, h.Ready())
	assert.False(t, h.Stats().Loaded)

	idx, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Ready())
	assert.Equal(t, uint64(1), idx.Generation())

	again, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, idx, again)
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestHolder_ConcurrentFirstLoadRunsOnce(t *testing.T) {
	loader := &fakeLoader{
		records: testRecords(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	h := NewHolder(loader, testLogger(), DefaultConfig())

	const callers = 20
	var wg sync.WaitGroup
	results := make([]*ReferenceIndex, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.Get(context.Background())
		}(i)
	}

	<-loader.started
	close(loader.release)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestHolder_FailedLoadCachesNothing(t *testing.T) {
	loader := &fakeLoader{err: models.ErrStoreUnavailable}
	h := NewHolder(loader, testLogger(), DefaultConfig())

	_, err := h.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.False(t, h.Ready())

	// the next request tries again instead of serving a partial index
	loader.err = nil
	loader.records = testRecords()
	idx, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestHolder_ReloadSwapsAtomically(t *testing.T) {
	loader := &fakeLoader{records: testRecords()}
	h := NewHolder(loader, testLogger(), DefaultConfig())

	old, err := h.Get(context.Background())
	require.NoError(t, err)

	loader.records = []models.CanonicalRecord{
		{ID: "1", RawName: "Atlantis", CanonicalName: "Atlantis", Kind: models.KindCountry},
	}
	fresh, err := h.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(2), fresh.Generation())
	assert.Len(t, fresh.Lookup(fingerprint.Generate("atlantis")), 1)

	// a reader still holding the old snapshot sees it unchanged
	assert.Len(t, old.Lookup(fingerprint.Generate("ivory coast")), 2)
	assert.Empty(t, old.Lookup(fingerprint.Generate("atlantis")))

	current, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, fresh, current)
}

func TestHolder_FailedReloadKeepsPreviousIndex(t *testing.T) {
	loader := &fakeLoader{records: testRecords()}
	h := NewHolder(loader, testLogger(), DefaultConfig())

	old, err := h.Get(context.Background())
	require.NoError(t, err)

	loader.err = errors.New("connection refused")
	_, err = h.Reload(context.Background())
	require.Error(t, err)

	current, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, old, current)
}

func TestHolder_Invalidate(t *testing.T) {
	loader := &fakeLoader{records: testRecords()}
	h := NewHolder(loader, testLogger(), DefaultConfig())

	_, err := h.Get(context.Background())
	require.NoError(t, err)

	h.Invalidate()
	assert.False(t, h.Ready())

	idx, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx.Generation())
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestHolder_LoadTimeout(t *testing.T) {
	loader := &fakeLoader{release: make(chan struct{})}
	defer close(loader.release)
	h := NewHolder(loader, testLogger(), Config{LoadTimeout: 20 * time.Millisecond})

	_, err := h.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, h.Ready())
}

func TestHolder_WaiterCancellation(t *testing.T) {
	loader := &fakeLoader{
		records: testRecords(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	h := NewHolder(loader, testLogger(), DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.Get(ctx)
		done <- err
	}()

	<-loader.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// the load itself is not abandoned
	close(loader.release)
	require.Eventually(t, h.Ready, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), loader.calls.Load())
}
