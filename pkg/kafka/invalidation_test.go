package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestReloadTrigger_CoalescesBurst(t *testing.T) {
	var reloads atomic.Int32
	trigger := NewReloadTrigger(func(context.Context) error {
		reloads.Add(1)
		return nil
	}, 50*time.Millisecond, testLogger())
	trigger.Start(context.Background())
	defer trigger.Stop()

	for i := 0; i < 25; i++ {
		trigger.Notify()
	}

	require.Eventually(t, func() bool { return reloads.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())

	// a later change gets its own reload
	trigger.Notify()
	require.Eventually(t, func() bool { return reloads.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestReloadTrigger_KeepsRunningAfterFailure(t *testing.T) {
	var reloads atomic.Int32
	trigger := NewReloadTrigger(func(context.Context) error {
		if reloads.Add(1) == 1 {
			return errors.New("database restarting")
		}
		return nil
	}, 0, testLogger())
	trigger.Start(context.Background())
	defer trigger.Stop()

	trigger.Notify()
	require.Eventually(t, func() bool { return reloads.Load() == 1 }, time.Second, 5*time.Millisecond)

	trigger.Notify()
	require.Eventually(t, func() bool { return reloads.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestReloadTrigger_StopDuringWindow(t *testing.T) {
	var reloads atomic.Int32
	trigger := NewReloadTrigger(func(context.Context) error {
		reloads.Add(1)
		return nil
	}, time.Hour, testLogger())
	trigger.Start(context.Background())

	trigger.Notify()
	trigger.Stop()
	assert.Equal(t, int32(0), reloads.Load())
}

func TestChangeHandler(t *testing.T) {
	var reloads atomic.Int32
	trigger := NewReloadTrigger(func(context.Context) error {
		reloads.Add(1)
		return nil
	}, 0, testLogger())
	handler := NewChangeHandler(ReferenceTables, trigger, testLogger())
	ctx := context.Background()

	tests := []struct {
		name      string
		topic     string
		value     string
		wantEvent bool
	}{
		{"country name insert", "owid.public.country_names", `{"payload":{"op":"c","source":{"table":"country_names"}}}`, true},
		{"table from topic", "owid.public.entities", `{"op":"u","source":{}}`, true},
		{"other table", "owid.public.users", `{"op":"c","source":{"table":"users"}}`, false},
		{"tombstone", "owid.public.country_data", ``, false},
		{"garbage", "owid.public.country_data", `not json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// drain anything left by a previous case
			select {
			case <-trigger.pending:
			default:
			}

			err := handler(ctx, &IncomingMessage{Topic: tt.topic, Value: []byte(tt.value)})
			require.NoError(t, err)

			select {
			case <-trigger.pending:
				assert.True(t, tt.wantEvent, "unexpected reload notification")
			default:
				assert.False(t, tt.wantEvent, "expected a reload notification")
			}
		})
	}

	// the trigger loop was never started
	assert.Equal(t, int32(0), reloads.Load())
}
