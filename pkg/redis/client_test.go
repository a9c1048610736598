package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owid/lc-reconcile/internal/testcontainers"
)

func TestIsMiss(t *testing.T) {
	assert.False(t, IsMiss(nil))
	assert.False(t, IsMiss(fmt.Errorf("dial tcp: refused")))
}

func TestClient_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	sm := testcontainers.NewServiceManager(ctx)
	t.Cleanup(sm.Cleanup)
	require.NoError(t, sm.StartRedis())

	cfg := Config{Host: sm.RedisHost, Port: sm.RedisPort}
	assert.Equal(t, sm.RedisAddr, cfg.Addr())

	client, err := NewClient(ctx, cfg, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(ctx))

	_, err = client.Get(ctx, "reconcile:flyout:missing")
	assert.True(t, IsMiss(err))

	for i := 0; i < 1200; i++ {
		require.NoError(t, client.Set(ctx, fmt.Sprintf("reconcile:suggest:%d", i), "[]", time.Minute))
	}
	require.NoError(t, client.Set(ctx, "other:key", "kept", time.Minute))

	deleted, err := client.DeleteByPrefix(ctx, "reconcile:")
	require.NoError(t, err)
	assert.Equal(t, 1200, deleted)

	v, err := client.Get(ctx, "other:key")
	require.NoError(t, err)
	assert.Equal(t, "kept", v)
}
