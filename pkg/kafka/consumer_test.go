package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnreachableConsumer() *Consumer {
	return NewConsumer(ConsumerConfig{
		Brokers:       []string{"127.0.0.1:1"},
		Topics:        []string{"reconcile.public.country_names"},
		ConsumerGroup: "reconcile-test",
	}, testLogger(), func(context.Context, *IncomingMessage) error { return nil })
}

func TestConsumer_HealthFollowsLoop(t *testing.T) {
	c := newUnreachableConsumer()
	assert.False(t, c.Health(), "not started")

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Health())

	_ = c.Stop()
	assert.False(t, c.Health())
}

func TestConsumer_HealthFalseWhenLoopExits(t *testing.T) {
	c := newUnreachableConsumer()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Health())

	cancel()
	assert.Eventually(t, func() bool { return !c.Health() }, 5*time.Second, 10*time.Millisecond)

	_ = c.Stop()
}
