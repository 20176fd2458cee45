package kvclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
	"github.com/pior/kvclient/driver/drivertest"
)

func TestNewCircuitBreakerConfig(t *testing.T) {
	newCB := NewCircuitBreakerConfig(1, time.Minute, time.Minute)
	cb := newCB("test")
	require.NotNil(t, cb)
	assert.Equal(t, "test", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func newBreakerClient(t *testing.T) (*Client, *drivertest.Driver, *error) {
	t.Helper()
	drv := drivertest.New(driver.Standalone)
	var failure error
	memory := drv.Handler
	drv.Handler = func(req command.Request) (command.Reply, error) {
		if failure != nil {
			return command.Reply{}, failure
		}
		return memory(req)
	}
	c, err := New(drv, Config{NewCircuitBreaker: NewCircuitBreakerConfig(1, time.Minute, time.Minute)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, drv, &failure
}

func TestClient_CircuitBreakerOpensOnTransportErrors(t *testing.T) {
	ctx := context.Background()
	c, drv, failure := newBreakerClient(t)
	*failure = errors.New("connection refused")

	for i := 0; i < 3; i++ {
		_, err := Do(ctx, c, Get("k"))
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.Stats().CircuitBreakerState)
	assert.Equal(t, 3, drv.Invocations())

	_, err := Do(ctx, c, Get("k"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, drv.Invocations())

	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, command.Get, ce.Command)
}

func TestClient_CircuitBreakerIgnoresReplyErrors(t *testing.T) {
	ctx := context.Background()
	c, _, failure := newBreakerClient(t)
	*failure = drivertest.ReplyError("WRONGTYPE Operation against a key holding the wrong kind of value")

	for i := 0; i < 5; i++ {
		_, err := Do(ctx, c, Get("k"))
		assert.ErrorAs(t, err, new(drivertest.ReplyError))
	}

	stats := c.Stats()
	assert.Equal(t, gobreaker.StateClosed, stats.CircuitBreakerState)
	assert.Equal(t, uint32(0), stats.CircuitBreakerCounts.TotalFailures)
	assert.Equal(t, uint64(5), stats.Errors)
}

func TestClient_CircuitBreakerIgnoresCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _, _ := newBreakerClient(t)

	for i := 0; i < 5; i++ {
		_, err := Do(ctx, c, Get("k"))
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, c.Stats().CircuitBreakerState)
}

func TestClient_CircuitBreakerGuardsBatches(t *testing.T) {
	ctx := context.Background()
	c, drv, _ := newBreakerClient(t)
	drv.ExecErr = errors.New("broken pipe")

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Pipeline(ctx))
		Call(ctx, c, Incr("n"))
		_, err := c.Flush(ctx)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.Stats().CircuitBreakerState)

	require.NoError(t, c.Pipeline(ctx))
	r := Call(ctx, c, Incr("n"))
	_, err := c.Flush(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, drv.Execs())
	assert.ErrorIs(t, r.Err(), gobreaker.ErrOpenState)
}
