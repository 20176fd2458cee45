package kvclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
	"github.com/pior/kvclient/driver/drivertest"
)

func newTestClient(t *testing.T, topology driver.Topology) (*Client, *drivertest.Driver) {
	t.Helper()
	drv := drivertest.New(topology)
	c, err := New(drv, Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, drv
}

func TestClient_DirectSetGet(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)

	written, err := Do(ctx, c, Set("k", "v", SetOptions{}))
	require.NoError(t, err)
	assert.True(t, written)

	v, err := Do(ctx, c, Get("k"))
	require.NoError(t, err)
	assert.Equal(t, Some("v"), v)

	missing, err := Do(ctx, c, Get("absent"))
	require.NoError(t, err)
	assert.False(t, missing.Found)

	assert.Equal(t, 3, drv.Invocations())
	assert.Equal(t, ModeDirect, c.Mode())
}

func TestClient_ConditionalSetNotWritten(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Standalone)

	_, err := Do(ctx, c, Set("k", "v1", SetOptions{}))
	require.NoError(t, err)

	written, err := Do(ctx, c, Set("k", "v2", SetOptions{Condition: SetIfAbsent}))
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, "v1", must(Do(ctx, c, Get("k"))).Value)
}

func TestClient_ModeTransitions(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Standalone)

	// Direct mode only allows entering a batch.
	_, err := c.Flush(ctx)
	assert.ErrorIs(t, err, ErrModeConflict)
	_, err = c.Exec(ctx)
	assert.ErrorIs(t, err, ErrModeConflict)
	assert.ErrorIs(t, c.Discard(), ErrModeConflict)

	require.NoError(t, c.Pipeline(ctx))
	assert.Equal(t, ModePipeline, c.Mode())
	assert.ErrorIs(t, c.Pipeline(ctx), ErrModeConflict)
	assert.ErrorIs(t, c.Multi(ctx), ErrModeConflict)
	_, err = c.Exec(ctx)
	assert.ErrorIs(t, err, ErrModeConflict)
	assert.ErrorIs(t, c.Discard(), ErrModeConflict)
	assert.Equal(t, ModePipeline, c.Mode())

	values, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Equal(t, ModeDirect, c.Mode())

	require.NoError(t, c.Multi(ctx))
	assert.Equal(t, ModeTransaction, c.Mode())
	assert.ErrorIs(t, c.Multi(ctx), ErrModeConflict)
	assert.ErrorIs(t, c.Pipeline(ctx), ErrModeConflict)
	_, err = c.Flush(ctx)
	assert.ErrorIs(t, err, ErrModeConflict)

	_, err = c.Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, c.Mode())
}

func TestClient_PipelinePreservesOrder(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)

	require.NoError(t, c.Pipeline(ctx))
	first := Call(ctx, c, Incr("c"))
	second := Call(ctx, c, Incr("c"))
	last := Call(ctx, c, Get("c"))

	assert.True(t, first.Pending())
	assert.Equal(t, 0, drv.Invocations())

	values, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), Some("2")}, values)

	assert.Equal(t, int64(1), first.Val())
	assert.Equal(t, int64(2), second.Val())
	assert.Equal(t, "2", last.Val().Value)
	assert.Equal(t, 1, drv.Execs())
	assert.Equal(t, []command.ID{command.Incr, command.Incr, command.Get}, drv.Sent())
}

func TestClient_PipelineReplyErrorStaysInPosition(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Standalone)

	_, err := Do(ctx, c, Set("k", "text", SetOptions{}))
	require.NoError(t, err)

	require.NoError(t, c.Pipeline(ctx))
	incr := Call(ctx, c, Incr("k"))
	get := Call(ctx, c, Get("k"))

	values, err := c.Flush(ctx)
	require.Error(t, err)
	require.Len(t, values, 2)

	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, command.Incr, ce.Command)
	assert.Same(t, ce, values[0])
	assert.Equal(t, Some("text"), values[1])

	assert.ErrorAs(t, incr.Err(), new(drivertest.ReplyError))
	assert.NoError(t, get.Err())
	assert.Equal(t, ModeDirect, c.Mode())
}

func TestClient_PipelineTransportError(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)
	broken := errors.New("connection reset")
	drv.ExecErr = broken

	require.NoError(t, c.Pipeline(ctx))
	set := Call(ctx, c, Set("k", "v", SetOptions{}))
	get := Call(ctx, c, Get("k"))

	values, err := c.Flush(ctx)
	require.ErrorIs(t, err, broken)
	require.Len(t, values, 2)
	for _, v := range values {
		assert.IsType(t, &CommandError{}, v)
	}
	assert.ErrorIs(t, set.Err(), broken)
	assert.ErrorIs(t, get.Err(), broken)
	assert.Equal(t, ModeDirect, c.Mode())
}

func TestClient_ReadBeforeFlush(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Standalone)

	require.NoError(t, c.Pipeline(ctx))
	r := Call(ctx, c, Get("k"))

	_, err := r.Get()
	assert.ErrorIs(t, err, ErrNotResolved)
	assert.ErrorIs(t, err, ErrModeConflict)

	_, err = Do(ctx, c, Get("k"))
	assert.ErrorIs(t, err, ErrNotResolved)

	values, err := c.Flush(ctx)
	require.NoError(t, err)
	assert.Len(t, values, 2)
	assert.True(t, r.Resolved())
}

func TestClient_Transaction(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)

	require.NoError(t, c.Multi(ctx))
	set := Call(ctx, c, Set("k", "1", SetOptions{}))
	incr := Call(ctx, c, Incr("k"))

	values, err := c.Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{true, int64(2)}, values)
	assert.True(t, set.Val())
	assert.Equal(t, int64(2), incr.Val())
	assert.Equal(t, 1, drv.Execs())
}

func TestClient_TransactionDiscard(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)

	require.NoError(t, c.Multi(ctx))
	set := Call(ctx, c, Set("k", "v", SetOptions{}))
	incr := Call(ctx, c, Incr("n"))

	require.NoError(t, c.Discard())
	assert.Equal(t, ModeDirect, c.Mode())

	assert.Equal(t, 0, drv.Invocations())
	assert.Equal(t, 0, drv.Execs())
	assert.Equal(t, 1, drv.Discards())
	for _, r := range []interface{ Resolved() bool }{set, incr} {
		assert.False(t, r.Resolved())
	}
	assert.ErrorIs(t, set.Err(), ErrDiscarded)
	assert.ErrorIs(t, incr.Err(), ErrDiscarded)

	v, err := Do(ctx, c, Get("k"))
	require.NoError(t, err)
	assert.False(t, v.Found)
}

func TestClient_TransactionQueueError(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)
	drv.RejectQueue = func(req command.Request) error {
		if req.ID == command.Incr {
			return drivertest.ReplyError("ERR unknown command")
		}
		return nil
	}

	require.NoError(t, c.Multi(ctx))
	set := Call(ctx, c, Set("k", "v", SetOptions{}))
	incr := Call(ctx, c, Incr("n"))

	values, err := c.Exec(ctx)
	assert.Nil(t, values)
	require.ErrorIs(t, err, ErrTxAborted)

	var txErr *TxQueueError
	require.ErrorAs(t, err, &txErr)
	require.Len(t, txErr.Rejected, 1)
	assert.Equal(t, command.Incr, txErr.Rejected[0].Command)

	assert.ErrorIs(t, set.Err(), ErrTxAborted)
	assert.ErrorIs(t, incr.Err(), ErrTxAborted)
	assert.NoError(t, set.QueueErr())
	assert.ErrorAs(t, incr.QueueErr(), new(drivertest.ReplyError))

	assert.Equal(t, 0, drv.Invocations())
	assert.Equal(t, ModeDirect, c.Mode())

	v, err := Do(ctx, c, Get("k"))
	require.NoError(t, err)
	assert.False(t, v.Found)
}

func TestClient_InvalidOptionsFailBeforeDriver(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)

	_, err := Do(ctx, c, Set("k", "v", SetOptions{TTL: -1}))
	require.ErrorIs(t, err, command.ErrInvalidOptions)

	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, command.Set, ce.Command)
	value, ok := ce.Trace.Lookup("key")
	assert.True(t, ok)
	assert.Equal(t, "k", value)
	assert.Equal(t, 0, drv.Invocations())
}

func TestClient_Closed(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)

	require.NoError(t, c.Multi(ctx))
	r := Call(ctx, c, Set("k", "v", SetOptions{}))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.True(t, drv.Closed())
	assert.ErrorIs(t, r.Err(), ErrDiscarded)

	_, err := Do(ctx, c, Get("k"))
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.ErrorIs(t, c.Pipeline(ctx), ErrClientClosed)
}

func TestClient_Stats(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Standalone)

	_, _ = Do(ctx, c, Get("k"))
	_, _ = Do(ctx, c, Get("k"))
	_, _ = Do(ctx, c, SentinelFailover("mymaster"))

	require.NoError(t, c.Pipeline(ctx))
	Call(ctx, c, Incr("n"))
	_, err := c.Flush(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Multi(ctx))
	require.NoError(t, c.Discard())

	stats := c.Stats()
	assert.Equal(t, uint64(4), stats.Calls)
	assert.Equal(t, uint64(1), stats.Queued)
	assert.Equal(t, uint64(1), stats.Flushes)
	assert.Equal(t, uint64(0), stats.Execs)
	assert.Equal(t, uint64(1), stats.Discards)
	assert.Equal(t, uint64(1), stats.Rejected)
	assert.Equal(t, uint64(1), stats.Errors)
	assert.Equal(t, uint64(2), stats.Commands[command.Get])
	assert.Equal(t, uint64(1), stats.Commands[command.Incr])
}

func TestClient_ID(t *testing.T) {
	c1, _ := newTestClient(t, driver.Standalone)
	c2, _ := newTestClient(t, driver.Standalone)
	assert.NotEqual(t, c1.ID(), c2.ID())
	assert.Equal(t, driver.Standalone, c1.Topology())
}

// must returns v and panics on a non-nil error.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
