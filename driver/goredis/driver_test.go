package goredis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

func newTestDriver(t *testing.T) (*Driver, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	d, err := New(driver.Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, mr
}

func invoke(t *testing.T, d *Driver, req command.Request) (command.Reply, error) {
	t.Helper()
	th, err := d.Prepare(req)
	require.NoError(t, err)
	return d.Invoke(context.Background(), th)
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, driver.Drivers(), Name)
}

func TestInvoke(t *testing.T) {
	d, mr := newTestDriver(t)

	reply, err := invoke(t, d, command.NewRequest(command.Set,
		command.Key("key", "greeting"),
		command.Text("value", "hello"),
		command.Opt("options", command.SetOptions{TTL: time.Minute}),
	))
	require.NoError(t, err)
	assert.Equal(t, command.StatusReply("OK"), reply)
	assert.Equal(t, time.Minute, mr.TTL("greeting"))

	reply, err = invoke(t, d, command.NewRequest(command.Get, command.Key("key", "greeting")))
	require.NoError(t, err)
	assert.Equal(t, command.BulkReply("hello"), reply)

	reply, err = invoke(t, d, command.NewRequest(command.Get, command.Key("key", "missing")))
	require.NoError(t, err)
	assert.True(t, reply.IsNil())

	reply, err = invoke(t, d, command.NewRequest(command.Set,
		command.Key("key", "greeting"),
		command.Text("value", "again"),
		command.Opt("options", command.SetOptions{Condition: command.SetIfAbsent}),
	))
	require.NoError(t, err)
	assert.True(t, reply.IsNil(), "SET NX on an existing key answers nil")
}

func TestInvokeKeepsBinaryValues(t *testing.T) {
	d, mr := newTestDriver(t)

	payload := []byte{0x00, 0xff, 0x10}
	_, err := invoke(t, d, command.NewRequest(command.Set, command.Key("key", "bin"), command.Bytes("value", payload)))
	require.NoError(t, err)

	stored, err := mr.Get("bin")
	require.NoError(t, err)
	assert.Equal(t, string(payload), stored)
}

func TestInvokeShapes(t *testing.T) {
	d, mr := newTestDriver(t)
	mr.HSet("h", "f1", "v1", "f2", "v2")
	require.NoError(t, mr.Set("a", "1"))
	_, err := mr.ZAdd("z", 1.5, "m")
	require.NoError(t, err)

	reply, err := invoke(t, d, command.NewRequest(command.HGetAll, command.Key("key", "h")))
	require.NoError(t, err)
	assert.Equal(t, command.MapReply(map[string]string{"f1": "v1", "f2": "v2"}), reply)

	reply, err = invoke(t, d, command.NewRequest(command.MGet, command.Key("key", "a"), command.Key("key", "b")))
	require.NoError(t, err)
	assert.Equal(t, command.ArrayReply(command.BulkReply("1"), command.NilReply()), reply)

	reply, err = invoke(t, d, command.NewRequest(command.ZRangeWithScores,
		command.Key("key", "z"), command.Int("start", 0), command.Int("stop", -1), command.Literal("WITHSCORES")))
	require.NoError(t, err)
	assert.Equal(t, command.ArrayReply(command.ArrayReply(command.BulkReply("m"), command.FloatReply(1.5))), reply)

	reply, err = invoke(t, d, command.NewRequest(command.Exists, command.Key("key", "a"), command.Key("key", "h")))
	require.NoError(t, err)
	assert.Equal(t, command.IntReply(2), reply)
}

func TestInvokeTypedOptions(t *testing.T) {
	d, mr := newTestDriver(t)
	mr.Lpush("src", "x")

	reply, err := invoke(t, d, command.NewRequest(command.LMove,
		command.Key("source", "src"), command.Key("destination", "dst"),
		command.Opt("wherefrom", command.Left), command.Opt("whereto", command.Right)))
	require.NoError(t, err)
	assert.Equal(t, command.BulkReply("x"), reply)

	reply, err = invoke(t, d, command.NewRequest(command.ZAdd,
		command.Key("key", "z"),
		command.Opt("options", command.ZAddOptions{Changed: true}),
		command.Float("score", 2), command.Text("member", "a"),
	))
	require.NoError(t, err)
	assert.Equal(t, command.IntReply(1), reply)

	require.NoError(t, mr.Set("k", "v"))
	reply, err = invoke(t, d, command.NewRequest(command.Expire,
		command.Key("key", "k"), command.Seconds("seconds", 30*time.Second), command.Opt("condition", command.ExpireAlways)))
	require.NoError(t, err)
	assert.Equal(t, command.BoolReply(true), reply)
	assert.Equal(t, 30*time.Second, mr.TTL("k"))
}

func TestPrepareRejectsInvalidOptions(t *testing.T) {
	d, _ := newTestDriver(t)

	_, err := d.Prepare(command.NewRequest(command.ZAdd,
		command.Key("key", "z"),
		command.Opt("options", command.ZAddOptions{Condition: command.SetIfAbsent, Compare: command.ZCompareGreater}),
	))
	assert.ErrorIs(t, err, command.ErrInvalidOptions)

	_, err = d.Prepare(command.NewRequest(command.LMove,
		command.Key("source", "a"), command.Key("destination", "b"),
		command.Opt("wherefrom", command.ListDirection(9)), command.Opt("whereto", command.Left)))
	assert.ErrorIs(t, err, command.ErrConversion)

	_, err = d.Prepare(command.NewRequest(command.Invalid))
	assert.ErrorIs(t, err, command.ErrConversion)
}

func TestInvokeReplyError(t *testing.T) {
	d, mr := newTestDriver(t)
	mr.HSet("h", "f", "v")

	_, err := invoke(t, d, command.NewRequest(command.Incr, command.Key("key", "h")))
	require.Error(t, err)
	assert.True(t, d.IsReplyError(err))
}

func TestPipeline(t *testing.T) {
	d, _ := newTestDriver(t)
	ctx := context.Background()

	b, err := d.Begin(ctx, driver.Pipeline)
	require.NoError(t, err)

	var futures []driver.Future
	for _, req := range []command.Request{
		command.NewRequest(command.Incr, command.Key("key", "c")),
		command.NewRequest(command.Incr, command.Key("key", "c")),
		command.NewRequest(command.Get, command.Key("key", "c")),
		command.NewRequest(command.Get, command.Key("key", "nope")),
	} {
		th, err := d.Prepare(req)
		require.NoError(t, err)
		f, err := b.Queue(ctx, th)
		require.NoError(t, err)
		futures = append(futures, f)
	}
	assert.Equal(t, 4, b.Len())

	_, err = futures[0].Reply()
	assert.ErrorIs(t, err, driver.ErrNotExecuted)

	require.NoError(t, b.Exec(ctx))

	want := []command.Reply{command.IntReply(1), command.IntReply(2), command.BulkReply("2"), command.NilReply()}
	for i, f := range futures {
		reply, err := f.Reply()
		require.NoError(t, err)
		assert.Equal(t, want[i], reply, "position %d", i)
	}
}

func TestTransactionDiscardSendsNothing(t *testing.T) {
	d, mr := newTestDriver(t)
	ctx := context.Background()

	b, err := d.Begin(ctx, driver.Transaction)
	require.NoError(t, err)
	th, err := d.Prepare(command.NewRequest(command.Set, command.Key("key", "k"), command.Text("value", "v")))
	require.NoError(t, err)
	_, err = b.Queue(ctx, th)
	require.NoError(t, err)

	require.NoError(t, b.Discard())
	assert.False(t, mr.Exists("k"))
}

func TestTransaction(t *testing.T) {
	d, mr := newTestDriver(t)
	ctx := context.Background()

	b, err := d.Begin(ctx, driver.Transaction)
	require.NoError(t, err)

	var futures []driver.Future
	for _, req := range []command.Request{
		command.NewRequest(command.Set, command.Key("key", "k"), command.Text("value", "v")),
		command.NewRequest(command.Get, command.Key("key", "k")),
	} {
		th, err := d.Prepare(req)
		require.NoError(t, err)
		f, err := b.Queue(ctx, th)
		require.NoError(t, err)
		futures = append(futures, f)
	}
	require.NoError(t, b.Exec(ctx))

	reply, err := futures[1].Reply()
	require.NoError(t, err)
	assert.Equal(t, command.BulkReply("v"), reply)
	assert.NoError(t, futures[0].QueueErr())
	assert.True(t, mr.Exists("k"))
}

func queueAll(t *testing.T, d *Driver, b driver.Batch, reqs ...command.Request) []driver.Future {
	t.Helper()
	futures := make([]driver.Future, len(reqs))
	for i, req := range reqs {
		th, err := d.Prepare(req)
		require.NoError(t, err)
		futures[i], err = b.Queue(context.Background(), th)
		require.NoError(t, err)
	}
	return futures
}

func TestTransactionQueueError(t *testing.T) {
	d, mr := newTestDriver(t)
	ctx := context.Background()

	b, err := d.Begin(ctx, driver.Transaction)
	require.NoError(t, err)
	futures := queueAll(t, d, b,
		command.NewRequest(command.Set, command.Key("key", "k"), command.Text("value", "v")),
		command.NewRequest(command.Del),
	)

	err = b.Exec(ctx)
	require.ErrorIs(t, err, driver.ErrExecAborted)

	assert.NoError(t, futures[0].QueueErr())
	qerr := futures[1].QueueErr()
	require.Error(t, qerr)
	assert.True(t, d.IsReplyError(qerr))
	assert.Contains(t, qerr.Error(), "wrong number of arguments")

	_, err = futures[1].Reply()
	assert.Equal(t, qerr, err)
	assert.False(t, mr.Exists("k"))
}

func TestTransactionReplyShapes(t *testing.T) {
	d, mr := newTestDriver(t)
	ctx := context.Background()
	mr.HSet("h", "f1", "v1")
	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, mr.Set("text", "abc"))
	_, err := mr.ZAdd("z", 1.5, "m")
	require.NoError(t, err)

	b, err := d.Begin(ctx, driver.Transaction)
	require.NoError(t, err)
	futures := queueAll(t, d, b,
		command.NewRequest(command.Set, command.Key("key", "k"), command.Text("value", "v"),
			command.Opt("options", command.SetOptions{TTL: time.Minute})),
		command.NewRequest(command.HGetAll, command.Key("key", "h")),
		command.NewRequest(command.MGet, command.Key("key", "a"), command.Key("key", "b")),
		command.NewRequest(command.ZRangeWithScores,
			command.Key("key", "z"), command.Int("start", 0), command.Int("stop", -1), command.Literal("WITHSCORES")),
		command.NewRequest(command.Incr, command.Key("key", "text")),
		command.NewRequest(command.IncrByFloat, command.Key("key", "f"), command.Float("increment", 1.5)),
		command.NewRequest(command.SIsMember, command.Key("key", "s"), command.Text("member", "x")),
	)
	require.NoError(t, b.Exec(ctx))

	want := []command.Reply{
		command.StatusReply("OK"),
		command.MapReply(map[string]string{"f1": "v1"}),
		command.ArrayReply(command.BulkReply("1"), command.NilReply()),
		command.ArrayReply(command.ArrayReply(command.BulkReply("m"), command.FloatReply(1.5))),
		{},
		command.FloatReply(1.5),
		command.BoolReply(false),
	}
	for i, f := range futures {
		assert.NoError(t, f.QueueErr(), "position %d", i)
		reply, err := f.Reply()
		if i == 4 {
			require.Error(t, err)
			assert.True(t, d.IsReplyError(err), "the error reply stays in position")
			continue
		}
		require.NoError(t, err, "position %d", i)
		assert.Equal(t, want[i], reply, "position %d", i)
	}
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestTransactionTransportError(t *testing.T) {
	d, mr := newTestDriver(t)
	ctx := context.Background()

	b, err := d.Begin(ctx, driver.Transaction)
	require.NoError(t, err)
	futures := queueAll(t, d, b, command.NewRequest(command.Incr, command.Key("key", "n")))
	mr.Close()

	err = b.Exec(ctx)
	require.Error(t, err)
	assert.False(t, d.IsReplyError(err))
	_, rerr := futures[0].Reply()
	assert.Error(t, rerr)
	assert.NoError(t, futures[0].QueueErr())
}

func TestFromExecValue(t *testing.T) {
	tests := []struct {
		name  string
		shape command.Shape
		in    any
		want  command.Reply
	}{
		{"nil", command.ShapeBulk, nil, command.NilReply()},
		{"status", command.ShapeStatus, "OK", command.StatusReply("OK")},
		{"int", command.ShapeInt, int64(3), command.IntReply(3)},
		{"float resp2", command.ShapeFloat, "2.5", command.FloatReply(2.5)},
		{"float resp3", command.ShapeFloat, 2.5, command.FloatReply(2.5)},
		{"bool resp2", command.ShapeBool, int64(1), command.BoolReply(true)},
		{"bool resp3", command.ShapeBool, false, command.BoolReply(false)},
		{"bulk", command.ShapeBulk, "v", command.BulkReply("v")},
		{"strings", command.ShapeStrings, []any{"a", "b"}, command.ArrayReply(command.BulkReply("a"), command.BulkReply("b"))},
		{"map resp2", command.ShapeMap, []any{"f", "v"}, command.MapReply(map[string]string{"f": "v"})},
		{"map resp3", command.ShapeMap, map[any]any{"f": "v"}, command.MapReply(map[string]string{"f": "v"})},
		{"scored resp2", command.ShapeScored, []any{"m", "1.5"},
			command.ArrayReply(command.ArrayReply(command.BulkReply("m"), command.FloatReply(1.5)))},
		{"scored resp3", command.ShapeScored, []any{[]any{"m", 1.5}},
			command.ArrayReply(command.ArrayReply(command.BulkReply("m"), command.FloatReply(1.5)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fromExecValue(tt.shape, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := fromExecValue(command.ShapeInt, "nope")
	assert.ErrorIs(t, err, command.ErrConversion)
	_, err = fromExecValue(command.ShapeMap, []any{"odd"})
	assert.ErrorIs(t, err, command.ErrConversion)
}

func TestForeignThunk(t *testing.T) {
	d1, _ := newTestDriver(t)
	d2, _ := newTestDriver(t)

	th, err := d1.Prepare(command.NewRequest(command.Ping))
	require.NoError(t, err)
	_, err = d2.Invoke(context.Background(), th)
	assert.ErrorIs(t, err, driver.ErrForeignThunk)
}
