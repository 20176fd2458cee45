package goredis

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// batch wraps a go-redis pipeline. go-redis keeps queued commands in
// memory until Exec, so Discard never touches the network.
type batch struct {
	owner   *Driver
	pipe    redis.Pipeliner
	futures []*future
}

// future wraps the queued Cmder, which go-redis fills during Exec.
type future struct {
	cmd  redis.Cmder
	done bool
}

func (f *future) Reply() (command.Reply, error) {
	if !f.done {
		return command.Reply{}, driver.ErrNotExecuted
	}
	return fromNative(f.cmd)
}

func (f *future) QueueErr() error { return nil }

func (b *batch) Len() int { return len(b.futures) }

func (b *batch) Queue(ctx context.Context, t driver.Thunk) (driver.Future, error) {
	th, err := b.owner.thunk(t)
	if err != nil {
		return nil, err
	}
	if th.spec.Flags.Has(command.SentinelOnly) {
		return nil, driver.ErrNoSentinel
	}
	f := &future{cmd: th.run(ctx, b.pipe)}
	b.futures = append(b.futures, f)
	return f, nil
}

func (b *batch) Exec(ctx context.Context) error {
	_, err := b.pipe.Exec(ctx)
	for _, f := range b.futures {
		f.done = true
	}
	// go-redis reports the first failed command; error replies stay on
	// their own futures.
	if err == nil || errors.Is(err, redis.Nil) || b.owner.IsReplyError(err) {
		return nil
	}
	return err
}

func (b *batch) Discard() error {
	b.pipe.Discard()
	b.futures = nil
	return nil
}

func isExecAbort(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "EXECABORT")
}

// txBatch runs MULTI/EXEC as a plain pipeline on a pinned connection.
// go-redis' TxPipeline drops the replies to the queued commands, which
// carry the queue-time errors, so the transaction is written by hand.
type txBatch struct {
	owner   *Driver
	futures []*txFuture
}

type txFuture struct {
	th       *thunk
	done     bool
	reply    command.Reply
	err      error
	queueErr error
}

func (f *txFuture) Reply() (command.Reply, error) {
	if !f.done {
		return command.Reply{}, driver.ErrNotExecuted
	}
	if f.queueErr != nil {
		return command.Reply{}, f.queueErr
	}
	return f.reply, f.err
}

func (f *txFuture) QueueErr() error { return f.queueErr }

func (b *txBatch) Len() int { return len(b.futures) }

func (b *txBatch) Queue(_ context.Context, t driver.Thunk) (driver.Future, error) {
	th, err := b.owner.thunk(t)
	if err != nil {
		return nil, err
	}
	if th.spec.Flags.Has(command.SentinelOnly) {
		return nil, driver.ErrNoSentinel
	}
	f := &txFuture{th: th}
	b.futures = append(b.futures, f)
	return f, nil
}

func (b *txBatch) Exec(ctx context.Context) error {
	if len(b.futures) == 0 {
		return nil
	}
	conn, err := b.owner.txConn(ctx, b.slotKey())
	if err != nil {
		b.fail(err)
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			b.owner.logger.Warn("goredis: releasing transaction connection", "error", err)
		}
	}()

	// Commands are built on a scratch pipeline that is never sent, then
	// queued as status commands so each QUEUED or error reply is kept.
	scratch := conn.Pipeline()
	defer scratch.Discard()

	pipe := conn.Pipeline()
	_ = pipe.Process(ctx, redis.NewStatusCmd(ctx, "multi"))
	queued := make([]*redis.StatusCmd, len(b.futures))
	for i, f := range b.futures {
		queued[i] = redis.NewStatusCmd(ctx, f.th.build(ctx, scratch).Args()...)
		_ = pipe.Process(ctx, queued[i])
	}
	exec := redis.NewCmd(ctx, "exec")
	_ = pipe.Process(ctx, exec)
	_, _ = pipe.Exec(ctx)

	err = exec.Err()
	if err != nil && !b.owner.IsReplyError(err) {
		b.fail(err)
		return err
	}

	if errors.Is(err, redis.Nil) {
		err = redis.TxFailedErr
	}
	if err != nil {
		b.fail(err)
		for i, f := range b.futures {
			f.queueErr = queued[i].Err()
		}
		if isExecAbort(err) {
			return driver.ErrExecAborted
		}
		return err
	}

	values, ok := exec.Val().([]any)
	if !ok {
		b.fail(redis.TxFailedErr)
		return redis.TxFailedErr
	}
	if len(values) != len(b.futures) {
		err := &command.ConversionError{Type: "exec reply", Value: len(values)}
		b.fail(err)
		return err
	}
	for i, f := range b.futures {
		f.reply, f.err = fromExecValue(f.th.spec.Shape, values[i])
	}
	return nil
}

// slotKey returns the first key of the transaction, which selects the
// node on a cluster.
func (b *txBatch) slotKey() string {
	for _, f := range b.futures {
		if len(f.th.keys) > 0 {
			return f.th.keys[0]
		}
	}
	return ""
}

func (b *txBatch) fail(err error) {
	for _, f := range b.futures {
		f.done, f.err = true, err
	}
}

func (b *txBatch) Discard() error {
	b.futures = nil
	return nil
}
