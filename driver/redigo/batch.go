package redigo

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/mna/redisc"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// batch keeps thunks in memory until Exec. Nothing is written to a
// connection before that, so Discard has nothing to undo.
type batch struct {
	owner   *Driver
	mode    driver.Mode
	futures []*future
}

type future struct {
	th       *thunk
	done     bool
	reply    command.Reply
	err      error
	queueErr error
}

func (f *future) resolve(reply command.Reply, err error) {
	f.reply, f.err, f.done = reply, err, true
}

func (f *future) Reply() (command.Reply, error) {
	if !f.done {
		return command.Reply{}, driver.ErrNotExecuted
	}
	return f.reply, f.err
}

func (f *future) QueueErr() error { return f.queueErr }

func (b *batch) Len() int { return len(b.futures) }

func (b *batch) Queue(ctx context.Context, t driver.Thunk) (driver.Future, error) {
	th, err := b.owner.thunk(t)
	if err != nil {
		return nil, err
	}
	if th.spec.Flags.Has(command.SentinelOnly) {
		return nil, driver.ErrNoSentinel
	}
	f := &future{th: th}
	b.futures = append(b.futures, f)
	return f, nil
}

func (b *batch) Discard() error {
	b.futures = nil
	return nil
}

// group is the part of a batch sent on one connection.
type group struct {
	keys    []string
	futures []*future
}

// groups splits a cluster pipeline per slot. Everything else, including
// cluster transactions which are confined to one slot, uses a single
// connection.
func (b *batch) groups() []*group {
	if b.owner.topology != driver.Cluster || b.mode == driver.Transaction {
		g := &group{futures: b.futures}
		for _, f := range b.futures {
			if len(f.th.keys) > 0 {
				g.keys = f.th.keys
				break
			}
		}
		return []*group{g}
	}

	bySlot := map[int]*group{}
	var out []*group
	for _, f := range b.futures {
		slot := -1
		if len(f.th.keys) > 0 {
			slot = redisc.Slot(f.th.keys[0])
		}
		g, ok := bySlot[slot]
		if !ok {
			g = &group{keys: f.th.keys}
			bySlot[slot] = g
			out = append(out, g)
		}
		g.futures = append(g.futures, f)
	}
	return out
}

func (b *batch) Exec(ctx context.Context) error {
	if len(b.futures) == 0 {
		return nil
	}
	for _, g := range b.groups() {
		var err error
		if b.mode == driver.Transaction {
			err = b.execTransaction(ctx, g)
		} else {
			err = b.execPipeline(ctx, g)
		}
		if err != nil {
			failPending(b.futures, err)
			return err
		}
	}
	return nil
}

func (b *batch) execPipeline(ctx context.Context, g *group) (err error) {
	conn, release, err := b.owner.source.conn(ctx, g.keys)
	if err != nil {
		return err
	}
	defer func() { release(b.owner.broken(err)) }()

	for _, f := range g.futures {
		if err := conn.Send(f.th.spec.Name, f.th.args...); err != nil {
			return err
		}
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	for _, f := range g.futures {
		reply, err := receive(ctx, conn)
		if b.owner.broken(err) {
			return err
		}
		f.resolve(fromNative(f.th.spec.Shape, reply, err))
	}
	return nil
}

func (b *batch) execTransaction(ctx context.Context, g *group) (err error) {
	conn, release, err := b.owner.source.conn(ctx, g.keys)
	if err != nil {
		return err
	}
	// Every reply is read on abort, so only other failures leave unread
	// replies behind.
	defer func() {
		release(err != nil && !errors.Is(err, driver.ErrExecAborted))
	}()

	if err := conn.Send("MULTI"); err != nil {
		return err
	}
	for _, f := range g.futures {
		if err := conn.Send(f.th.spec.Name, f.th.args...); err != nil {
			return err
		}
	}
	if err := conn.Send("EXEC"); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}

	if _, err := receive(ctx, conn); err != nil {
		return err
	}
	aborted := false
	for _, f := range g.futures {
		if _, err := receive(ctx, conn); err != nil {
			if b.owner.broken(err) {
				return err
			}
			f.queueErr = err
			aborted = true
		}
	}

	reply, err := receive(ctx, conn)
	if b.owner.broken(err) {
		return err
	}
	if aborted || err != nil || reply == nil {
		return driver.ErrExecAborted
	}

	values, err := redis.Values(reply, nil)
	if err != nil {
		return err
	}
	if len(values) != len(g.futures) {
		return fmt.Errorf("redigo: EXEC returned %d replies for %d commands", len(values), len(g.futures))
	}
	for i, f := range g.futures {
		f.resolve(fromNative(f.th.spec.Shape, values[i], nil))
	}
	return nil
}

// failPending resolves every future not yet resolved with err.
func failPending(futures []*future, err error) {
	for _, f := range futures {
		if !f.done {
			f.resolve(command.Reply{}, err)
		}
	}
}
