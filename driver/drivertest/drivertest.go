// Package drivertest provides an in-memory driver.Driver that records every
// native invocation, for testing dispatch logic without a server.
package drivertest

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// ReplyError is an error reply produced by the in-memory handler.
type ReplyError string

func (e ReplyError) Error() string { return string(e) }

// Handler answers one request.
type Handler func(req command.Request) (command.Reply, error)

// Driver is a spy driver. Its counters only move when a native call would
// have reached the server.
type Driver struct {
	topology driver.Topology

	// Handler answers requests. Defaults to a Memory store.
	Handler Handler

	// RejectQueue, when set, rejects requests at queue time inside
	// transactions, like a server answering an error instead of QUEUED.
	RejectQueue func(req command.Request) error

	// ExecErr, when set, fails every batch execution as a transport error.
	ExecErr error

	mu          sync.Mutex
	prepared    int
	invocations int
	execs       int
	discards    int
	sent        []command.ID
	closed      bool
}

// New returns a spy driver backed by a fresh Memory store.
func New(topology driver.Topology) *Driver {
	return &Driver{topology: topology, Handler: NewMemory().Handle}
}

type thunk struct {
	owner *Driver
	req   command.Request
}

func (t *thunk) Command() command.ID { return t.req.ID }

func (d *Driver) Name() string               { return "drivertest" }
func (d *Driver) Topology() driver.Topology  { return d.topology }
func (d *Driver) IsReplyError(err error) bool { return errors.As(err, new(ReplyError)) }

func (d *Driver) Prepare(req command.Request) (driver.Thunk, error) {
	for _, a := range req.Args {
		if v, ok := a.Value.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return nil, err
			}
		}
	}
	d.mu.Lock()
	d.prepared++
	d.mu.Unlock()
	return &thunk{owner: d, req: req}, nil
}

func (d *Driver) thunk(t driver.Thunk) (*thunk, error) {
	th, ok := t.(*thunk)
	if !ok || th.owner != d {
		return nil, driver.ErrForeignThunk
	}
	return th, nil
}

func (d *Driver) Invoke(ctx context.Context, t driver.Thunk) (command.Reply, error) {
	th, err := d.thunk(t)
	if err != nil {
		return command.Reply{}, err
	}
	if err := ctx.Err(); err != nil {
		return command.Reply{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invocations++
	d.sent = append(d.sent, th.req.ID)
	return d.Handler(th.req)
}

func (d *Driver) Begin(ctx context.Context, mode driver.Mode) (driver.Batch, error) {
	return &batch{owner: d, mode: mode}, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Prepared is the number of thunks built.
func (d *Driver) Prepared() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prepared
}

// Invocations is the number of commands that reached the handler, directly
// or through a batch.
func (d *Driver) Invocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.invocations
}

// Execs is the number of batches sent.
func (d *Driver) Execs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.execs
}

// Discards is the number of batches dropped.
func (d *Driver) Discards() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discards
}

// Sent returns the commands that reached the handler, in order.
func (d *Driver) Sent() []command.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]command.ID(nil), d.sent...)
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type batch struct {
	owner   *Driver
	mode    driver.Mode
	futures []*future
}

type future struct {
	req      command.Request
	done     bool
	reply    command.Reply
	err      error
	queueErr error
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
	f := &future{req: th.req}
	b.futures = append(b.futures, f)
	return f, nil
}

func (b *batch) Exec(ctx context.Context) error {
	d := b.owner
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execs++

	if d.ExecErr != nil {
		for _, f := range b.futures {
			f.done, f.err = true, d.ExecErr
		}
		return d.ExecErr
	}

	if b.mode == driver.Transaction && d.RejectQueue != nil {
		aborted := false
		for _, f := range b.futures {
			if err := d.RejectQueue(f.req); err != nil {
				f.queueErr = err
				aborted = true
			}
		}
		if aborted {
			for _, f := range b.futures {
				f.done, f.err = true, driver.ErrExecAborted
			}
			return driver.ErrExecAborted
		}
	}

	for _, f := range b.futures {
		d.invocations++
		d.sent = append(d.sent, f.req.ID)
		f.reply, f.err = d.Handler(f.req)
		f.done = true
	}
	return nil
}

func (b *batch) Discard() error {
	b.owner.mu.Lock()
	b.owner.discards++
	b.owner.mu.Unlock()
	b.futures = nil
	return nil
}

// Memory is a minimal in-memory keyspace answering string and key
// commands.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

var errNotInteger = ReplyError("ERR value is not an integer or out of range")

// Handle answers req against the store.
func (m *Memory) Handle(req command.Request) (command.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := req.Args
	switch req.ID {
	case command.Ping:
		return command.StatusReply("PONG"), nil
	case command.Echo:
		return command.BulkReply(args[0].String()), nil
	case command.Get:
		v, ok := m.data[args[0].String()]
		if !ok {
			return command.NilReply(), nil
		}
		return command.BulkReply(v), nil
	case command.Set:
		key := args[0].String()
		var opts command.SetOptions
		if len(args) > 2 {
			opts, _ = args[2].Value.(command.SetOptions)
		}
		_, exists := m.data[key]
		if (opts.Condition == command.SetIfAbsent && exists) || (opts.Condition == command.SetIfPresent && !exists) {
			return command.NilReply(), nil
		}
		m.data[key] = args[1].String()
		return command.StatusReply("OK"), nil
	case command.Incr, command.IncrBy, command.Decr, command.DecrBy:
		delta := int64(1)
		if len(args) > 1 {
			delta, _ = args[1].Value.(int64)
		}
		if req.ID == command.Decr || req.ID == command.DecrBy {
			delta = -delta
		}
		key := args[0].String()
		var n int64
		if v, ok := m.data[key]; ok {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return command.Reply{}, errNotInteger
			}
			n = parsed
		}
		n += delta
		m.data[key] = strconv.FormatInt(n, 10)
		return command.IntReply(n), nil
	case command.Del, command.Unlink, command.Exists, command.Touch:
		var n int64
		for _, a := range args {
			if _, ok := m.data[a.String()]; ok {
				n++
				if req.ID == command.Del || req.ID == command.Unlink {
					delete(m.data, a.String())
				}
			}
		}
		return command.IntReply(n), nil
	case command.MGet:
		items := make([]command.Reply, len(args))
		for i, a := range args {
			if v, ok := m.data[a.String()]; ok {
				items[i] = command.BulkReply(v)
			} else {
				items[i] = command.NilReply()
			}
		}
		return command.ArrayReply(items...), nil
	case command.MSet:
		for i := 0; i+1 < len(args); i += 2 {
			m.data[args[i].String()] = args[i+1].String()
		}
		return command.StatusReply("OK"), nil
	case command.SentinelGetMasterAddrByName:
		return command.ArrayReply(command.BulkReply("127.0.0.1"), command.BulkReply("6379")), nil
	case command.ClusterKeySlot:
		return command.IntReply(0), nil
	}
	return command.Reply{}, ReplyError("ERR unknown command '" + req.ID.String() + "'")
}
