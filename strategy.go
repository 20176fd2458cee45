package kvclient

import (
	"context"
	"errors"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// Mode is the execution mode of a client.
type Mode uint8

const (
	// ModeDirect runs every call as it is made.
	ModeDirect Mode = iota
	// ModePipeline queues calls until Flush sends them in one round trip.
	ModePipeline
	// ModeTransaction queues calls until Exec runs them atomically.
	ModeTransaction
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModePipeline:
		return "pipeline"
	case ModeTransaction:
		return "transaction"
	}
	return "unknown"
}

func (m Mode) batch() driver.Mode {
	if m == ModeTransaction {
		return driver.Transaction
	}
	return driver.Pipeline
}

// op is the untyped view of a descriptor held by strategies.
type op interface {
	Command() command.ID
	Sub() string
	Trace() command.Trace
	Thunks() []driver.Thunk
	combine(replies []command.Reply) (command.Reply, error)
	wrap(err error) *CommandError
}

// directStrategy invokes the thunks of a call one after the other and
// merges their replies.
type directStrategy struct {
	c *Client
}

func (s directStrategy) run(ctx context.Context, o op) (command.Reply, error) {
	thunks := o.Thunks()
	replies := make([]command.Reply, len(thunks))
	for i, th := range thunks {
		reply, err := s.c.guard(func() (command.Reply, error) {
			return s.c.driver.Invoke(ctx, th)
		})
		if err != nil {
			return command.Reply{}, err
		}
		replies[i] = reply
	}
	return o.combine(replies)
}

// queued is a call waiting for its batch.
type queued struct {
	op      op
	futures []driver.Future

	// slot is the cluster slot of the call, or -1.
	slot int

	// settle converts the reply and resolves the typed result. It returns
	// the value or the *CommandError placed in the flush output.
	settle func(reply command.Reply, err error) any

	// reject records the queue-time error of a transaction.
	reject func(err error)

	drop func()
}

// batchStrategy collects calls into a driver batch. Calls resolve in queue
// order whatever their reply types.
type batchStrategy struct {
	mode  Mode
	batch driver.Batch
	calls []*queued

	// slot pins a cluster transaction to the node of its first keyed call.
	slot int
}

func newBatchStrategy(ctx context.Context, drv driver.Driver, mode Mode) (*batchStrategy, error) {
	b, err := drv.Begin(ctx, mode.batch())
	if err != nil {
		return nil, err
	}
	return &batchStrategy{mode: mode, batch: b, slot: -1}, nil
}

// admit checks that plan may join the batch. The slot is only pinned once
// a call is queued.
func (s *batchStrategy) admit(req command.Request, plan Plan, topology driver.Topology) error {
	if s.mode != ModeTransaction || plan.Slot < 0 {
		return nil
	}
	if s.slot >= 0 && s.slot != plan.Slot {
		return &UnsupportedError{
			Command:  req.ID,
			Topology: topology,
			Reason:   "transaction already bound to another slot",
			Trace:    req.Trace(),
			Err:      ErrCrossSlot,
		}
	}
	return nil
}

func (s *batchStrategy) enqueue(ctx context.Context, q *queued) error {
	// A thunk queued before a failing one is still sent; its reply is
	// ignored.
	for _, th := range q.op.Thunks() {
		f, err := s.batch.Queue(ctx, th)
		if err != nil {
			return q.op.wrap(err)
		}
		q.futures = append(q.futures, f)
	}
	s.calls = append(s.calls, q)
	if s.mode == ModeTransaction && s.slot < 0 {
		s.slot = q.slot
	}
	return nil
}

// exec runs the batch and resolves every call. The values are in queue
// order: the converted value of each call, or its *CommandError.
func (s *batchStrategy) exec(ctx context.Context, c *Client) ([]any, error) {
	if len(s.calls) == 0 {
		return []any{}, nil
	}
	_, err := c.guard(func() (command.Reply, error) {
		return command.Reply{}, s.batch.Exec(ctx)
	})

	if s.mode == ModeTransaction && errors.Is(err, driver.ErrExecAborted) {
		return nil, s.abort()
	}

	values := make([]any, len(s.calls))
	var first error
	for i, q := range s.calls {
		reply, rerr := collect(q)
		if err != nil && errors.Is(rerr, driver.ErrNotExecuted) {
			rerr = err
		}
		if rerr == nil {
			reply, rerr = q.op.combine(reply.Array)
		}
		values[i] = q.settle(reply, rerr)
		if ce, ok := values[i].(*CommandError); ok && first == nil {
			first = ce
		}
	}
	if err != nil {
		return values, err
	}
	return values, first
}

// collect gathers the replies of the futures of q into an array reply.
func collect(q *queued) (command.Reply, error) {
	replies := make([]command.Reply, len(q.futures))
	for i, f := range q.futures {
		r, err := f.Reply()
		if err != nil {
			return command.Reply{}, err
		}
		replies[i] = r
	}
	return command.ArrayReply(replies...), nil
}

// abort fails every call of a transaction the server refused to run.
func (s *batchStrategy) abort() error {
	txErr := &TxQueueError{}
	for _, q := range s.calls {
		for _, f := range q.futures {
			if qerr := f.QueueErr(); qerr != nil {
				ce := q.op.wrap(qerr)
				q.reject(ce)
				txErr.Rejected = append(txErr.Rejected, ce)
				break
			}
		}
	}
	for _, q := range s.calls {
		q.settle(command.Reply{}, txErr)
	}
	return txErr
}

func (s *batchStrategy) discard() error {
	for _, q := range s.calls {
		q.drop()
	}
	s.calls = nil
	return s.batch.Discard()
}
