// Package driver defines the contract between kvclient and the low-level
// client libraries it runs on.
//
// A Driver turns a command.Request into an opaque Thunk (its native call,
// with every domain option already converted), invokes thunks directly, and
// opens batches for pipelined or transactional execution. Drivers own
// connection pooling, TLS and reconnection; kvclient never retries.
package driver

import (
	"context"
	"errors"

	"github.com/pior/kvclient/command"
)

var (
	// ErrNotExecuted is returned by Future.Reply before its batch ran.
	ErrNotExecuted = errors.New("driver: batch not executed")

	// ErrExecAborted is returned by Batch.Exec when the server refused to
	// run a transaction because a command was rejected while queuing.
	ErrExecAborted = errors.New("driver: transaction aborted")

	// ErrForeignThunk is returned when a thunk prepared by another driver
	// is handed over.
	ErrForeignThunk = errors.New("driver: thunk prepared by another driver")

	// ErrNoSentinel is returned when a sentinel command reaches a driver
	// that is not connected to sentinels.
	ErrNoSentinel = errors.New("driver: no sentinel connection")
)

// Thunk is a prepared native invocation. Only the driver that built it can
// run it.
type Thunk interface {
	Command() command.ID
}

// Mode selects the kind of batch opened by Begin.
type Mode uint8

const (
	Pipeline Mode = iota + 1
	Transaction
)

func (m Mode) String() string {
	switch m {
	case Pipeline:
		return "pipeline"
	case Transaction:
		return "transaction"
	}
	return "unknown"
}

// Driver is a native client library adapted to the command model.
type Driver interface {
	// Name is the registry name of the driver.
	Name() string

	// Topology is the deployment the driver is connected to.
	Topology() Topology

	// Prepare converts a request into a native thunk. It performs no I/O.
	Prepare(req command.Request) (Thunk, error)

	// Invoke runs a thunk and returns its normalized reply. Absent values
	// are command.ReplyNil, not errors.
	Invoke(ctx context.Context, t Thunk) (command.Reply, error)

	// Begin opens a batch. Nothing is sent before Batch.Exec.
	Begin(ctx context.Context, mode Mode) (Batch, error)

	// IsReplyError reports whether err is an error reply from the server,
	// as opposed to a transport or protocol failure.
	IsReplyError(err error) bool

	Close() error
}

// Batch collects thunks and sends them in one round trip.
type Batch interface {
	// Queue appends a thunk. Futures resolve in queue order.
	Queue(ctx context.Context, t Thunk) (Future, error)

	// Exec sends the batch and resolves every future. Per-command failures
	// are reported by the futures; Exec only fails for transport errors or
	// ErrExecAborted.
	Exec(ctx context.Context) error

	// Discard drops the batch without sending anything.
	Discard() error

	Len() int
}

// Future is the native result of a queued thunk.
type Future interface {
	// Reply returns the normalized reply, or ErrNotExecuted before Exec.
	Reply() (command.Reply, error)

	// QueueErr is the error the server answered instead of QUEUED inside a
	// transaction, if any.
	QueueErr() error
}
