package kvclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

var (
	// ErrModeConflict is returned when an operation does not fit the
	// current execution mode, such as opening a pipeline inside a
	// transaction.
	ErrModeConflict = errors.New("kvclient: execution mode conflict")

	// ErrNotResolved is returned when reading a result whose batch has not
	// been flushed yet.
	ErrNotResolved = fmt.Errorf("%w: result read before its batch ran", ErrModeConflict)

	// ErrUnsupported is wrapped by every UnsupportedError.
	ErrUnsupported = errors.New("kvclient: unsupported operation")

	// ErrCrossSlot is returned on cluster topologies for calls whose keys
	// span several hash slots.
	ErrCrossSlot = fmt.Errorf("%w: keys span several cluster slots", ErrUnsupported)

	// ErrDiscarded is returned by results of a discarded transaction.
	ErrDiscarded = errors.New("kvclient: transaction discarded")

	// ErrTxAborted is wrapped by TxQueueError.
	ErrTxAborted = errors.New("kvclient: transaction aborted")

	ErrClientClosed = errors.New("kvclient: client closed")
)

// UnsupportedError reports a command the topology does not allow. It is
// returned before anything reaches the driver.
type UnsupportedError struct {
	Command  command.ID
	Topology driver.Topology
	Reason   string
	Trace    command.Trace

	// Err is ErrUnsupported or ErrCrossSlot.
	Err error
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("kvclient: %s not supported on %s topology: %s", e.Command, e.Topology, e.Reason)
}

func (e *UnsupportedError) Unwrap() error {
	return e.Err
}

// CommandError is a failed invocation with the context needed to
// reproduce it.
type CommandError struct {
	Command command.ID
	Sub     string
	Trace   command.Trace
	Err     error
}

func (e *CommandError) Error() string {
	if e.Trace.Len() == 0 {
		return fmt.Sprintf("kvclient: %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("kvclient: %s (%s): %v", e.Command, e.Trace, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// TxQueueError is returned by Exec when the server rejected commands while
// they were queued. Nothing of the transaction was applied.
type TxQueueError struct {
	Rejected []*CommandError
}

func (e *TxQueueError) Error() string {
	if len(e.Rejected) == 0 {
		return ErrTxAborted.Error()
	}
	parts := make([]string, len(e.Rejected))
	for i, ce := range e.Rejected {
		parts[i] = ce.Error()
	}
	return fmt.Sprintf("%s: %d command(s) rejected: %s", ErrTxAborted, len(e.Rejected), strings.Join(parts, "; "))
}

func (e *TxQueueError) Unwrap() []error {
	errs := make([]error, 0, len(e.Rejected)+1)
	errs = append(errs, ErrTxAborted)
	for _, ce := range e.Rejected {
		errs = append(errs, ce)
	}
	return errs
}

func modeConflict(op string, mode Mode) error {
	return fmt.Errorf("%w: %s in %s mode", ErrModeConflict, op, mode)
}
