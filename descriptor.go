package kvclient

import (
	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// Converter turns a normalized reply into a domain value.
type Converter[T any] func(command.Reply) (T, error)

// Descriptor is a prepared call: the command, its argument trace, the
// driver thunks that run it and the converter of its reply. It is built
// without I/O and never modified afterwards.
//
// A call split across cluster slots holds one thunk per slot and merges
// their replies in the caller's order.
type Descriptor[T any] struct {
	id      command.ID
	trace   command.Trace
	thunks  []driver.Thunk
	merge   func([]command.Reply) (command.Reply, error)
	convert Converter[T]
}

// NewDescriptor describes a call run by a single thunk.
func NewDescriptor[T any](id command.ID, trace command.Trace, thunk driver.Thunk, convert func(command.Reply) (T, error)) *Descriptor[T] {
	return &Descriptor[T]{
		id:      id,
		trace:   trace,
		thunks:  []driver.Thunk{thunk},
		convert: convert,
	}
}

func (d *Descriptor[T]) Command() command.ID { return d.id }

// Sub is the sub-command of the call, if any.
func (d *Descriptor[T]) Sub() string { return d.id.Spec().Sub }

func (d *Descriptor[T]) Trace() command.Trace { return d.trace }

// Thunks returns the driver invocations of the call.
func (d *Descriptor[T]) Thunks() []driver.Thunk {
	out := make([]driver.Thunk, len(d.thunks))
	copy(out, d.thunks)
	return out
}

// combine folds the replies of the thunks into the reply of the call.
func (d *Descriptor[T]) combine(replies []command.Reply) (command.Reply, error) {
	if d.merge == nil {
		return replies[0], nil
	}
	return d.merge(replies)
}

// finish converts the reply, wrapping failures with the call context.
func (d *Descriptor[T]) finish(reply command.Reply, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, d.wrap(err)
	}
	v, err := d.convert(reply)
	if err != nil {
		return zero, d.wrap(err)
	}
	return v, nil
}

func (d *Descriptor[T]) wrap(err error) *CommandError {
	return &CommandError{Command: d.id, Sub: d.Sub(), Trace: d.trace, Err: err}
}

// describe plans cmd for the topology and prepares its thunks.
func describe[T any](drv driver.Driver, plan Plan, cmd Cmd[T]) (*Descriptor[T], error) {
	req := cmd.Request()
	d := &Descriptor[T]{
		id:      req.ID,
		trace:   req.Trace(),
		thunks:  make([]driver.Thunk, 0, len(plan.Requests)),
		merge:   plan.Merge,
		convert: cmd.convert,
	}
	for _, part := range plan.Requests {
		th, err := drv.Prepare(part)
		if err != nil {
			return nil, d.wrap(err)
		}
		d.thunks = append(d.thunks, th)
	}
	return d, nil
}
