package kvclient

import (
	"github.com/pior/kvclient/command"
)

// Cmd is a catalogued request with the converter of its reply. Commands
// are built by the constructors of this package (Get, Set, ZAdd, ...) and
// run with Call or Do.
type Cmd[T any] struct {
	req     command.Request
	convert Converter[T]
}

// NewCmd pairs a request with a reply converter, for commands without a
// dedicated constructor.
func NewCmd[T any](req command.Request, convert func(command.Reply) (T, error)) Cmd[T] {
	return Cmd[T]{req: req, convert: convert}
}

// Request returns the request sent by the command.
func (c Cmd[T]) Request() command.Request {
	return c.req
}

func newCmd[T any](convert func(command.Reply) (T, error), id command.ID, args ...command.Arg) Cmd[T] {
	return Cmd[T]{req: command.NewRequest(id, args...), convert: convert}
}

// Pair is a name and a value, such as a key and its value for MSet or a
// field and its value for HSet.
type Pair struct {
	Name  string
	Value string
}

func keyArgs(keys []string) []command.Arg {
	args := make([]command.Arg, len(keys))
	for i, k := range keys {
		args[i] = command.Key("key", k)
	}
	return args
}

func textArgs(name string, values []string) []command.Arg {
	args := make([]command.Arg, len(values))
	for i, v := range values {
		args[i] = command.Text(name, v)
	}
	return args
}

// with prepends head to the arguments in rest.
func with(rest []command.Arg, head ...command.Arg) []command.Arg {
	return append(head, rest...)
}
