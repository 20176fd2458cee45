package command

import (
	"bytes"
	"time"
)

// Kind is the type of an argument value.
type Kind uint8

const (
	KindKey Kind = iota + 1
	KindText
	KindBytes
	KindInt
	KindFloat
	KindDuration
	KindOption
	KindLiteral
)

var kindNames = [...]string{
	KindKey:      "key",
	KindText:     "text",
	KindBytes:    "bytes",
	KindInt:      "int",
	KindFloat:    "float",
	KindDuration: "duration",
	KindOption:   "option",
	KindLiteral:  "literal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Arg is a named, typed command argument.
type Arg struct {
	Name  string
	Kind  Kind
	Value any

	// Unit is the wire precision of a duration argument (time.Second or
	// time.Millisecond).
	Unit time.Duration
}

func Key(name, key string) Arg {
	return Arg{Name: name, Kind: KindKey, Value: key}
}

func Text(name, s string) Arg {
	return Arg{Name: name, Kind: KindText, Value: s}
}

// Bytes copies b, so the caller may reuse its buffer once the call is made.
func Bytes(name string, b []byte) Arg {
	return Arg{Name: name, Kind: KindBytes, Value: bytes.Clone(b)}
}

func Int(name string, n int64) Arg {
	return Arg{Name: name, Kind: KindInt, Value: n}
}

func Float(name string, f float64) Arg {
	return Arg{Name: name, Kind: KindFloat, Value: f}
}

// Seconds is a duration sent as whole seconds.
func Seconds(name string, d time.Duration) Arg {
	return Arg{Name: name, Kind: KindDuration, Value: d, Unit: time.Second}
}

// Millis is a duration sent as whole milliseconds.
func Millis(name string, d time.Duration) Arg {
	return Arg{Name: name, Kind: KindDuration, Value: d, Unit: time.Millisecond}
}

// Opt carries a domain enumeration or option object. Drivers translate it
// through their converter registry.
func Opt(name string, o Option) Arg {
	return Arg{Name: name, Kind: KindOption, Value: o}
}

// Literal is a fixed keyword such as WITHSCORES.
func Literal(keyword string) Arg {
	return Arg{Name: keyword, Kind: KindLiteral, Value: keyword}
}

// String returns the argument as a string for key, text, bytes and literal
// arguments.
func (a Arg) String() string {
	switch v := a.Value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// Request is a catalogued command with its arguments, before any driver has
// seen it.
type Request struct {
	ID   ID
	Args []Arg
}

func NewRequest(id ID, args ...Arg) Request {
	return Request{ID: id, Args: args}
}

// Spec returns the catalog entry of the request's command.
func (r Request) Spec() Spec {
	return r.ID.Spec()
}

// Keys returns the keys referenced by the request, in argument order.
func (r Request) Keys() []string {
	var keys []string
	for _, a := range r.Args {
		if a.Kind == KindKey {
			keys = append(keys, a.String())
		}
	}
	return keys
}

// Trace builds the argument trace of the request.
func (r Request) Trace() Trace {
	t := Trace{entries: make([]TraceEntry, 0, len(r.Args))}
	for _, a := range r.Args {
		t.Append(a.Name, a.Value)
	}
	return t
}

// With returns a request for the same command with other arguments.
func (r Request) With(args []Arg) Request {
	return Request{ID: r.ID, Args: args}
}

// Flatten renders the arguments as a flat list of native values: sub-command
// first, then keys and text as strings, bytes untouched, integers as int64,
// floats as float64 and durations converted to their unit. Options are
// rendered by encode, which is the driver's converter registry.
func (r Request) Flatten(encode func(Option) ([]any, error)) ([]any, error) {
	spec := r.Spec()
	out := make([]any, 0, len(r.Args)+1)
	if spec.Sub != "" {
		out = append(out, spec.Sub)
	}
	for _, a := range r.Args {
		switch a.Kind {
		case KindKey, KindText, KindLiteral:
			out = append(out, a.String())
		case KindBytes:
			b, _ := a.Value.([]byte)
			out = append(out, b)
		case KindInt, KindFloat:
			out = append(out, a.Value)
		case KindDuration:
			d, _ := a.Value.(time.Duration)
			unit := a.Unit
			if unit <= 0 {
				unit = time.Second
			}
			out = append(out, int64(d/unit))
		case KindOption:
			o, ok := a.Value.(Option)
			if !ok {
				return nil, &ConversionError{Type: "option", Value: a.Value}
			}
			tokens, err := encode(o)
			if err != nil {
				return nil, err
			}
			out = append(out, tokens...)
		default:
			return nil, &ConversionError{Type: a.Kind.String(), Value: a.Value}
		}
	}
	return out, nil
}
