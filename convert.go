package kvclient

import (
	"net"
	"time"

	"github.com/pior/kvclient/command"
)

// Reply converters shared by the command constructors.

func toStatus(r command.Reply) (string, error) {
	return r.AsString()
}

// toWritten reports whether a conditional write happened: servers answer
// OK when it did and nil when the condition failed.
func toWritten(r command.Reply) (bool, error) {
	if r.IsNil() {
		return false, nil
	}
	return r.AsBool()
}

func toInt(r command.Reply) (int64, error) {
	return r.AsInt()
}

func toFloat(r command.Reply) (float64, error) {
	return r.AsFloat()
}

func toBool(r command.Reply) (bool, error) {
	return r.AsBool()
}

func toString(r command.Reply) (string, error) {
	return r.AsString()
}

func toOptionalString(r command.Reply) (Optional[string], error) {
	if r.IsNil() {
		return None[string](), nil
	}
	s, err := r.AsString()
	if err != nil {
		return Optional[string]{}, err
	}
	return Some(s), nil
}

func toOptionalInt(r command.Reply) (Optional[int64], error) {
	if r.IsNil() {
		return None[int64](), nil
	}
	n, err := r.AsInt()
	if err != nil {
		return Optional[int64]{}, err
	}
	return Some(n), nil
}

func toOptionalFloat(r command.Reply) (Optional[float64], error) {
	if r.IsNil() {
		return None[float64](), nil
	}
	f, err := r.AsFloat()
	if err != nil {
		return Optional[float64]{}, err
	}
	return Some(f), nil
}

func toStrings(r command.Reply) ([]string, error) {
	if r.IsNil() {
		return nil, nil
	}
	if r.Kind != command.ReplyArray {
		return nil, &command.ConversionError{Type: "[]string", Value: r.Kind.String() + " reply"}
	}
	out := make([]string, len(r.Array))
	for i, item := range r.Array {
		s, err := item.AsString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func toOptionalStrings(r command.Reply) ([]Optional[string], error) {
	if r.Kind != command.ReplyArray {
		return nil, &command.ConversionError{Type: "[]Optional[string]", Value: r.Kind.String() + " reply"}
	}
	out := make([]Optional[string], len(r.Array))
	for i, item := range r.Array {
		v, err := toOptionalString(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toStringMap(r command.Reply) (map[string]string, error) {
	switch r.Kind {
	case command.ReplyMap:
		return r.Map, nil
	case command.ReplyNil:
		return map[string]string{}, nil
	}
	return nil, &command.ConversionError{Type: "map[string]string", Value: r.Kind.String() + " reply"}
}

func toScored(r command.Reply) ([]ScoredMember, error) {
	if r.Kind != command.ReplyArray {
		return nil, &command.ConversionError{Type: "[]ScoredMember", Value: r.Kind.String() + " reply"}
	}
	out := make([]ScoredMember, len(r.Array))
	for i, item := range r.Array {
		if item.Kind != command.ReplyArray || len(item.Array) != 2 {
			return nil, &command.ConversionError{Type: "ScoredMember", Value: item.Kind.String() + " reply"}
		}
		member, err := item.Array[0].AsString()
		if err != nil {
			return nil, err
		}
		score, err := item.Array[1].AsFloat()
		if err != nil {
			return nil, err
		}
		out[i] = ScoredMember{Member: member, Score: score}
	}
	return out, nil
}

// toTTL converts a TTL reply in unit. Negative replies are kept as is: -1
// for keys without expiry and -2 for missing keys.
func toTTL(unit time.Duration) func(command.Reply) (time.Duration, error) {
	return func(r command.Reply) (time.Duration, error) {
		n, err := r.AsInt()
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return time.Duration(n), nil
		}
		return time.Duration(n) * unit, nil
	}
}

// toPrimary reads the address pair answered by sentinels.
func toPrimary(r command.Reply) (Optional[string], error) {
	if r.IsNil() {
		return None[string](), nil
	}
	parts, err := toStrings(r)
	if err != nil {
		return Optional[string]{}, err
	}
	if len(parts) != 2 {
		return Optional[string]{}, &command.ConversionError{Type: "primary address", Value: parts}
	}
	return Some(net.JoinHostPort(parts[0], parts[1])), nil
}
