package command

import (
	"fmt"
	"strconv"
)

// ReplyKind is the kind of a normalized reply.
type ReplyKind uint8

const (
	ReplyNil ReplyKind = iota
	ReplyStatus
	ReplyInt
	ReplyFloat
	ReplyBool
	ReplyBulk
	ReplyArray
	ReplyMap
)

var replyKindNames = [...]string{
	ReplyNil:    "nil",
	ReplyStatus: "status",
	ReplyInt:    "int",
	ReplyFloat:  "float",
	ReplyBool:   "bool",
	ReplyBulk:   "bulk",
	ReplyArray:  "array",
	ReplyMap:    "map",
}

func (k ReplyKind) String() string {
	if int(k) < len(replyKindNames) {
		return replyKindNames[k]
	}
	return "unknown"
}

// Reply is a driver-neutral server reply. Bulk payloads are kept in Str;
// Go strings hold arbitrary bytes, so binary values survive unchanged.
type Reply struct {
	Kind  ReplyKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Array []Reply
	Map   map[string]string
}

func NilReply() Reply                 { return Reply{Kind: ReplyNil} }
func StatusReply(s string) Reply      { return Reply{Kind: ReplyStatus, Str: s} }
func IntReply(n int64) Reply          { return Reply{Kind: ReplyInt, Int: n} }
func FloatReply(f float64) Reply      { return Reply{Kind: ReplyFloat, Float: f} }
func BoolReply(b bool) Reply          { return Reply{Kind: ReplyBool, Bool: b} }
func BulkReply(s string) Reply        { return Reply{Kind: ReplyBulk, Str: s} }
func ArrayReply(items ...Reply) Reply { return Reply{Kind: ReplyArray, Array: items} }

func MapReply(m map[string]string) Reply {
	return Reply{Kind: ReplyMap, Map: m}
}

// IsNil reports whether the reply is the absent value.
func (r Reply) IsNil() bool {
	return r.Kind == ReplyNil
}

// AsInt returns the reply as an integer. Bulk and status replies holding a
// decimal number are accepted, as some servers answer counters that way.
func (r Reply) AsInt() (int64, error) {
	switch r.Kind {
	case ReplyInt:
		return r.Int, nil
	case ReplyBool:
		if r.Bool {
			return 1, nil
		}
		return 0, nil
	case ReplyBulk, ReplyStatus:
		n, err := strconv.ParseInt(r.Str, 10, 64)
		if err != nil {
			return 0, &ConversionError{Type: "int", Value: r.Str}
		}
		return n, nil
	}
	return 0, r.mismatch("int")
}

func (r Reply) AsFloat() (float64, error) {
	switch r.Kind {
	case ReplyFloat:
		return r.Float, nil
	case ReplyInt:
		return float64(r.Int), nil
	case ReplyBulk, ReplyStatus:
		f, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return 0, &ConversionError{Type: "float", Value: r.Str}
		}
		return f, nil
	}
	return 0, r.mismatch("float")
}

func (r Reply) AsBool() (bool, error) {
	switch r.Kind {
	case ReplyBool:
		return r.Bool, nil
	case ReplyInt:
		return r.Int != 0, nil
	case ReplyStatus:
		return r.Str == "OK", nil
	}
	return false, r.mismatch("bool")
}

// AsString returns bulk and status payloads.
func (r Reply) AsString() (string, error) {
	switch r.Kind {
	case ReplyBulk, ReplyStatus:
		return r.Str, nil
	case ReplyInt:
		return strconv.FormatInt(r.Int, 10), nil
	case ReplyFloat:
		return strconv.FormatFloat(r.Float, 'f', -1, 64), nil
	}
	return "", r.mismatch("string")
}

func (r Reply) mismatch(want string) error {
	return &ConversionError{Type: want, Value: fmt.Sprintf("%s reply", r.Kind)}
}
