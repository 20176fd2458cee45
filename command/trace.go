package command

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// TraceEntry is one named argument of a trace.
type TraceEntry struct {
	Name  string
	Value any
}

// Trace is the ordered record of the arguments a command was built with.
// Entries are appended while a request is described and never modified
// afterwards; accessors hand out copies.
type Trace struct {
	entries []TraceEntry
}

// Append adds an entry at the end of the trace.
func (t *Trace) Append(name string, value any) {
	t.entries = append(t.entries, TraceEntry{Name: name, Value: value})
}

func (t Trace) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in insertion order.
func (t Trace) Entries() []TraceEntry {
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup returns the value of the first entry named name.
func (t Trace) Lookup(name string) (any, bool) {
	for _, e := range t.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// String renders the trace as "name=value" pairs.
func (t Trace) String() string {
	var b strings.Builder
	for i, e := range t.entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.Name)
		b.WriteByte('=')
		b.WriteString(formatValue(e.Value))
	}
	return b.String()
}

// Fingerprint is a stable hash of the trace, used to correlate log lines
// about the same call without logging payloads twice.
func (t Trace) Fingerprint() uint64 {
	return xxh3.HashString(t.String())
}

// LogValue implements slog.LogValuer.
func (t Trace) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(t.entries)+1)
	for _, e := range t.entries {
		attrs = append(attrs, slog.String(e.Name, formatValue(e.Value)))
	}
	attrs = append(attrs, slog.String("fingerprint", strconv.FormatUint(t.Fingerprint(), 16)))
	return slog.GroupValue(attrs...)
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case []byte:
		return fmt.Sprintf("bytes(%d)", len(v))
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
