package redigo

import (
	"strconv"
	"strings"
	"time"

	"github.com/pior/kvclient/command"
)

// Converter registry: domain enumerations to wire tokens. An empty token
// means the modifier is omitted.
var (
	setTokens = command.NewTable("set condition", map[command.SetCondition]string{
		command.SetAlways:    "",
		command.SetIfAbsent:  "NX",
		command.SetIfPresent: "XX",
	})

	expireTokens = command.NewTable("expire condition", map[command.ExpireCondition]string{
		command.ExpireAlways:    "",
		command.ExpireIfNoTTL:   "NX",
		command.ExpireIfHasTTL:  "XX",
		command.ExpireIfGreater: "GT",
		command.ExpireIfLess:    "LT",
	})

	compareTokens = command.NewTable("zadd comparison", map[command.ZCompare]string{
		command.ZCompareNone:    "",
		command.ZCompareGreater: "GT",
		command.ZCompareLess:    "LT",
	})

	directionTokens = command.NewTable("list direction", map[command.ListDirection]string{
		command.Left:  "LEFT",
		command.Right: "RIGHT",
	})

	aggregateTokens = command.NewTable("aggregate", map[command.Aggregate]string{
		command.AggregateSum: "SUM",
		command.AggregateMin: "MIN",
		command.AggregateMax: "MAX",
	})

	bitOpTokens = command.NewTable("bit operation", map[command.BitOperation]string{
		command.BitAnd: "AND",
		command.BitOr:  "OR",
		command.BitXor: "XOR",
		command.BitNot: "NOT",
	})

	unitTokens = command.NewTable("geo unit", map[command.GeoUnit]string{
		command.Meters:     "m",
		command.Kilometers: "km",
		command.Miles:      "mi",
		command.Feet:       "ft",
	})

	flushTokens = command.NewTable("flush mode", map[command.FlushMode]string{
		command.FlushSync:  "SYNC",
		command.FlushAsync: "ASYNC",
	})
)

// encodeOption renders an option as wire arguments.
func encodeOption(o command.Option) ([]any, error) {
	switch v := o.(type) {
	case command.SetCondition:
		return token(setTokens.ToNative(v))
	case command.ExpireCondition:
		return token(expireTokens.ToNative(v))
	case command.ZCompare:
		return token(compareTokens.ToNative(v))
	case command.ListDirection:
		return token(directionTokens.ToNative(v))
	case command.Aggregate:
		return token(aggregateTokens.ToNative(v))
	case command.BitOperation:
		return token(bitOpTokens.ToNative(v))
	case command.GeoUnit:
		return token(unitTokens.ToNative(v))
	case command.FlushMode:
		return token(flushTokens.ToNative(v))
	case command.SetOptions:
		return encodeSetOptions(v)
	case command.ZAddOptions:
		return encodeZAddOptions(v)
	case command.ZStoreOptions:
		return encodeZStoreOptions(v)
	}
	return nil, &command.ConversionError{Type: "redigo argument", Value: o}
}

func token(tok string, err error) ([]any, error) {
	if err != nil || tok == "" {
		return nil, err
	}
	return []any{tok}, nil
}

// encodeSetOptions renders the condition, then one expiry. KeepTTL wins
// over ExpireAt, which wins over TTL.
func encodeSetOptions(o command.SetOptions) ([]any, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	out, err := token(setTokens.ToNative(o.Condition))
	if err != nil {
		return nil, err
	}
	switch {
	case o.KeepTTL:
		out = append(out, "KEEPTTL")
	case !o.ExpireAt.IsZero():
		out = append(out, "PXAT", o.ExpireAt.UnixMilli())
	case o.TTL > 0 && o.TTL%time.Second == 0:
		out = append(out, "EX", int64(o.TTL/time.Second))
	case o.TTL > 0:
		out = append(out, "PX", o.TTL.Milliseconds())
	}
	return out, nil
}

// ParseSetOptions reads SET modifiers written in wire syntax, such as
// "NX EX 10". It is the reverse of the driver's SET encoding.
func ParseSetOptions(tokens []string) (command.SetOptions, error) {
	var o command.SetOptions
	for i := 0; i < len(tokens); i++ {
		tok := strings.ToUpper(tokens[i])
		switch tok {
		case "NX", "XX":
			cond, err := setTokens.FromNative(tok)
			if err != nil {
				return o, err
			}
			o.Condition = cond
		case "KEEPTTL":
			o.KeepTTL = true
		case "EX", "PX", "PXAT":
			if i+1 >= len(tokens) {
				return o, &command.ConversionError{Type: "set options", Value: tok}
			}
			n, err := strconv.ParseInt(tokens[i+1], 10, 64)
			if err != nil {
				return o, &command.ConversionError{Type: "set options", Value: tokens[i+1]}
			}
			i++
			switch tok {
			case "EX":
				o.TTL = time.Duration(n) * time.Second
			case "PX":
				o.TTL = time.Duration(n) * time.Millisecond
			case "PXAT":
				o.ExpireAt = time.UnixMilli(n)
			}
		default:
			return o, &command.ConversionError{Type: "set options", Value: tok}
		}
	}
	return o, nil
}

// encodeZAddOptions renders condition, comparison, then CH.
func encodeZAddOptions(o command.ZAddOptions) ([]any, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	out, err := token(setTokens.ToNative(o.Condition))
	if err != nil {
		return nil, err
	}
	cmp, err := token(compareTokens.ToNative(o.Compare))
	if err != nil {
		return nil, err
	}
	out = append(out, cmp...)
	if o.Changed {
		out = append(out, "CH")
	}
	return out, nil
}

// ParseZAddOptions reads ZADD modifiers written in wire syntax.
func ParseZAddOptions(tokens []string) (command.ZAddOptions, error) {
	var o command.ZAddOptions
	for _, t := range tokens {
		tok := strings.ToUpper(t)
		switch tok {
		case "NX", "XX":
			cond, err := setTokens.FromNative(tok)
			if err != nil {
				return o, err
			}
			o.Condition = cond
		case "GT", "LT":
			cmp, err := compareTokens.FromNative(tok)
			if err != nil {
				return o, err
			}
			o.Compare = cmp
		case "CH":
			o.Changed = true
		default:
			return o, &command.ConversionError{Type: "zadd options", Value: tok}
		}
	}
	return o, o.Validate()
}

// encodeZStoreOptions renders weights, then the aggregate.
func encodeZStoreOptions(o command.ZStoreOptions) ([]any, error) {
	agg, err := aggregateTokens.ToNative(o.Aggregate)
	if err != nil {
		return nil, err
	}
	var out []any
	if len(o.Weights) > 0 {
		out = append(out, "WEIGHTS")
		for _, w := range o.Weights {
			out = append(out, w)
		}
	}
	return append(out, "AGGREGATE", agg), nil
}

// ParseZStoreOptions reads ZUNIONSTORE modifiers written in wire syntax.
func ParseZStoreOptions(tokens []string) (command.ZStoreOptions, error) {
	var o command.ZStoreOptions
	for i := 0; i < len(tokens); i++ {
		switch strings.ToUpper(tokens[i]) {
		case "WEIGHTS":
			for i+1 < len(tokens) {
				w, err := strconv.ParseFloat(tokens[i+1], 64)
				if err != nil {
					break
				}
				o.Weights = append(o.Weights, w)
				i++
			}
		case "AGGREGATE":
			if i+1 >= len(tokens) {
				return o, &command.ConversionError{Type: "zstore options", Value: "AGGREGATE"}
			}
			agg, err := aggregateTokens.FromNative(strings.ToUpper(tokens[i+1]))
			if err != nil {
				return o, err
			}
			o.Aggregate = agg
			i++
		default:
			return o, &command.ConversionError{Type: "zstore options", Value: tokens[i]}
		}
	}
	return o, nil
}
