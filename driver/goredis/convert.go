package goredis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pior/kvclient/command"
)

// Converter registry: domain enumerations to the strings go-redis passes to
// its typed APIs. An empty string means "no modifier".
var (
	setModes = command.NewTable("set condition", map[command.SetCondition]string{
		command.SetAlways:    "",
		command.SetIfAbsent:  "NX",
		command.SetIfPresent: "XX",
	})

	expireModes = command.NewTable("expire condition", map[command.ExpireCondition]string{
		command.ExpireAlways:    "",
		command.ExpireIfNoTTL:   "NX",
		command.ExpireIfHasTTL:  "XX",
		command.ExpireIfGreater: "GT",
		command.ExpireIfLess:    "LT",
	})

	zcompares = command.NewTable("zadd comparison", map[command.ZCompare]string{
		command.ZCompareNone:    "",
		command.ZCompareGreater: "GT",
		command.ZCompareLess:    "LT",
	})

	directions = command.NewTable("list direction", map[command.ListDirection]string{
		command.Left:  "LEFT",
		command.Right: "RIGHT",
	})

	aggregates = command.NewTable("aggregate", map[command.Aggregate]string{
		command.AggregateSum: "SUM",
		command.AggregateMin: "MIN",
		command.AggregateMax: "MAX",
	})

	bitOperations = command.NewTable("bit operation", map[command.BitOperation]string{
		command.BitAnd: "AND",
		command.BitOr:  "OR",
		command.BitXor: "XOR",
		command.BitNot: "NOT",
	})

	geoUnits = command.NewTable("geo unit", map[command.GeoUnit]string{
		command.Meters:     "m",
		command.Kilometers: "km",
		command.Miles:      "mi",
		command.Feet:       "ft",
	})

	flushModes = command.NewTable("flush mode", map[command.FlushMode]string{
		command.FlushSync:  "SYNC",
		command.FlushAsync: "ASYNC",
	})
)

type expireFunc func(c redis.Cmdable, ctx context.Context, key string, d time.Duration) *redis.BoolCmd

// expireCalls selects the go-redis method implementing each condition.
var expireCalls = map[string]expireFunc{
	"":   redis.Cmdable.Expire,
	"NX": redis.Cmdable.ExpireNX,
	"XX": redis.Cmdable.ExpireXX,
	"GT": redis.Cmdable.ExpireGT,
	"LT": redis.Cmdable.ExpireLT,
}

type bitOpFunc func(c redis.Cmdable, ctx context.Context, dest string, keys []string) *redis.IntCmd

var bitOpCalls = map[string]bitOpFunc{
	"AND": func(c redis.Cmdable, ctx context.Context, dest string, keys []string) *redis.IntCmd {
		return c.BitOpAnd(ctx, dest, keys...)
	},
	"OR": func(c redis.Cmdable, ctx context.Context, dest string, keys []string) *redis.IntCmd {
		return c.BitOpOr(ctx, dest, keys...)
	},
	"XOR": func(c redis.Cmdable, ctx context.Context, dest string, keys []string) *redis.IntCmd {
		return c.BitOpXor(ctx, dest, keys...)
	},
	"NOT": func(c redis.Cmdable, ctx context.Context, dest string, keys []string) *redis.IntCmd {
		if len(keys) != 1 {
			cmd := redis.NewIntCmd(ctx)
			cmd.SetErr(fmt.Errorf("goredis: BITOP NOT takes one source key, got %d", len(keys)))
			return cmd
		}
		return c.BitOpNot(ctx, dest, keys[0])
	},
}

// toSetArgs builds the native SET modifiers: condition, then one expiry.
func toSetArgs(o command.SetOptions) (redis.SetArgs, error) {
	if err := o.Validate(); err != nil {
		return redis.SetArgs{}, err
	}
	mode, err := setModes.ToNative(o.Condition)
	if err != nil {
		return redis.SetArgs{}, err
	}
	a := redis.SetArgs{Mode: mode}
	switch {
	case o.KeepTTL:
		a.KeepTTL = true
	case !o.ExpireAt.IsZero():
		a.ExpireAt = o.ExpireAt
	case o.TTL > 0:
		a.TTL = o.TTL
	}
	return a, nil
}

func fromSetArgs(a redis.SetArgs) (command.SetOptions, error) {
	cond, err := setModes.FromNative(strings.ToUpper(a.Mode))
	if err != nil {
		return command.SetOptions{}, err
	}
	if a.Get {
		return command.SetOptions{}, &command.ConversionError{Type: "set options", Value: "GET"}
	}
	return command.SetOptions{
		Condition: cond,
		TTL:       a.TTL,
		ExpireAt:  a.ExpireAt,
		KeepTTL:   a.KeepTTL,
	}, nil
}

func toZAddArgs(o command.ZAddOptions, members []redis.Z) (redis.ZAddArgs, error) {
	if err := o.Validate(); err != nil {
		return redis.ZAddArgs{}, err
	}
	mode, err := setModes.ToNative(o.Condition)
	if err != nil {
		return redis.ZAddArgs{}, err
	}
	cmp, err := zcompares.ToNative(o.Compare)
	if err != nil {
		return redis.ZAddArgs{}, err
	}
	return redis.ZAddArgs{
		NX:      mode == "NX",
		XX:      mode == "XX",
		GT:      cmp == "GT",
		LT:      cmp == "LT",
		Ch:      o.Changed,
		Members: members,
	}, nil
}

func fromZAddArgs(a redis.ZAddArgs) (command.ZAddOptions, error) {
	if a.NX && a.XX {
		return command.ZAddOptions{}, &command.ConversionError{Type: "zadd options", Value: "NX+XX"}
	}
	if a.GT && a.LT {
		return command.ZAddOptions{}, &command.ConversionError{Type: "zadd options", Value: "GT+LT"}
	}
	var mode, cmp string
	switch {
	case a.NX:
		mode = "NX"
	case a.XX:
		mode = "XX"
	}
	switch {
	case a.GT:
		cmp = "GT"
	case a.LT:
		cmp = "LT"
	}
	cond, err := setModes.FromNative(mode)
	if err != nil {
		return command.ZAddOptions{}, err
	}
	compare, err := zcompares.FromNative(cmp)
	if err != nil {
		return command.ZAddOptions{}, err
	}
	o := command.ZAddOptions{Condition: cond, Compare: compare, Changed: a.Ch}
	return o, o.Validate()
}

func toZStore(keys []string, o command.ZStoreOptions) (*redis.ZStore, error) {
	agg, err := aggregates.ToNative(o.Aggregate)
	if err != nil {
		return nil, err
	}
	if len(o.Weights) > 0 && len(o.Weights) != len(keys) {
		return nil, fmt.Errorf("%w: %d weights for %d keys", command.ErrInvalidOptions, len(o.Weights), len(keys))
	}
	return &redis.ZStore{Keys: keys, Weights: o.Weights, Aggregate: agg}, nil
}

func fromZStore(z *redis.ZStore) (command.ZStoreOptions, error) {
	native := strings.ToUpper(z.Aggregate)
	if native == "" {
		native = "SUM"
	}
	agg, err := aggregates.FromNative(native)
	if err != nil {
		return command.ZStoreOptions{}, err
	}
	return command.ZStoreOptions{Weights: z.Weights, Aggregate: agg}, nil
}

// encodeOption renders an enumeration as the token go-redis would send.
// Option objects only travel through typed calls.
func encodeOption(o command.Option) ([]any, error) {
	var tok string
	var err error
	switch v := o.(type) {
	case command.SetCondition:
		tok, err = setModes.ToNative(v)
	case command.ExpireCondition:
		tok, err = expireModes.ToNative(v)
	case command.ZCompare:
		tok, err = zcompares.ToNative(v)
	case command.ListDirection:
		tok, err = directions.ToNative(v)
	case command.Aggregate:
		tok, err = aggregates.ToNative(v)
	case command.BitOperation:
		tok, err = bitOperations.ToNative(v)
	case command.GeoUnit:
		tok, err = geoUnits.ToNative(v)
	case command.FlushMode:
		tok, err = flushModes.ToNative(v)
	default:
		return nil, &command.ConversionError{Type: "go-redis argument", Value: o}
	}
	if err != nil || tok == "" {
		return nil, err
	}
	return []any{tok}, nil
}
