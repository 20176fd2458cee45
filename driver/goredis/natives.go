package goredis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pior/kvclient/command"
)

// typedCall runs a command through go-redis' typed API.
type typedCall func(ctx context.Context, c redis.Cmdable) redis.Cmder

// natives lists the commands whose options go-redis models with its own
// parameter types. Every other command goes through the generic path.
var natives = map[command.ID]func(args []command.Arg) (typedCall, error){
	command.Set:         buildSet,
	command.Expire:      buildExpire,
	command.ZAdd:        buildZAdd,
	command.LMove:       buildLMove,
	command.BitOp:       buildBitOp,
	command.ZUnionStore: buildZUnionStore,
	command.GeoDist:     buildGeoDist,
	command.FlushDB:     buildFlushDB,
	command.BitCount:    buildBitCount,
}

func buildSet(args []command.Arg) (typedCall, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	opts, err := optionAt[command.SetOptions](args, 2)
	if err != nil {
		return nil, err
	}
	setArgs, err := toSetArgs(opts)
	if err != nil {
		return nil, err
	}
	key, value := args[0].String(), nativeValue(args[1])
	if !setArgs.ExpireAt.IsZero() {
		// SetArgs sends EXAT in whole seconds; PXAT keeps the milliseconds.
		native := []any{"set", key, value, "pxat", setArgs.ExpireAt.UnixMilli()}
		if setArgs.Mode != "" {
			native = append(native, setArgs.Mode)
		}
		return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
			cmd := redis.NewStatusCmd(ctx, native...)
			p, ok := c.(processor)
			if !ok {
				cmd.SetErr(fmt.Errorf("goredis: %T cannot process commands", c))
				return cmd
			}
			_ = p.Process(ctx, cmd)
			return cmd
		}, nil
	}
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return c.SetArgs(ctx, key, value, setArgs)
	}, nil
}

func buildExpire(args []command.Arg) (typedCall, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	ttl, ok := args[1].Value.(time.Duration)
	if !ok {
		return nil, &command.ConversionError{Type: "duration", Value: args[1].Value}
	}
	cond, err := optionAt[command.ExpireCondition](args, 2)
	if err != nil {
		return nil, err
	}
	mode, err := expireModes.ToNative(cond)
	if err != nil {
		return nil, err
	}
	call := expireCalls[mode]
	key := args[0].String()
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return call(c, ctx, key, ttl)
	}, nil
}

// buildZAdd expects the key, the options, then score/member pairs.
func buildZAdd(args []command.Arg) (typedCall, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	opts, err := optionAt[command.ZAddOptions](args, 1)
	if err != nil {
		return nil, err
	}
	pairs := args[2:]
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%w: unpaired sorted set member", command.ErrInvalidOptions)
	}
	members := make([]redis.Z, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		score, ok := pairs[i].Value.(float64)
		if !ok {
			return nil, &command.ConversionError{Type: "score", Value: pairs[i].Value}
		}
		members = append(members, redis.Z{Score: score, Member: nativeValue(pairs[i+1])})
	}
	zaddArgs, err := toZAddArgs(opts, members)
	if err != nil {
		return nil, err
	}
	key := args[0].String()
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return c.ZAddArgs(ctx, key, zaddArgs)
	}, nil
}

func buildLMove(args []command.Arg) (typedCall, error) {
	if err := arity(args, 4); err != nil {
		return nil, err
	}
	from, err := optionAt[command.ListDirection](args, 2)
	if err != nil {
		return nil, err
	}
	to, err := optionAt[command.ListDirection](args, 3)
	if err != nil {
		return nil, err
	}
	src, err := directions.ToNative(from)
	if err != nil {
		return nil, err
	}
	dst, err := directions.ToNative(to)
	if err != nil {
		return nil, err
	}
	source, destination := args[0].String(), args[1].String()
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return c.LMove(ctx, source, destination, src, dst)
	}, nil
}

// buildBitOp expects the operation, the destination, then the sources.
func buildBitOp(args []command.Arg) (typedCall, error) {
	if err := arity(args, 3); err != nil {
		return nil, err
	}
	op, err := optionAt[command.BitOperation](args, 0)
	if err != nil {
		return nil, err
	}
	name, err := bitOperations.ToNative(op)
	if err != nil {
		return nil, err
	}
	call := bitOpCalls[name]
	dest := args[1].String()
	keys := stringsOf(args[2:])
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return call(c, ctx, dest, keys)
	}, nil
}

// buildZUnionStore expects the destination, the key count, the keys and
// the store options.
func buildZUnionStore(args []command.Arg) (typedCall, error) {
	if err := arity(args, 3); err != nil {
		return nil, err
	}
	last := len(args) - 1
	opts, err := optionAt[command.ZStoreOptions](args, last)
	if err != nil {
		return nil, err
	}
	store, err := toZStore(stringsOf(args[2:last]), opts)
	if err != nil {
		return nil, err
	}
	dest := args[0].String()
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return c.ZUnionStore(ctx, dest, store)
	}, nil
}

func buildGeoDist(args []command.Arg) (typedCall, error) {
	if err := arity(args, 3); err != nil {
		return nil, err
	}
	unit, err := optionAt[command.GeoUnit](args, 3)
	if err != nil {
		return nil, err
	}
	u, err := geoUnits.ToNative(unit)
	if err != nil {
		return nil, err
	}
	key, m1, m2 := args[0].String(), args[1].String(), args[2].String()
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return c.GeoDist(ctx, key, m1, m2, u)
	}, nil
}

func buildFlushDB(args []command.Arg) (typedCall, error) {
	mode, err := optionAt[command.FlushMode](args, 0)
	if err != nil {
		return nil, err
	}
	if _, err := flushModes.ToNative(mode); err != nil {
		return nil, err
	}
	if mode == command.FlushAsync {
		return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
			return c.FlushDBAsync(ctx)
		}, nil
	}
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return c.FlushDB(ctx)
	}, nil
}

func buildBitCount(args []command.Arg) (typedCall, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	key := args[0].String()
	var bc *redis.BitCount
	if len(args) == 3 {
		start, ok1 := args[1].Value.(int64)
		end, ok2 := args[2].Value.(int64)
		if !ok1 || !ok2 {
			return nil, &command.ConversionError{Type: "bit range", Value: []any{args[1].Value, args[2].Value}}
		}
		bc = &redis.BitCount{Start: start, End: end}
	}
	return func(ctx context.Context, c redis.Cmdable) redis.Cmder {
		return c.BitCount(ctx, key, bc)
	}, nil
}

func arity(args []command.Arg, want int) error {
	if len(args) < want {
		return fmt.Errorf("goredis: expected at least %d arguments, got %d", want, len(args))
	}
	return nil
}

// optionAt returns the option at position i, or its zero value when the
// argument list is shorter.
func optionAt[T command.Option](args []command.Arg, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, nil
	}
	v, ok := args[i].Value.(T)
	if !ok {
		return zero, &command.ConversionError{Type: fmt.Sprintf("%T", zero), Value: args[i].Value}
	}
	return v, nil
}

// nativeValue keeps bytes as bytes and text as strings.
func nativeValue(a command.Arg) any {
	switch a.Kind {
	case command.KindBytes:
		b, _ := a.Value.([]byte)
		return b
	case command.KindKey, command.KindText, command.KindLiteral:
		return a.String()
	}
	return a.Value
}

func stringsOf(args []command.Arg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.String()
	}
	return out
}
