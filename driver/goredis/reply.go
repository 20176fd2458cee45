package goredis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/pior/kvclient/command"
)

// newCmder builds the typed go-redis command matching a reply shape, so
// go-redis parses the reply for both RESP2 and RESP3 servers.
func newCmder(ctx context.Context, shape command.Shape, args []any) redis.Cmder {
	switch shape {
	case command.ShapeStatus:
		return redis.NewStatusCmd(ctx, args...)
	case command.ShapeInt:
		return redis.NewIntCmd(ctx, args...)
	case command.ShapeFloat:
		return redis.NewFloatCmd(ctx, args...)
	case command.ShapeBool:
		return redis.NewBoolCmd(ctx, args...)
	case command.ShapeBulk:
		return redis.NewStringCmd(ctx, args...)
	case command.ShapeStrings:
		return redis.NewStringSliceCmd(ctx, args...)
	case command.ShapeNullableStrings:
		return redis.NewSliceCmd(ctx, args...)
	case command.ShapeMap:
		return redis.NewMapStringStringCmd(ctx, args...)
	case command.ShapeScored:
		return redis.NewZSliceCmd(ctx, args...)
	}
	return redis.NewCmd(ctx, args...)
}

// fromNative normalizes a processed command. redis.Nil becomes the nil
// reply; every other error is returned untouched.
func fromNative(cmd redis.Cmder) (command.Reply, error) {
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return command.NilReply(), nil
		}
		return command.Reply{}, err
	}

	switch c := cmd.(type) {
	case *redis.StatusCmd:
		return command.StatusReply(c.Val()), nil
	case *redis.IntCmd:
		return command.IntReply(c.Val()), nil
	case *redis.FloatCmd:
		return command.FloatReply(c.Val()), nil
	case *redis.BoolCmd:
		return command.BoolReply(c.Val()), nil
	case *redis.StringCmd:
		return command.BulkReply(c.Val()), nil
	case *redis.StringSliceCmd:
		items := make([]command.Reply, len(c.Val()))
		for i, s := range c.Val() {
			items[i] = command.BulkReply(s)
		}
		return command.ArrayReply(items...), nil
	case *redis.SliceCmd:
		items := make([]command.Reply, len(c.Val()))
		for i, v := range c.Val() {
			items[i] = fromValue(v)
		}
		return command.ArrayReply(items...), nil
	case *redis.MapStringStringCmd:
		return command.MapReply(c.Val()), nil
	case *redis.ZSliceCmd:
		items := make([]command.Reply, len(c.Val()))
		for i, z := range c.Val() {
			items[i] = command.ArrayReply(command.BulkReply(fmt.Sprint(z.Member)), command.FloatReply(z.Score))
		}
		return command.ArrayReply(items...), nil
	case *redis.Cmd:
		return fromValue(c.Val()), nil
	}
	return command.Reply{}, &command.ConversionError{Type: "reply", Value: fmt.Sprintf("%T", cmd)}
}

func fromValue(v any) command.Reply {
	switch v := v.(type) {
	case nil:
		return command.NilReply()
	case string:
		return command.BulkReply(v)
	case []byte:
		return command.BulkReply(string(v))
	case int64:
		return command.IntReply(v)
	case float64:
		return command.FloatReply(v)
	case bool:
		return command.BoolReply(v)
	case []any:
		items := make([]command.Reply, len(v))
		for i, item := range v {
			items[i] = fromValue(item)
		}
		return command.ArrayReply(items...)
	case map[any]any:
		m := make(map[string]string, len(v))
		for k, item := range v {
			m[fmt.Sprint(k)] = fmt.Sprint(item)
		}
		return command.MapReply(m)
	}
	return command.BulkReply(fmt.Sprint(v))
}

// fromExecValue converts one element of an EXEC reply according to the
// expected shape. The elements are parsed without a typed Cmder, so both
// RESP2 and RESP3 encodings are accepted.
func fromExecValue(shape command.Shape, v any) (command.Reply, error) {
	switch v := v.(type) {
	case nil:
		return command.NilReply(), nil
	case error:
		return command.Reply{}, v
	}

	switch shape {
	case command.ShapeStatus:
		if s, ok := v.(string); ok {
			return command.StatusReply(s), nil
		}
	case command.ShapeInt:
		if n, ok := v.(int64); ok {
			return command.IntReply(n), nil
		}
	case command.ShapeFloat:
		if f, ok := toFloat(v); ok {
			return command.FloatReply(f), nil
		}
	case command.ShapeBool:
		switch b := v.(type) {
		case int64:
			return command.BoolReply(b != 0), nil
		case bool:
			return command.BoolReply(b), nil
		}
	case command.ShapeBulk:
		if s, ok := v.(string); ok {
			return command.BulkReply(s), nil
		}
	case command.ShapeStrings, command.ShapeNullableStrings:
		if _, ok := v.([]any); ok {
			return fromValue(v), nil
		}
	case command.ShapeMap:
		switch m := v.(type) {
		case map[any]any:
			return fromValue(m), nil
		case []any:
			if len(m)%2 == 0 {
				out := make(map[string]string, len(m)/2)
				for i := 0; i < len(m); i += 2 {
					out[fmt.Sprint(m[i])] = fmt.Sprint(m[i+1])
				}
				return command.MapReply(out), nil
			}
		}
	case command.ShapeScored:
		if items, ok := v.([]any); ok {
			if r, ok := fromScored(items); ok {
				return r, nil
			}
		}
	default:
		return fromValue(v), nil
	}
	return command.Reply{}, &command.ConversionError{Type: "shape " + shape.String(), Value: fmt.Sprintf("%T", v)}
}

// fromScored accepts RESP3 [member, score] pairs and the flat RESP2 form.
func fromScored(items []any) (command.Reply, bool) {
	var flat []any
	for _, item := range items {
		pair, ok := item.([]any)
		if !ok {
			flat = items
			break
		}
		flat = append(flat, pair...)
	}
	if len(flat)%2 != 0 {
		return command.Reply{}, false
	}
	out := make([]command.Reply, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		score, ok := toFloat(flat[i+1])
		if !ok {
			return command.Reply{}, false
		}
		out = append(out, command.ArrayReply(command.BulkReply(fmt.Sprint(flat[i])), command.FloatReply(score)))
	}
	return command.ArrayReply(out...), true
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case int64:
		return float64(f), true
	case string:
		n, err := strconv.ParseFloat(f, 64)
		return n, err == nil
	}
	return 0, false
}
