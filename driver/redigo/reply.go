package redigo

import (
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"

	"github.com/pior/kvclient/command"
)

// fromNative normalizes a redigo reply according to the expected shape.
// redigo answers RESP2, so maps and scored members arrive as flat arrays.
func fromNative(shape command.Shape, reply any, err error) (command.Reply, error) {
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return command.NilReply(), nil
		}
		return command.Reply{}, err
	}
	if reply == nil {
		return command.NilReply(), nil
	}
	if rerr, ok := reply.(redis.Error); ok {
		return command.Reply{}, rerr
	}

	switch shape {
	case command.ShapeStatus:
		s, err := redis.String(reply, nil)
		return wrap(command.StatusReply(s), err, reply)
	case command.ShapeInt:
		n, err := redis.Int64(reply, nil)
		return wrap(command.IntReply(n), err, reply)
	case command.ShapeFloat:
		f, err := redis.Float64(reply, nil)
		return wrap(command.FloatReply(f), err, reply)
	case command.ShapeBool:
		b, err := redis.Bool(reply, nil)
		return wrap(command.BoolReply(b), err, reply)
	case command.ShapeBulk:
		s, err := redis.String(reply, nil)
		return wrap(command.BulkReply(s), err, reply)
	case command.ShapeStrings:
		ss, err := redis.Strings(reply, nil)
		if err != nil {
			return wrap(command.Reply{}, err, reply)
		}
		items := make([]command.Reply, len(ss))
		for i, s := range ss {
			items[i] = command.BulkReply(s)
		}
		return command.ArrayReply(items...), nil
	case command.ShapeNullableStrings:
		values, err := redis.Values(reply, nil)
		if err != nil {
			return wrap(command.Reply{}, err, reply)
		}
		items := make([]command.Reply, len(values))
		for i, v := range values {
			if v == nil {
				items[i] = command.NilReply()
				continue
			}
			s, err := redis.String(v, nil)
			if err != nil {
				return wrap(command.Reply{}, err, v)
			}
			items[i] = command.BulkReply(s)
		}
		return command.ArrayReply(items...), nil
	case command.ShapeMap:
		m, err := redis.StringMap(reply, nil)
		return wrap(command.MapReply(m), err, reply)
	case command.ShapeScored:
		values, err := redis.Values(reply, nil)
		if err == nil && len(values)%2 != 0 {
			err = errOddScored
		}
		if err != nil {
			return wrap(command.Reply{}, err, reply)
		}
		items := make([]command.Reply, 0, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			member, err := redis.String(values[i], nil)
			if err != nil {
				return wrap(command.Reply{}, err, values[i])
			}
			score, err := redis.Float64(values[i+1], nil)
			if err != nil {
				return wrap(command.Reply{}, err, values[i+1])
			}
			items = append(items, command.ArrayReply(command.BulkReply(member), command.FloatReply(score)))
		}
		return command.ArrayReply(items...), nil
	}
	return command.Reply{}, &command.ConversionError{Type: "shape " + shape.String(), Value: fmt.Sprintf("%T", reply)}
}

var errOddScored = errors.New("redigo: scored reply has an odd number of elements")

func wrap(r command.Reply, err error, reply any) (command.Reply, error) {
	if err != nil {
		return command.Reply{}, fmt.Errorf("%w: %v", &command.ConversionError{Type: "reply", Value: fmt.Sprintf("%T", reply)}, err)
	}
	return r, nil
}
