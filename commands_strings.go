package kvclient

import (
	"time"

	"github.com/pior/kvclient/command"
)

func Get(key string) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.Get, command.Key("key", key))
}

func GetDel(key string) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.GetDel, command.Key("key", key))
}

func GetRange(key string, start, end int64) Cmd[string] {
	return newCmd(toString, command.GetRange, command.Key("key", key), command.Int("start", start), command.Int("end", end))
}

// Set stores a text value. It reports false when opts.Condition prevented
// the write.
func Set(key, value string, opts SetOptions) Cmd[bool] {
	return newCmd(toWritten, command.Set, command.Key("key", key), command.Text("value", value), command.Opt("options", opts))
}

// SetBytes stores a binary value. The bytes reach the driver untouched.
func SetBytes(key string, value []byte, opts SetOptions) Cmd[bool] {
	return newCmd(toWritten, command.Set, command.Key("key", key), command.Bytes("value", value), command.Opt("options", opts))
}

// SetEx stores a value expiring after ttl.
func SetEx(key, value string, ttl time.Duration) Cmd[bool] {
	return Set(key, value, SetOptions{TTL: ttl})
}

func SetNX(key, value string) Cmd[bool] {
	return newCmd(toBool, command.SetNX, command.Key("key", key), command.Text("value", value))
}

func SetRange(key string, offset int64, value string) Cmd[int64] {
	return newCmd(toInt, command.SetRange, command.Key("key", key), command.Int("offset", offset), command.Text("value", value))
}

// MGet returns the values of keys in order, absent ones included.
func MGet(keys ...string) Cmd[[]Optional[string]] {
	return newCmd(toOptionalStrings, command.MGet, keyArgs(keys)...)
}

func MSet(pairs ...Pair) Cmd[string] {
	return newCmd(toStatus, command.MSet, pairArgs(pairs)...)
}

func MSetNX(pairs ...Pair) Cmd[bool] {
	return newCmd(toBool, command.MSetNX, pairArgs(pairs)...)
}

func pairArgs(pairs []Pair) []command.Arg {
	args := make([]command.Arg, 0, 2*len(pairs))
	for _, p := range pairs {
		args = append(args, command.Key("key", p.Name), command.Text("value", p.Value))
	}
	return args
}

func Append(key, value string) Cmd[int64] {
	return newCmd(toInt, command.Append, command.Key("key", key), command.Text("value", value))
}

func StrLen(key string) Cmd[int64] {
	return newCmd(toInt, command.StrLen, command.Key("key", key))
}

func Incr(key string) Cmd[int64] {
	return newCmd(toInt, command.Incr, command.Key("key", key))
}

func IncrBy(key string, delta int64) Cmd[int64] {
	return newCmd(toInt, command.IncrBy, command.Key("key", key), command.Int("increment", delta))
}

func IncrByFloat(key string, delta float64) Cmd[float64] {
	return newCmd(toFloat, command.IncrByFloat, command.Key("key", key), command.Float("increment", delta))
}

func Decr(key string) Cmd[int64] {
	return newCmd(toInt, command.Decr, command.Key("key", key))
}

func DecrBy(key string, delta int64) Cmd[int64] {
	return newCmd(toInt, command.DecrBy, command.Key("key", key), command.Int("decrement", delta))
}
