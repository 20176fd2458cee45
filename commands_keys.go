package kvclient

import (
	"time"

	"github.com/pior/kvclient/command"
)

// Del removes keys and returns how many existed. On clusters the keys may
// span several slots.
func Del(keys ...string) Cmd[int64] {
	return newCmd(toInt, command.Del, keyArgs(keys)...)
}

func Unlink(keys ...string) Cmd[int64] {
	return newCmd(toInt, command.Unlink, keyArgs(keys)...)
}

// Exists counts the existing keys. A key given twice counts twice.
func Exists(keys ...string) Cmd[int64] {
	return newCmd(toInt, command.Exists, keyArgs(keys)...)
}

func Touch(keys ...string) Cmd[int64] {
	return newCmd(toInt, command.Touch, keyArgs(keys)...)
}

// Expire sets a TTL in whole seconds. It reports false when the key is
// missing or cond prevented the update.
func Expire(key string, ttl time.Duration, cond ExpireCondition) Cmd[bool] {
	return newCmd(toBool, command.Expire, command.Key("key", key), command.Seconds("seconds", ttl), command.Opt("condition", cond))
}

// PExpire sets a TTL in milliseconds.
func PExpire(key string, ttl time.Duration, cond ExpireCondition) Cmd[bool] {
	return newCmd(toBool, command.PExpire, command.Key("key", key), command.Millis("milliseconds", ttl), command.Opt("condition", cond))
}

func Persist(key string) Cmd[bool] {
	return newCmd(toBool, command.Persist, command.Key("key", key))
}

// TTL returns the remaining time to live of key, -1 when it has no expiry
// and -2 when it does not exist.
func TTL(key string) Cmd[time.Duration] {
	return newCmd(toTTL(time.Second), command.TTL, command.Key("key", key))
}

func PTTL(key string) Cmd[time.Duration] {
	return newCmd(toTTL(time.Millisecond), command.PTTL, command.Key("key", key))
}

func Type(key string) Cmd[string] {
	return newCmd(toStatus, command.Type, command.Key("key", key))
}

func Rename(key, newKey string) Cmd[string] {
	return newCmd(toStatus, command.Rename, command.Key("key", key), command.Key("newkey", newKey))
}

func RenameNX(key, newKey string) Cmd[bool] {
	return newCmd(toBool, command.RenameNX, command.Key("key", key), command.Key("newkey", newKey))
}

// Keys lists the keys matching pattern. It scans the whole keyspace and is
// not available on clusters.
func Keys(pattern string) Cmd[[]string] {
	return newCmd(toStrings, command.Keys, command.Text("pattern", pattern))
}

func DBSize() Cmd[int64] {
	return newCmd(toInt, command.DBSize)
}

func FlushDB(mode FlushMode) Cmd[string] {
	return newCmd(toStatus, command.FlushDB, command.Opt("mode", mode))
}

func ObjectEncoding(key string) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.ObjectEncoding, command.Key("key", key))
}

// MemoryUsage returns the bytes used by key and its value.
func MemoryUsage(key string) Cmd[Optional[int64]] {
	return newCmd(toOptionalInt, command.MemoryUsage, command.Key("key", key))
}
