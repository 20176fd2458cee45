package kvclient

import (
	"github.com/pior/kvclient/command"
)

// Hashes

// HSet sets fields of a hash and returns how many were added.
func HSet(key string, fields ...Pair) Cmd[int64] {
	args := []command.Arg{command.Key("key", key)}
	for _, f := range fields {
		args = append(args, command.Text("field", f.Name), command.Text("value", f.Value))
	}
	return newCmd(toInt, command.HSet, args...)
}

func HGet(key, field string) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.HGet, command.Key("key", key), command.Text("field", field))
}

func HMGet(key string, fields ...string) Cmd[[]Optional[string]] {
	return newCmd(toOptionalStrings, command.HMGet, with(textArgs("field", fields), command.Key("key", key))...)
}

func HGetAll(key string) Cmd[map[string]string] {
	return newCmd(toStringMap, command.HGetAll, command.Key("key", key))
}

func HDel(key string, fields ...string) Cmd[int64] {
	return newCmd(toInt, command.HDel, with(textArgs("field", fields), command.Key("key", key))...)
}

func HExists(key, field string) Cmd[bool] {
	return newCmd(toBool, command.HExists, command.Key("key", key), command.Text("field", field))
}

func HIncrBy(key, field string, delta int64) Cmd[int64] {
	return newCmd(toInt, command.HIncrBy, command.Key("key", key), command.Text("field", field), command.Int("increment", delta))
}

func HLen(key string) Cmd[int64] {
	return newCmd(toInt, command.HLen, command.Key("key", key))
}

func HKeys(key string) Cmd[[]string] {
	return newCmd(toStrings, command.HKeys, command.Key("key", key))
}

// Lists

func LPush(key string, values ...string) Cmd[int64] {
	return newCmd(toInt, command.LPush, with(textArgs("element", values), command.Key("key", key))...)
}

func RPush(key string, values ...string) Cmd[int64] {
	return newCmd(toInt, command.RPush, with(textArgs("element", values), command.Key("key", key))...)
}

func LPop(key string) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.LPop, command.Key("key", key))
}

func RPop(key string) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.RPop, command.Key("key", key))
}

func LLen(key string) Cmd[int64] {
	return newCmd(toInt, command.LLen, command.Key("key", key))
}

func LRange(key string, start, stop int64) Cmd[[]string] {
	return newCmd(toStrings, command.LRange, command.Key("key", key), command.Int("start", start), command.Int("stop", stop))
}

func LIndex(key string, index int64) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.LIndex, command.Key("key", key), command.Int("index", index))
}

func LRem(key string, count int64, value string) Cmd[int64] {
	return newCmd(toInt, command.LRem, command.Key("key", key), command.Int("count", count), command.Text("element", value))
}

// LMove pops an element from one end of source and pushes it to one end of
// destination.
func LMove(source, destination string, from, to ListDirection) Cmd[Optional[string]] {
	return newCmd(toOptionalString, command.LMove,
		command.Key("source", source), command.Key("destination", destination),
		command.Opt("wherefrom", from), command.Opt("whereto", to))
}

// Sets

func SAdd(key string, members ...string) Cmd[int64] {
	return newCmd(toInt, command.SAdd, with(textArgs("member", members), command.Key("key", key))...)
}

func SRem(key string, members ...string) Cmd[int64] {
	return newCmd(toInt, command.SRem, with(textArgs("member", members), command.Key("key", key))...)
}

func SMembers(key string) Cmd[[]string] {
	return newCmd(toStrings, command.SMembers, command.Key("key", key))
}

func SIsMember(key, member string) Cmd[bool] {
	return newCmd(toBool, command.SIsMember, command.Key("key", key), command.Text("member", member))
}

func SCard(key string) Cmd[int64] {
	return newCmd(toInt, command.SCard, command.Key("key", key))
}

func SInter(keys ...string) Cmd[[]string] {
	return newCmd(toStrings, command.SInter, keyArgs(keys)...)
}

func SUnionStore(destination string, keys ...string) Cmd[int64] {
	return newCmd(toInt, command.SUnionStore, with(keyArgs(keys), command.Key("destination", destination))...)
}

func SMove(source, destination, member string) Cmd[bool] {
	return newCmd(toBool, command.SMove, command.Key("source", source), command.Key("destination", destination), command.Text("member", member))
}

// Sorted sets

// ZAdd adds or updates members and returns the number added, or changed
// when opts.Changed is set.
func ZAdd(key string, opts ZAddOptions, members ...ScoredMember) Cmd[int64] {
	args := []command.Arg{command.Key("key", key), command.Opt("options", opts)}
	for _, m := range members {
		args = append(args, command.Float("score", m.Score), command.Text("member", m.Member))
	}
	return newCmd(toInt, command.ZAdd, args...)
}

func ZScore(key, member string) Cmd[Optional[float64]] {
	return newCmd(toOptionalFloat, command.ZScore, command.Key("key", key), command.Text("member", member))
}

func ZIncrBy(key string, delta float64, member string) Cmd[float64] {
	return newCmd(toFloat, command.ZIncrBy, command.Key("key", key), command.Float("increment", delta), command.Text("member", member))
}

func ZCard(key string) Cmd[int64] {
	return newCmd(toInt, command.ZCard, command.Key("key", key))
}

func ZRem(key string, members ...string) Cmd[int64] {
	return newCmd(toInt, command.ZRem, with(textArgs("member", members), command.Key("key", key))...)
}

func ZRange(key string, start, stop int64) Cmd[[]string] {
	return newCmd(toStrings, command.ZRange, command.Key("key", key), command.Int("start", start), command.Int("stop", stop))
}

func ZRangeWithScores(key string, start, stop int64) Cmd[[]ScoredMember] {
	return newCmd(toScored, command.ZRangeWithScores,
		command.Key("key", key), command.Int("start", start), command.Int("stop", stop), command.Literal("WITHSCORES"))
}

// ZUnionStore stores the union of keys in destination.
func ZUnionStore(destination string, opts ZStoreOptions, keys ...string) Cmd[int64] {
	args := []command.Arg{command.Key("destination", destination), command.Int("numkeys", int64(len(keys)))}
	args = append(args, keyArgs(keys)...)
	args = append(args, command.Opt("options", opts))
	return newCmd(toInt, command.ZUnionStore, args...)
}
