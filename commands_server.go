package kvclient

import (
	"github.com/pior/kvclient/command"
)

func SetBit(key string, offset int64, value int) Cmd[int64] {
	return newCmd(toInt, command.SetBit, command.Key("key", key), command.Int("offset", offset), command.Int("value", int64(value)))
}

func GetBit(key string, offset int64) Cmd[int64] {
	return newCmd(toInt, command.GetBit, command.Key("key", key), command.Int("offset", offset))
}

// BitCount counts the set bits of the whole value.
func BitCount(key string) Cmd[int64] {
	return newCmd(toInt, command.BitCount, command.Key("key", key))
}

// BitCountRange counts the set bits between the byte offsets start and end.
func BitCountRange(key string, start, end int64) Cmd[int64] {
	return newCmd(toInt, command.BitCount, command.Key("key", key), command.Int("start", start), command.Int("end", end))
}

func BitOp(op BitOperation, destination string, keys ...string) Cmd[int64] {
	return newCmd(toInt, command.BitOp, with(keyArgs(keys), command.Opt("operation", op), command.Key("destination", destination))...)
}

// GeoLocation is a named point.
type GeoLocation struct {
	Name      string
	Longitude float64
	Latitude  float64
}

func GeoAdd(key string, locations ...GeoLocation) Cmd[int64] {
	args := []command.Arg{command.Key("key", key)}
	for _, l := range locations {
		args = append(args, command.Float("longitude", l.Longitude), command.Float("latitude", l.Latitude), command.Text("member", l.Name))
	}
	return newCmd(toInt, command.GeoAdd, args...)
}

// GeoDist returns the distance between two members, absent when one of
// them is missing.
func GeoDist(key, member1, member2 string, unit GeoUnit) Cmd[Optional[float64]] {
	return newCmd(toOptionalFloat, command.GeoDist,
		command.Key("key", key), command.Text("member1", member1), command.Text("member2", member2), command.Opt("unit", unit))
}

func Ping() Cmd[string] {
	return newCmd(toStatus, command.Ping)
}

func Echo(message string) Cmd[string] {
	return newCmd(toString, command.Echo, command.Text("message", message))
}

func Info(sections ...string) Cmd[string] {
	return newCmd(toString, command.Info, textArgs("section", sections)...)
}

// SentinelGetMasterAddrByName returns the host:port of the primary
// monitored under name. It is absent when sentinels do not know the name.
func SentinelGetMasterAddrByName(name string) Cmd[Optional[string]] {
	return newCmd(toPrimary, command.SentinelGetMasterAddrByName, command.Text("master", name))
}

func SentinelFailover(name string) Cmd[string] {
	return newCmd(toStatus, command.SentinelFailover, command.Text("master", name))
}

// SentinelReset resets the masters matching pattern and returns how many
// were reset.
func SentinelReset(pattern string) Cmd[int64] {
	return newCmd(toInt, command.SentinelReset, command.Text("pattern", pattern))
}

func SentinelCkQuorum(name string) Cmd[string] {
	return newCmd(toStatus, command.SentinelCkQuorum, command.Text("master", name))
}

// ClusterKeySlot asks the cluster for the hash slot of key. The key is not
// used for routing.
func ClusterKeySlot(key string) Cmd[int64] {
	return newCmd(toInt, command.ClusterKeySlot, command.Text("key", key))
}

func ClusterCountKeysInSlot(slot int64) Cmd[int64] {
	return newCmd(toInt, command.ClusterCountKeysInSlot, command.Int("slot", slot))
}

func ClusterInfo() Cmd[string] {
	return newCmd(toString, command.ClusterInfo)
}
