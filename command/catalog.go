package command

// ID identifies a command in the catalog.
type ID uint16

// Catalog identifiers. The zero ID is never a valid command.
const (
	Invalid ID = iota

	// Strings
	Get
	GetDel
	GetRange
	Set
	SetNX
	SetRange
	MGet
	MSet
	MSetNX
	Append
	StrLen
	Incr
	IncrBy
	IncrByFloat
	Decr
	DecrBy

	// Keys
	Del
	Unlink
	Exists
	Touch
	Expire
	PExpire
	Persist
	TTL
	PTTL
	Type
	Rename
	RenameNX
	Keys
	DBSize
	FlushDB
	ObjectEncoding
	MemoryUsage

	// Hashes
	HSet
	HGet
	HMGet
	HGetAll
	HDel
	HExists
	HIncrBy
	HLen
	HKeys

	// Lists
	LPush
	RPush
	LPop
	RPop
	LLen
	LRange
	LIndex
	LRem
	LMove

	// Sets
	SAdd
	SRem
	SMembers
	SIsMember
	SCard
	SInter
	SUnionStore
	SMove

	// Sorted sets
	ZAdd
	ZScore
	ZIncrBy
	ZCard
	ZRem
	ZRange
	ZRangeWithScores
	ZUnionStore

	// Bitmaps
	SetBit
	GetBit
	BitCount
	BitOp

	// Geo
	GeoAdd
	GeoDist

	// Server
	Ping
	Echo
	Info

	// Sentinel administration
	SentinelGetMasterAddrByName
	SentinelFailover
	SentinelReset
	SentinelCkQuorum

	// Cluster administration
	ClusterKeySlot
	ClusterCountKeysInSlot
	ClusterInfo

	numIDs
)

// Flag describes routing properties of a command.
type Flag uint16

const (
	ReadOnly Flag = 1 << iota
	Write
	// MultiKey commands may reference more than one key.
	MultiKey
	// SentinelOnly commands are served by sentinel nodes, not by data nodes.
	SentinelOnly
	// ClusterOnly commands only exist on cluster deployments.
	ClusterOnly
	// AllNodes commands operate on a whole keyspace and would need a
	// fan-out to every primary on a cluster.
	AllNodes
)

// Has reports whether all bits of o are set in f.
func (f Flag) Has(o Flag) bool {
	return f&o == o
}

// Shape is the form of a command's reply once normalized by a driver.
type Shape uint8

const (
	ShapeStatus Shape = iota + 1
	ShapeInt
	ShapeFloat
	ShapeBool
	ShapeBulk
	ShapeStrings
	ShapeNullableStrings
	ShapeMap
	ShapeScored
)

var shapeNames = [...]string{
	ShapeStatus:          "status",
	ShapeInt:             "int",
	ShapeFloat:           "float",
	ShapeBool:            "bool",
	ShapeBulk:            "bulk",
	ShapeStrings:         "strings",
	ShapeNullableStrings: "nullable-strings",
	ShapeMap:             "map",
	ShapeScored:          "scored",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) && shapeNames[s] != "" {
		return shapeNames[s]
	}
	return "unknown"
}

// Scatter tells how a multi-key command is split when its keys span
// several cluster slots.
type Scatter uint8

const (
	// NoScatter commands must keep all their keys in one slot.
	NoScatter Scatter = iota
	// ScatterSum splits the keys per slot and sums the integer replies.
	ScatterSum
	// ScatterGather splits the keys per slot and reassembles the array
	// replies in the caller's key order.
	ScatterGather
	// ScatterPairs splits key/value pairs per slot; every part replies OK.
	ScatterPairs
)

// Spec is the catalog entry of a command.
type Spec struct {
	Name    string
	Sub     string
	Flags   Flag
	Shape   Shape
	Scatter Scatter
}

var catalog = [numIDs]Spec{
	Get:         {Name: "GET", Flags: ReadOnly, Shape: ShapeBulk},
	GetDel:      {Name: "GETDEL", Flags: Write, Shape: ShapeBulk},
	GetRange:    {Name: "GETRANGE", Flags: ReadOnly, Shape: ShapeBulk},
	Set:         {Name: "SET", Flags: Write, Shape: ShapeStatus},
	SetNX:       {Name: "SETNX", Flags: Write, Shape: ShapeBool},
	SetRange:    {Name: "SETRANGE", Flags: Write, Shape: ShapeInt},
	MGet:        {Name: "MGET", Flags: ReadOnly | MultiKey, Shape: ShapeNullableStrings, Scatter: ScatterGather},
	MSet:        {Name: "MSET", Flags: Write | MultiKey, Shape: ShapeStatus, Scatter: ScatterPairs},
	MSetNX:      {Name: "MSETNX", Flags: Write | MultiKey, Shape: ShapeBool},
	Append:      {Name: "APPEND", Flags: Write, Shape: ShapeInt},
	StrLen:      {Name: "STRLEN", Flags: ReadOnly, Shape: ShapeInt},
	Incr:        {Name: "INCR", Flags: Write, Shape: ShapeInt},
	IncrBy:      {Name: "INCRBY", Flags: Write, Shape: ShapeInt},
	IncrByFloat: {Name: "INCRBYFLOAT", Flags: Write, Shape: ShapeFloat},
	Decr:        {Name: "DECR", Flags: Write, Shape: ShapeInt},
	DecrBy:      {Name: "DECRBY", Flags: Write, Shape: ShapeInt},

	Del:            {Name: "DEL", Flags: Write | MultiKey, Shape: ShapeInt, Scatter: ScatterSum},
	Unlink:         {Name: "UNLINK", Flags: Write | MultiKey, Shape: ShapeInt, Scatter: ScatterSum},
	Exists:         {Name: "EXISTS", Flags: ReadOnly | MultiKey, Shape: ShapeInt, Scatter: ScatterSum},
	Touch:          {Name: "TOUCH", Flags: ReadOnly | MultiKey, Shape: ShapeInt, Scatter: ScatterSum},
	Expire:         {Name: "EXPIRE", Flags: Write, Shape: ShapeBool},
	PExpire:        {Name: "PEXPIRE", Flags: Write, Shape: ShapeBool},
	Persist:        {Name: "PERSIST", Flags: Write, Shape: ShapeBool},
	TTL:            {Name: "TTL", Flags: ReadOnly, Shape: ShapeInt},
	PTTL:           {Name: "PTTL", Flags: ReadOnly, Shape: ShapeInt},
	Type:           {Name: "TYPE", Flags: ReadOnly, Shape: ShapeStatus},
	Rename:         {Name: "RENAME", Flags: Write | MultiKey, Shape: ShapeStatus},
	RenameNX:       {Name: "RENAMENX", Flags: Write | MultiKey, Shape: ShapeBool},
	Keys:           {Name: "KEYS", Flags: ReadOnly | AllNodes, Shape: ShapeStrings},
	DBSize:         {Name: "DBSIZE", Flags: ReadOnly | AllNodes, Shape: ShapeInt},
	FlushDB:        {Name: "FLUSHDB", Flags: Write | AllNodes, Shape: ShapeStatus},
	ObjectEncoding: {Name: "OBJECT", Sub: "ENCODING", Flags: ReadOnly, Shape: ShapeBulk},
	MemoryUsage:    {Name: "MEMORY", Sub: "USAGE", Flags: ReadOnly, Shape: ShapeInt},

	HSet:    {Name: "HSET", Flags: Write, Shape: ShapeInt},
	HGet:    {Name: "HGET", Flags: ReadOnly, Shape: ShapeBulk},
	HMGet:   {Name: "HMGET", Flags: ReadOnly, Shape: ShapeNullableStrings},
	HGetAll: {Name: "HGETALL", Flags: ReadOnly, Shape: ShapeMap},
	HDel:    {Name: "HDEL", Flags: Write, Shape: ShapeInt},
	HExists: {Name: "HEXISTS", Flags: ReadOnly, Shape: ShapeBool},
	HIncrBy: {Name: "HINCRBY", Flags: Write, Shape: ShapeInt},
	HLen:    {Name: "HLEN", Flags: ReadOnly, Shape: ShapeInt},
	HKeys:   {Name: "HKEYS", Flags: ReadOnly, Shape: ShapeStrings},

	LPush:  {Name: "LPUSH", Flags: Write, Shape: ShapeInt},
	RPush:  {Name: "RPUSH", Flags: Write, Shape: ShapeInt},
	LPop:   {Name: "LPOP", Flags: Write, Shape: ShapeBulk},
	RPop:   {Name: "RPOP", Flags: Write, Shape: ShapeBulk},
	LLen:   {Name: "LLEN", Flags: ReadOnly, Shape: ShapeInt},
	LRange: {Name: "LRANGE", Flags: ReadOnly, Shape: ShapeStrings},
	LIndex: {Name: "LINDEX", Flags: ReadOnly, Shape: ShapeBulk},
	LRem:   {Name: "LREM", Flags: Write, Shape: ShapeInt},
	LMove:  {Name: "LMOVE", Flags: Write | MultiKey, Shape: ShapeBulk},

	SAdd:        {Name: "SADD", Flags: Write, Shape: ShapeInt},
	SRem:        {Name: "SREM", Flags: Write, Shape: ShapeInt},
	SMembers:    {Name: "SMEMBERS", Flags: ReadOnly, Shape: ShapeStrings},
	SIsMember:   {Name: "SISMEMBER", Flags: ReadOnly, Shape: ShapeBool},
	SCard:       {Name: "SCARD", Flags: ReadOnly, Shape: ShapeInt},
	SInter:      {Name: "SINTER", Flags: ReadOnly | MultiKey, Shape: ShapeStrings},
	SUnionStore: {Name: "SUNIONSTORE", Flags: Write | MultiKey, Shape: ShapeInt},
	SMove:       {Name: "SMOVE", Flags: Write | MultiKey, Shape: ShapeBool},

	ZAdd:             {Name: "ZADD", Flags: Write, Shape: ShapeInt},
	ZScore:           {Name: "ZSCORE", Flags: ReadOnly, Shape: ShapeFloat},
	ZIncrBy:          {Name: "ZINCRBY", Flags: Write, Shape: ShapeFloat},
	ZCard:            {Name: "ZCARD", Flags: ReadOnly, Shape: ShapeInt},
	ZRem:             {Name: "ZREM", Flags: Write, Shape: ShapeInt},
	ZRange:           {Name: "ZRANGE", Flags: ReadOnly, Shape: ShapeStrings},
	ZRangeWithScores: {Name: "ZRANGE", Flags: ReadOnly, Shape: ShapeScored},
	ZUnionStore:      {Name: "ZUNIONSTORE", Flags: Write | MultiKey, Shape: ShapeInt},

	SetBit:   {Name: "SETBIT", Flags: Write, Shape: ShapeInt},
	GetBit:   {Name: "GETBIT", Flags: ReadOnly, Shape: ShapeInt},
	BitCount: {Name: "BITCOUNT", Flags: ReadOnly, Shape: ShapeInt},
	BitOp:    {Name: "BITOP", Flags: Write | MultiKey, Shape: ShapeInt},

	GeoAdd:  {Name: "GEOADD", Flags: Write, Shape: ShapeInt},
	GeoDist: {Name: "GEODIST", Flags: ReadOnly, Shape: ShapeFloat},

	Ping: {Name: "PING", Flags: ReadOnly, Shape: ShapeStatus},
	Echo: {Name: "ECHO", Flags: ReadOnly, Shape: ShapeBulk},
	Info: {Name: "INFO", Flags: ReadOnly, Shape: ShapeBulk},

	SentinelGetMasterAddrByName: {Name: "SENTINEL", Sub: "GET-MASTER-ADDR-BY-NAME", Flags: SentinelOnly | ReadOnly, Shape: ShapeStrings},
	SentinelFailover:            {Name: "SENTINEL", Sub: "FAILOVER", Flags: SentinelOnly | Write, Shape: ShapeStatus},
	SentinelReset:               {Name: "SENTINEL", Sub: "RESET", Flags: SentinelOnly | Write, Shape: ShapeInt},
	SentinelCkQuorum:            {Name: "SENTINEL", Sub: "CKQUORUM", Flags: SentinelOnly | ReadOnly, Shape: ShapeStatus},

	ClusterKeySlot:         {Name: "CLUSTER", Sub: "KEYSLOT", Flags: ClusterOnly | ReadOnly, Shape: ShapeInt},
	ClusterCountKeysInSlot: {Name: "CLUSTER", Sub: "COUNTKEYSINSLOT", Flags: ClusterOnly | ReadOnly, Shape: ShapeInt},
	ClusterInfo:            {Name: "CLUSTER", Sub: "INFO", Flags: ClusterOnly | ReadOnly, Shape: ShapeBulk},
}

// Valid reports whether id is a catalogued command.
func (id ID) Valid() bool {
	return id > Invalid && id < numIDs
}

// Spec returns the catalog entry of id. Invalid ids return the zero Spec.
func (id ID) Spec() Spec {
	if !id.Valid() {
		return Spec{}
	}
	return catalog[id]
}

// String returns the wire name of the command, including its sub-command.
func (id ID) String() string {
	if !id.Valid() {
		return "INVALID"
	}
	s := catalog[id]
	if s.Sub != "" {
		return s.Name + " " + s.Sub
	}
	return s.Name
}

// IDs returns every catalogued command in declaration order.
func IDs() []ID {
	ids := make([]ID, 0, numIDs-1)
	for id := Invalid + 1; id < numIDs; id++ {
		ids = append(ids, id)
	}
	return ids
}
