package command

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOptions is returned when an option object holds a combination
// the server cannot express.
var ErrInvalidOptions = errors.New("command: invalid options")

// Option is a domain enumeration value or option object carried by an
// argument. Drivers translate options with their converter registry.
type Option interface {
	isOption()
}

// SetCondition restricts a write to absent or present keys.
type SetCondition uint8

const (
	SetAlways SetCondition = iota
	SetIfAbsent
	SetIfPresent
)

func SetConditions() []SetCondition { return []SetCondition{SetAlways, SetIfAbsent, SetIfPresent} }

func (c SetCondition) String() string {
	return enumName(c, "always", "if-absent", "if-present")
}

// ExpireCondition restricts an expiry update.
type ExpireCondition uint8

const (
	ExpireAlways ExpireCondition = iota
	// ExpireIfNoTTL only sets an expiry on keys without one.
	ExpireIfNoTTL
	// ExpireIfHasTTL only updates keys that already expire.
	ExpireIfHasTTL
	ExpireIfGreater
	ExpireIfLess
)

func ExpireConditions() []ExpireCondition {
	return []ExpireCondition{ExpireAlways, ExpireIfNoTTL, ExpireIfHasTTL, ExpireIfGreater, ExpireIfLess}
}

func (c ExpireCondition) String() string {
	return enumName(c, "always", "if-no-ttl", "if-has-ttl", "if-greater", "if-less")
}

// ZCompare restricts sorted set score updates.
type ZCompare uint8

const (
	ZCompareNone ZCompare = iota
	ZCompareGreater
	ZCompareLess
)

func ZCompares() []ZCompare { return []ZCompare{ZCompareNone, ZCompareGreater, ZCompareLess} }

func (c ZCompare) String() string {
	return enumName(c, "none", "greater", "less")
}

// ListDirection is the end of a list an element is taken from or pushed to.
type ListDirection uint8

const (
	Left ListDirection = iota
	Right
)

func ListDirections() []ListDirection { return []ListDirection{Left, Right} }

func (d ListDirection) String() string {
	return enumName(d, "left", "right")
}

// Aggregate combines scores of members present in several sorted sets.
type Aggregate uint8

const (
	AggregateSum Aggregate = iota
	AggregateMin
	AggregateMax
)

func Aggregates() []Aggregate { return []Aggregate{AggregateSum, AggregateMin, AggregateMax} }

func (a Aggregate) String() string {
	return enumName(a, "sum", "min", "max")
}

// BitOperation is the bitwise operator of BITOP.
type BitOperation uint8

const (
	BitAnd BitOperation = iota
	BitOr
	BitXor
	BitNot
)

func BitOperations() []BitOperation { return []BitOperation{BitAnd, BitOr, BitXor, BitNot} }

func (o BitOperation) String() string {
	return enumName(o, "and", "or", "xor", "not")
}

// GeoUnit is a distance unit.
type GeoUnit uint8

const (
	Meters GeoUnit = iota
	Kilometers
	Miles
	Feet
)

func GeoUnits() []GeoUnit { return []GeoUnit{Meters, Kilometers, Miles, Feet} }

func (u GeoUnit) String() string {
	return enumName(u, "meters", "kilometers", "miles", "feet")
}

// FlushMode selects synchronous or background keyspace flushing.
type FlushMode uint8

const (
	FlushSync FlushMode = iota
	FlushAsync
)

func FlushModes() []FlushMode { return []FlushMode{FlushSync, FlushAsync} }

func (m FlushMode) String() string {
	return enumName(m, "sync", "async")
}

// SetOptions are the modifiers of SET.
//
// Drivers apply them in a fixed order: the condition first, then a single
// expiry. When several expiry fields are set, KeepTTL wins over ExpireAt,
// which wins over TTL.
type SetOptions struct {
	Condition SetCondition
	TTL       time.Duration
	ExpireAt  time.Time
	KeepTTL   bool
}

func (o SetOptions) Validate() error {
	if o.Condition > SetIfPresent {
		return fmt.Errorf("%w: unknown set condition %d", ErrInvalidOptions, o.Condition)
	}
	if o.TTL < 0 {
		return fmt.Errorf("%w: negative ttl %s", ErrInvalidOptions, o.TTL)
	}
	return nil
}

// ZAddOptions are the modifiers of ZADD, applied in the order condition,
// comparison, changed-count. A comparison cannot be combined with
// SetIfAbsent.
type ZAddOptions struct {
	Condition SetCondition
	Compare   ZCompare
	Changed   bool
}

func (o ZAddOptions) Validate() error {
	if o.Condition > SetIfPresent || o.Compare > ZCompareLess {
		return fmt.Errorf("%w: unknown zadd modifier", ErrInvalidOptions)
	}
	if o.Condition == SetIfAbsent && o.Compare != ZCompareNone {
		return fmt.Errorf("%w: if-absent excludes score comparison", ErrInvalidOptions)
	}
	return nil
}

// ZStoreOptions are the modifiers of ZUNIONSTORE: weights, then aggregate.
type ZStoreOptions struct {
	Weights   []float64
	Aggregate Aggregate
}

func (SetCondition) isOption()    {}
func (ExpireCondition) isOption() {}
func (ZCompare) isOption()        {}
func (ListDirection) isOption()   {}
func (Aggregate) isOption()       {}
func (BitOperation) isOption()    {}
func (GeoUnit) isOption()         {}
func (FlushMode) isOption()       {}
func (SetOptions) isOption()      {}
func (ZAddOptions) isOption()     {}
func (ZStoreOptions) isOption()   {}

func enumName[E ~uint8](v E, names ...string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}
