package kvclient

import "github.com/pior/kvclient/command"

// Option types of the command package, so most programs only import
// kvclient.
type (
	SetOptions      = command.SetOptions
	ZAddOptions     = command.ZAddOptions
	ZStoreOptions   = command.ZStoreOptions
	SetCondition    = command.SetCondition
	ExpireCondition = command.ExpireCondition
	ZCompare        = command.ZCompare
	ListDirection   = command.ListDirection
	Aggregate       = command.Aggregate
	BitOperation    = command.BitOperation
	GeoUnit         = command.GeoUnit
	FlushMode       = command.FlushMode
)

const (
	SetAlways    = command.SetAlways
	SetIfAbsent  = command.SetIfAbsent
	SetIfPresent = command.SetIfPresent

	ExpireAlways    = command.ExpireAlways
	ExpireIfNoTTL   = command.ExpireIfNoTTL
	ExpireIfHasTTL  = command.ExpireIfHasTTL
	ExpireIfGreater = command.ExpireIfGreater
	ExpireIfLess    = command.ExpireIfLess

	ZCompareNone    = command.ZCompareNone
	ZCompareGreater = command.ZCompareGreater
	ZCompareLess    = command.ZCompareLess

	Left  = command.Left
	Right = command.Right

	AggregateSum = command.AggregateSum
	AggregateMin = command.AggregateMin
	AggregateMax = command.AggregateMax

	BitAnd = command.BitAnd
	BitOr  = command.BitOr
	BitXor = command.BitXor
	BitNot = command.BitNot

	Meters     = command.Meters
	Kilometers = command.Kilometers
	Miles      = command.Miles
	Feet       = command.Feet

	FlushSync  = command.FlushSync
	FlushAsync = command.FlushAsync
)
