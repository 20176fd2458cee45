package kvclient

// Optional is a value that may be absent, such as the reply of GET on a
// missing key. Absence is not an error.
type Optional[T any] struct {
	Value T
	Found bool
}

// Some returns a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Found: true}
}

// None returns the absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Or returns the value, or def when absent.
func (o Optional[T]) Or(def T) T {
	if !o.Found {
		return def
	}
	return o.Value
}

// ScoredMember is a sorted set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}
