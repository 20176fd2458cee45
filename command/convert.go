package command

import (
	"errors"
	"fmt"
)

// ErrConversion is wrapped by every ConversionError.
var ErrConversion = errors.New("command: conversion failed")

// ConversionError reports a value without a counterpart on the other side
// of a converter.
type ConversionError struct {
	// Type names the domain or native type being converted.
	Type  string
	Value any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("command: cannot convert %v to %s", e.Value, e.Type)
}

func (e *ConversionError) Unwrap() error {
	return ErrConversion
}

// Table is a bidirectional converter between a domain enumeration and a
// native representation. Tables are built once and only read afterwards.
type Table[D comparable, N comparable] struct {
	name    string
	forward map[D]N
	reverse map[N]D
}

// NewTable builds a converter from domain values to native values. Two
// domain values sharing a native value make the conversion ambiguous, so
// NewTable panics on them.
func NewTable[D comparable, N comparable](name string, pairs map[D]N) *Table[D, N] {
	t := &Table[D, N]{
		name:    name,
		forward: make(map[D]N, len(pairs)),
		reverse: make(map[N]D, len(pairs)),
	}
	for d, n := range pairs {
		if prev, dup := t.reverse[n]; dup {
			panic(fmt.Sprintf("command: table %s maps %v and %v to %v", name, prev, d, n))
		}
		t.forward[d] = n
		t.reverse[n] = d
	}
	return t
}

func (t *Table[D, N]) Name() string { return t.name }

func (t *Table[D, N]) Len() int { return len(t.forward) }

// ToNative converts a domain value.
func (t *Table[D, N]) ToNative(d D) (N, error) {
	n, ok := t.forward[d]
	if !ok {
		var zero N
		return zero, &ConversionError{Type: t.name, Value: d}
	}
	return n, nil
}

// FromNative converts a native value back.
func (t *Table[D, N]) FromNative(n N) (D, error) {
	d, ok := t.reverse[n]
	if !ok {
		var zero D
		return zero, &ConversionError{Type: t.name, Value: n}
	}
	return d, nil
}
