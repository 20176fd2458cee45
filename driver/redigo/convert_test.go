package redigo

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/command"
)

func TestEnumTablesAreTotal(t *testing.T) {
	var all []command.Option
	for _, v := range command.SetConditions() {
		all = append(all, v)
	}
	for _, v := range command.ExpireConditions() {
		all = append(all, v)
	}
	for _, v := range command.ZCompares() {
		all = append(all, v)
	}
	for _, v := range command.ListDirections() {
		all = append(all, v)
	}
	for _, v := range command.Aggregates() {
		all = append(all, v)
	}
	for _, v := range command.BitOperations() {
		all = append(all, v)
	}
	for _, v := range command.GeoUnits() {
		all = append(all, v)
	}
	for _, v := range command.FlushModes() {
		all = append(all, v)
	}
	for _, v := range all {
		_, err := encodeOption(v)
		assert.NoError(t, err, "%v has no wire token", v)
	}
}

func TestEncodeOption(t *testing.T) {
	tests := []struct {
		name string
		opt  command.Option
		want []any
	}{
		{"omitted condition", command.ExpireAlways, nil},
		{"expire nx", command.ExpireIfNoTTL, []any{"NX"}},
		{"direction", command.Right, []any{"RIGHT"}},
		{"geo unit", command.Kilometers, []any{"km"}},
		{"flush", command.FlushAsync, []any{"ASYNC"}},
		{"set defaults", command.SetOptions{}, nil},
		{"set nx ex", command.SetOptions{Condition: command.SetIfAbsent, TTL: 10 * time.Second}, []any{"NX", "EX", int64(10)}},
		{"set px", command.SetOptions{TTL: 1500 * time.Millisecond}, []any{"PX", int64(1500)}},
		{"set pxat", command.SetOptions{ExpireAt: time.UnixMilli(1700000000123)}, []any{"PXAT", int64(1700000000123)}},
		{"set keepttl wins", command.SetOptions{Condition: command.SetIfPresent, TTL: time.Second, ExpireAt: time.UnixMilli(5), KeepTTL: true}, []any{"XX", "KEEPTTL"}},
		{"zadd", command.ZAddOptions{Condition: command.SetIfPresent, Compare: command.ZCompareLess, Changed: true}, []any{"XX", "LT", "CH"}},
		{"zstore", command.ZStoreOptions{Weights: []float64{1, 2.5}, Aggregate: command.AggregateMax}, []any{"WEIGHTS", 1.0, 2.5, "AGGREGATE", "MAX"}},
		{"zstore default aggregate", command.ZStoreOptions{}, []any{"AGGREGATE", "SUM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeOption(tt.opt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeOptionRejects(t *testing.T) {
	_, err := encodeOption(command.BitOperation(42))
	assert.ErrorIs(t, err, command.ErrConversion)

	_, err = encodeOption(command.SetOptions{TTL: -time.Second})
	assert.ErrorIs(t, err, command.ErrInvalidOptions)

	_, err = encodeOption(command.ZAddOptions{Condition: command.SetIfAbsent, Compare: command.ZCompareGreater})
	assert.ErrorIs(t, err, command.ErrInvalidOptions)
}

func tokensOf(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			out[i] = v
		case int64:
			out[i] = strconv.FormatInt(v, 10)
		case float64:
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}
	return out
}

func TestSetOptionsRoundTrip(t *testing.T) {
	tests := []command.SetOptions{
		{},
		{Condition: command.SetIfAbsent},
		{Condition: command.SetIfPresent, TTL: 30 * time.Second},
		{TTL: 250 * time.Millisecond},
		{ExpireAt: time.UnixMilli(1700000000123)},
		{Condition: command.SetIfPresent, KeepTTL: true},
	}
	for _, opts := range tests {
		encoded, err := encodeSetOptions(opts)
		require.NoError(t, err)

		back, err := ParseSetOptions(tokensOf(encoded))
		require.NoError(t, err)
		assert.Equal(t, opts, back)
	}
}

func TestParseSetOptionsRejects(t *testing.T) {
	for _, tokens := range [][]string{
		{"EX"},
		{"EX", "soon"},
		{"GET"},
	} {
		_, err := ParseSetOptions(tokens)
		assert.ErrorIs(t, err, command.ErrConversion, "%v", tokens)
	}

	o, err := ParseSetOptions([]string{"nx", "px", "100"})
	require.NoError(t, err)
	assert.Equal(t, command.SetOptions{Condition: command.SetIfAbsent, TTL: 100 * time.Millisecond}, o)
}

func TestZAddOptionsRoundTrip(t *testing.T) {
	for _, cond := range command.SetConditions() {
		for _, cmp := range command.ZCompares() {
			for _, ch := range []bool{false, true} {
				opts := command.ZAddOptions{Condition: cond, Compare: cmp, Changed: ch}
				encoded, err := encodeZAddOptions(opts)
				if opts.Validate() != nil {
					assert.ErrorIs(t, err, command.ErrInvalidOptions)
					continue
				}
				require.NoError(t, err)

				back, err := ParseZAddOptions(tokensOf(encoded))
				require.NoError(t, err)
				assert.Equal(t, opts, back)
			}
		}
	}

	_, err := ParseZAddOptions([]string{"INCR"})
	assert.ErrorIs(t, err, command.ErrConversion)
}

func TestParseZStoreOptions(t *testing.T) {
	o, err := ParseZStoreOptions([]string{"WEIGHTS", "1", "2.5", "AGGREGATE", "min"})
	require.NoError(t, err)
	assert.Equal(t, command.ZStoreOptions{Weights: []float64{1, 2.5}, Aggregate: command.AggregateMin}, o)

	o, err = ParseZStoreOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, command.AggregateSum, o.Aggregate)

	_, err = ParseZStoreOptions([]string{"AGGREGATE", "AVG"})
	assert.ErrorIs(t, err, command.ErrConversion)

	_, err = ParseZStoreOptions([]string{"AGGREGATE"})
	assert.ErrorIs(t, err, command.ErrConversion)
}
