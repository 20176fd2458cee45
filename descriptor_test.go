package kvclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
	"github.com/pior/kvclient/driver/drivertest"
)

func TestNewDescriptor(t *testing.T) {
	drv := drivertest.New(driver.Standalone)
	req := ObjectEncoding("k").Request()
	th, err := drv.Prepare(req)
	require.NoError(t, err)

	d := NewDescriptor[Optional[string]](req.ID, req.Trace(), th, toOptionalString)
	assert.Equal(t, command.ObjectEncoding, d.Command())
	assert.Equal(t, "ENCODING", d.Sub())
	key, ok := d.Trace().Lookup("key")
	assert.True(t, ok)
	assert.Equal(t, "k", key)

	thunks := d.Thunks()
	require.Len(t, thunks, 1)
	thunks[0] = nil
	assert.NotNil(t, d.Thunks()[0])
	assert.Equal(t, 0, drv.Invocations())
}

func TestDescriptor_Finish(t *testing.T) {
	d := NewDescriptor[int64](command.Incr, Incr("n").Request().Trace(), nil, toInt)

	v, err := d.finish(command.IntReply(3), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	native := errors.New("i/o timeout")
	_, err = d.finish(command.Reply{}, native)
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, native)
	assert.Equal(t, command.Incr, ce.Command)
	assert.Equal(t, `kvclient: INCR (key="n"): i/o timeout`, err.Error())

	_, err = d.finish(command.BulkReply("x"), nil)
	assert.ErrorIs(t, err, command.ErrConversion)
	assert.ErrorAs(t, err, &ce)
}

func TestResult_States(t *testing.T) {
	r := &Result[string]{}
	assert.True(t, r.Pending())
	assert.ErrorIs(t, r.Err(), ErrNotResolved)
	assert.Equal(t, "", r.Val())

	r.resolve("v", nil)
	assert.True(t, r.Resolved())
	assert.Equal(t, "v", r.Val())

	d := &Result[string]{}
	d.discard()
	assert.False(t, d.Resolved())
	assert.False(t, d.Pending())
	assert.ErrorIs(t, d.Err(), ErrDiscarded)

	f := failed[int](ErrClientClosed)
	assert.True(t, f.Resolved())
	assert.ErrorIs(t, f.Err(), ErrClientClosed)
}
