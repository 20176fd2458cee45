package kvclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

func TestQuerier(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Standalone)
	q := NewQuerier(c)

	item, err := q.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Item{Key: "k"}, item)

	require.NoError(t, q.Set(ctx, Item{Key: "k", Value: []byte("v")}))
	item, err = q.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Item{Key: "k", Value: []byte("v"), Found: true}, item)

	assert.ErrorIs(t, q.Add(ctx, Item{Key: "k", Value: []byte("other")}), ErrNotStored)
	require.NoError(t, q.Add(ctx, Item{Key: "new", Value: []byte("x")}))

	require.NoError(t, q.Delete(ctx, "k"))
	assert.ErrorIs(t, q.Delete(ctx, "k"), ErrCacheMiss)

	n, err := q.Increment(ctx, "counter", 5, NoTTL)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestQuerier_IncrementAppliesTTL(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)
	q := NewQuerier(c)

	var expires []command.Request
	memory := drv.Handler
	drv.Handler = func(req command.Request) (command.Reply, error) {
		if req.ID == command.PExpire {
			expires = append(expires, req)
			return command.IntReply(1), nil
		}
		return memory(req)
	}

	n, err := q.Increment(ctx, "counter", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, expires, 1)
	assert.Equal(t, time.Minute, expires[0].Args[1].Value)
	assert.Equal(t, ExpireIfNoTTL, expires[0].Args[2].Value)
}

func TestBatchCommands(t *testing.T) {
	ctx := context.Background()
	c, drv := newTestClient(t, driver.Standalone)
	b := NewBatchCommands(c)

	require.NoError(t, b.MultiSet(ctx, []Item{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}))
	assert.Equal(t, 1, drv.Execs())

	items, err := b.MultiGet(ctx, []string{"b", "missing", "a"})
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{Key: "b", Value: []byte("2"), Found: true},
		{Key: "missing"},
		{Key: "a", Value: []byte("1"), Found: true},
	}, items)

	deleted, err := b.MultiDelete(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 3, drv.Execs())
	assert.Equal(t, ModeDirect, c.Mode())

	items, err = b.MultiGet(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestBatchCommands_RequireDirectMode(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Standalone)
	b := NewBatchCommands(c)

	require.NoError(t, c.Multi(ctx))
	_, err := b.MultiGet(ctx, []string{"a"})
	assert.ErrorIs(t, err, ErrModeConflict)
	assert.Equal(t, ModeTransaction, c.Mode())
}

func TestBatchCommands_Cluster(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, driver.Cluster)
	b := NewBatchCommands(c)

	require.NoError(t, b.MultiSet(ctx, []Item{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}}))
	items, err := b.MultiGet(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, items[0].Found)
	assert.True(t, items[1].Found)
}
