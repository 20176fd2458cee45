package kvclient

import (
	"context"
	"errors"
	"time"
)

// NoTTL represents an infinite TTL (no expiration).
const NoTTL = 0

var (
	// ErrCacheMiss is returned by Querier.Delete when the key does not exist.
	ErrCacheMiss = errors.New("kvclient: cache miss")

	// ErrNotStored is returned by Querier.Add when the key already exists.
	ErrNotStored = errors.New("kvclient: item not stored")
)

// Item is a binary value with its key and TTL.
type Item struct {
	Key   string
	Value []byte
	TTL   time.Duration
	Found bool // indicates whether the key was found
}

// Querier is the cache-style subset of the command set.
type Querier interface {
	Get(ctx context.Context, key string) (Item, error)
	Set(ctx context.Context, item Item) error
	Add(ctx context.Context, item Item) error
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// NewQuerier returns a Querier running direct calls on client.
func NewQuerier(client *Client) Querier {
	return &querier{client: client}
}

type querier struct {
	client *Client
}

var _ Querier = (*querier)(nil)

// Get retrieves an item. Missing keys return an item with Found=false.
func (q *querier) Get(ctx context.Context, key string) (Item, error) {
	v, err := Do(ctx, q.client, Get(key))
	if err != nil {
		return Item{}, err
	}
	if !v.Found {
		return Item{Key: key}, nil
	}
	return Item{Key: key, Value: []byte(v.Value), Found: true}, nil
}

// Set stores an item, replacing any previous value.
func (q *querier) Set(ctx context.Context, item Item) error {
	_, err := Do(ctx, q.client, SetBytes(item.Key, item.Value, SetOptions{TTL: item.TTL}))
	return err
}

// Add stores an item only if the key does not exist.
func (q *querier) Add(ctx context.Context, item Item) error {
	written, err := Do(ctx, q.client, SetBytes(item.Key, item.Value, SetOptions{Condition: SetIfAbsent, TTL: item.TTL}))
	if err != nil {
		return err
	}
	if !written {
		return ErrNotStored
	}
	return nil
}

// Delete removes a key. Returns ErrCacheMiss if not found.
func (q *querier) Delete(ctx context.Context, key string) error {
	n, err := Do(ctx, q.client, Del(key))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCacheMiss
	}
	return nil
}

// Increment adds delta to a counter, creating it at zero if needed. A
// positive ttl is only applied to counters without expiry.
func (q *querier) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	n, err := Do(ctx, q.client, IncrBy(key, delta))
	if err != nil {
		return 0, err
	}
	if ttl > 0 {
		if _, err := Do(ctx, q.client, PExpire(key, ttl, ExpireIfNoTTL)); err != nil {
			return n, err
		}
	}
	return n, nil
}
