package kvclient

import (
	"context"
)

// BatchCommands provides batch operations sent as one pipeline.
// The client must be in direct mode.
type BatchCommands struct {
	client *Client
}

// NewBatchCommands creates a new BatchCommands instance.
func NewBatchCommands(client *Client) *BatchCommands {
	return &BatchCommands{client: client}
}

// run queues the calls of queue in a pipeline and flushes it. A failure
// while queuing discards nothing: the pipeline is still flushed so the
// client returns to direct mode.
func (b *BatchCommands) run(ctx context.Context, queue func() error) error {
	if err := b.client.Pipeline(ctx); err != nil {
		return err
	}
	qerr := queue()
	if _, err := b.client.Flush(ctx); err != nil {
		return err
	}
	return qerr
}

// MultiGet retrieves multiple items in a single batch operation.
// Returns items in the same order as the keys, with Found=false for missing items.
func (b *BatchCommands) MultiGet(ctx context.Context, keys []string) ([]Item, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	results := make([]*Result[Optional[string]], len(keys))
	err := b.run(ctx, func() error {
		for i, key := range keys {
			results[i] = Call(ctx, b.client, Get(key))
			if !results[i].Pending() {
				return results[i].Err()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(keys))
	for i, r := range results {
		v, err := r.Get()
		if err != nil {
			return nil, err
		}
		items[i] = Item{Key: keys[i], Found: v.Found}
		if v.Found {
			items[i].Value = []byte(v.Value)
		}
	}
	return items, nil
}

// MultiSet stores multiple items in a single batch operation.
// Returns error on first failure.
func (b *BatchCommands) MultiSet(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	return b.run(ctx, func() error {
		for _, item := range items {
			r := Call(ctx, b.client, SetBytes(item.Key, item.Value, SetOptions{TTL: item.TTL}))
			if !r.Pending() {
				return r.Err()
			}
		}
		return nil
	})
}

// MultiDelete removes multiple keys in a single batch operation and returns
// how many existed.
func (b *BatchCommands) MultiDelete(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	results := make([]*Result[int64], 0, len(keys))
	err := b.run(ctx, func() error {
		for _, key := range keys {
			r := Call(ctx, b.client, Del(key))
			if !r.Pending() {
				return r.Err()
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, r := range results {
		deleted += r.Val()
	}
	return deleted, nil
}
