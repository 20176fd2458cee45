package redigo

import (
	"context"
	"sync/atomic"

	"github.com/gomodule/redigo/redis"
	"github.com/jackc/puddle/v2"
)

// Resource is a pooled connection.
type Resource interface {
	Value() redis.Conn
	Release()
	Destroy()
}

// Pool hands out connections to a single node.
type Pool interface {
	Acquire(ctx context.Context) (Resource, error)
	Close()
	Stats() PoolStats
}

// PoolStats is a snapshot of a connection pool.
type PoolStats struct {
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait
	CreatedConns      uint64
	DestroyedConns    uint64
	AcquireErrors     uint64 // Canceled acquires
	AcquireWaitTimeNs uint64

	TotalConns  int32
	IdleConns   int32
	ActiveConns int32
}

// NewPuddlePool creates a puddle-backed pool of redigo connections.
func NewPuddlePool(dial func(ctx context.Context) (redis.Conn, error), maxSize int32) (Pool, error) {
	p := &puddlePool{}

	pool, err := puddle.NewPool(&puddle.Config[redis.Conn]{
		Constructor: func(ctx context.Context) (redis.Conn, error) {
			conn, err := dial(ctx)
			if err == nil {
				p.createdConns.Add(1)
			}
			return conn, err
		},
		Destructor: func(c redis.Conn) {
			p.destroyedConns.Add(1)
			_ = c.Close()
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

type puddlePool struct {
	pool           *puddle.Pool[redis.Conn]
	createdConns   atomic.Int64
	destroyedConns atomic.Int64
}

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	// A connection left in an error state by its last user is not reused.
	if res.Value().Err() != nil {
		res.Destroy()
		if res, err = p.pool.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (p *puddlePool) Close() {
	p.pool.Close()
}

func (p *puddlePool) Stats() PoolStats {
	s := p.pool.Stat()
	return PoolStats{
		TotalConns:        s.TotalResources(),
		IdleConns:         s.IdleResources(),
		ActiveConns:       s.AcquiredResources(),
		AcquireCount:      uint64(s.AcquireCount()),
		AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
		CreatedConns:      uint64(p.createdConns.Load()),
		DestroyedConns:    uint64(p.destroyedConns.Load()),
		AcquireErrors:     uint64(s.CanceledAcquireCount()),
		AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
	}
}
