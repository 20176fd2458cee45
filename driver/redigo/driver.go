// Package redigo adapts github.com/gomodule/redigo to the driver contract.
//
// Standalone and sentinel deployments use a puddle pool of redigo
// connections; sentinel deployments resolve the primary through the
// sentinels on every new connection. Clusters use github.com/mna/redisc,
// with connections bound to the slot of the command keys. Batches are kept
// in memory and written with Send/Flush/Receive on Exec. Importing the
// package registers the driver as "redigo".
package redigo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gomodule/redigo/redis"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

const Name = "redigo"

func init() {
	driver.Register(Name, func(opts driver.Options) (driver.Driver, error) {
		return New(opts)
	})
}

// Driver runs commands on redigo connections.
type Driver struct {
	topology  driver.Topology
	source    source
	pool      Pool
	sentinels *sentinels
	logger    *slog.Logger
}

var _ driver.Driver = (*Driver)(nil)

func New(opts driver.Options) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{topology: opts.Topology, logger: opts.Logger}
	dataOpts := dialOptions(opts, opts.Username, opts.Password, opts.DB)

	switch opts.Topology {
	case driver.Standalone:
		addr := opts.Addrs[0]
		pool, err := NewPuddlePool(func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr, dataOpts...)
		}, int32(opts.PoolSize))
		if err != nil {
			return nil, err
		}
		d.pool = pool
		d.source = &poolSource{pool: pool}

	case driver.Sentinel:
		d.sentinels = &sentinels{
			addrs:      opts.Addrs,
			masterName: opts.MasterName,
			dialOpts:   dialOptions(opts, opts.SentinelUsername, opts.SentinelPassword, 0),
			logger:     opts.Logger,
		}
		pool, err := NewPuddlePool(func(ctx context.Context) (redis.Conn, error) {
			addr, err := d.sentinels.primary(ctx)
			if err != nil {
				return nil, err
			}
			return redis.DialContext(ctx, "tcp", addr, dataOpts...)
		}, int32(opts.PoolSize))
		if err != nil {
			return nil, err
		}
		d.pool = pool
		d.source = &poolSource{pool: pool}

	case driver.Cluster:
		d.source = newClusterSource(opts, dataOpts)
	}
	return d, nil
}

func (d *Driver) Name() string              { return Name }
func (d *Driver) Topology() driver.Topology { return d.topology }

// IsReplyError reports error replies from the server.
func (d *Driver) IsReplyError(err error) bool {
	var re redis.Error
	return errors.As(err, &re)
}

// broken reports errors after which a connection cannot be reused.
func (d *Driver) broken(err error) bool {
	return err != nil && !d.IsReplyError(err) && !errors.Is(err, redis.ErrNil)
}

// PoolStats returns the connection pool statistics. Cluster drivers have
// one redigo pool per node and report zero values.
func (d *Driver) PoolStats() PoolStats {
	if d.pool == nil {
		return PoolStats{}
	}
	return d.pool.Stats()
}

type thunk struct {
	owner *Driver
	id    command.ID
	spec  command.Spec
	args  []any
	keys  []string
}

func (t *thunk) Command() command.ID { return t.id }

// Prepare flattens the request into wire arguments.
func (d *Driver) Prepare(req command.Request) (driver.Thunk, error) {
	if !req.ID.Valid() {
		return nil, &command.ConversionError{Type: "command", Value: req.ID}
	}
	args, err := req.Flatten(encodeOption)
	if err != nil {
		return nil, fmt.Errorf("redigo: %s: %w", req.ID, err)
	}
	return &thunk{
		owner: d,
		id:    req.ID,
		spec:  req.Spec(),
		args:  args,
		keys:  req.Keys(),
	}, nil
}

func (d *Driver) thunk(t driver.Thunk) (*thunk, error) {
	th, ok := t.(*thunk)
	if !ok || th.owner != d {
		return nil, driver.ErrForeignThunk
	}
	return th, nil
}

func (d *Driver) Invoke(ctx context.Context, t driver.Thunk) (command.Reply, error) {
	th, err := d.thunk(t)
	if err != nil {
		return command.Reply{}, err
	}
	if th.spec.Flags.Has(command.SentinelOnly) {
		return d.invokeSentinel(ctx, th)
	}

	conn, release, err := d.source.conn(ctx, th.keys)
	if err != nil {
		return command.Reply{}, err
	}
	reply, err := do(ctx, conn, th.spec.Name, th.args...)
	release(d.broken(err))
	return fromNative(th.spec.Shape, reply, err)
}

func (d *Driver) invokeSentinel(ctx context.Context, th *thunk) (command.Reply, error) {
	if d.sentinels == nil {
		return command.Reply{}, driver.ErrNoSentinel
	}
	conn, err := d.sentinels.dial(ctx)
	if err != nil {
		return command.Reply{}, err
	}
	defer d.sentinels.closeConn(conn)
	reply, err := do(ctx, conn, th.spec.Name, th.args...)
	return fromNative(th.spec.Shape, reply, err)
}

func (d *Driver) Begin(ctx context.Context, mode driver.Mode) (driver.Batch, error) {
	if mode != driver.Pipeline && mode != driver.Transaction {
		return nil, fmt.Errorf("redigo: unknown batch mode %d", mode)
	}
	return &batch{owner: d, mode: mode}, nil
}

func (d *Driver) Close() error {
	return d.source.close()
}
