// Package goredis adapts github.com/redis/go-redis/v9 to the driver
// contract.
//
// Commands with a typed go-redis API (SET, EXPIRE, ZADD, LMOVE, BITOP,
// ZUNIONSTORE, GEODIST, FLUSHDB, BITCOUNT) are sent through it, with domain
// options converted to go-redis parameter types. Every other command is
// sent as a typed Cmder matching its reply shape. Importing the package
// registers the driver as "goredis".
package goredis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

const Name = "goredis"

func init() {
	driver.Register(Name, func(opts driver.Options) (driver.Driver, error) {
		return New(opts)
	})
}

var errNotCmdable = errors.New("goredis: typed command sent to a sentinel connection")

// processor is what both clients and pipelines accept.
type processor interface {
	Process(ctx context.Context, cmd redis.Cmder) error
}

// Driver runs commands through a go-redis client.
type Driver struct {
	topology driver.Topology
	client   redis.UniversalClient
	sentinel *redis.SentinelClient
	logger   *slog.Logger
}

var _ driver.Driver = (*Driver)(nil)

// New connects a go-redis client for the topology in opts.
func New(opts driver.Options) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{topology: opts.Topology, logger: opts.Logger}

	switch opts.Topology {
	case driver.Standalone:
		d.client = redis.NewClient(&redis.Options{
			Addr:         opts.Addrs[0],
			Username:     opts.Username,
			Password:     opts.Password,
			DB:           opts.DB,
			TLSConfig:    opts.TLSConfig,
			Dialer:       opts.Dialer,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			PoolSize:     opts.PoolSize,
		})
	case driver.Sentinel:
		d.client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       opts.MasterName,
			SentinelAddrs:    opts.Addrs,
			SentinelUsername: opts.SentinelUsername,
			SentinelPassword: opts.SentinelPassword,
			Username:         opts.Username,
			Password:         opts.Password,
			DB:               opts.DB,
			TLSConfig:        opts.TLSConfig,
			Dialer:           opts.Dialer,
			DialTimeout:      opts.DialTimeout,
			ReadTimeout:      opts.ReadTimeout,
			WriteTimeout:     opts.WriteTimeout,
			PoolSize:         opts.PoolSize,
		})
		// Administrative commands go to the first sentinel.
		d.sentinel = redis.NewSentinelClient(&redis.Options{
			Addr:         opts.Addrs[0],
			Username:     opts.SentinelUsername,
			Password:     opts.SentinelPassword,
			TLSConfig:    opts.TLSConfig,
			Dialer:       opts.Dialer,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		})
	case driver.Cluster:
		d.client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        opts.Addrs,
			Username:     opts.Username,
			Password:     opts.Password,
			TLSConfig:    opts.TLSConfig,
			Dialer:       opts.Dialer,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			PoolSize:     opts.PoolSize,
		})
	}
	return d, nil
}

// Wrap adapts an existing go-redis client. sentinel may be nil.
func Wrap(client redis.UniversalClient, topology driver.Topology, sentinel *redis.SentinelClient) *Driver {
	return &Driver{topology: topology, client: client, sentinel: sentinel, logger: slog.Default()}
}

// Client returns the underlying go-redis client.
func (d *Driver) Client() redis.UniversalClient { return d.client }

func (d *Driver) Name() string              { return Name }
func (d *Driver) Topology() driver.Topology { return d.topology }

// IsReplyError reports error replies, including redis.Nil.
func (d *Driver) IsReplyError(err error) bool {
	var re redis.Error
	return errors.As(err, &re)
}

type thunk struct {
	owner *Driver
	id    command.ID
	spec  command.Spec
	args  []any
	keys  []string
	typed typedCall
}

func (t *thunk) Command() command.ID { return t.id }

// run processes the command on p. Pipelines only queue it.
func (t *thunk) run(ctx context.Context, p processor) redis.Cmder {
	if t.typed != nil {
		c, ok := p.(redis.Cmdable)
		if !ok {
			cmd := redis.NewCmd(ctx, strings.ToLower(t.spec.Name))
			cmd.SetErr(errNotCmdable)
			return cmd
		}
		return t.typed(ctx, c)
	}
	cmd := newCmder(ctx, t.spec.Shape, t.args)
	_ = p.Process(ctx, cmd)
	return cmd
}

// build returns the command for t queued on pipe, which is never sent.
func (t *thunk) build(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
	if t.typed != nil {
		return t.typed(ctx, pipe)
	}
	return newCmder(ctx, t.spec.Shape, t.args)
}

// Prepare converts req. Commands with a typed go-redis API get their
// options converted to go-redis types now, so conversion errors surface
// before anything is sent.
func (d *Driver) Prepare(req command.Request) (driver.Thunk, error) {
	if !req.ID.Valid() {
		return nil, &command.ConversionError{Type: "command", Value: req.ID}
	}
	t := &thunk{owner: d, id: req.ID, spec: req.Spec(), keys: req.Keys()}

	if build, ok := natives[req.ID]; ok {
		typed, err := build(req.Args)
		if err != nil {
			return nil, fmt.Errorf("goredis: %s: %w", req.ID, err)
		}
		t.typed = typed
		return t, nil
	}

	flat, err := req.Flatten(encodeOption)
	if err != nil {
		return nil, fmt.Errorf("goredis: %s: %w", req.ID, err)
	}
	// go-redis locates cluster keys by lower-case command and sub-command.
	if t.spec.Sub != "" {
		flat[0] = strings.ToLower(t.spec.Sub)
	}
	t.args = append([]any{strings.ToLower(t.spec.Name)}, flat...)
	return t, nil
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
	var p processor = d.client
	if th.spec.Flags.Has(command.SentinelOnly) {
		if d.sentinel == nil {
			return command.Reply{}, driver.ErrNoSentinel
		}
		p = d.sentinel
	}
	return fromNative(th.run(ctx, p))
}

func (d *Driver) Begin(ctx context.Context, mode driver.Mode) (driver.Batch, error) {
	switch mode {
	case driver.Pipeline:
		return &batch{owner: d, pipe: d.client.Pipeline()}, nil
	case driver.Transaction:
		return &txBatch{owner: d}, nil
	}
	return nil, fmt.Errorf("goredis: unknown batch mode %d", mode)
}

// txConn pins a connection for a transaction. On a cluster it goes to the
// primary serving key.
func (d *Driver) txConn(ctx context.Context, key string) (*redis.Conn, error) {
	switch c := d.client.(type) {
	case *redis.Client:
		return c.Conn(), nil
	case *redis.ClusterClient:
		node, err := c.MasterForKey(ctx, key)
		if err != nil {
			return nil, err
		}
		return node.Conn(), nil
	}
	return nil, fmt.Errorf("goredis: transactions are not supported on %T", d.client)
}

func (d *Driver) Close() error {
	var errs []error
	if d.sentinel != nil {
		errs = append(errs, d.sentinel.Close())
	}
	errs = append(errs, d.client.Close())
	return errors.Join(errs...)
}
