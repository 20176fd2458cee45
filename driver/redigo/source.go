package redigo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/mna/redisc"

	"github.com/pior/kvclient/driver"
)

// source hands out a connection able to serve keys, and the function
// returning it. Broken connections are not reused.
type source interface {
	conn(ctx context.Context, keys []string) (redis.Conn, func(broken bool), error)
	close() error
}

// poolSource serves every key from one node.
type poolSource struct {
	pool Pool
}

func (s *poolSource) conn(ctx context.Context, _ []string) (redis.Conn, func(bool), error) {
	res, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return res.Value(), func(broken bool) {
		if broken {
			res.Destroy()
			return
		}
		res.Release()
	}, nil
}

func (s *poolSource) close() error {
	s.pool.Close()
	return nil
}

// clusterSource binds connections to the node owning the keys' slot.
type clusterSource struct {
	cluster *redisc.Cluster
	logger  *slog.Logger
}

func newClusterSource(opts driver.Options, dialOpts []redis.DialOption) *clusterSource {
	size := opts.PoolSize
	cluster := &redisc.Cluster{
		StartupNodes: opts.Addrs,
		DialOptions:  dialOpts,
		CreatePool: func(addr string, options ...redis.DialOption) (*redis.Pool, error) {
			return &redis.Pool{
				MaxIdle:     size,
				MaxActive:   size,
				IdleTimeout: time.Minute,
				Wait:        true,
				DialContext: func(ctx context.Context) (redis.Conn, error) {
					return redis.DialContext(ctx, "tcp", addr, options...)
				},
			}, nil
		},
	}
	// Without a slot map redisc still routes through MOVED replies.
	if err := cluster.Refresh(); err != nil {
		opts.Logger.Warn("redigo: cluster slot refresh failed", "addrs", opts.Addrs, "error", err)
	}
	return &clusterSource{cluster: cluster, logger: opts.Logger}
}

func (s *clusterSource) conn(_ context.Context, keys []string) (redis.Conn, func(bool), error) {
	c := s.cluster.Get()
	if len(keys) > 0 {
		if err := redisc.BindConn(c, keys...); err != nil {
			s.closeConn(c)
			return nil, nil, err
		}
	}
	return c, func(bool) { s.closeConn(c) }, nil
}

func (s *clusterSource) closeConn(c redis.Conn) {
	if err := c.Close(); err != nil {
		s.logger.Warn("redigo: closing cluster connection", "error", err)
	}
}

func (s *clusterSource) close() error {
	return s.cluster.Close()
}

// sentinels resolves the primary and serves administrative commands.
type sentinels struct {
	addrs      []string
	masterName string
	dialOpts   []redis.DialOption
	logger     *slog.Logger
}

// dial connects to the first reachable sentinel.
func (s *sentinels) dial(ctx context.Context) (redis.Conn, error) {
	var errs []error
	for _, addr := range s.addrs {
		c, err := redis.DialContext(ctx, "tcp", addr, s.dialOpts...)
		if err == nil {
			return c, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
	}
	return nil, fmt.Errorf("redigo: no sentinel reachable: %w", errors.Join(errs...))
}

func (s *sentinels) closeConn(c redis.Conn) {
	if err := c.Close(); err != nil {
		s.logger.Warn("redigo: closing sentinel connection", "error", err)
	}
}

// primary asks the sentinels for the current primary address.
func (s *sentinels) primary(ctx context.Context) (string, error) {
	c, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer s.closeConn(c)

	parts, err := redis.Strings(do(ctx, c, "SENTINEL", "GET-MASTER-ADDR-BY-NAME", s.masterName))
	if errors.Is(err, redis.ErrNil) {
		return "", fmt.Errorf("redigo: sentinels do not monitor %q", s.masterName)
	}
	if err != nil {
		return "", err
	}
	if len(parts) != 2 {
		return "", fmt.Errorf("redigo: malformed primary address %q", parts)
	}
	return net.JoinHostPort(parts[0], parts[1]), nil
}

func dialOptions(opts driver.Options, username, password string, db int) []redis.DialOption {
	out := []redis.DialOption{
		redis.DialConnectTimeout(opts.DialTimeout),
		redis.DialReadTimeout(opts.ReadTimeout),
		redis.DialWriteTimeout(opts.WriteTimeout),
	}
	if username != "" {
		out = append(out, redis.DialUsername(username))
	}
	if password != "" {
		out = append(out, redis.DialPassword(password))
	}
	if db != 0 {
		out = append(out, redis.DialDatabase(db))
	}
	if opts.TLSConfig != nil {
		out = append(out, redis.DialUseTLS(true), redis.DialTLSConfig(opts.TLSConfig))
	}
	if opts.Dialer != nil {
		out = append(out, redis.DialContextFunc(opts.Dialer))
	}
	return out
}

func do(ctx context.Context, c redis.Conn, name string, args ...any) (any, error) {
	if cc, ok := c.(redis.ConnWithContext); ok {
		return cc.DoContext(ctx, name, args...)
	}
	return c.Do(name, args...)
}

func receive(ctx context.Context, c redis.Conn) (any, error) {
	if cc, ok := c.(redis.ConnWithContext); ok {
		return cc.ReceiveContext(ctx)
	}
	return c.Receive()
}
