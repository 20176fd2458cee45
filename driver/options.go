package driver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Topology is the kind of deployment a driver talks to.
type Topology uint8

const (
	Standalone Topology = iota + 1
	Sentinel
	Cluster
)

func (t Topology) String() string {
	switch t {
	case Standalone:
		return "standalone"
	case Sentinel:
		return "sentinel"
	case Cluster:
		return "cluster"
	}
	return "unknown"
}

// ParseTopology parses a topology name as written by String.
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(s) {
	case "", "standalone":
		return Standalone, nil
	case "sentinel":
		return Sentinel, nil
	case "cluster":
		return Cluster, nil
	}
	return 0, fmt.Errorf("driver: unknown topology %q", s)
}

// Options configures the connection of a driver. Drivers map them onto
// their native option types.
type Options struct {
	Topology Topology

	// Addrs is the server address for standalone, the sentinel addresses
	// for sentinel and the startup nodes for cluster.
	Addrs []string

	// MasterName is the name of the primary monitored by sentinels.
	MasterName string

	Username string
	Password string

	SentinelUsername string
	SentinelPassword string

	// DB is the logical database. Clusters only have database 0.
	DB int

	TLSConfig *tls.Config

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PoolSize is the maximum number of connections per node.
	PoolSize int

	// Dialer replaces the default network dialer.
	Dialer func(ctx context.Context, network, addr string) (net.Conn, error)

	// Logger receives cleanup failures. Defaults to slog.Default().
	Logger *slog.Logger
}

const (
	DefaultDialTimeout = 5 * time.Second
	DefaultTimeout     = 3 * time.Second
	DefaultPoolSize    = 10
)

// Validate checks the options and fills defaults.
func (o *Options) Validate() error {
	if o.Topology == 0 {
		o.Topology = Standalone
	}
	if len(o.Addrs) == 0 {
		return errors.New("driver: no address")
	}
	switch o.Topology {
	case Standalone:
		if len(o.Addrs) > 1 {
			return fmt.Errorf("driver: standalone topology takes one address, got %d", len(o.Addrs))
		}
	case Sentinel:
		if o.MasterName == "" {
			return errors.New("driver: sentinel topology requires a master name")
		}
	case Cluster:
		if o.DB != 0 {
			return errors.New("driver: cluster topology only supports database 0")
		}
	default:
		return fmt.Errorf("driver: unknown topology %d", o.Topology)
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = DefaultTimeout
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = DefaultTimeout
	}
	if o.PoolSize <= 0 {
		o.PoolSize = DefaultPoolSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return nil
}
