package kvclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// Config holds the optional settings of a client. The zero value is usable.
type Config struct {
	// Logger receives failed calls with their argument trace.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// NewCircuitBreaker creates the circuit breaker guarding the driver.
	// It is called once with the driver name.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(name string) *gobreaker.CircuitBreaker[command.Reply]
}

// Client is a session over a driver. It runs calls directly, or queues them
// in a pipeline or a transaction until the batch is sent.
//
// Direct calls may be made from several goroutines. A batch belongs to the
// goroutine that opened it.
type Client struct {
	driver   driver.Driver
	topology Topology
	breaker  *gobreaker.CircuitBreaker[command.Reply]
	logger   *slog.Logger
	id       uuid.UUID
	stats    *clientStatsCollector

	mu     sync.Mutex
	mode   Mode
	batch  *batchStrategy
	closed bool
}

// New creates a client over drv. The client owns the driver and closes it
// with Close.
func New(drv driver.Driver, config Config) (*Client, error) {
	topology, err := NewTopology(drv.Topology())
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		driver:   drv,
		topology: topology,
		logger:   logger.With("client", id.String(), "driver", drv.Name()),
		id:       id,
		stats:    newClientStatsCollector(),
	}
	if config.NewCircuitBreaker != nil {
		c.breaker = config.NewCircuitBreaker(drv.Name())
	}
	return c, nil
}

// Open opens the named driver and creates a client over it.
// For a single server, use: Open("goredis", driver.Options{Addrs: []string{"host:port"}}, Config{})
func Open(name string, opts driver.Options, config Config) (*Client, error) {
	drv, err := driver.Open(name, opts)
	if err != nil {
		return nil, err
	}
	c, err := New(drv, config)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	return c, nil
}

// ID is the random session identifier attached to the client logs.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Driver returns the driver the client runs on.
func (c *Client) Driver() driver.Driver {
	return c.driver
}

// Topology returns the kind of deployment the client talks to.
func (c *Client) Topology() driver.Topology {
	return c.topology.Kind()
}

// Mode returns the current execution mode.
func (c *Client) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Pipeline switches the client to pipeline mode. Calls are queued until
// Flush.
func (c *Client) Pipeline(ctx context.Context) error {
	return c.begin(ctx, ModePipeline, "pipeline")
}

// Multi switches the client to transaction mode. Calls are queued until
// Exec or Discard.
func (c *Client) Multi(ctx context.Context) error {
	return c.begin(ctx, ModeTransaction, "multi")
}

func (c *Client) begin(ctx context.Context, mode Mode, op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if c.mode != ModeDirect {
		return modeConflict(op, c.mode)
	}
	b, err := newBatchStrategy(ctx, c.driver, mode)
	if err != nil {
		return err
	}
	c.mode, c.batch = mode, b
	return nil
}

// end leaves the batch mode want and returns its batch. The client is back
// in direct mode whatever happens to the batch afterwards.
func (c *Client) end(want Mode, op string) (*batchStrategy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != want {
		return nil, modeConflict(op, c.mode)
	}
	b := c.batch
	c.mode, c.batch = ModeDirect, nil
	return b, nil
}

// Flush sends the pipeline in one round trip and returns to direct mode.
//
// The values are in call order: the converted value of each call, or its
// *CommandError. The error is the transport failure if any, otherwise the
// first failed call.
func (c *Client) Flush(ctx context.Context) ([]any, error) {
	b, err := c.end(ModePipeline, "flush")
	if err != nil {
		return nil, err
	}
	c.stats.recordFlush()
	values, err := b.exec(ctx, c)
	if err != nil {
		c.logBatch(ctx, "pipeline failed", len(b.calls), err)
	}
	return values, err
}

// Exec runs the transaction and returns to direct mode. Values are laid out
// as by Flush. When the server rejected a command while queuing, nothing is
// applied, no value is returned and the error is a *TxQueueError.
func (c *Client) Exec(ctx context.Context) ([]any, error) {
	b, err := c.end(ModeTransaction, "exec")
	if err != nil {
		return nil, err
	}
	c.stats.recordExec()
	values, err := b.exec(ctx, c)
	if err != nil {
		c.logBatch(ctx, "transaction failed", len(b.calls), err)
	}
	return values, err
}

// Discard drops the transaction without sending anything. Its results
// report ErrDiscarded.
func (c *Client) Discard() error {
	b, err := c.end(ModeTransaction, "discard")
	if err != nil {
		return err
	}
	c.stats.recordDiscard()
	return b.discard()
}

// Stats returns a snapshot of the client statistics.
func (c *Client) Stats() ClientStats {
	s := c.stats.snapshot()
	if c.breaker != nil {
		s.CircuitBreakerState = c.breaker.State()
		s.CircuitBreakerCounts = c.breaker.Counts()
	}
	return s
}

// Close discards any open batch and closes the driver.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	b := c.batch
	c.mode, c.batch = ModeDirect, nil
	c.mu.Unlock()

	if b != nil {
		if err := b.discard(); err != nil {
			c.logger.Warn("discarding batch on close", "error", err)
		}
	}
	return c.driver.Close()
}

// guard runs fn through the circuit breaker. Server replies, canceled
// contexts and aborted transactions are returned to the caller without
// counting as failures.
func (c *Client) guard(fn func() (command.Reply, error)) (command.Reply, error) {
	if c.breaker == nil {
		return fn()
	}
	var passed error
	reply, err := c.breaker.Execute(func() (command.Reply, error) {
		reply, err := fn()
		if err != nil && c.harmless(err) {
			passed = err
			return reply, nil
		}
		return reply, err
	})
	if err != nil {
		return reply, err
	}
	return reply, passed
}

func (c *Client) harmless(err error) bool {
	return c.driver.IsReplyError(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrExecAborted)
}

func (c *Client) logFailure(ctx context.Context, id command.ID, trace command.Trace, err error) {
	level := slog.LevelWarn
	if c.driver.IsReplyError(err) {
		level = slog.LevelDebug
	}
	c.logger.Log(ctx, level, "call failed",
		"command", id.String(),
		"args", trace,
		"error", err)
}

func (c *Client) logBatch(ctx context.Context, msg string, size int, err error) {
	c.logger.WarnContext(ctx, msg, "size", size, "error", err)
}

// Call runs cmd in the current mode of the client. In direct mode the
// result is resolved on return. Inside a pipeline or a transaction it stays
// pending until the batch is sent.
//
// Calls refused by the topology fail with an *UnsupportedError before
// anything reaches the driver.
func Call[T any](ctx context.Context, c *Client, cmd Cmd[T]) *Result[T] {
	req := cmd.Request()
	c.stats.recordCall(req.ID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.stats.recordError()
		return failed[T](ErrClientClosed)
	}
	mode := c.mode

	plan, err := c.topology.Plan(req, mode)
	if err != nil {
		c.mu.Unlock()
		c.stats.recordRejected()
		c.logFailure(ctx, req.ID, req.Trace(), err)
		return failed[T](err)
	}
	if mode != ModeDirect {
		if err := c.batch.admit(req, plan, c.topology.Kind()); err != nil {
			c.mu.Unlock()
			c.stats.recordRejected()
			c.logFailure(ctx, req.ID, req.Trace(), err)
			return failed[T](err)
		}
	}

	d, err := describe(c.driver, plan, cmd)
	if err != nil {
		c.mu.Unlock()
		c.stats.recordError()
		c.logFailure(ctx, req.ID, req.Trace(), err)
		return failed[T](err)
	}

	if mode == ModeDirect {
		c.mu.Unlock()
		return callDirect(ctx, c, d)
	}
	defer c.mu.Unlock()
	return callQueued(ctx, c, d, plan.Slot)
}

func callDirect[T any](ctx context.Context, c *Client, d *Descriptor[T]) *Result[T] {
	reply, err := directStrategy{c: c}.run(ctx, d)
	v, err := d.finish(reply, err)
	if err != nil {
		c.stats.recordError()
		c.logFailure(ctx, d.Command(), d.Trace(), err)
	}
	r := &Result[T]{}
	r.resolve(v, err)
	return r
}

func callQueued[T any](ctx context.Context, c *Client, d *Descriptor[T], slot int) *Result[T] {
	r := &Result[T]{}
	q := &queued{
		op:   d,
		slot: slot,
		settle: func(reply command.Reply, err error) any {
			v, err := d.finish(reply, err)
			r.resolve(v, err)
			if err != nil {
				c.stats.recordError()
				return err
			}
			return v
		},
		reject: func(err error) { r.queueErr = err },
		drop:   r.discard,
	}
	if err := c.batch.enqueue(ctx, q); err != nil {
		c.stats.recordError()
		c.logFailure(ctx, d.Command(), d.Trace(), err)
		return failed[T](err)
	}
	c.stats.recordQueued()
	return r
}

// Do runs cmd and returns its value. Inside a batch the call is queued and
// Do returns ErrNotResolved; use Call to keep the pending result.
func Do[T any](ctx context.Context, c *Client, cmd Cmd[T]) (T, error) {
	return Call(ctx, c, cmd).Get()
}
