package kvclient

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/kvclient/command"
)

// ClientStats contains statistics about client operations.
//
// For Prometheus integration, expose these as:
//   - Counters: Calls, Queued, Flushes, Execs, Discards, Rejected, Errors
//   - Counter per command: Commands (with a command label)
type ClientStats struct {
	Calls    uint64 // Calls made, direct or queued
	Queued   uint64 // Calls queued in a pipeline or transaction
	Flushes  uint64 // Pipelines sent
	Execs    uint64 // Transactions sent
	Discards uint64 // Transactions discarded
	Rejected uint64 // Calls refused by the topology
	Errors   uint64 // Failed calls, including rejected ones

	// Commands counts calls per command.
	Commands map[command.ID]uint64

	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

type clientStatsCollector struct {
	calls    atomic.Uint64
	queued   atomic.Uint64
	flushes  atomic.Uint64
	execs    atomic.Uint64
	discards atomic.Uint64
	rejected atomic.Uint64
	errors   atomic.Uint64

	commands *xsync.MapOf[command.ID, *atomic.Uint64]
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{
		commands: xsync.NewMapOf[command.ID, *atomic.Uint64](),
	}
}

func (c *clientStatsCollector) recordCall(id command.ID) {
	c.calls.Add(1)
	counter, _ := c.commands.LoadOrCompute(id, func() *atomic.Uint64 {
		return new(atomic.Uint64)
	})
	counter.Add(1)
}

func (c *clientStatsCollector) recordQueued()   { c.queued.Add(1) }
func (c *clientStatsCollector) recordFlush()    { c.flushes.Add(1) }
func (c *clientStatsCollector) recordExec()     { c.execs.Add(1) }
func (c *clientStatsCollector) recordDiscard()  { c.discards.Add(1) }
func (c *clientStatsCollector) recordError()    { c.errors.Add(1) }
func (c *clientStatsCollector) recordRejected() { c.rejected.Add(1); c.errors.Add(1) }

func (c *clientStatsCollector) snapshot() ClientStats {
	s := ClientStats{
		Calls:    c.calls.Load(),
		Queued:   c.queued.Load(),
		Flushes:  c.flushes.Load(),
		Execs:    c.execs.Load(),
		Discards: c.discards.Load(),
		Rejected: c.rejected.Load(),
		Errors:   c.errors.Load(),
		Commands: make(map[command.ID]uint64, c.commands.Size()),
	}
	c.commands.Range(func(id command.ID, n *atomic.Uint64) bool {
		s.Commands[id] = n.Load()
		return true
	})
	return s
}
