package kvclient

import (
	"fmt"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// Plan is how a topology runs a request: usually the request itself, or
// one request per cluster slot whose replies Merge folds back together.
type Plan struct {
	Requests []command.Request
	Merge    func([]command.Reply) (command.Reply, error)

	// Slot is the cluster slot of the request keys, or -1 when the request
	// has no key or the topology has no slots.
	Slot int
}

func single(req command.Request) Plan {
	return Plan{Requests: []command.Request{req}, Slot: -1}
}

// Topology decides which commands a deployment allows and how they are
// routed. It rejects calls before any thunk is built.
type Topology interface {
	Kind() driver.Topology
	Plan(req command.Request, mode Mode) (Plan, error)
}

// NewTopology returns the topology adapter of kind.
func NewTopology(kind driver.Topology) (Topology, error) {
	switch kind {
	case driver.Standalone:
		return standalone{}, nil
	case driver.Sentinel:
		return sentinel{}, nil
	case driver.Cluster:
		return cluster{}, nil
	}
	return nil, fmt.Errorf("kvclient: unknown topology %d", kind)
}

func unsupported(kind driver.Topology, req command.Request, reason string) *UnsupportedError {
	return &UnsupportedError{
		Command:  req.ID,
		Topology: kind,
		Reason:   reason,
		Trace:    req.Trace(),
		Err:      ErrUnsupported,
	}
}

func checkValid(kind driver.Topology, req command.Request) error {
	if !req.ID.Valid() {
		return unsupported(kind, req, "unknown command")
	}
	return nil
}

type standalone struct{}

func (standalone) Kind() driver.Topology { return driver.Standalone }

func (t standalone) Plan(req command.Request, _ Mode) (Plan, error) {
	if err := checkValid(t.Kind(), req); err != nil {
		return Plan{}, err
	}
	flags := req.Spec().Flags
	switch {
	case flags.Has(command.SentinelOnly):
		return Plan{}, unsupported(t.Kind(), req, "sentinel command")
	case flags.Has(command.ClusterOnly):
		return Plan{}, unsupported(t.Kind(), req, "cluster command")
	}
	return single(req), nil
}

// sentinel allows the data commands of a standalone server plus the
// administrative commands served by the sentinels themselves.
type sentinel struct{}

func (sentinel) Kind() driver.Topology { return driver.Sentinel }

func (t sentinel) Plan(req command.Request, mode Mode) (Plan, error) {
	if err := checkValid(t.Kind(), req); err != nil {
		return Plan{}, err
	}
	flags := req.Spec().Flags
	switch {
	case flags.Has(command.ClusterOnly):
		return Plan{}, unsupported(t.Kind(), req, "cluster command")
	case flags.Has(command.SentinelOnly) && mode != ModeDirect:
		return Plan{}, unsupported(t.Kind(), req, "sentinel commands run outside batches")
	}
	return single(req), nil
}
