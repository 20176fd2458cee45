package kvclient

import (
	"fmt"

	"github.com/mna/redisc"

	"github.com/pior/kvclient/command"
	"github.com/pior/kvclient/driver"
)

// cluster requires the keys of a call to share a hash slot. Commands with
// a scatter kind are split per slot instead, except in transactions which
// run on a single node.
type cluster struct{}

func (cluster) Kind() driver.Topology { return driver.Cluster }

func (t cluster) Plan(req command.Request, mode Mode) (Plan, error) {
	if err := checkValid(t.Kind(), req); err != nil {
		return Plan{}, err
	}
	spec := req.Spec()
	switch {
	case spec.Flags.Has(command.SentinelOnly):
		return Plan{}, unsupported(t.Kind(), req, "sentinel command")
	case spec.Flags.Has(command.AllNodes):
		return Plan{}, unsupported(t.Kind(), req, "command needs every primary")
	}

	keys := req.Keys()
	if len(keys) == 0 {
		return single(req), nil
	}
	slot := redisc.Slot(keys[0])
	sameSlot := true
	for _, k := range keys[1:] {
		if redisc.Slot(k) != slot {
			sameSlot = false
			break
		}
	}
	if sameSlot {
		return Plan{Requests: []command.Request{req}, Slot: slot}, nil
	}

	if spec.Scatter == command.NoScatter || mode == ModeTransaction {
		return Plan{}, &UnsupportedError{
			Command:  req.ID,
			Topology: t.Kind(),
			Reason:   fmt.Sprintf("%d keys over several slots", len(keys)),
			Trace:    req.Trace(),
			Err:      ErrCrossSlot,
		}
	}
	return scatter(req, spec.Scatter)
}

// unit is a key with the arguments following it, such as the value of an
// MSET pair.
type unit struct {
	pos  int
	args []command.Arg
}

// part is the sub-request sent to one slot.
type part struct {
	slot      int
	args      []command.Arg
	positions []int
}

// scatter splits req per slot, keeping the first-seen slot order.
func scatter(req command.Request, kind command.Scatter) (Plan, error) {
	var units []unit
	for _, a := range req.Args {
		if a.Kind == command.KindKey {
			units = append(units, unit{pos: len(units), args: []command.Arg{a}})
			continue
		}
		if len(units) == 0 {
			return Plan{}, &command.ConversionError{Type: "scatter argument", Value: a.Name}
		}
		last := &units[len(units)-1]
		last.args = append(last.args, a)
	}

	bySlot := map[int]*part{}
	var parts []*part
	for _, u := range units {
		slot := redisc.Slot(u.args[0].String())
		p, ok := bySlot[slot]
		if !ok {
			p = &part{slot: slot}
			bySlot[slot] = p
			parts = append(parts, p)
		}
		p.args = append(p.args, u.args...)
		p.positions = append(p.positions, u.pos)
	}

	plan := Plan{Requests: make([]command.Request, len(parts)), Slot: -1}
	for i, p := range parts {
		plan.Requests[i] = req.With(p.args)
	}

	switch kind {
	case command.ScatterSum:
		plan.Merge = mergeSum
	case command.ScatterGather:
		plan.Merge = func(replies []command.Reply) (command.Reply, error) {
			return mergeGather(parts, len(units), replies)
		}
	case command.ScatterPairs:
		plan.Merge = mergeStatus
	default:
		return Plan{}, &command.ConversionError{Type: "scatter kind", Value: kind}
	}
	return plan, nil
}

func mergeSum(replies []command.Reply) (command.Reply, error) {
	var total int64
	for _, r := range replies {
		n, err := r.AsInt()
		if err != nil {
			return command.Reply{}, err
		}
		total += n
	}
	return command.IntReply(total), nil
}

// mergeGather puts the array items of every part back at the position of
// their key in the original call.
func mergeGather(parts []*part, n int, replies []command.Reply) (command.Reply, error) {
	items := make([]command.Reply, n)
	for i, p := range parts {
		r := replies[i]
		if r.Kind != command.ReplyArray || len(r.Array) != len(p.positions) {
			return command.Reply{}, &command.ConversionError{Type: "gathered array", Value: fmt.Sprintf("%s reply of %d items", r.Kind, len(r.Array))}
		}
		for j, pos := range p.positions {
			items[pos] = r.Array[j]
		}
	}
	return command.ArrayReply(items...), nil
}

// mergeStatus answers the first status once every part succeeded.
func mergeStatus(replies []command.Reply) (command.Reply, error) {
	for _, r := range replies {
		if r.Kind != command.ReplyStatus {
			return command.Reply{}, &command.ConversionError{Type: "status", Value: r.Kind.String() + " reply"}
		}
	}
	return replies[0], nil
}
