// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package packet defines the Packet type the scheduling core operates on:
// an intercepted frame carrying a one-shot verdict obligation (spec.md §3).
package packet

import (
	"fmt"
	"time"

	"grimm.is/degrader/internal/errors"
)

// Verdict is the binary decision returned to the kernel for a packet_id.
type Verdict int

const (
	Drop Verdict = iota
	Accept
)

func (v Verdict) String() string {
	if v == Accept {
		return "ACCEPT"
	}
	return "DROP"
}

// DeliverFunc delivers a verdict for a packet_id to the kernel queue (the
// VerdictSink collaborator, spec.md §1). It must be safe to call from the
// scheduler task and must be idempotent-free: called at most once per
// packet, enforced by Packet.SetVerdict.
type DeliverFunc func(id uint32, v Verdict) error

// Packet is an intercepted frame identified by a packet_id, with an
// immutable payload and a handle sufficient to deliver exactly one
// verdict. It is a move-only resource: ownership transfers on enqueue and
// dequeue, and SetVerdict may be called exactly once over its lifetime.
type Packet struct {
	id         uint32
	payload    []byte
	deliver    DeliverFunc
	delivered  bool
	admittedAt time.Time
}

// New wraps a raw payload and packet_id with the verdict-delivery handle.
func New(id uint32, payload []byte, deliver DeliverFunc) *Packet {
	return &Packet{id: id, payload: payload, deliver: deliver}
}

// ID returns the packet_id, stable for the lifetime of the verdict obligation.
func (p *Packet) ID() uint32 { return p.id }

// Payload returns the packet's immutable byte payload.
func (p *Packet) Payload() []byte { return p.payload }

// Size returns the payload length in bytes, the unit BandwidthModel meters.
func (p *Packet) Size() int { return len(p.payload) }

// SetAdmittedAt stamps the time the dispatcher admitted this packet into
// a flow's chain, for verdict-latency metrics. It has no effect on
// scheduling semantics.
func (p *Packet) SetAdmittedAt(t time.Time) { p.admittedAt = t }

// AdmittedAt returns the admission timestamp, or the zero time if never set.
func (p *Packet) AdmittedAt() time.Time { return p.admittedAt }

// SetVerdict delivers the final verdict for this packet. Calling it twice
// is a core invariant violation (spec.md §4, "every packet... must
// receive exactly one verdict exactly once") and panics.
func (p *Packet) SetVerdict(v Verdict) error {
	if p.delivered {
		panic(errors.Errorf(errors.KindInvariant,
			"packet %d: verdict delivered twice (second was %s)", p.id, v))
	}
	p.delivered = true
	if p.deliver == nil {
		return nil
	}
	if err := p.deliver(p.id, v); err != nil {
		return errors.Wrapf(err, errors.KindVerdictSink,
			"deliver verdict %s for packet %d", v, p.id)
	}
	return nil
}

// String renders a short debug form.
func (p *Packet) String() string {
	return fmt.Sprintf("packet{id=%d, size=%d}", p.id, len(p.payload))
}
