// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package models

import (
	"time"

	"grimm.is/degrader/internal/packet"
)

// Forwarding is the identity model: every enqueued packet is released on
// the very next Dequeue, undelayed and undropped. It is installed when a
// flow has no configured models, per spec.md §4.5 ("a chain with no
// configured models forwards every packet unmodified").
type Forwarding struct {
	packets []*packet.Packet
}

// NewForwarding creates an empty Forwarding model.
func NewForwarding() *Forwarding {
	return &Forwarding{}
}

func (m *Forwarding) Enqueue(p *packet.Packet, _ time.Time) {
	m.packets = append(m.packets, p)
}

func (m *Forwarding) Dequeue(_ time.Time) []*packet.Packet {
	if len(m.packets) == 0 {
		return nil
	}
	out := m.packets
	m.packets = nil
	return out
}

func (m *Forwarding) String() string {
	return "forwarding model"
}
