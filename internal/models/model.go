// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package models implements the degradation models that make up a
// per-flow chain (spec.md §3, §4). Each model owns a slice of the
// degradation behavior — loss, delay, pattern replay, or bandwidth
// shaping — and the chain composes them in a fixed order, grounded on
// original_source/src/queuing_model/queuing_model_chain.rs.
package models

import (
	"fmt"
	"time"

	"grimm.is/degrader/internal/packet"
)

// Model is one stage of a degradation chain. Enqueue takes ownership of a
// packet at admission time; Dequeue releases whatever packets have become
// due by now, in FIFO order within any shared release time.
type Model interface {
	fmt.Stringer
	Enqueue(p *packet.Packet, now time.Time)
	Dequeue(now time.Time) []*packet.Packet
}
