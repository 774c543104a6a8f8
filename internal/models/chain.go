// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package models

import (
	"fmt"
	"time"

	"grimm.is/degrader/internal/packet"
)

// Chain composes an ordered, non-empty sequence of models into a single
// pipeline: a packet admitted to the chain enters the first model, and on
// every dequeue tick each stage's output is fed into the next stage
// before that stage is itself drained (spec.md §4.5), grounded on
// original_source/src/queuing_model/queuing_model_chain.rs.
//
// A Chain runs its stages in the order NewChain receives them. The fixed
// random -> pattern -> bandwidth order (independent of CLI flag order) is
// applied by the caller that builds the stage list,
// config.Config.BuildChainBuilder.
type Chain struct {
	stages []Model
}

// NewChain composes stages into a chain. If stages is empty, a Forwarding
// model is installed so the chain still forwards every packet unmodified
// (spec.md §4.5).
func NewChain(stages ...Model) *Chain {
	if len(stages) == 0 {
		stages = []Model{NewForwarding()}
	}
	return &Chain{stages: stages}
}

func (c *Chain) Enqueue(p *packet.Packet, now time.Time) {
	c.stages[0].Enqueue(p, now)
}

func (c *Chain) Dequeue(now time.Time) []*packet.Packet {
	var packets []*packet.Packet
	for _, stage := range c.stages {
		for _, p := range packets {
			stage.Enqueue(p, now)
		}
		packets = stage.Dequeue(now)
	}
	return packets
}

func (c *Chain) String() string {
	return fmt.Sprintf("chain with %d models", len(c.stages))
}
