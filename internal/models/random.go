// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package models

import (
	"fmt"
	"math/rand/v2"
	"time"

	"grimm.is/degrader/internal/packet"
	"grimm.is/degrader/internal/store"
)

// seed is the fixed ChaCha8 seed used for every RandomModel instance, the
// Go analogue of the original Rust implementation's
// SmallRng::from_seed([1; 32]) (original_source/src/queuing_model/
// random_queuing_model.rs). Fixing the seed makes runs reproducible,
// which the model's own tests in random_test.go depend on.
var seed = [32]byte{
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
}

// delay samples the release delay applied to a packet that survives the
// loss draw. It is either a fixed duration or a uniform range.
type delay struct {
	fixed    time.Duration
	isRange  bool
	low, high time.Duration
}

func fixedDelay(d time.Duration) delay {
	return delay{fixed: d}
}

func rangeDelay(low, high time.Duration) delay {
	return delay{isRange: true, low: low, high: high}
}

func (d delay) sample(rng *rand.Rand) time.Duration {
	if !d.isRange {
		return d.fixed
	}
	span := int64(d.high - d.low)
	if span <= 0 {
		return d.low
	}
	return d.low + time.Duration(rng.Int64N(span+1))
}

func (d delay) String() string {
	if !d.isRange {
		return fmt.Sprintf("%d ms", d.fixed.Milliseconds())
	}
	return fmt.Sprintf("%d-%d ms", d.low.Milliseconds(), d.high.Milliseconds())
}

// Random drops packets with a fixed percentage probability and delays the
// survivors by a fixed or uniformly sampled amount (spec.md §4.3),
// grounded on original_source/src/queuing_model/random_queuing_model.rs.
type Random struct {
	lossRate uint32 // percent, 0-100
	delay    delay
	rng      *rand.Rand
	queue    *store.TimedPacketStore
}

// NewRandom creates a Random model with a fixed release delay.
func NewRandom(lossRate uint32, d time.Duration) *Random {
	return newRandom(lossRate, fixedDelay(d))
}

// NewRandomRange creates a Random model whose release delay is drawn
// uniformly from [low, high] for each admitted packet.
func NewRandomRange(lossRate uint32, low, high time.Duration) *Random {
	return newRandom(lossRate, rangeDelay(low, high))
}

func newRandom(lossRate uint32, d delay) *Random {
	return &Random{
		lossRate: lossRate,
		delay:    d,
		rng:      rand.New(rand.NewChaCha8(seed)),
		queue:    store.New(),
	}
}

func (m *Random) dropPacket() bool {
	return m.rng.Uint32()%100 < m.lossRate
}

func (m *Random) sendTime(receiveTime time.Time) time.Time {
	return receiveTime.Add(m.delay.sample(m.rng))
}

func (m *Random) Enqueue(p *packet.Packet, now time.Time) {
	if m.dropPacket() {
		_ = p.SetVerdict(packet.Drop)
		return
	}
	m.queue.Push(p, m.sendTime(now))
}

func (m *Random) Dequeue(now time.Time) []*packet.Packet {
	return m.queue.Pop(now)
}

func (m *Random) String() string {
	return fmt.Sprintf("random model, loss: %d, delay: %s", m.lossRate, m.delay)
}
