// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package models

import (
	"fmt"
	"time"

	"grimm.is/degrader/internal/errors"
	"grimm.is/degrader/internal/logging"
	"grimm.is/degrader/internal/packet"
)

// tokenBucket meters release of buffered packets at a fixed byte rate,
// with a bounded burst capacity. One token represents one byte, grounded
// on original_source/src/queuing_model/bandwidth_queuing_model.rs's
// TokenBucket: refill is computed in exact integer microseconds so that
// replaying the same tick sequence always yields the same token count.
type tokenBucket struct {
	tokenCount    uint64
	maxTokens     uint64
	rateBytesPerS uint64
	lastTokenTime time.Time
}

func newTokenBucket(rateBytesPerS, burstBytes uint64) *tokenBucket {
	return &tokenBucket{maxTokens: burstBytes, rateBytesPerS: rateBytesPerS}
}

// addTokens refills the bucket for time elapsed since the last call. The
// zero time.Time in lastTokenTime means "never refilled" — matching
// original_source/src/queuing_model/bandwidth_queuing_model.rs's
// TokenBucket, whose last_token_time starts at Duration::default(), this
// biases the very first refill to fill the bucket (bounded by
// max_tokens) instead of starting it truly empty.
func (b *tokenBucket) addTokens(now time.Time) {
	if b.lastTokenTime.IsZero() {
		b.tokenCount = b.maxTokens
		b.lastTokenTime = now
		return
	}
	diffUs := uint64(now.Sub(b.lastTokenTime).Microseconds())
	added := (b.rateBytesPerS * diffUs) / 1_000_000
	if added > 0 {
		b.lastTokenTime = now
	}
	if b.tokenCount+added < b.maxTokens {
		b.tokenCount += added
	} else {
		b.tokenCount = b.maxTokens
	}
}

// removeTokens reports whether packetSize bytes' worth of tokens were
// available and, if so, consumes them. When the bucket is already full
// to capacity and still can't cover a single packet — the burst is
// configured smaller than the packet itself — it forces the packet
// through anyway after draining the bucket, so that traffic makes
// forward progress rather than stalling forever (spec.md §4.4, §9 open
// question, resolved: preserve the original's forced-release behavior).
// The second return value reports whether this forced-release branch
// fired, so the caller can log it.
func (b *tokenBucket) removeTokens(packetSize uint64) (ok, forced bool) {
	if b.tokenCount < packetSize {
		if b.tokenCount == b.maxTokens {
			b.tokenCount = 0
			return true, true
		}
		return false, false
	}
	b.tokenCount -= packetSize
	return true, false
}

// Bandwidth shapes release rate via a token bucket and bounds the
// outstanding buffer in bytes (spec.md §4.4), grounded on
// original_source/src/queuing_model/bandwidth_queuing_model.rs.
type Bandwidth struct {
	bucket         *tokenBucket
	buffer         []*packet.Packet
	currentBufSize uint64
	maxBufSize     uint64 // 0 means unbounded
	log            *logging.Logger
}

// NewBandwidth creates a Bandwidth model. rateBytesPerS and burstBytes
// parameterize the token bucket; bufferBytes bounds total outstanding
// payload bytes (0 disables the bound).
func NewBandwidth(rateBytesPerS, burstBytes, bufferBytes uint64) *Bandwidth {
	return &Bandwidth{
		bucket:     newTokenBucket(rateBytesPerS, burstBytes),
		maxBufSize: bufferBytes,
	}
}

// WithLogger attaches a logger used to report the burst-smaller-than-
// packet misconfiguration at error level, matching the original
// implementation's log::error! call. Returns m for chaining.
func (m *Bandwidth) WithLogger(l *logging.Logger) *Bandwidth {
	m.log = l
	return m
}

func (m *Bandwidth) Enqueue(p *packet.Packet, _ time.Time) {
	size := uint64(p.Size())
	if m.maxBufSize == 0 || m.maxBufSize >= m.currentBufSize+size {
		m.buffer = append(m.buffer, p)
		m.currentBufSize += size
		return
	}
	_ = p.SetVerdict(packet.Drop)
}

func (m *Bandwidth) Dequeue(now time.Time) []*packet.Packet {
	m.bucket.addTokens(now)

	var out []*packet.Packet
	for len(m.buffer) > 0 {
		size := uint64(m.buffer[0].Size())
		ok, forced := m.bucket.removeTokens(size)
		if !ok {
			break
		}
		if forced && m.log != nil {
			m.log.Errorf("%s", errors.Errorf(errors.KindMisconfig, "burst size smaller than packet size"))
		}
		out = append(out, m.buffer[0])
		m.buffer = m.buffer[1:]
	}

	var released uint64
	for _, p := range out {
		released += uint64(p.Size())
	}
	if m.currentBufSize < released {
		panic(errors.Errorf(errors.KindInvariant, "bandwidth model: buffer accounting underflow"))
	}
	m.currentBufSize -= released
	return out
}

func (m *Bandwidth) String() string {
	return fmt.Sprintf("bandwidth model: rate %d, burst_size %d, buffer_size %d",
		m.bucket.rateBytesPerS, m.bucket.maxTokens, m.maxBufSize)
}
