// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package models

import (
	"fmt"
	"time"

	"grimm.is/degrader/internal/packet"
	"grimm.is/degrader/internal/store"
)

// PacketInfo is one row of a pattern file: the delay and drop decision
// applied to the packet at that position in the repeating script
// (spec.md §6.2), grounded on original_source/src/queuing_model/
// pattern_file_queuing_model.rs's PacketInfo.
type PacketInfo struct {
	Delay time.Duration
	Drop  bool
}

// Pattern replays a fixed, repeating script of per-packet delay/drop
// decisions (spec.md §4.2). The very first packet consumes row 0 without
// advancing the cursor; every packet after that advances the cursor
// first, wrapping back to row 0 at the end of the script — this
// first-packet quirk is carried over unchanged from the original
// implementation (spec.md §9 open question, resolved: preserve verbatim).
type Pattern struct {
	info          []PacketInfo
	isFirstPacket bool
	cursor        int
	queue         *store.TimedPacketStore
}

// NewPattern creates a Pattern model replaying the given script. info
// must be non-empty; config validation enforces that before construction.
func NewPattern(info []PacketInfo) *Pattern {
	return &Pattern{
		info:          info,
		isFirstPacket: true,
		queue:         store.New(),
	}
}

func (m *Pattern) dropPacket() bool {
	if m.isFirstPacket {
		m.isFirstPacket = false
	} else {
		m.cursor++
		if m.cursor == len(m.info) {
			m.cursor = 0
		}
	}
	return m.info[m.cursor].Drop
}

func (m *Pattern) sendTime(receiveTime time.Time) time.Time {
	return receiveTime.Add(m.info[m.cursor].Delay)
}

func (m *Pattern) Enqueue(p *packet.Packet, now time.Time) {
	if m.dropPacket() {
		_ = p.SetVerdict(packet.Drop)
		return
	}
	m.queue.Push(p, m.sendTime(now))
}

func (m *Pattern) Dequeue(now time.Time) []*packet.Packet {
	return m.queue.Pop(now)
}

func (m *Pattern) String() string {
	return fmt.Sprintf("pattern file model with %d packet patterns", len(m.info))
}
