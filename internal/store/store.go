// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package store implements TimedPacketStore (spec.md §3, §4.1): a
// multiset of packets keyed by release time, backed by a B-tree — the Go
// analogue of the original Rust implementation's
// BTreeMap<Duration, Vec<NfqPacket>> (original_source/src/queuing_model/packet_queue.rs).
package store

import (
	"time"

	"github.com/google/btree"

	"grimm.is/degrader/internal/packet"
)

// degree is the B-tree branching factor; 32 is the value google/btree's
// own documentation and examples use for general-purpose in-memory trees.
const degree = 32

type bucket struct {
	releaseTime time.Time
	packets     []*packet.Packet
}

func less(a, b *bucket) bool {
	return a.releaseTime.Before(b.releaseTime)
}

// TimedPacketStore is a mapping from release time to a FIFO sequence of
// packets, as described in spec.md §3/§4.1.
type TimedPacketStore struct {
	tree *btree.BTreeG[*bucket]
}

// New creates an empty TimedPacketStore.
func New() *TimedPacketStore {
	return &TimedPacketStore{tree: btree.NewG(degree, less)}
}

// Push appends packet to the bucket for releaseTime, creating the bucket
// if absent, preserving insertion order within the bucket.
func (s *TimedPacketStore) Push(p *packet.Packet, releaseTime time.Time) {
	probe := &bucket{releaseTime: releaseTime}
	if existing, ok := s.tree.Get(probe); ok {
		existing.packets = append(existing.packets, p)
		return
	}
	probe.packets = append(probe.packets, p)
	s.tree.ReplaceOrInsert(probe)
}

// Pop removes and returns, in ascending release-time order, every packet
// whose release time is <= now. Within a bucket, FIFO insertion order is
// preserved. Packets sharing a release time are released together.
func (s *TimedPacketStore) Pop(now time.Time) []*packet.Packet {
	if s.tree.Len() == 0 {
		return nil
	}

	var due []*bucket
	s.tree.Ascend(func(b *bucket) bool {
		if b.releaseTime.After(now) {
			return false
		}
		due = append(due, b)
		return true
	})

	if len(due) == 0 {
		return nil
	}

	var out []*packet.Packet
	for _, b := range due {
		out = append(out, b.packets...)
		s.tree.Delete(b)
	}
	return out
}

// Len reports the number of packets currently held, across all buckets.
func (s *TimedPacketStore) Len() int {
	n := 0
	s.tree.Ascend(func(b *bucket) bool {
		n += len(b.packets)
		return true
	})
	return n
}

// Empty reports whether the store holds no packets.
func (s *TimedPacketStore) Empty() bool {
	return s.tree.Len() == 0
}
