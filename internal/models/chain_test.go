// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grimm.is/degrader/internal/packet"
)

func TestChainWithNoStagesForwardsEverything(t *testing.T) {
	c := NewChain()
	now := time.Now()

	c.Enqueue(packet.New(1, []byte("x"), nil), now)
	require.Len(t, c.Dequeue(now), 1)
}

func TestChainFeedsStagesInOrder(t *testing.T) {
	// Zero-loss random stage with a fixed 10ms delay, followed by
	// forwarding: a packet surviving the random stage must reappear from
	// the chain only once its random-stage release time has passed.
	c := NewChain(NewRandom(0, 10*time.Millisecond), NewForwarding())
	now := time.Now()

	c.Enqueue(packet.New(1, []byte("x"), nil), now)

	require.Empty(t, c.Dequeue(now))
	require.Len(t, c.Dequeue(now.Add(10*time.Millisecond)), 1)
}

func TestChainDropAtEarlyStageNeverReachesLaterStage(t *testing.T) {
	// 100% loss random stage feeding a bandwidth stage: nothing should
	// ever reach the bandwidth stage's buffer.
	c := NewChain(NewRandom(100, 0), NewBandwidth(1000, 1000, 0))
	now := time.Now()

	var dropped int
	c.Enqueue(packet.New(1, []byte("x"), func(_ uint32, v packet.Verdict) error {
		if v == packet.Drop {
			dropped++
		}
		return nil
	}), now)

	require.Empty(t, c.Dequeue(now))
	require.Equal(t, 1, dropped)
}
