// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dispatcher

import (
	"net"
	"testing"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"

	"grimm.is/degrader/internal/clock"
	"grimm.is/degrader/internal/models"
	"grimm.is/degrader/internal/packet"
)

func udpPayload(t *testing.T, src, dst string, srcPort, dstPort uint16) []byte {
	t.Helper()
	ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.ParseIP(src).To4(), DstIP: net.ParseIP(dst).To4()}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}, ip, udp, gopacket.Payload([]byte("x"))))
	return buf.Bytes()
}

func TestSingleFlowModeSharesOneChainAcrossAllTraffic(t *testing.T) {
	mc := clock.NewMock(time.Now())
	calls := 0
	d := New(nil, func() *models.Chain { calls++; return models.NewChain(models.NewForwarding()) }, false, mc, nil, nil)

	d.admit(packet.New(1, udpPayload(t, "10.0.0.1", "10.0.0.2", 1, 2), nil))
	d.admit(packet.New(2, udpPayload(t, "10.0.0.9", "10.0.0.8", 9, 8), nil))

	require.Equal(t, 1, calls)
	require.Equal(t, 1, d.FlowCount())
}

func TestPerConnectionModeIsolatesFlowsIntoSeparateChains(t *testing.T) {
	mc := clock.NewMock(time.Now())
	d := New(nil, func() *models.Chain { return models.NewChain(models.NewForwarding()) }, true, mc, nil, nil)

	d.admit(packet.New(1, udpPayload(t, "10.0.0.1", "10.0.0.2", 1, 2), nil))
	d.admit(packet.New(2, udpPayload(t, "10.0.0.9", "10.0.0.8", 9, 8), nil))

	require.Equal(t, 2, d.FlowCount())
}

func TestPerFlowDelayDoesNotAffectOtherFlows(t *testing.T) {
	mc := clock.NewMock(time.Now())
	d := New(nil, func() *models.Chain { return models.NewChain(models.NewRandom(0, 50*time.Millisecond)) }, true, mc, nil, nil)

	var delivered1, delivered2 bool
	p1 := packet.New(1, udpPayload(t, "10.0.0.1", "10.0.0.2", 1, 2), func(_ uint32, v packet.Verdict) error {
		delivered1 = v == packet.Accept
		return nil
	})
	p2 := packet.New(2, udpPayload(t, "10.0.0.9", "10.0.0.8", 9, 8), func(_ uint32, v packet.Verdict) error {
		delivered2 = v == packet.Accept
		return nil
	})

	d.admit(p1)
	mc.Advance(10 * time.Millisecond)
	d.admit(p2)

	// At t=10ms only p1's 50ms delay window is still running (started at
	// t=0) and p2 was just admitted: neither has been released yet.
	d.sweep()
	require.False(t, delivered1)
	require.False(t, delivered2)

	mc.Advance(40 * time.Millisecond) // t=50ms: p1 (release t=50ms) is due
	d.sweep()
	require.True(t, delivered1)
	require.False(t, delivered2)

	mc.Advance(10 * time.Millisecond) // t=60ms: p2 (release t=60ms) is due
	d.sweep()
	require.True(t, delivered2)
}
