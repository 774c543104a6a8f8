// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package flowkey

import (
	"net"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"
)

func buildUDP(t *testing.T, src, dst string, srcPort, dstPort uint16) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	payload := gopacket.Payload([]byte("hello"))
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, udp, payload))
	return buf.Bytes()
}

func buildTCP(t *testing.T, src, dst string, srcPort, dstPort uint16) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	tcp := &layers.TCP{SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort), SYN: true}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, tcp))
	return buf.Bytes()
}

func TestExtractUDP(t *testing.T) {
	raw := buildUDP(t, "10.0.0.1", "10.0.0.2", 5000, 53)
	key := Extract(raw)
	require.Equal(t, [4]byte{10, 0, 0, 1}, key.SrcIP)
	require.Equal(t, [4]byte{10, 0, 0, 2}, key.DstIP)
	require.Equal(t, uint16(5000), key.SrcPort)
	require.Equal(t, uint16(53), key.DstPort)
	require.Equal(t, uint8(17), key.Protocol)
}

func TestExtractTCP(t *testing.T) {
	raw := buildTCP(t, "192.168.1.1", "192.168.1.2", 443, 51000)
	key := Extract(raw)
	require.Equal(t, uint16(443), key.SrcPort)
	require.Equal(t, uint16(51000), key.DstPort)
	require.Equal(t, uint8(6), key.Protocol)
}

func TestExtractMalformedReturnsZero(t *testing.T) {
	require.Equal(t, Zero, Extract(nil))
	require.Equal(t, Zero, Extract([]byte{0x01, 0x02, 0x03}))
}

func TestExtractICMPHasZeroPorts(t *testing.T) {
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.ParseIP("172.16.0.1").To4(),
		DstIP:    net.ParseIP("172.16.0.2").To4(),
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, gopacket.Payload([]byte{0, 0, 0, 0})))

	key := Extract(buf.Bytes())
	require.Equal(t, uint16(0), key.SrcPort)
	require.Equal(t, uint16(0), key.DstPort)
	require.Equal(t, uint8(1), key.Protocol)
}
