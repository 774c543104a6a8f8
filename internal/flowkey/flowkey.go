// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package flowkey extracts the 5-tuple FlowKey the Dispatcher demultiplexes
// on (spec.md §3, §4.8), grounded on the teacher's gopacket layer-parsing
// idiom (internal/kernel/provider_sim.go) and on the original Rust
// implementation's ProtocolInfo::from_ipv4_header (original_source/src/protocol.rs).
package flowkey

import (
	"fmt"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// Key is the comparable, fixed-size 5-tuple flow identity. Being a plain
// value struct of fixed-size fields, it is directly usable as a Go map key.
type Key struct {
	SrcIP    [4]byte
	SrcPort  uint16
	DstIP    [4]byte
	DstPort  uint16
	Protocol uint8
}

// Zero is the fixed sentinel used when per-connection mode is disabled or
// parsing fails (spec.md §3). It is the zero value of Key.
var Zero Key

// String renders the flow key for logging, matching the original
// implementation's Display format (original_source/src/protocol.rs).
func (k Key) String() string {
	if k == Zero {
		return "flow{zero}"
	}
	return fmt.Sprintf("flow{src=%d.%d.%d.%d:%d, dst=%d.%d.%d.%d:%d, proto=%d}",
		k.SrcIP[0], k.SrcIP[1], k.SrcIP[2], k.SrcIP[3], k.SrcPort,
		k.DstIP[0], k.DstIP[1], k.DstIP[2], k.DstIP[3], k.DstPort,
		k.Protocol)
}

// Extract parses an IPv4 header (and, for TCP/UDP, the transport ports)
// from a raw packet payload. On any parse failure it returns the Zero key
// rather than an error (spec.md §4.8, §7.2): non-IPv4 and malformed
// packets therefore coalesce onto a single chain.
func Extract(payload []byte) Key {
	pkt := gopacket.NewPacket(payload, layers.LayerTypeIPv4, gopacket.DecodeOptions{
		Lazy:   true,
		NoCopy: true,
	})

	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return Zero
	}
	ip, ok := ipLayer.(*layers.IPv4)
	if !ok || len(ip.SrcIP) != 4 || len(ip.DstIP) != 4 {
		return Zero
	}

	key := Key{Protocol: uint8(ip.Protocol)}
	copy(key.SrcIP[:], ip.SrcIP)
	copy(key.DstIP[:], ip.DstIP)

	if tcpLayer := pkt.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		if tcp, ok := tcpLayer.(*layers.TCP); ok {
			key.SrcPort = uint16(tcp.SrcPort)
			key.DstPort = uint16(tcp.DstPort)
		}
	} else if udpLayer := pkt.Layer(layers.LayerTypeUDP); udpLayer != nil {
		if udp, ok := udpLayer.(*layers.UDP); ok {
			key.SrcPort = uint16(udp.SrcPort)
			key.DstPort = uint16(udp.DstPort)
		}
	}

	return key
}
