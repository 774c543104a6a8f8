// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package nfq is the PacketSource/VerdictSink adapter between the Linux
// NFQUEUE kernel interface and the scheduling core (spec.md §1, §6.4).
// Grounded directly on a sibling project's production NFQUEUE reader,
// other_examples/936eeff6_grimm-is-glacic__internal-ctlplane-nfqueue_linux.go.go
// (nfqueue.Config, nfqueue.Open, RegisterWithErrorFunc, SetVerdict), and
// on the teacher's own nfqueue_stub.go for the non-Linux build.
package nfq

// MaxPacketLen is the maximum packet length copied from the kernel.
// The scheduling core only needs IPv4/TCP/UDP headers to key a flow, but
// the whole packet payload is required to deliver it onward unmodified,
// so this is sized generously rather than header-only.
const MaxPacketLen = 0xffff

// MaxQueueLen bounds the kernel-side queue depth before the kernel starts
// dropping packets instead of delivering them to userspace.
const MaxQueueLen = 4096
