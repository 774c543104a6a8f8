// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package nfq

import (
	"context"

	"grimm.is/degrader/internal/errors"
	"grimm.is/degrader/internal/logging"
	"grimm.is/degrader/internal/packet"
)

// Reader is a stub for non-Linux systems: NFQUEUE is a Linux-only kernel
// interface, grounded on the teacher's own nfqueue_stub.go.
type Reader struct {
	queueNum uint16
	log      *logging.Logger
}

// NewReader creates a stub reader.
func NewReader(queueNum uint16, log *logging.Logger) *Reader {
	return &Reader{queueNum: queueNum, log: log}
}

// Start always fails on non-Linux systems.
func (r *Reader) Start(_ context.Context, _ chan<- *packet.Packet) error {
	return errors.Errorf(errors.KindVerdictSink, "nfqueue is only supported on Linux")
}

// Stop is a no-op on non-Linux.
func (r *Reader) Stop() {}

// IsRunning always returns false on non-Linux.
func (r *Reader) IsRunning() bool { return false }
