// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package nfq

import (
	"context"
	"sync"

	"github.com/florianl/go-nfqueue/v2"

	"grimm.is/degrader/internal/errors"
	"grimm.is/degrader/internal/logging"
	"grimm.is/degrader/internal/packet"
)

// Reader binds to one NFQUEUE number and turns queued packets into
// *packet.Packet values delivered on a channel, with SetVerdict wired
// back to the kernel queue as each packet's DeliverFunc.
type Reader struct {
	queueNum uint16
	log      *logging.Logger

	mu      sync.Mutex
	queue   *nfqueue.Nfqueue
	cancel  context.CancelFunc
	running bool
}

// NewReader creates a Reader bound to the given NFQUEUE number.
func NewReader(queueNum uint16, log *logging.Logger) *Reader {
	return &Reader{queueNum: queueNum, log: log}
}

// Start opens the queue and begins delivering packets to out. It returns
// once registration succeeds; packet delivery continues on the
// go-nfqueue library's own goroutine until ctx is canceled or Stop is
// called.
func (r *Reader) Start(ctx context.Context, out chan<- *packet.Packet) error {
	cfg := nfqueue.Config{
		NfQueue:      r.queueNum,
		MaxPacketLen: MaxPacketLen,
		MaxQueueLen:  MaxQueueLen,
		Copymode:     nfqueue.NfQnlCopyPacket,
	}

	nf, err := nfqueue.Open(&cfg)
	if err != nil {
		return errors.Wrapf(err, errors.KindVerdictSink, "open nfqueue %d", r.queueNum)
	}

	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.queue = nf
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	err = nf.RegisterWithErrorFunc(runCtx,
		func(attrs nfqueue.Attribute) int {
			r.handle(attrs, out)
			return 0
		},
		func(err error) int {
			if r.log != nil {
				r.log.Warnf("nfqueue %d: %v", r.queueNum, err)
			}
			return 0
		},
	)
	if err != nil {
		nf.Close()
		cancel()
		r.mu.Lock()
		r.queue = nil
		r.running = false
		r.mu.Unlock()
		return errors.Wrapf(err, errors.KindVerdictSink, "register nfqueue %d callback", r.queueNum)
	}

	if r.log != nil {
		r.log.Infof("listening on nfqueue %d", r.queueNum)
	}
	return nil
}

func (r *Reader) handle(attrs nfqueue.Attribute, out chan<- *packet.Packet) {
	if attrs.PacketID == nil || attrs.Payload == nil {
		return
	}
	id := *attrs.PacketID
	payload := *attrs.Payload

	deliver := func(id uint32, v packet.Verdict) error {
		verdict := nfqueue.NfDrop
		if v == packet.Accept {
			verdict = nfqueue.NfAccept
		}
		r.mu.Lock()
		q := r.queue
		r.mu.Unlock()
		if q == nil {
			return errors.Errorf(errors.KindVerdictSink, "nfqueue %d closed before verdict delivered", r.queueNum)
		}
		return q.SetVerdict(id, verdict)
	}

	out <- packet.New(id, payload, deliver)
}

// Stop closes the queue and cancels the registration context.
func (r *Reader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
	if r.queue != nil {
		r.queue.Close()
		r.queue = nil
	}
}

// IsRunning reports whether Start has succeeded and Stop has not yet run.
func (r *Reader) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
