package network

import (
	"context"
	"sync"

	"github.com/luca-patrignani/cribbage/protocol"
)

// PipeEnd is one side of an in-memory channel.
type PipeEnd struct {
	*dispatcher
	peer *PipeEnd

	mu     sync.Mutex
	tamper func(protocol.Message) []protocol.Message
}

// Pipe returns two connected ends. A message sent on one end is delivered
// to the handlers of the other.
func Pipe(opts ...Option) (*PipeEnd, *PipeEnd) {
	o := newOptions(opts)
	a := &PipeEnd{dispatcher: newDispatcher(o.logger.With("end", "a"), protocol.StatusConnected)}
	b := &PipeEnd{dispatcher: newDispatcher(o.logger.With("end", "b"), protocol.StatusConnected)}
	a.peer, b.peer = b, a
	return a, b
}

// Tamper rewrites every outgoing message into zero or more messages. It
// simulates a lossy or duplicating transport in tests.
func (p *PipeEnd) Tamper(f func(protocol.Message) []protocol.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tamper = f
}

func (p *PipeEnd) Send(ctx context.Context, m protocol.Message) error {
	if p.closed() || p.peer.closed() {
		return ErrNotConnected
	}
	p.mu.Lock()
	tamper := p.tamper
	p.mu.Unlock()
	out := []protocol.Message{m}
	if tamper != nil {
		out = tamper(m)
	}
	for _, x := range out {
		if err := p.peer.deliver(ctx, x); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects both ends.
func (p *PipeEnd) Close() error {
	p.shutdown(nil)
	p.peer.shutdown(nil)
	return nil
}
