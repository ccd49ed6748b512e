package network

import (
	"context"
	"log/slog"
	"sync"

	"github.com/luca-patrignani/cribbage/protocol"
)

const inboxSize = 256

type msgHandler struct {
	id int
	fn func(protocol.Message)
}

type statusHandler struct {
	id int
	fn func(protocol.Status, error)
}

// dispatcher keeps the handlers of a channel and delivers received
// messages from a single goroutine.
type dispatcher struct {
	logger *slog.Logger

	mu       sync.Mutex
	nextID   int
	messages []msgHandler
	statuses []statusHandler
	status   protocol.Status

	inbox     chan protocol.Message
	done      chan struct{}
	closeOnce sync.Once
}

func newDispatcher(logger *slog.Logger, status protocol.Status) *dispatcher {
	d := &dispatcher{
		logger: logger,
		status: status,
		inbox:  make(chan protocol.Message, inboxSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	for {
		select {
		case m := <-d.inbox:
			d.mu.Lock()
			hs := append([]msgHandler(nil), d.messages...)
			d.mu.Unlock()
			for _, h := range hs {
				h.fn(m)
			}
		case <-d.done:
			return
		}
	}
}

// deliver queues a received message.
func (d *dispatcher) deliver(ctx context.Context, m protocol.Message) error {
	select {
	case <-d.done:
		return ErrNotConnected
	default:
	}
	select {
	case d.inbox <- m:
		return nil
	case <-d.done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *dispatcher) OnMessage(h func(protocol.Message)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.messages = append(d.messages, msgHandler{id: id, fn: h})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, x := range d.messages {
			if x.id == id {
				d.messages = append(d.messages[:i:i], d.messages[i+1:]...)
				return
			}
		}
	}
}

func (d *dispatcher) OnStatus(h func(protocol.Status, error)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.statuses = append(d.statuses, statusHandler{id: id, fn: h})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, x := range d.statuses {
			if x.id == id {
				d.statuses = append(d.statuses[:i:i], d.statuses[i+1:]...)
				return
			}
		}
	}
}

// Status returns the last reported status.
func (d *dispatcher) Status() protocol.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// setStatus notifies the handlers of a change. Errors are always reported.
func (d *dispatcher) setStatus(s protocol.Status, err error) {
	d.mu.Lock()
	if d.status == s && err == nil {
		d.mu.Unlock()
		return
	}
	if d.status == protocol.StatusDisconnected {
		d.mu.Unlock()
		return
	}
	d.status = s
	hs := append([]statusHandler(nil), d.statuses...)
	d.mu.Unlock()
	d.logger.Info("channel status", "status", s.String(), "error", err)
	for _, h := range hs {
		h.fn(s, err)
	}
}

func (d *dispatcher) closed() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// shutdown stops the delivery goroutine and reports the disconnection.
func (d *dispatcher) shutdown(err error) {
	d.closeOnce.Do(func() {
		d.setStatus(protocol.StatusDisconnected, err)
		close(d.done)
	})
}
