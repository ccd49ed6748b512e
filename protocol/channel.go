package protocol

import "context"

// Status of a channel.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Channel is a bidirectional message channel to the other peer. Delivery
// is at least once and ordered within each direction.
type Channel interface {
	// Send fails when the channel is not connected.
	Send(ctx context.Context, m Message) error
	// OnMessage registers a handler called for every received message,
	// one at a time. The returned function removes it.
	OnMessage(h func(Message)) (unsubscribe func())
	// OnStatus registers a handler for status changes. err is set with
	// StatusError.
	OnStatus(h func(s Status, err error)) (unsubscribe func())
	Close() error
}
