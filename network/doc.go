// Package network provides the channels two peers exchange protocol
// messages over. Every channel implements protocol.Channel.
//
// # Channels
//
// Pipe: an in-memory pair of connected ends, used by tests and by the demo
// game between two bots.
//
// Peer: HTTP transport. Each side serves POST /messages on a chi router and
// posts its own messages to the other side. A Clock header numbers the
// messages of a sender so retried requests are delivered once.
//
// WSChannel: a WebSocket connection. The host serves WebSocketHandler and
// the guest connects with DialWebSocket.
//
// # Delivery
//
// Received messages are handed to the registered handlers by a single
// goroutine per channel, one at a time and in arrival order.
//
// # Failures
//
// Connection attempts and sends are retried a fixed number of times with a
// fixed backoff (Retry). When the attempts are exhausted the channel reports
// StatusError instead of blocking. A closed channel reports
// StatusDisconnected to its handlers and refuses further sends with
// ErrNotConnected.
package network
