// Package session plays one game of cribbage against a peer over a
// protocol.Channel.
//
// # Transitions
//
// Local moves (PlayCard, CallGo, ...) and moves received from the peer go
// through the same cribbage.Game.Apply under one lock. An accepted local
// move is queued for the peer; an accepted remote move is checked against
// the figures the peer announced.
//
// # Inbound messages
//
// Every message id is handled once. A move for a later round or phase
// waits in a bounded buffer until the local state catches up. Older moves
// are ignored. A move that contradicts the local state is a desync: the
// session refuses it, asks the peer for its state with STATE_SYNC and
// adopts the answer. A round that needs more than the allowed number of
// reconciliations is abandoned and the session ends.
//
// # Lifecycle
//
// The guest opens with HANDSHAKE, the host answers ACK and deals the
// first round with GAME_SEED. Resume restores a saved game, in which case
// the peers compare digests before playing on. Close, a disconnection or
// an abandoned round end the session; observers get an Event for each.
package session
