package session

import (
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
)

type EventKind int

const (
	// EventConnected is reported when the channel (re)connects.
	EventConnected EventKind = iota + 1
	// EventPeerJoined follows the handshake.
	EventPeerJoined
	// EventStateChanged follows every applied transition, local or remote.
	EventStateChanged
	// EventRemoteAction carries a move of the opponent.
	EventRemoteAction
	EventDesync
	EventResynced
	// EventPeerError carries an ERROR message sent by the peer.
	EventPeerError
	EventConnectionError
	EventDisconnected
	EventGameOver
	EventRoundAbandoned
)

var eventNames = map[EventKind]string{
	EventConnected:       "connected",
	EventPeerJoined:      "peer_joined",
	EventStateChanged:    "state_changed",
	EventRemoteAction:    "remote_action",
	EventDesync:          "desync",
	EventResynced:        "resynced",
	EventPeerError:       "peer_error",
	EventConnectionError: "connection_error",
	EventDisconnected:    "disconnected",
	EventGameOver:        "game_over",
	EventRoundAbandoned:  "round_abandoned",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event notifies observers. Game is a copy of the state right after the
// event and may be nil before the game starts.
type Event struct {
	Kind    EventKind
	Game    *cribbage.Game
	Action  *cribbage.Action
	Outcome *cribbage.Outcome
	Err     error
	Text    string
}

func (e Event) String() string {
	switch {
	case e.Action != nil:
		return fmt.Sprintf("%s %s", e.Kind, e.Action)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Text != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Text)
	}
	return e.Kind.String()
}
