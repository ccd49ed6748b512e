package ledger

import "github.com/luca-patrignani/cribbage/domain/cribbage"

// Origin tells where an applied action came from.
type Origin string

const (
	OriginGenesis Origin = "genesis"
	OriginLocal   Origin = "local"
	OriginRemote  Origin = "remote"
	// OriginSync marks a state adopted from the peer's snapshot. The
	// block carries no action.
	OriginSync Origin = "sync"
)

// Block records one transition of the game.
type Block struct {
	Index     int              `json:"index"`
	Timestamp int64            `json:"timestamp"`
	PrevHash  string           `json:"prev_hash"`
	Hash      string           `json:"hash"`
	Round     int              `json:"round"`
	Origin    Origin           `json:"origin"`
	Action    *cribbage.Action `json:"action,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
	// Digest is the game digest right after the transition.
	Digest   string   `json:"digest"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	SessionID string            `json:"session_id,omitempty"`
	Awards    []cribbage.Award  `json:"awards,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}
