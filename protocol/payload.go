package protocol

import (
	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
)

// WireCard is a card as it appears inside payloads.
type WireCard struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

func FromCard(c deck.Card) WireCard {
	return WireCard{Suit: c.Suit().String(), Rank: c.Rank().String()}
}

func FromCards(cs []deck.Card) []WireCard {
	out := make([]WireCard, len(cs))
	for i, c := range cs {
		out[i] = FromCard(c)
	}
	return out
}

func (w WireCard) Card() (deck.Card, error) {
	return deck.FromNames(w.Suit, w.Rank)
}

func toCards(ws []WireCard) ([]deck.Card, error) {
	out := make([]deck.Card, len(ws))
	for i, w := range ws {
		c, err := w.Card()
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Handshake opens the session. Resuming is set by a peer that restored a
// saved game and will ask to compare states.
type Handshake struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Resuming bool   `json:"resuming,omitempty"`
}

type Ack struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// GameSeed starts the game. The host decides the rules for both peers.
type GameSeed struct {
	Seed       string `json:"seed"`
	HostDealer bool   `json:"hostDealer"`
	Counting   string `json:"counting,omitempty"`
	Muggins    bool   `json:"muggins"`
}

// Options returns the game options carried by the seed.
func (p GameSeed) Options() (cribbage.Options, error) {
	mode, err := cribbage.ParseCountingMode(p.Counting)
	if err != nil {
		return cribbage.Options{}, err
	}
	return cribbage.Options{Counting: mode, Muggins: p.Muggins}, nil
}

type CribCards struct {
	Cards []WireCard `json:"cards"`
}

// PlayCard carries the count and points computed by the sender so the
// receiver can detect a diverging state.
type PlayCard struct {
	Card   WireCard `json:"card"`
	Count  int      `json:"count"`
	Points int      `json:"points"`
}

type CallGo struct {
	Points int `json:"points"`
}

type DeclareScore struct {
	Points int `json:"points"`
}

type MugginsClaim struct {
	Points int `json:"points"`
}

type NewRound struct {
	Round int `json:"round"`
}

type Scores struct {
	Host  int `json:"host"`
	Guest int `json:"guest"`
}

type GameOver struct {
	Winner string `json:"winner"`
	Scores Scores `json:"scores"`
}

// StateSync is both the request for reconciliation and its answer. A
// request carries the digest of the requester. The answer either confirms
// the digests match or carries the full snapshot of the responder.
type StateSync struct {
	Request  bool   `json:"request"`
	Digest   string `json:"digest"`
	InSync   bool   `json:"inSync,omitempty"`
	Snapshot string `json:"snapshot,omitempty"`
}

// Error codes.
const (
	CodeRejected     = "rejected"
	CodeVersion      = "version"
	CodeDesync       = "desync"
	CodeUnrecovered  = "unrecoverable_desync"
	CodeSessionEnded = "session_ended"
)

type Error struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
