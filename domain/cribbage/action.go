package cribbage

import (
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/deck"
)

// ActionKind enumerates the inputs of the state machine.
type ActionKind uint8

const (
	ActionStartGame ActionKind = iota + 1
	ActionConfirmCrib
	ActionPlayCard
	ActionCallGo
	ActionDeclareScore
	ActionClaimMuggins
	ActionAdvanceRound
)

var actionNames = map[ActionKind]string{
	ActionStartGame:    "start_game",
	ActionConfirmCrib:  "confirm_crib",
	ActionPlayCard:     "play_card",
	ActionCallGo:       "call_go",
	ActionDeclareScore: "declare_score",
	ActionClaimMuggins: "claim_muggins",
	ActionAdvanceRound: "advance_round",
}

func (k ActionKind) String() string {
	if s, ok := actionNames[k]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", uint8(k))
}

func (k ActionKind) MarshalText() ([]byte, error) {
	if _, ok := actionNames[k]; !ok {
		return nil, fmt.Errorf("invalid action kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ActionKind) UnmarshalText(b []byte) error {
	for kind, name := range actionNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown action kind %q", b)
}

// Action is a single move of one seat. Local moves and moves received from
// the peer are both expressed as an Action and go through Game.Apply.
type Action struct {
	Kind   ActionKind  `json:"kind"`
	Seat   Seat        `json:"seat"`
	Seed   deck.Seed   `json:"seed,omitempty"`   // StartGame
	Dealer Seat        `json:"dealer,omitempty"` // StartGame
	Cards  []deck.Card `json:"cards,omitempty"`  // ConfirmCrib
	Card   deck.Card   `json:"card"`             // PlayCard
	Points int         `json:"points,omitempty"` // DeclareScore, ClaimMuggins
	Round  int         `json:"round,omitempty"`  // AdvanceRound: the round being started
}

func StartGame(seed deck.Seed, dealer Seat) Action {
	return Action{Kind: ActionStartGame, Seat: Host, Seed: seed, Dealer: dealer}
}

func ConfirmCrib(seat Seat, cards ...deck.Card) Action {
	return Action{Kind: ActionConfirmCrib, Seat: seat, Cards: cards}
}

func PlayCard(seat Seat, card deck.Card) Action {
	return Action{Kind: ActionPlayCard, Seat: seat, Card: card}
}

func CallGo(seat Seat) Action {
	return Action{Kind: ActionCallGo, Seat: seat}
}

func DeclareScore(seat Seat, points int) Action {
	return Action{Kind: ActionDeclareScore, Seat: seat, Points: points}
}

func ClaimMuggins(seat Seat, points int) Action {
	return Action{Kind: ActionClaimMuggins, Seat: seat, Points: points}
}

func AdvanceRound(seat Seat, round int) Action {
	return Action{Kind: ActionAdvanceRound, Seat: seat, Round: round}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionStartGame:
		return fmt.Sprintf("%s seed=%s dealer=%s", a.Kind, a.Seed, a.Dealer)
	case ActionConfirmCrib:
		return fmt.Sprintf("%s %s %v", a.Kind, a.Seat, a.Cards)
	case ActionPlayCard:
		return fmt.Sprintf("%s %s %s", a.Kind, a.Seat, a.Card)
	case ActionDeclareScore, ActionClaimMuggins:
		return fmt.Sprintf("%s %s %d", a.Kind, a.Seat, a.Points)
	case ActionAdvanceRound:
		return fmt.Sprintf("%s %s round=%d", a.Kind, a.Seat, a.Round)
	}
	return fmt.Sprintf("%s %s", a.Kind, a.Seat)
}

// Reason explains why points were pegged.
type Reason string

const (
	ReasonPlay     Reason = "play"
	ReasonGo       Reason = "go"
	ReasonLastCard Reason = "last_card"
	ReasonHisHeels Reason = "his_heels"
	ReasonHand     Reason = "hand"
	ReasonCrib     Reason = "crib"
	ReasonMuggins  Reason = "muggins"
)

// Award is a single score change.
type Award struct {
	Seat   Seat   `json:"seat"`
	Points int    `json:"points"`
	Reason Reason `json:"reason"`
}

// Outcome describes the effects of an applied Action.
type Outcome struct {
	Action Action
	// NoOp is set when the action was already applied, e.g. the second
	// request to start the same round.
	NoOp bool
	// Count is the running count right after a played card, before any
	// reset.
	Count int
	// Peg is the score of a played card.
	Peg    PegScore
	Awards []Award
	From   Phase
	To     Phase
}

// Points sums the awards of the outcome.
func (o Outcome) Points() int {
	total := 0
	for _, a := range o.Awards {
		total += a.Points
	}
	return total
}

// PointsFor sums the awards of one seat.
func (o Outcome) PointsFor(s Seat) int {
	total := 0
	for _, a := range o.Awards {
		if a.Seat == s {
			total += a.Points
		}
	}
	return total
}
