package protocol

import (
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
)

// FromAction builds the message announcing an action applied locally. out
// is the outcome of that action and round the round it was applied in.
func FromAction(a cribbage.Action, out cribbage.Outcome, round int, opts cribbage.Options) (Message, error) {
	switch a.Kind {
	case cribbage.ActionStartGame:
		return New(TypeGameSeed, 0, GameSeed{
			Seed:       string(a.Seed),
			HostDealer: a.Dealer == cribbage.Host,
			Counting:   opts.Counting.String(),
			Muggins:    opts.Muggins,
		})
	case cribbage.ActionConfirmCrib:
		return New(TypeCribCards, round, CribCards{Cards: FromCards(a.Cards)})
	case cribbage.ActionPlayCard:
		return New(TypePlayCard, round, PlayCard{Card: FromCard(a.Card), Count: out.Count, Points: out.Points()})
	case cribbage.ActionCallGo:
		return New(TypeCallGo, round, CallGo{Points: out.Points()})
	case cribbage.ActionDeclareScore:
		return New(TypeDeclareScore, round, DeclareScore{Points: a.Points})
	case cribbage.ActionClaimMuggins:
		return New(TypeMugginsClaim, round, MugginsClaim{Points: a.Points})
	case cribbage.ActionAdvanceRound:
		return New(TypeNewRound, a.Round, NewRound{Round: a.Round})
	}
	return Message{}, fmt.Errorf("%w: no message for %s", ErrUnknownType, a.Kind)
}

// Action decodes the game move carried by m, played by seat from.
func (m Message) Action(from cribbage.Seat) (cribbage.Action, error) {
	switch m.Type {
	case TypeGameSeed:
		var p GameSeed
		if err := DecodePayload(m, &p); err != nil {
			return cribbage.Action{}, err
		}
		if p.Seed == "" {
			return cribbage.Action{}, fmt.Errorf("%w: empty seed", ErrMalformed)
		}
		dealer := cribbage.Guest
		if p.HostDealer {
			dealer = cribbage.Host
		}
		return cribbage.StartGame(deck.Seed(p.Seed), dealer), nil
	case TypeCribCards:
		var p CribCards
		if err := DecodePayload(m, &p); err != nil {
			return cribbage.Action{}, err
		}
		cards, err := toCards(p.Cards)
		if err != nil {
			return cribbage.Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return cribbage.ConfirmCrib(from, cards...), nil
	case TypePlayCard:
		var p PlayCard
		if err := DecodePayload(m, &p); err != nil {
			return cribbage.Action{}, err
		}
		c, err := p.Card.Card()
		if err != nil {
			return cribbage.Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return cribbage.PlayCard(from, c), nil
	case TypeCallGo:
		return cribbage.CallGo(from), nil
	case TypeDeclareScore:
		var p DeclareScore
		if err := DecodePayload(m, &p); err != nil {
			return cribbage.Action{}, err
		}
		return cribbage.DeclareScore(from, p.Points), nil
	case TypeMugginsClaim:
		var p MugginsClaim
		if err := DecodePayload(m, &p); err != nil {
			return cribbage.Action{}, err
		}
		return cribbage.ClaimMuggins(from, p.Points), nil
	case TypeNewRound:
		var p NewRound
		if err := DecodePayload(m, &p); err != nil {
			return cribbage.Action{}, err
		}
		return cribbage.AdvanceRound(from, p.Round), nil
	}
	return cribbage.Action{}, fmt.Errorf("%w: %s is not a game move", ErrUnknownType, m.Type)
}

// Verify compares the figures announced by the sender with the outcome
// computed locally.
func Verify(m Message, out cribbage.Outcome) error {
	switch m.Type {
	case TypePlayCard:
		var p PlayCard
		if err := DecodePayload(m, &p); err != nil {
			return err
		}
		if p.Count != out.Count || p.Points != out.Points() {
			return fmt.Errorf("%w: peer counted %d for %d points, local %d for %d",
				ErrMismatch, p.Count, p.Points, out.Count, out.Points())
		}
	case TypeCallGo:
		var p CallGo
		if err := DecodePayload(m, &p); err != nil {
			return err
		}
		if p.Points != out.Points() {
			return fmt.Errorf("%w: peer pegged %d for go, local %d", ErrMismatch, p.Points, out.Points())
		}
	}
	return nil
}

// GameOverFor builds the GAME_OVER confirmation for a finished game.
func GameOverFor(g *cribbage.Game) (Message, error) {
	if g.Winner == nil {
		return Message{}, fmt.Errorf("game is not over")
	}
	return New(TypeGameOver, g.Round.Number, GameOver{
		Winner: g.Winner.String(),
		Scores: Scores{Host: g.Scores[cribbage.Host], Guest: g.Scores[cribbage.Guest]},
	})
}

// CheckGameOver verifies a GAME_OVER received from the peer.
func CheckGameOver(m Message, g *cribbage.Game) error {
	var p GameOver
	if err := DecodePayload(m, &p); err != nil {
		return err
	}
	if g.Winner == nil || p.Winner != g.Winner.String() ||
		p.Scores.Host != g.Scores[cribbage.Host] || p.Scores.Guest != g.Scores[cribbage.Guest] {
		return fmt.Errorf("%w: peer reports %s winning %d-%d", ErrMismatch, p.Winner, p.Scores.Host, p.Scores.Guest)
	}
	return nil
}
