// Package bot is a simple automated cribbage player.
package bot

import (
	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
)

// Discard picks the two cards to lay away from a six-card hand: the ones
// that leave the best four, counting the two discards for us when the crib
// is ours and against us otherwise.
func Discard(hand []deck.Card, ownCrib bool) []deck.Card {
	best, bestValue := []deck.Card(nil), -1<<31
	for i := 0; i < len(hand); i++ {
		for j := i + 1; j < len(hand); j++ {
			kept := make([]deck.Card, 0, len(hand)-2)
			for k, c := range hand {
				if k != i && k != j {
					kept = append(kept, c)
				}
			}
			value := cribbage.HandScore(kept, deck.Card{}, false)
			crib := cribbage.Fifteens([]deck.Card{hand[i], hand[j]}) + cribbage.Pairs([]deck.Card{hand[i], hand[j]})
			if ownCrib {
				value += crib
			} else {
				value -= crib
			}
			if value > bestValue {
				best, bestValue = []deck.Card{hand[i], hand[j]}, value
			}
		}
	}
	return best
}

// Play picks the legal card pegging the most points now. Ties avoid
// leaving a count of 5 or 21, then prefer the higher card.
func Play(stack []cribbage.PlayedCard, count int, hand []deck.Card) (deck.Card, bool) {
	var best deck.Card
	bestScore, found := 0, false
	for _, c := range cribbage.LegalPlays(hand, count) {
		res, err := cribbage.ApplyPlay(stack, count, c, cribbage.Host)
		if err != nil {
			continue
		}
		score := res.Score.Total() * 4
		if res.Count == 5 || res.Count == 21 {
			score -= 2
		}
		score = score*16 + c.Value()
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

// Move returns the next action of seat, or false when seat has nothing to
// do. Hands and cribs are declared exactly and every missed point is
// claimed.
func Move(g *cribbage.Game, seat cribbage.Seat) (cribbage.Action, bool) {
	r := &g.Round
	switch g.Phase {
	case cribbage.PhaseCribSelection:
		if r.CribDone[seat] {
			return cribbage.Action{}, false
		}
		return cribbage.ConfirmCrib(seat, Discard(r.Hands[seat], g.Dealer == seat)...), true
	case cribbage.PhasePlay:
		if r.Turn != seat {
			return cribbage.Action{}, false
		}
		if c, ok := Play(r.Stack, r.Count, r.Hands[seat]); ok {
			return cribbage.PlayCard(seat, c), true
		}
		return cribbage.CallGo(seat), true
	case cribbage.PhaseCounting:
		if g.Options.Counting != cribbage.CountingManual {
			return cribbage.Action{}, false
		}
		if rec, ok := g.PendingClaim(); ok {
			if rec.Owner == seat {
				return cribbage.Action{}, false
			}
			return cribbage.ClaimMuggins(seat, rec.Missed()), true
		}
		step := r.Counting.Step
		if g.StepOwner(step) != seat {
			return cribbage.Action{}, false
		}
		return cribbage.DeclareScore(seat, Count(g, step)), true
	case cribbage.PhaseRoundComplete:
		return cribbage.AdvanceRound(seat, r.Number+1), true
	}
	return cribbage.Action{}, false
}

// Count returns the true score of a counting step.
func Count(g *cribbage.Game, step cribbage.CountStep) int {
	return cribbage.HandScore(g.StepCards(step), g.Round.Starter, step == cribbage.StepCrib)
}
