package cribbage

import (
	"fmt"
	"slices"

	"github.com/luca-patrignani/cribbage/domain/deck"
)

// Round holds the cards and the play state of a single deal.
type Round struct {
	Number int       `json:"number"`
	Deck   deck.Deck `json:"deck"`

	// Hands are the cards each seat still holds.
	Hands [2][]deck.Card `json:"hands"`

	// Kept are the four cards each seat counts after play.
	Kept [2][]deck.Card `json:"kept"`

	// Crib holds each seat's discards. It belongs to the dealer.
	Crib     [2][]deck.Card `json:"crib"`
	CribDone [2]bool        `json:"cribDone"`
	Starter  deck.Card      `json:"starter"`

	// Stack is the current count sequence, Played the finished ones.
	Stack    []PlayedCard  `json:"stack"`
	Played   []PlayedCard  `json:"played"`
	Count    int           `json:"count"`
	Turn     Seat          `json:"turn"`
	Passed   [2]bool       `json:"passed"`
	Counting CountingState `json:"counting"`
}

// CribCards returns the crib, non-dealer discards first.
func (r *Round) CribCards(dealer Seat) []deck.Card {
	out := append([]deck.Card(nil), r.Crib[dealer.Other()]...)
	return append(out, r.Crib[dealer]...)
}

// CribSize is the number of cards already in the crib.
func (r *Round) CribSize() int {
	return len(r.Crib[Host]) + len(r.Crib[Guest])
}

// LastPlayer returns the seat that played the top card of the stack.
func (r *Round) LastPlayer() (Seat, bool) {
	if len(r.Stack) == 0 {
		return 0, false
	}
	return r.Stack[len(r.Stack)-1].Seat, true
}

func (r *Round) canContinue(s Seat) bool {
	return !r.Passed[s] && len(r.Hands[s]) > 0
}

func (r *Round) resetCount() {
	r.Played = append(r.Played, r.Stack...)
	r.Stack = nil
	r.Count = 0
	r.Passed = [2]bool{}
}

func (r *Round) clone() Round {
	c := *r
	// A clone must digest like the original: slices.Clone keeps nil apart
	// from empty.
	c.Deck = slices.Clone(r.Deck)
	for s := range 2 {
		c.Hands[s] = slices.Clone(r.Hands[s])
		c.Kept[s] = slices.Clone(r.Kept[s])
		c.Crib[s] = slices.Clone(r.Crib[s])
	}
	c.Stack = slices.Clone(r.Stack)
	c.Played = slices.Clone(r.Played)
	c.Counting = r.Counting.clone()
	return c
}

// CheckInvariants verifies that every card of the deck is in exactly one
// place and that the count matches the stack.
func (r *Round) CheckInvariants() error {
	if r.Number == 0 {
		return nil
	}
	seen := make(map[deck.Card]string, deck.Size)
	add := func(where string, cards ...deck.Card) error {
		for _, c := range cards {
			if c.IsZero() {
				continue
			}
			if prev, ok := seen[c]; ok {
				return fmt.Errorf("card %s both in %s and %s", c, prev, where)
			}
			seen[c] = where
		}
		return nil
	}
	for s := range 2 {
		if err := add("hand", r.Hands[s]...); err != nil {
			return err
		}
		if err := add("crib", r.Crib[s]...); err != nil {
			return err
		}
	}
	if err := add("starter", r.Starter); err != nil {
		return err
	}
	if err := add("stack", Cards(r.Stack)...); err != nil {
		return err
	}
	if err := add("played", Cards(r.Played)...); err != nil {
		return err
	}
	if err := add("deck", r.Deck...); err != nil {
		return err
	}
	if len(seen) != deck.Size {
		return fmt.Errorf("round holds %d cards, want %d", len(seen), deck.Size)
	}
	sum := 0
	for _, p := range r.Stack {
		sum += p.Card.Value()
	}
	if sum != r.Count {
		return fmt.Errorf("count %d does not match stack total %d", r.Count, sum)
	}
	if r.Count > MaxCount {
		return fmt.Errorf("count %d exceeds %d", r.Count, MaxCount)
	}
	return nil
}
