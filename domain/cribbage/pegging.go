package cribbage

import (
	"fmt"
	"sort"

	"github.com/luca-patrignani/cribbage/domain/deck"
)

const (
	pointsFifteen   = 2
	pointsThirtyOne = 2
	pointsGo        = 1
	pointsHisHeels  = 2
	maxRunWindow    = 7
)

// CanPlay reports whether card can be laid on count without passing 31.
func CanPlay(card deck.Card, count int) bool {
	return count+card.Value() <= MaxCount
}

// HasLegalPlay reports whether any card of hand can be played on count.
func HasLegalPlay(hand []deck.Card, count int) bool {
	for _, c := range hand {
		if CanPlay(c, count) {
			return true
		}
	}
	return false
}

// LegalPlays returns the cards of hand playable on count.
func LegalPlays(hand []deck.Card, count int) []deck.Card {
	var out []deck.Card
	for _, c := range hand {
		if CanPlay(c, count) {
			out = append(out, c)
		}
	}
	return out
}

// PegScore is the score of a single play split by category.
type PegScore struct {
	Fifteen   int `json:"fifteen"`
	ThirtyOne int `json:"thirtyOne"`
	Pairs     int `json:"pairs"`
	Run       int `json:"run"`
}

func (p PegScore) Total() int {
	return p.Fifteen + p.ThirtyOne + p.Pairs + p.Run
}

// ScorePlay scores the last card of stack given the count after playing it.
func ScorePlay(stack []deck.Card, count int) PegScore {
	var s PegScore
	if count == 15 {
		s.Fifteen = pointsFifteen
	}
	if count == MaxCount {
		s.ThirtyOne = pointsThirtyOne
	}
	s.Pairs = PairPoints(stack)
	s.Run = RunPoints(stack)
	return s
}

// PairPoints scores the cards of equal rank at the tail of stack: 2 for a
// pair, 6 for three of a kind, 12 for four.
func PairPoints(stack []deck.Card) int {
	n := len(stack)
	if n < 2 {
		return 0
	}
	rank := stack[n-1].Rank()
	streak := 1
	for i := n - 2; i >= 0 && stack[i].Rank() == rank; i-- {
		streak++
	}
	return streak * (streak - 1)
}

// RunPoints scores the longest tail of stack, between 3 and 7 cards, whose
// ranks are distinct and consecutive in any order.
func RunPoints(stack []deck.Card) int {
	n := len(stack)
	for w := min(n, maxRunWindow); w >= 3; w-- {
		if isRun(stack[n-w:]) {
			return w
		}
	}
	return 0
}

func isRun(cards []deck.Card) bool {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank())
	}
	sort.Ints(ranks)
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return false
		}
	}
	return true
}

// GoPoints is the award to the last player when a count sequence ends:
// 2 when it ended on exactly 31, otherwise 1. The engine scores 31 at the
// play itself, so it only ever asks for the go point below 31.
func GoPoints(count int) int {
	if count == MaxCount {
		return pointsThirtyOne
	}
	return pointsGo
}

// PlayResult is the outcome of ApplyPlay.
type PlayResult struct {
	Stack []PlayedCard
	Count int
	Score PegScore
}

// ApplyPlay lays card on the stack and scores it. The inputs are not
// modified; an illegal play returns ErrIllegalPlay.
func ApplyPlay(stack []PlayedCard, count int, card deck.Card, seat Seat) (PlayResult, error) {
	if !CanPlay(card, count) {
		return PlayResult{}, fmt.Errorf("%w: %s on %d", ErrIllegalPlay, card, count)
	}
	next := make([]PlayedCard, len(stack), len(stack)+1)
	copy(next, stack)
	next = append(next, PlayedCard{Card: card, Seat: seat})
	newCount := count + card.Value()
	return PlayResult{
		Stack: next,
		Count: newCount,
		Score: ScorePlay(Cards(next), newCount),
	}, nil
}
