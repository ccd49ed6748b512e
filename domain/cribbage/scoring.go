package cribbage

import (
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/deck"
)

// Breakdown is the score of a hand or crib split by category.
type Breakdown struct {
	Fifteens int `json:"fifteens"`
	Pairs    int `json:"pairs"`
	Runs     int `json:"runs"`
	Flush    int `json:"flush"`
	Nobs     int `json:"nobs"`
}

// Total sums every category.
func (b Breakdown) Total() int {
	return b.Fifteens + b.Pairs + b.Runs + b.Flush + b.Nobs
}

func (b Breakdown) String() string {
	return fmt.Sprintf("fifteens %d, pairs %d, runs %d, flush %d, nobs %d = %d",
		b.Fifteens, b.Pairs, b.Runs, b.Flush, b.Nobs, b.Total())
}

// ScoreBreakdown scores hand together with the starter. The crib uses the
// stricter flush rule. A zero starter scores the hand alone.
func ScoreBreakdown(hand []deck.Card, starter deck.Card, isCrib bool) Breakdown {
	all := append([]deck.Card(nil), hand...)
	if !starter.IsZero() {
		all = append(all, starter)
	}
	return Breakdown{
		Fifteens: Fifteens(all),
		Pairs:    Pairs(all),
		Runs:     Runs(all),
		Flush:    Flush(hand, starter, isCrib),
		Nobs:     Nobs(hand, starter),
	}
}

// HandScore is ScoreBreakdown(hand, starter, isCrib).Total().
func HandScore(hand []deck.Card, starter deck.Card, isCrib bool) int {
	return ScoreBreakdown(hand, starter, isCrib).Total()
}

// Fifteens awards 2 points for every subset of cards whose values sum to 15.
func Fifteens(cards []deck.Card) int {
	n := len(cards)
	points := 0
	for mask := 1; mask < 1<<n; mask++ {
		sum := 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sum += cards[i].Value()
			}
		}
		if sum == 15 {
			points += 2
		}
	}
	return points
}

// Pairs awards 2 points for every unordered pair of cards of equal rank.
func Pairs(cards []deck.Card) int {
	points := 0
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].Rank() == cards[j].Rank() {
				points += 2
			}
		}
	}
	return points
}

// Runs scores the longest sequence of three or more consecutive ranks,
// multiplied by the number of ways it can be formed with duplicates.
func Runs(cards []deck.Card) int {
	var counts [deck.King + 1]int
	for _, c := range cards {
		counts[c.Rank()]++
	}
	best, bestWays := 0, 0
	for r := deck.Ace; r <= deck.King; {
		if counts[r] == 0 {
			r++
			continue
		}
		length, ways := 0, 1
		for r <= deck.King && counts[r] > 0 {
			length++
			ways *= counts[r]
			r++
		}
		if length > best {
			best, bestWays = length, ways
		}
	}
	if best < 3 {
		return 0
	}
	return best * bestWays
}

// Flush scores a hand whose cards all share a suit: one point per card plus
// one when the starter matches. A crib flush counts only with the starter.
func Flush(hand []deck.Card, starter deck.Card, isCrib bool) int {
	if len(hand) < PlaySize {
		return 0
	}
	suit := hand[0].Suit()
	for _, c := range hand[1:] {
		if c.Suit() != suit {
			return 0
		}
	}
	matches := !starter.IsZero() && starter.Suit() == suit
	switch {
	case matches:
		return len(hand) + 1
	case isCrib:
		return 0
	default:
		return len(hand)
	}
}

// Nobs is 1 when hand holds the jack of the starter's suit.
func Nobs(hand []deck.Card, starter deck.Card) int {
	if starter.IsZero() {
		return 0
	}
	for _, c := range hand {
		if c.Rank() == deck.Jack && c.Suit() == starter.Suit() {
			return 1
		}
	}
	return 0
}
