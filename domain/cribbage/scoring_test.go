package cribbage

import (
	"fmt"
	"testing"

	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/stretchr/testify/assert"
)

func cards(s ...string) []deck.Card {
	return deck.MustParse(s...)
}

func card(s string) deck.Card {
	return deck.MustParse(s)[0]
}

func TestScoringCategories(t *testing.T) {
	tests := []struct {
		name  string
		cards []deck.Card
		score func([]deck.Card) int
		want  int
	}{
		{"three fifteens", cards("5h", "10d", "2c", "3s", "7h"), Fifteens, 6},
		{"no fifteen", cards("Ah", "2d", "3c", "4s", "6h"), Fifteens, 0},
		{"pair", cards("5h", "5d", "Kc", "Qs", "Jh"), Pairs, 2},
		{"three of a kind", cards("5h", "5d", "5c", "Qs", "Jh"), Pairs, 6},
		{"four of a kind", cards("5h", "5d", "5c", "5s", "Jh"), Pairs, 12},
		{"run of three", cards("5h", "6d", "7c", "Ks", "Jh"), Runs, 3},
		{"run of five", cards("5h", "6d", "7c", "8s", "9h"), Runs, 5},
		{"double run", cards("5h", "5d", "6c", "7s", "Jh"), Runs, 6},
		{"double double run", cards("5h", "5d", "6c", "6s", "7h"), Runs, 12},
		{"triple run", cards("5h", "5d", "5c", "6s", "7h"), Runs, 9},
		{"run needs three ranks", cards("5h", "6d", "8c", "9s", "Kh"), Runs, 0},
		{"face cards run", cards("10h", "Jd", "Qc", "Ks", "2h"), Runs, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.score(tt.cards))
		})
	}
}

func TestFlush(t *testing.T) {
	hand := cards("2h", "4h", "6h", "8h")
	assert.Equal(t, 4, Flush(hand, card("Kc"), false))
	assert.Equal(t, 5, Flush(hand, card("Kh"), false))
	assert.Equal(t, 0, Flush(hand, card("Kc"), true))
	assert.Equal(t, 5, Flush(hand, card("Kh"), true))
	assert.Equal(t, 0, Flush(cards("2h", "4h", "6h", "8d"), card("Kh"), false))
}

func TestNobs(t *testing.T) {
	hand := cards("Jh", "4c", "6d", "8s")
	assert.Equal(t, 1, Nobs(hand, card("3h")))
	assert.Equal(t, 0, Nobs(hand, card("3c")))
	assert.Equal(t, 0, Nobs(cards("Jh", "4c", "6d", "8s"), card("Jd")))
}

func TestPerfectHand(t *testing.T) {
	b := ScoreBreakdown(cards("5h", "5d", "5c", "Js"), card("5s"), false)
	assert.Equal(t, Breakdown{Fifteens: 16, Pairs: 12, Runs: 0, Flush: 0, Nobs: 1}, b)
	assert.Equal(t, 29, b.Total())
	assert.Equal(t, 28, HandScore(cards("5h", "5d", "5c", "Jh"), card("5s"), false))
}

func TestHandScoreBounds(t *testing.T) {
	for i := range 500 {
		d := deck.Shuffle(deck.BuildStandardDeck(), deck.Seed(fmt.Sprintf("bounds-%d", i)))
		hand, starter := d[:4:4], d[4]
		for _, crib := range []bool{false, true} {
			score := HandScore(hand, starter, crib)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 29)
			if score == 29 {
				assert.Equal(t, 1, Nobs(hand, starter), "%v + %s", hand, starter)
				assert.Equal(t, 12, Pairs(append(hand, starter)))
			}
		}
	}
}

func TestBreakdownTotal(t *testing.T) {
	hand := cards("4h", "5h", "6h", "Jh")
	b := ScoreBreakdown(hand, card("5c"), false)
	assert.Equal(t, HandScore(hand, card("5c"), false), b.Total())
	assert.Equal(t, 4, b.Flush)
	assert.Equal(t, 0, b.Nobs)
}
