package cribbage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanPlay(t *testing.T) {
	assert.True(t, CanPlay(card("Kh"), 21))
	assert.False(t, CanPlay(card("Kh"), 22))
	assert.True(t, CanPlay(card("Ah"), 30))
	assert.False(t, HasLegalPlay(cards("Kh", "9c"), 25))
	assert.True(t, HasLegalPlay(cards("Kh", "6c"), 25))
	assert.Equal(t, cards("6c"), LegalPlays(cards("Kh", "6c"), 25))
}

func TestScorePlay(t *testing.T) {
	tests := []struct {
		name  string
		stack []string
		want  PegScore
	}{
		{"fifteen", []string{"10h", "5d"}, PegScore{Fifteen: 2}},
		{"thirty-one", []string{"10h", "Jd", "Qc", "Ah"}, PegScore{ThirtyOne: 2}},
		{"pair", []string{"9h", "9d"}, PegScore{Pairs: 2}},
		{"three of a kind", []string{"4h", "4d", "4c"}, PegScore{Pairs: 6}},
		{"four of a kind", []string{"2h", "2d", "2c", "2s"}, PegScore{Pairs: 12}},
		{"broken pair", []string{"5h", "6d", "5c"}, PegScore{}},
		{"fifteen and pair", []string{"5h", "5d", "5c"}, PegScore{Fifteen: 2, Pairs: 6}},
		{"run out of order", []string{"3h", "5d", "4c"}, PegScore{Run: 3}},
		{"run of four", []string{"3h", "5d", "4c", "6s"}, PegScore{Run: 4}},
		{"duplicate breaks run", []string{"3h", "4d", "4c"}, PegScore{Pairs: 2}},
		{"run after break", []string{"Kh", "2d", "4c", "3s"}, PegScore{Run: 3}},
		{"run of seven", []string{"Ah", "2d", "3c", "4s", "5h", "6d", "7c"}, PegScore{Run: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := cards(tt.stack...)
			count := 0
			for _, c := range stack {
				count += c.Value()
			}
			assert.Equal(t, tt.want, ScorePlay(stack, count))
		})
	}
}

func TestApplyPlayRejectsOverflow(t *testing.T) {
	stack := []PlayedCard{{Card: card("Kh"), Seat: Host}, {Card: card("Qd"), Seat: Guest}, {Card: card("5c"), Seat: Host}}
	before := append([]PlayedCard(nil), stack...)

	_, err := ApplyPlay(stack, 25, card("Js"), Guest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalPlay))
	assert.Equal(t, before, stack)

	res, err := ApplyPlay(stack, 25, card("6s"), Guest)
	require.NoError(t, err)
	assert.Equal(t, 31, res.Count)
	assert.Equal(t, 2, res.Score.ThirtyOne)
	assert.Len(t, res.Stack, 4)
	assert.Len(t, stack, 3)
}

func TestGoPoints(t *testing.T) {
	assert.Equal(t, 1, GoPoints(24))
	assert.Equal(t, 2, GoPoints(31))
}
