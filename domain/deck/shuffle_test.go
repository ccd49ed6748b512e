package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleIsDeterministic(t *testing.T) {
	a := Shuffle(BuildStandardDeck(), "abc")
	b := Shuffle(BuildStandardDeck(), "abc")
	assert.Equal(t, a, b)
}

func TestShuffleIsPermutation(t *testing.T) {
	d := BuildStandardDeck()
	s := Shuffle(d, NewSeed())
	require.Len(t, s, Size)
	for _, c := range d {
		assert.True(t, Contains(s, c), "missing %s", c)
	}
	assert.Equal(t, BuildStandardDeck(), d, "input must not be modified")
}

func TestShuffleDependsOnSeed(t *testing.T) {
	a := Shuffle(BuildStandardDeck(), "seed-1")
	b := Shuffle(BuildStandardDeck(), "seed-2")
	assert.NotEqual(t, a, b)
}

func TestShuffleEmptySeedPanics(t *testing.T) {
	assert.Panics(t, func() { Shuffle(BuildStandardDeck(), "") })
}

func TestRoundSeed(t *testing.T) {
	assert.Equal(t, Seed("abc/1"), RoundSeed("abc", 1))
	assert.NotEqual(t, Shuffle(BuildStandardDeck(), RoundSeed("abc", 1)), Shuffle(BuildStandardDeck(), RoundSeed("abc", 2)))
}

func TestNewSeedIsRandom(t *testing.T) {
	a, b := NewSeed(), NewSeed()
	assert.Len(t, string(a), 32)
	assert.NotEqual(t, a, b)
}
