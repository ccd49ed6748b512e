package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStandardDeck(t *testing.T) {
	d := BuildStandardDeck()
	require.Len(t, d, Size)

	seen := map[Card]bool{}
	for _, c := range d {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Equal(t, "A♥", d[0].String())
	assert.Equal(t, "K♥", d[12].String())
	assert.Equal(t, "A♦", d[13].String())
	assert.Equal(t, "K♠", d[51].String())
}

func TestCardValue(t *testing.T) {
	cases := map[string]int{"Ah": 1, "5d": 5, "10c": 10, "Js": 10, "Qh": 10, "Kd": 10}
	for s, v := range cases {
		c, err := ParseCard(s)
		require.NoError(t, err)
		assert.Equal(t, v, c.Value(), s)
	}
}

func TestParseCard(t *testing.T) {
	c, err := ParseCard("10h")
	require.NoError(t, err)
	assert.Equal(t, Hearts, c.Suit())
	assert.Equal(t, Rank(10), c.Rank())

	c, err = ParseCard("J♠")
	require.NoError(t, err)
	assert.Equal(t, Spades, c.Suit())
	assert.Equal(t, Jack, c.Rank())

	for _, bad := range []string{"", "1", "11h", "Zs", "5x"} {
		_, err := ParseCard(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewCardRejectsInvalid(t *testing.T) {
	_, err := NewCard(Spades+1, Ace)
	assert.Error(t, err)
	_, err = NewCard(Hearts, 0)
	assert.Error(t, err)
	_, err = NewCard(Hearts, King+1)
	assert.Error(t, err)
}

func TestCardJSON(t *testing.T) {
	c := MustParse("10d")[0]
	b, err := c.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"diamonds","rank":"10"}`, string(b))

	var back Card
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, c, back)

	assert.Error(t, back.UnmarshalJSON([]byte(`{"suit":"stars","rank":"10"}`)))
}

func TestDealAlternates(t *testing.T) {
	d := BuildStandardDeck()
	hands, rest, err := Deal(d, 6, 2)
	require.NoError(t, err)
	require.Len(t, hands, 2)
	assert.Equal(t, []Card{d[0], d[2], d[4], d[6], d[8], d[10]}, hands[0])
	assert.Equal(t, []Card{d[1], d[3], d[5], d[7], d[9], d[11]}, hands[1])
	assert.Len(t, rest, 40)
	assert.Equal(t, d[12], rest[0])

	_, _, err = Deal(d[:5], 3, 2)
	assert.Error(t, err)
}

func TestCut(t *testing.T) {
	d := BuildStandardDeck()
	starter, rest, err := Cut(d, 0)
	require.NoError(t, err)
	assert.Equal(t, d[0], starter)
	assert.Len(t, rest, Size-1)
	assert.False(t, Contains(rest, starter))

	_, _, err = Cut(nil, 0)
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	hand := MustParse("5h", "5d", "Js")
	out, err := Remove(hand, hand[1])
	require.NoError(t, err)
	assert.Equal(t, MustParse("5h", "Js"), out)
	assert.Len(t, hand, 3)

	_, err = Remove(hand, MustParse("Ks")[0])
	assert.Error(t, err)
}
