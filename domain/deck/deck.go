package deck

import (
	"encoding/hex"
	"fmt"

	"go.dedis.ch/kyber/v4/suites"
)

// Size is the number of cards in a standard deck.
const Size = 52

// Deck is an ordered sequence of cards.
type Deck []Card

var suite suites.Suite = suites.MustFind("Ed25519")

// BuildStandardDeck returns the 52 cards in canonical order: suits
// hearts, diamonds, clubs, spades, each from ace to king.
func BuildStandardDeck() Deck {
	d := make(Deck, 0, Size)
	for s := Hearts; s <= Spades; s++ {
		for r := Ace; r <= King; r++ {
			d = append(d, Card{suit: s, rank: r})
		}
	}
	return d
}

// Seed is the shared secret-free value both peers shuffle from.
type Seed string

// NewSeed draws 128 bits from the suite's random stream.
func NewSeed() Seed {
	buf := make([]byte, 16)
	suite.RandomStream().XORKeyStream(buf, buf)
	return Seed(hex.EncodeToString(buf))
}

// RoundSeed derives the seed for round n from the game seed, so each round
// gets a fresh deck while the game seed travels only once.
func RoundSeed(seed Seed, n int) Seed {
	return Seed(fmt.Sprintf("%s/%d", seed, n))
}

// Deal deals numCards to each of numPlayers, one at a time in rotation,
// starting from the first player. It returns the hands and the remaining deck.
func Deal(d Deck, numCards, numPlayers int) ([][]Card, Deck, error) {
	if numCards*numPlayers > len(d) {
		return nil, nil, fmt.Errorf("cannot deal %d cards to %d players from %d cards", numCards, numPlayers, len(d))
	}
	hands := make([][]Card, numPlayers)
	for p := range hands {
		hands[p] = make([]Card, 0, numCards)
	}
	idx := 0
	for i := 0; i < numCards; i++ {
		for p := 0; p < numPlayers; p++ {
			hands[p] = append(hands[p], d[idx])
			idx++
		}
	}
	rest := append(Deck(nil), d[idx:]...)
	return hands, rest, nil
}

// Cut removes the card at index from the deck and returns it as the starter.
// An out-of-range index cuts the middle of the deck.
func Cut(d Deck, index int) (Card, Deck, error) {
	if len(d) == 0 {
		return Card{}, nil, fmt.Errorf("cannot cut an empty deck")
	}
	if index < 0 || index >= len(d) {
		index = len(d) / 2
	}
	starter := d[index]
	rest := make(Deck, 0, len(d)-1)
	rest = append(rest, d[:index]...)
	rest = append(rest, d[index+1:]...)
	return starter, rest, nil
}
