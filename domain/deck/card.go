package deck

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Suit of a card. The order matches the canonical deck order.
type Suit uint8

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Rank of a card, 1 (ace) through 13 (king).
type Rank uint8

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

var suitNames = [...]string{"hearts", "diamonds", "clubs", "spades"}
var suitSymbols = [...]string{"♥", "♦", "♣", "♠"}
var rankNames = [...]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Card is an immutable playing card. Two cards are the same card iff
// their suit and rank are equal, so Card values can be compared with ==.
type Card struct {
	suit Suit
	rank Rank
}

// NewCard creates a new Card with validation.
func NewCard(suit Suit, rank Rank) (Card, error) {
	if suit > Spades || rank < Ace || rank > King {
		return Card{}, fmt.Errorf("invalid card %d, %d", suit, rank)
	}
	return Card{suit: suit, rank: rank}, nil
}

// Suit returns the suit of the card.
func (c Card) Suit() Suit {
	return c.suit
}

// Rank returns the rank of the card (1-13).
func (c Card) Rank() Rank {
	return c.rank
}

// Value returns the counting value: ace is 1, face cards are 10.
func (c Card) Value() int {
	if c.rank >= 10 {
		return 10
	}
	return int(c.rank)
}

// IsZero reports whether c is the zero Card, which is not a valid card.
func (c Card) IsZero() bool {
	return c.rank == 0
}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return "?"
}

// Symbol returns the unicode suit symbol.
func (s Suit) Symbol() string {
	if int(s) < len(suitSymbols) {
		return suitSymbols[s]
	}
	return "?"
}

// Red reports whether the suit is drawn in red.
func (s Suit) Red() bool {
	return s == Hearts || s == Diamonds
}

func (r Rank) String() string {
	if int(r) < len(rankNames) && r > 0 {
		return rankNames[r]
	}
	return "?"
}

// String returns the short form of the card, e.g. "10♥" or "J♠".
func (c Card) String() string {
	if c.IsZero() {
		return "--"
	}
	return c.rank.String() + c.suit.Symbol()
}

// ParseSuit accepts the full name ("hearts"), the initial ("h") or the symbol.
func ParseSuit(s string) (Suit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range suitNames {
		if s == name || s == name[:1] || s == suitSymbols[i] {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", s)
}

// ParseRank accepts "A", "2".."10", "J", "Q", "K" (case insensitive) and "T" for ten.
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "A", "1":
		return Ace, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "T":
		return 10, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > 10 {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	return Rank(n), nil
}

// ParseCard parses the short notation used by the CLI and the tests:
// rank followed by suit, e.g. "5h", "10d", "Js", "A♣".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Card{}, fmt.Errorf("empty card")
	}
	runes := []rune(s)
	suit, err := ParseSuit(string(runes[len(runes)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("card %q: %w", s, err)
	}
	rank, err := ParseRank(string(runes[:len(runes)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("card %q: %w", s, err)
	}
	return NewCard(suit, rank)
}

// MustParse is ParseCard for literals; it panics on malformed input.
func MustParse(cards ...string) []Card {
	out := make([]Card, 0, len(cards))
	for _, s := range cards {
		c, err := ParseCard(s)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// FromNames builds a card from its wire names, e.g. ("hearts", "10").
func FromNames(suit, rank string) (Card, error) {
	s, err := ParseSuit(suit)
	if err != nil {
		return Card{}, err
	}
	r, err := ParseRank(rank)
	if err != nil {
		return Card{}, err
	}
	return NewCard(s, r)
}

type wireCard struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// MarshalJSON encodes the card as {"suit":"hearts","rank":"10"}.
func (c Card) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(wireCard{Suit: c.suit.String(), Rank: c.rank.String()})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (c *Card) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Card{}
		return nil
	}
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	card, err := FromNames(w.Suit, w.Rank)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// Contains reports whether cards holds c.
func Contains(cards []Card, c Card) bool {
	return IndexOf(cards, c) >= 0
}

// IndexOf returns the position of c in cards or -1.
func IndexOf(cards []Card, c Card) int {
	for i, x := range cards {
		if x == c {
			return i
		}
	}
	return -1
}

// Remove returns a copy of cards without the given cards. It fails if one
// of them is missing.
func Remove(cards []Card, remove ...Card) ([]Card, error) {
	out := append([]Card(nil), cards...)
	for _, r := range remove {
		i := IndexOf(out, r)
		if i < 0 {
			return nil, fmt.Errorf("card %s not found", r)
		}
		out = append(out[:i], out[i+1:]...)
	}
	return out, nil
}
