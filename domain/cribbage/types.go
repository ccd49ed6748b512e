package cribbage

import (
	"fmt"

	"github.com/luca-patrignani/cribbage/domain/deck"
)

const (
	// WinningScore ends the game the moment a player reaches it.
	WinningScore = 121
	// MaxCount is the highest legal running count during play.
	MaxCount = 31
	// DealSize is the number of cards dealt to each player.
	DealSize = 6
	// CribDiscard is the number of cards each player gives to the crib.
	CribDiscard = 2
	// PlaySize is the number of cards each player keeps for play.
	PlaySize = DealSize - CribDiscard
)

// Seat identifies one of the two players. Seats are absolute: both peers
// agree on who is Host and who is Guest.
type Seat uint8

const (
	Host Seat = iota
	Guest
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	return 1 - s
}

func (s Seat) String() string {
	switch s {
	case Host:
		return "host"
	case Guest:
		return "guest"
	}
	return fmt.Sprintf("seat(%d)", uint8(s))
}

func (s Seat) MarshalText() ([]byte, error) {
	if s > Guest {
		return nil, fmt.Errorf("invalid seat %d", s)
	}
	return []byte(s.String()), nil
}

func (s *Seat) UnmarshalText(b []byte) error {
	switch string(b) {
	case "host":
		*s = Host
	case "guest":
		*s = Guest
	default:
		return fmt.Errorf("invalid seat %q", b)
	}
	return nil
}

// Phase of the current round.
type Phase uint8

const (
	PhaseDeal Phase = iota
	PhaseCribSelection
	PhasePlay
	PhaseCounting
	PhaseRoundComplete
	PhaseGameOver
)

var phaseNames = [...]string{"deal", "crib_selection", "play", "counting", "round_complete", "game_over"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("invalid phase %d", p)
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("invalid phase %q", b)
}

// CountingMode selects how hands are scored in the counting phase.
type CountingMode uint8

const (
	// CountingManual lets each owner declare the score of their hand and
	// the opponent claim what was missed.
	CountingManual CountingMode = iota
	// CountingAutomatic scores every hand with the scoring engine.
	CountingAutomatic
)

func (m CountingMode) String() string {
	if m == CountingAutomatic {
		return "automatic"
	}
	return "manual"
}

// ParseCountingMode accepts "manual" and "automatic".
func ParseCountingMode(s string) (CountingMode, error) {
	switch s {
	case "manual", "":
		return CountingManual, nil
	case "automatic", "auto":
		return CountingAutomatic, nil
	}
	return 0, fmt.Errorf("invalid counting mode %q", s)
}

func (m CountingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *CountingMode) UnmarshalText(b []byte) error {
	v, err := ParseCountingMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Options are fixed for the whole game and must be equal on both peers.
type Options struct {
	Counting CountingMode `json:"counting"`
	Muggins  bool         `json:"muggins"`
}

// DefaultOptions mirrors the classic rules: manual counting with muggins.
func DefaultOptions() Options {
	return Options{Counting: CountingManual, Muggins: true}
}

// PlayedCard is an entry of the play stack.
type PlayedCard struct {
	Card deck.Card `json:"card"`
	Seat Seat      `json:"seat"`
}

// Cards strips the seats from a stack.
func Cards(stack []PlayedCard) []deck.Card {
	out := make([]deck.Card, len(stack))
	for i, p := range stack {
		out[i] = p.Card
	}
	return out
}
