package cribbage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Snapshot encodes the full game state.
func (g *Game) Snapshot() ([]byte, error) {
	return json.Marshal(g)
}

// Restore decodes a snapshot and checks its invariants.
func Restore(data []byte) (*Game, error) {
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks the invariants of a decoded game.
func (g *Game) Validate() error {
	if g.Phase > PhaseGameOver {
		return fmt.Errorf("invalid phase %d", g.Phase)
	}
	if g.Phase == PhaseGameOver && g.Winner == nil {
		return fmt.Errorf("game over without a winner")
	}
	if g.Round.Number > 0 && g.Seed == "" {
		return fmt.Errorf("round %d without a seed", g.Round.Number)
	}
	if err := g.Round.CheckInvariants(); err != nil {
		return fmt.Errorf("round %d: %w", g.Round.Number, err)
	}
	return nil
}

// Digest is a short fingerprint of the state, equal on two peers iff their
// games are identical.
func (g *Game) Digest() string {
	b, err := g.Snapshot()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
