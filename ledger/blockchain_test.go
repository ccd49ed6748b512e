package ledger

import (
	"errors"
	"testing"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
)

// recordedGame plays the start of a game and records every action in a
// new chain, the way a session does.
func recordedGame(t *testing.T) (*cribbage.Game, *Blockchain) {
	t.Helper()
	g := cribbage.NewGame(cribbage.DefaultOptions())
	bc := NewBlockchain("session-1", g.Digest())

	apply := func(a cribbage.Action, origin Origin) {
		t.Helper()
		out, err := g.Apply(a)
		if err != nil {
			t.Fatalf("apply %s: %v", a, err)
		}
		if err := bc.Append(g.Round.Number, origin, &a, "msg-"+a.Kind.String(), g.Digest(), out.Awards); err != nil {
			t.Fatalf("append %s: %v", a, err)
		}
	}

	apply(cribbage.StartGame(deck.Seed("ledger"), cribbage.Host), OriginLocal)
	apply(cribbage.ConfirmCrib(cribbage.Host, g.Hand(cribbage.Host)[:2]...), OriginLocal)
	apply(cribbage.ConfirmCrib(cribbage.Guest, g.Hand(cribbage.Guest)[:2]...), OriginRemote)
	return g, bc
}

// TestNewBlockchain verifies the genesis block.
func TestNewBlockchain(t *testing.T) {
	bc := NewBlockchain("s", "digest")
	if bc.Len() != 1 {
		t.Fatalf("expected 1 block (genesis), got %d", bc.Len())
	}
	genesis, err := bc.GetByIndex(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if genesis.Index != 0 || genesis.PrevHash != "0" || genesis.Origin != OriginGenesis {
		t.Fatalf("unexpected genesis %+v", genesis)
	}
	if genesis.Hash == "" {
		t.Fatal("genesis block should have a hash")
	}
	if genesis.Metadata.SessionID != "s" {
		t.Fatalf("genesis should record the session id, got %q", genesis.Metadata.SessionID)
	}
}

// TestNewBlockchainDifferentSessions verifies that different sessions give
// different genesis hashes.
func TestNewBlockchainDifferentSessions(t *testing.T) {
	a := NewBlockchain("a", "digest")
	b := NewBlockchain("b", "digest")
	ga, _ := a.GetLatest()
	gb, _ := b.GetLatest()
	if ga.Hash == gb.Hash {
		t.Fatal("different sessions should produce different genesis hashes")
	}
}

func TestAppend(t *testing.T) {
	g, bc := recordedGame(t)
	if bc.Len() != 4 {
		t.Fatalf("expected 4 blocks, got %d", bc.Len())
	}
	latest, err := bc.GetLatest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Origin != OriginRemote {
		t.Fatalf("expected remote origin, got %s", latest.Origin)
	}
	if latest.Digest != g.Digest() {
		t.Fatal("latest block should carry the current digest")
	}
	prev, _ := bc.GetByIndex(2)
	if latest.PrevHash != prev.Hash {
		t.Fatal("block should link to the previous hash")
	}
	if latest.Action == nil || latest.Action.Kind != cribbage.ActionConfirmCrib {
		t.Fatalf("unexpected action %v", latest.Action)
	}
}

func TestAppendWithoutAction(t *testing.T) {
	bc := NewBlockchain("s", "d")
	if err := bc.Append(1, OriginLocal, nil, "m", "d", nil); err == nil {
		t.Fatal("expected error for a local block without action")
	}
	if err := bc.Append(1, OriginSync, nil, "m", "d2", nil, map[string]string{"reason": "digest mismatch"}); err != nil {
		t.Fatalf("sync block should be accepted: %v", err)
	}
	latest, _ := bc.GetLatest()
	if latest.Metadata.Extra["reason"] != "digest mismatch" {
		t.Fatalf("extra metadata not stored: %v", latest.Metadata.Extra)
	}
}

func TestGetByIndexOutOfRange(t *testing.T) {
	bc := NewBlockchain("s", "d")
	if _, err := bc.GetByIndex(10); err == nil {
		t.Fatal("expected error for out of range index")
	}
	if _, err := bc.GetByIndex(-1); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestGetLatestEmptyBlockchain(t *testing.T) {
	bc := &Blockchain{}
	if _, err := bc.GetLatest(); err == nil {
		t.Fatal("expected error for empty blockchain")
	}
	if err := bc.Verify(); err == nil {
		t.Fatal("expected error verifying an empty blockchain")
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(bc *Blockchain)
	}{
		{"genesis", func(bc *Blockchain) { bc.blocks[0].PrevHash = "invalid" }},
		{"hash", func(bc *Blockchain) { bc.blocks[1].Hash = "tampered" }},
		{"link", func(bc *Blockchain) { bc.blocks[2].PrevHash = "wrong" }},
		{"index", func(bc *Blockchain) { bc.blocks[3].Index = 7 }},
		{"points", func(bc *Blockchain) { bc.blocks[1].Metadata.Awards = []cribbage.Award{{Points: 5}} }},
	}
	_, bc := recordedGame(t)
	if err := bc.Verify(); err != nil {
		t.Fatalf("valid chain failed verification: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bc := recordedGame(t)
			tt.tamper(bc)
			if err := bc.Verify(); err == nil {
				t.Fatal("expected verification error")
			}
		})
	}
}

func TestReplay(t *testing.T) {
	g, bc := recordedGame(t)
	replayed, err := bc.Replay(cribbage.DefaultOptions())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replayed.Digest() != g.Digest() {
		t.Fatal("replayed game differs from the recorded one")
	}
}

func TestReplayDiverged(t *testing.T) {
	_, bc := recordedGame(t)
	a := cribbage.StartGame(deck.Seed("other"), cribbage.Host)
	chain := NewBlockchain("s", "")
	if err := chain.Append(1, OriginLocal, &a, "m", "not-the-digest", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := chain.Replay(cribbage.DefaultOptions()); !errors.Is(err, ErrReplayDiverged) {
		t.Fatalf("expected ErrReplayDiverged, got %v", err)
	}
	if _, err := bc.Replay(cribbage.Options{Counting: cribbage.CountingAutomatic}); err == nil {
		t.Fatal("replay with other options should diverge")
	}
}
