package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
)

// DefaultMaxAge is the age after which a snapshot is no longer resumed.
const DefaultMaxAge = time.Hour

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotStale    = errors.New("snapshot is too old")
)

// Snapshot is a saved game seen from one peer.
type Snapshot struct {
	SessionID string         `json:"sessionId"`
	LocalSeat cribbage.Seat  `json:"localSeat"`
	Player    string         `json:"player,omitempty"`
	Opponent  string         `json:"opponent,omitempty"`
	Peer      string         `json:"peer,omitempty"`
	SavedAt   time.Time      `json:"savedAt"`
	Game      *cribbage.Game `json:"game"`
}

// Validate checks a snapshot before it is saved or after it is loaded.
func (s *Snapshot) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("snapshot without session id")
	}
	if s.Game == nil {
		return fmt.Errorf("snapshot %s without game", s.SessionID)
	}
	return s.Game.Validate()
}

// Store persists snapshots by session id.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	// Load returns ErrSnapshotNotFound for unknown sessions and
	// ErrSnapshotStale, after deleting it, for a snapshot past its max age.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

func checkFresh(s *Snapshot, maxAge time.Duration) error {
	if maxAge > 0 && time.Since(s.SavedAt) > maxAge {
		return fmt.Errorf("%w: %s saved %s ago", ErrSnapshotStale, s.SessionID, time.Since(s.SavedAt).Round(time.Second))
	}
	return nil
}

// Latest returns the most recently saved fresh snapshot of store.
func Latest(ctx context.Context, store Store) (*Snapshot, error) {
	ids, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	var found []*Snapshot
	for _, id := range ids {
		s, err := store.Load(ctx, id)
		if errors.Is(err, ErrSnapshotStale) || errors.Is(err, ErrSnapshotNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, s)
	}
	if len(found) == 0 {
		return nil, ErrSnapshotNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].SavedAt.After(found[j].SavedAt) })
	return found[0], nil
}
