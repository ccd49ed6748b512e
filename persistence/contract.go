package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs the behaviour every Store must have.
// The store must be empty and use a max age of at least one minute.
func RunStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		s := sampleSnapshot(t, "contract-save")
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, s.SessionID)
		require.NoError(t, err)
		assert.Equal(t, s.SessionID, loaded.SessionID)
		assert.Equal(t, s.LocalSeat, loaded.LocalSeat)
		assert.Equal(t, s.Opponent, loaded.Opponent)
		assert.Equal(t, s.Game.Digest(), loaded.Game.Digest())
		assert.WithinDuration(t, s.SavedAt, loaded.SavedAt, time.Second)
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := sampleSnapshot(t, "contract-overwrite")
		require.NoError(t, store.Save(ctx, s))
		_, err := s.Game.Apply(cribbage.ConfirmCrib(cribbage.Host, s.Game.Hand(cribbage.Host)[:2]...))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, s.SessionID)
		require.NoError(t, err)
		assert.Equal(t, s.Game.Digest(), loaded.Game.Digest())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("Load Stale", func(t *testing.T) {
		s := sampleSnapshot(t, "contract-stale")
		s.SavedAt = time.Now().Add(-2 * DefaultMaxAge)
		require.NoError(t, store.Save(ctx, s))

		_, err := store.Load(ctx, s.SessionID)
		assert.ErrorIs(t, err, ErrSnapshotStale)
		_, err = store.Load(ctx, s.SessionID)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("Save Invalid", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, &Snapshot{SessionID: "contract-invalid"}))
		assert.Error(t, store.Save(ctx, &Snapshot{Game: cribbage.NewGame(cribbage.DefaultOptions())}))
	})

	t.Run("Delete", func(t *testing.T) {
		s := sampleSnapshot(t, "contract-delete")
		require.NoError(t, store.Save(ctx, s))
		require.NoError(t, store.Delete(ctx, s.SessionID))

		_, err := store.Load(ctx, s.SessionID)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
		assert.NoError(t, store.Delete(ctx, s.SessionID))
	})

	t.Run("List", func(t *testing.T) {
		for _, id := range []string{"contract-list-1", "contract-list-2"} {
			require.NoError(t, store.Save(ctx, sampleSnapshot(t, id)))
		}
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "contract-list-1")
		assert.Contains(t, ids, "contract-list-2")
		assert.NotContains(t, ids, "contract-delete")
	})

	t.Run("Latest", func(t *testing.T) {
		s := sampleSnapshot(t, "contract-latest")
		s.SavedAt = time.Now().Add(time.Second)
		require.NoError(t, store.Save(ctx, s))

		latest, err := Latest(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, "contract-latest", latest.SessionID)
	})
}

func sampleSnapshot(t *testing.T, id string) *Snapshot {
	t.Helper()
	g := cribbage.NewGame(cribbage.DefaultOptions())
	_, err := g.Apply(cribbage.StartGame(deck.Seed("seed-"+id), cribbage.Host))
	require.NoError(t, err)
	return &Snapshot{
		SessionID: id,
		LocalSeat: cribbage.Guest,
		Player:    "guest",
		Opponent:  "host",
		Peer:      "127.0.0.1:9000",
		SavedAt:   time.Now(),
		Game:      g,
	}
}
