package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryContract(t *testing.T) {
	RunStoreContract(t, NewMemory(DefaultMaxAge))
}

func TestFileContract(t *testing.T) {
	RunStoreContract(t, NewFile(t.TempDir(), DefaultMaxAge))
}

func TestRedisContract(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewRedisFromClient(client)
	defer store.Close()

	RunStoreContract(t, store)
}

func TestFile_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewFile(dir, DefaultMaxAge)
	require.NoError(t, store.Save(context.Background(), sampleSnapshot(t, "atomic")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "atomic.json", entries[0].Name())
}

func TestFile_RejectsPathInSessionID(t *testing.T) {
	store := NewFile(t.TempDir(), DefaultMaxAge)
	_, err := store.Load(context.Background(), "../escape")
	assert.Error(t, err)
}

func TestFile_ListMissingDir(t *testing.T) {
	store := NewFile(filepath.Join(t.TempDir(), "nope"), DefaultMaxAge)
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedis_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewRedisFromClient(client, WithTTL(time.Minute), WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSnapshot(t, "ttl")))
	assert.True(t, mr.Exists("test:ttl"))
	assert.Equal(t, time.Minute, mr.TTL("test:ttl"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "ttl")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestMemory_ZeroMaxAgeKeepsEverything(t *testing.T) {
	store := NewMemory(0)
	ctx := context.Background()
	s := sampleSnapshot(t, "old")
	s.SavedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Save(ctx, s))

	_, err := store.Load(ctx, "old")
	assert.NoError(t, err)
}

func TestLatest_Empty(t *testing.T) {
	_, err := Latest(context.Background(), NewMemory(DefaultMaxAge))
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
