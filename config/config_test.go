package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cribbage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Backoff)
	assert.Equal(t, time.Hour, cfg.Snapshot.MaxAge)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
player: alice
transport: http
retry:
  attempts: 5
  backoff: 500ms
game:
  counting: automatic
  muggins: false
snapshot:
  backend: redis
  redis_addr: localhost:6379
  max_age: 30m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Player)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Backoff)
	assert.Equal(t, 10*time.Second, cfg.Retry.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Snapshot.MaxAge)
	assert.Equal(t, 9000, cfg.Discovery.StartPort)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, cribbage.Options{Counting: cribbage.CountingAutomatic, Muggins: false}, opts)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":   "colour: blue\n",
		"transport":       "transport: pigeon\n",
		"counting":        "game:\n  counting: sometimes\n",
		"dealer":          "game:\n  first_dealer: nobody\n",
		"redis addr":      "snapshot:\n  backend: redis\n",
		"port range":      "discovery:\n  start_port: 9010\n  end_port: 9000\n",
		"zero attempts":   "retry:\n  attempts: 0\n",
		"malformed":       "player: [\n",
		"backend unknown": "snapshot:\n  backend: floppy\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	b, err := Default().Marshal()
	require.NoError(t, err)
	cfg, err := Load(writeConfig(t, string(b)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
