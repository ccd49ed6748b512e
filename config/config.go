// Package config loads the settings of the cribbage command from a YAML
// file. A missing file yields the defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
)

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "cribbage.yaml"

type Config struct {
	Player    string    `yaml:"player"`
	Transport string    `yaml:"transport"`
	Listen    string    `yaml:"listen"`
	Discovery Discovery `yaml:"discovery"`
	Retry     Retry     `yaml:"retry"`
	Game      Game      `yaml:"game"`
	Snapshot  Snapshot  `yaml:"snapshot"`
	Metrics   Metrics   `yaml:"metrics"`
	Log       Log       `yaml:"log"`
}

type Discovery struct {
	StartPort int `yaml:"start_port"`
	EndPort   int `yaml:"end_port"`
}

type Retry struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Game struct {
	Counting       string        `yaml:"counting"`
	Muggins        bool          `yaml:"muggins"`
	MugginsTimeout time.Duration `yaml:"muggins_timeout"`
	FirstDealer    string        `yaml:"first_dealer"`
}

type Snapshot struct {
	Backend   string        `yaml:"backend"`
	Path      string        `yaml:"path"`
	RedisAddr string        `yaml:"redis_addr"`
	MaxAge    time.Duration `yaml:"max_age"`
}

type Metrics struct {
	Listen string `yaml:"listen"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Player:    "player",
		Transport: "ws",
		Listen:    ":0",
		Discovery: Discovery{StartPort: 9000, EndPort: 9010},
		Retry:     Retry{Attempts: 3, Backoff: 2 * time.Second, Timeout: 10 * time.Second},
		Game: Game{
			Counting:       "manual",
			Muggins:        true,
			MugginsTimeout: 15 * time.Second,
			FirstDealer:    "host",
		},
		Snapshot: Snapshot{
			Backend: "file",
			Path:    ".cribbage/sessions",
			MaxAge:  time.Hour,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be fixed up silently.
func (c Config) Validate() error {
	switch c.Transport {
	case "ws", "http":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Discovery.StartPort <= 0 || c.Discovery.EndPort < c.Discovery.StartPort {
		return fmt.Errorf("invalid discovery port range %d-%d", c.Discovery.StartPort, c.Discovery.EndPort)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}
	if _, err := c.Options(); err != nil {
		return err
	}
	switch c.Game.FirstDealer {
	case "host", "guest", "random":
	default:
		return fmt.Errorf("unknown first dealer %q", c.Game.FirstDealer)
	}
	switch c.Snapshot.Backend {
	case "none", "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	if c.Snapshot.Backend == "redis" && c.Snapshot.RedisAddr == "" {
		return fmt.Errorf("redis snapshot backend needs redis_addr")
	}
	return nil
}

// Options returns the game rules selected by the configuration.
func (c Config) Options() (cribbage.Options, error) {
	mode, err := cribbage.ParseCountingMode(strings.ToLower(c.Game.Counting))
	if err != nil {
		return cribbage.Options{}, err
	}
	return cribbage.Options{Counting: mode, Muggins: c.Game.Muggins}, nil
}

// Marshal renders the configuration as YAML, e.g. for "config show".
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
