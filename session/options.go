package session

import (
	"log/slog"
	"time"

	"github.com/luca-patrignani/cribbage/domain/cribbage"
	"github.com/luca-patrignani/cribbage/domain/deck"
	"github.com/luca-patrignani/cribbage/internal/logging"
	"github.com/luca-patrignani/cribbage/observability"
	"github.com/luca-patrignani/cribbage/persistence"
)

const (
	DefaultMugginsTimeout  = 15 * time.Second
	DefaultMaxSyncAttempts = 2
	DefaultSendTimeout     = 30 * time.Second
	// MaxEarlyMessages bounds the messages held until the local state can
	// accept them.
	MaxEarlyMessages = 64
)

type options struct {
	logger          *slog.Logger
	metrics         *observability.Metrics
	store           persistence.Store
	observers       []func(Event)
	name            string
	peerAddr        string
	seed            deck.Seed
	dealer          cribbage.Seat
	game            cribbage.Options
	mugginsTimeout  time.Duration
	maxSyncAttempts int
	sendTimeout     time.Duration
}

type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		logger:          logging.NewNop(),
		dealer:          cribbage.Host,
		game:            cribbage.DefaultOptions(),
		mugginsTimeout:  DefaultMugginsTimeout,
		maxSyncAttempts: DefaultMaxSyncAttempts,
		sendTimeout:     DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithStore saves a snapshot after every transition.
func WithStore(s persistence.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithObserver registers f before any message can arrive.
func WithObserver(f func(Event)) Option {
	return func(o *options) {
		o.observers = append(o.observers, f)
	}
}

// WithName sets the player name sent in the handshake.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithPeerAddress records where the peer was reached, for snapshots.
func WithPeerAddress(addr string) Option {
	return func(o *options) {
		o.peerAddr = addr
	}
}

// WithSeed fixes the game seed. The host draws a random one otherwise.
func WithSeed(seed deck.Seed) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithFirstDealer chooses who deals the first round. Only the host's
// choice matters.
func WithFirstDealer(s cribbage.Seat) Option {
	return func(o *options) {
		o.dealer = s
	}
}

// WithGameOptions sets the rules. Only the host's choice matters, the
// guest receives them with the seed.
func WithGameOptions(g cribbage.Options) Option {
	return func(o *options) {
		o.game = g
	}
}

// WithMugginsTimeout sets how long the session waits for a muggins answer
// before accepting the declared score. Zero disables the timer.
func WithMugginsTimeout(d time.Duration) Option {
	return func(o *options) {
		o.mugginsTimeout = d
	}
}

// WithMaxSyncAttempts sets how many reconciliations a round may need
// before it is abandoned.
func WithMaxSyncAttempts(n int) Option {
	return func(o *options) {
		o.maxSyncAttempts = n
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		o.sendTimeout = d
	}
}
