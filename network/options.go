package network

import (
	"log/slog"
	"time"

	"github.com/luca-patrignani/cribbage/internal/logging"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = 2 * time.Second
	DefaultTimeout  = 10 * time.Second
)

type options struct {
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

// Option configures a channel.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		logger:   logging.NewNop(),
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
		timeout:  DefaultTimeout,
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

// WithRetry sets how many times connecting and sending are attempted and
// the pause between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		o.attempts = attempts
		o.backoff = backoff
	}
}

// WithTimeout bounds a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}
