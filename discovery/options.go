package discovery

import (
	"log/slog"
	"time"

	"github.com/luca-patrignani/cribbage/internal/logging"
)

const (
	DefaultStartPort = 9000
	DefaultEndPort   = 9010
	DefaultAttempts  = 1
	DefaultInterval  = time.Second
)

type options struct {
	logger     *slog.Logger
	startPort  uint16
	endPort    uint16
	listenHost string
	scanHost   string
	attempts   uint
	interval   time.Duration
	timeout    time.Duration
}

type Option func(options) options

func newOptions(opts []Option) options {
	o := options{
		logger:    logging.NewNop(),
		startPort: DefaultStartPort,
		endPort:   DefaultEndPort,
		scanHost:  "localhost",
		attempts:  DefaultAttempts,
		interval:  DefaultInterval,
		timeout:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		o = opt(o)
	}
	return o
}

func WithLogger(l *slog.Logger) Option {
	return func(o options) options {
		if l != nil {
			o.logger = l
		}
		return o
	}
}

func WithPortRange(startPort, endPort uint16) Option {
	return func(o options) options {
		o.startPort = startPort
		o.endPort = endPort
		return o
	}
}

func WithPort(port uint16) Option {
	return WithPortRange(port, port)
}

// WithListenHost sets the interface the room is advertised on. Empty
// means all interfaces.
func WithListenHost(host string) Option {
	return func(o options) options {
		o.listenHost = host
		return o
	}
}

// WithScanHost sets the machine Find looks for rooms on.
func WithScanHost(host string) Option {
	return func(o options) options {
		o.scanHost = host
		return o
	}
}

// WithAttempts sets how many times Find scans the whole range.
func WithAttempts(attempts uint) Option {
	return func(o options) options {
		o.attempts = attempts
		return o
	}
}

// WithInterval is the pause between two scans.
func WithInterval(d time.Duration) Option {
	return func(o options) options {
		o.interval = d
		return o
	}
}

// WithTimeout bounds the request to a single port.
func WithTimeout(d time.Duration) Option {
	return func(o options) options {
		o.timeout = d
		return o
	}
}
