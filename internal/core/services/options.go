package services

import (
	"log/slog"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

const (
	DefaultVoteAttempts     = 8
	DefaultSweepInterval    = 30 * time.Second
	DefaultSweepConcurrency = 4
)

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type options struct {
	clock            ports.Clock
	logger           *slog.Logger
	voteAttempts     int
	admins           map[string]struct{}
	sweepInterval    time.Duration
	sweepConcurrency int
}

type Option func(*options)

func WithClock(clock ports.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithVoteAttempts bounds how many times a mutation is tried when it keeps
// losing compare-and-swap races.
func WithVoteAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.voteAttempts = n
		}
	}
}

// WithAdmins lists user ids allowed to close or reset any poll.
func WithAdmins(userIDs ...string) Option {
	return func(o *options) {
		for _, id := range userIDs {
			if id != "" {
				o.admins[id] = struct{}{}
			}
		}
	}
}

func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

func WithSweepConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sweepConcurrency = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:            SystemClock{},
		logger:           slog.Default(),
		voteAttempts:     DefaultVoteAttempts,
		admins:           make(map[string]struct{}),
		sweepInterval:    DefaultSweepInterval,
		sweepConcurrency: DefaultSweepConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
