package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/metrics"
)

// errNoChange lets a mutation report that the poll is already in the wanted
// state, so nothing is written or published.
var errNoChange = errors.New("no change")

// VoteLedger serializes mutations of a single poll with optimistic
// concurrency: read, check, mutate a copy, then compare-and-swap it back,
// retrying from a fresh read when another writer got there first.
type VoteLedger struct {
	repo      ports.PollRepository
	publisher ports.Publisher
	clock     ports.Clock
	logger    *slog.Logger
	attempts  int
	admins    map[string]struct{}
}

var _ ports.VoteLedger = (*VoteLedger)(nil)

func NewVoteLedger(repo ports.PollRepository, publisher ports.Publisher, opts ...Option) *VoteLedger {
	o := buildOptions(opts)
	return &VoteLedger{
		repo:      repo,
		publisher: publisher,
		clock:     o.clock,
		logger:    o.logger,
		attempts:  o.voteAttempts,
		admins:    o.admins,
	}
}

func (l *VoteLedger) CastVote(ctx context.Context, pollID int64, userID string, optionID int64) (*domain.Poll, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	poll, _, err := l.mutate(ctx, pollID, func(p *domain.Poll) error {
		if err := p.CheckVotable(l.clock.Now()); err != nil {
			return err
		}
		idx, ok := p.Option(optionID)
		if !ok {
			return domain.ErrInvalidOption
		}
		if p.HasVoted(userID) {
			return domain.ErrAlreadyVoted
		}
		p.UsersVoted = append(p.UsersVoted, userID)
		p.Options[idx].Votes++
		return nil
	})
	metrics.IncVote(voteResult(err))
	if err != nil {
		l.logger.Info("vote rejected",
			"event", "vote_rejected",
			"poll_id", pollID,
			"user_id", userID,
			"option_id", optionID,
			"error", err.Error(),
		)
		return nil, err
	}

	l.logger.Info("vote recorded",
		"event", "vote_recorded",
		"poll_id", pollID,
		"user_id", userID,
		"option_id", optionID,
		"version", poll.Version,
	)
	return poll, nil
}

// Close moves an active poll to closed. Closing a poll that is already closed
// or expired changes nothing.
func (l *VoteLedger) Close(ctx context.Context, pollID int64, requesterID string) (*domain.Poll, error) {
	poll, changed, err := l.mutate(ctx, pollID, func(p *domain.Poll) error {
		if !l.canManage(p, requesterID) {
			return domain.ErrUnauthorized
		}
		if p.Status != domain.StatusActive {
			return errNoChange
		}
		p.Status = domain.StatusClosed
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		l.logger.Info("poll closed", "event", "poll_closed", "poll_id", pollID, "user_id", requesterID)
	}
	return poll, nil
}

// Reset restarts a poll from scratch: no voters, zero tallies, active.
func (l *VoteLedger) Reset(ctx context.Context, pollID int64, requesterID string) (*domain.Poll, error) {
	poll, _, err := l.mutate(ctx, pollID, func(p *domain.Poll) error {
		if !l.canManage(p, requesterID) {
			return domain.ErrUnauthorized
		}
		p.UsersVoted = []string{}
		for i := range p.Options {
			p.Options[i].Votes = 0
		}
		p.Status = domain.StatusActive
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("poll reset", "event", "poll_reset", "poll_id", pollID, "user_id", requesterID)
	return poll, nil
}

func (l *VoteLedger) Expire(ctx context.Context, pollID int64) (*domain.Poll, bool, error) {
	return l.mutate(ctx, pollID, func(p *domain.Poll) error {
		if p.Status != domain.StatusActive || !p.PastExpiration(l.clock.Now()) {
			return errNoChange
		}
		p.Status = domain.StatusExpired
		return nil
	})
}

// mutate runs apply against a fresh copy of the poll and commits it with a
// compare-and-swap save. Committed snapshots are published before returning.
// The caller's cancellation is not propagated: a started mutation either
// commits or fails on its own.
func (l *VoteLedger) mutate(ctx context.Context, pollID int64, apply func(*domain.Poll) error) (*domain.Poll, bool, error) {
	if pollID <= 0 {
		return nil, false, domain.ErrInvalidPollID
	}
	ctx = context.WithoutCancel(ctx)

	var (
		result  *domain.Poll
		changed bool
	)
	operation := func() error {
		current, err := l.repo.Get(ctx, pollID)
		if err != nil {
			return backoff.Permanent(err)
		}

		next := current.Clone()
		if err := apply(next); err != nil {
			if errors.Is(err, errNoChange) {
				result, changed = current, false
				return nil
			}
			return backoff.Permanent(err)
		}

		saved, err := l.repo.Save(ctx, next)
		if errors.Is(err, domain.ErrConflict) {
			metrics.IncConflict()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		result, changed = saved, true
		return nil
	}

	err := backoff.Retry(operation, l.newBackOff())
	if errors.Is(err, domain.ErrConflict) {
		l.logger.Warn("poll mutation gave up after conflicts",
			"event", "ledger_conflict_exhausted",
			"poll_id", pollID,
			"attempts", l.attempts,
		)
		return nil, false, fmt.Errorf("%w: poll %d after %d attempts", domain.ErrUnavailable, pollID, l.attempts)
	}
	if err != nil {
		return nil, false, err
	}

	if changed && l.publisher != nil {
		l.publisher.Publish(result)
	}
	return result, changed, nil
}

func (l *VoteLedger) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 25 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(l.attempts-1))
}

func (l *VoteLedger) canManage(p *domain.Poll, requesterID string) bool {
	if p.IsOwnedBy(requesterID) {
		return true
	}
	_, ok := l.admins[requesterID]
	return ok
}

func voteResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, domain.ErrPollClosed):
		return "closed"
	case errors.Is(err, domain.ErrPollExpired):
		return "expired"
	case errors.Is(err, domain.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, domain.ErrPollNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
