package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// VoteLedger is the only writer of a poll's tallies, voters and status.
type VoteLedger interface {
	CastVote(ctx context.Context, pollID int64, userID string, optionID int64) (*domain.Poll, error)
	Close(ctx context.Context, pollID int64, requesterID string) (*domain.Poll, error)
	Reset(ctx context.Context, pollID int64, requesterID string) (*domain.Poll, error)
	// Expire moves an active poll past its expiration date to expired. It
	// reports false when the poll was not eligible.
	Expire(ctx context.Context, pollID int64) (*domain.Poll, bool, error)
}

type Clock interface {
	Now() time.Time
}
