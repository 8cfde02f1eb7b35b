package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

type PollFilter struct {
	Creator string
	Status  domain.Status
	// ExpiresBy keeps only polls whose expiration date is at or before it.
	ExpiresBy *time.Time
}

// PollRepository stores Poll aggregates. Save is a compare-and-swap on
// poll.Version: it fails with domain.ErrConflict when the stored version has
// moved on, and returns the committed poll carrying the new version.
type PollRepository interface {
	Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error)
	Get(ctx context.Context, id int64) (*domain.Poll, error)
	Save(ctx context.Context, poll *domain.Poll) (*domain.Poll, error)
	List(ctx context.Context, filter PollFilter) ([]*domain.Poll, error)
}

type CreatePollInput struct {
	// ID is optional; zero lets the repository assign one.
	ID          int64      `validate:"gte=0"`
	Title       string     `validate:"required,max=200"`
	Description string     `validate:"max=2000"`
	Options     []string   `validate:"min=2,max=20,dive,required,max=200"`
	ExpiresAt   *time.Time `validate:"omitempty"`
	Creator     string     `validate:"required"`
}

type ListPollsInput struct {
	Creator string
	Status  domain.Status
}

type VoteInput struct {
	PollID   int64
	OptionID int64
	UserID   string
}

type PollService interface {
	CreatePoll(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id int64) (*domain.Poll, error)
	ListPolls(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
	Results(ctx context.Context, id int64) (domain.Snapshot, error)
	HasVoted(ctx context.Context, id int64, userID string) (bool, error)
	Vote(ctx context.Context, input VoteInput) (*domain.Poll, error)
	ClosePoll(ctx context.Context, id int64, requesterID string) (*domain.Poll, error)
	ResetPoll(ctx context.Context, id int64, requesterID string) (*domain.Poll, error)
	// Subscribe registers for live updates first and then reads the baseline,
	// so no committed mutation can fall between the two.
	Subscribe(ctx context.Context, id int64) (Subscription, *domain.Poll, error)
}
