package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

// PollService is the facade the transport layer talks to. Reads go straight
// to the repository, mutations through the ledger and live streams through
// the broadcaster.
type PollService struct {
	repo        ports.PollRepository
	ledger      ports.VoteLedger
	broadcaster ports.Broadcaster
	clock       ports.Clock
	logger      *slog.Logger
	validate    *validator.Validate
}

var _ ports.PollService = (*PollService)(nil)

func NewPollService(repo ports.PollRepository, ledger ports.VoteLedger, broadcaster ports.Broadcaster, opts ...Option) *PollService {
	o := buildOptions(opts)
	return &PollService{
		repo:        repo,
		ledger:      ledger,
		broadcaster: broadcaster,
		clock:       o.clock,
		logger:      o.logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *PollService) CreatePoll(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Creator = strings.TrimSpace(input.Creator)
	options := make([]string, len(input.Options))
	for i, text := range input.Options {
		options[i] = strings.TrimSpace(text)
	}
	input.Options = options

	if err := s.validate.StructCtx(ctx, input); err != nil {
		return nil, validationError(err)
	}

	now := s.clock.Now()
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiration date must be in the future", domain.ErrInvalidPoll)
	}

	poll := &domain.Poll{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Creator:     input.Creator,
		CreatedAt:   now,
		Status:      domain.StatusActive,
		UsersVoted:  []string{},
	}
	if input.ExpiresAt != nil {
		expires := input.ExpiresAt.UTC()
		poll.ExpiresAt = &expires
	}
	for i, text := range input.Options {
		poll.Options = append(poll.Options, domain.PollOption{
			ID:   int64(i + 1),
			Text: text,
		})
	}

	created, err := s.repo.Create(ctx, poll)
	if err != nil {
		return nil, err
	}

	s.logger.Info("poll created",
		"event", "poll_created",
		"poll_id", created.ID,
		"user_id", created.Creator,
		"options", len(created.Options),
	)
	return created, nil
}

func (s *PollService) GetPoll(ctx context.Context, id int64) (*domain.Poll, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidPollID
	}
	return s.repo.Get(ctx, id)
}

func (s *PollService) ListPolls(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	if input.Status != "" && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidPoll, input.Status)
	}
	return s.repo.List(ctx, ports.PollFilter{
		Creator: strings.TrimSpace(input.Creator),
		Status:  input.Status,
	})
}

func (s *PollService) Results(ctx context.Context, id int64) (domain.Snapshot, error) {
	poll, err := s.GetPoll(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Aggregate(poll), nil
}

func (s *PollService) HasVoted(ctx context.Context, id int64, userID string) (bool, error) {
	poll, err := s.GetPoll(ctx, id)
	if err != nil {
		return false, err
	}
	return poll.HasVoted(userID), nil
}

func (s *PollService) Vote(ctx context.Context, input ports.VoteInput) (*domain.Poll, error) {
	return s.ledger.CastVote(ctx, input.PollID, input.UserID, input.OptionID)
}

func (s *PollService) ClosePoll(ctx context.Context, id int64, requesterID string) (*domain.Poll, error) {
	return s.ledger.Close(ctx, id, requesterID)
}

func (s *PollService) ResetPoll(ctx context.Context, id int64, requesterID string) (*domain.Poll, error) {
	return s.ledger.Reset(ctx, id, requesterID)
}

func (s *PollService) Subscribe(ctx context.Context, id int64) (ports.Subscription, *domain.Poll, error) {
	if id <= 0 {
		return nil, nil, domain.ErrInvalidPollID
	}

	sub := s.broadcaster.Subscribe(id)
	poll, err := s.repo.Get(ctx, id)
	if err != nil {
		sub.Close()
		return nil, nil, err
	}
	return sub, poll, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPoll, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeField(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidPoll, strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("at least %s %s are required", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
