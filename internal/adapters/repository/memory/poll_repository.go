package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

// PollRepository keeps polls in process memory. Stored polls are never handed
// out directly; every read and write goes through a clone.
type PollRepository struct {
	mu     sync.RWMutex
	polls  map[int64]*domain.Poll
	nextID int64
}

func NewPollRepository() *PollRepository {
	return &PollRepository{
		polls:  make(map[int64]*domain.Poll),
		nextID: 1,
	}
}

var _ ports.PollRepository = (*PollRepository)(nil)

func (r *PollRepository) Create(_ context.Context, poll *domain.Poll) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := poll.Clone()
	if stored.ID == 0 {
		for r.polls[r.nextID] != nil {
			r.nextID++
		}
		stored.ID = r.nextID
		r.nextID++
	} else if _, exists := r.polls[stored.ID]; exists {
		return nil, domain.ErrPollExists
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.UsersVoted == nil {
		stored.UsersVoted = []string{}
	}
	stored.Version = 1

	r.polls[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *PollRepository) Get(_ context.Context, id int64) (*domain.Poll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	poll, ok := r.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return poll.Clone(), nil
}

func (r *PollRepository) Save(_ context.Context, poll *domain.Poll) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.polls[poll.ID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	if current.Version != poll.Version {
		return nil, domain.ErrConflict
	}

	stored := poll.Clone()
	stored.Version = current.Version + 1
	r.polls[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *PollRepository) List(_ context.Context, filter ports.PollFilter) ([]*domain.Poll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	polls := make([]*domain.Poll, 0, len(r.polls))
	for _, p := range r.polls {
		if !matches(p, filter) {
			continue
		}
		polls = append(polls, p.Clone())
	}
	slices.SortFunc(polls, func(a, b *domain.Poll) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return polls, nil
}

func matches(p *domain.Poll, filter ports.PollFilter) bool {
	if filter.Creator != "" && p.Creator != filter.Creator {
		return false
	}
	if filter.Status != "" && p.Status != filter.Status {
		return false
	}
	if filter.ExpiresBy != nil {
		if p.ExpiresAt == nil || p.ExpiresAt.After(*filter.ExpiresBy) {
			return false
		}
	}
	return true
}
