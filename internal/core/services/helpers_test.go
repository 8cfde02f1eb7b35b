package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livepoll/internal/adapters/broadcast"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// conflictingRepo loses every compare-and-swap.
type conflictingRepo struct {
	ports.PollRepository
	saves int
}

func (r *conflictingRepo) Save(context.Context, *domain.Poll) (*domain.Poll, error) {
	r.saves++
	return nil, domain.ErrConflict
}

type testEnv struct {
	repo        *memory.PollRepository
	broadcaster *broadcast.Broadcaster
	ledger      *VoteLedger
	service     *PollService
	clock       *fakeClock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	clock := newFakeClock()
	repo := memory.NewPollRepository()
	b := broadcast.New(broadcast.WithBufferSize(64))
	t.Cleanup(b.Close)

	opts = append([]Option{WithClock(clock)}, opts...)
	ledger := NewVoteLedger(repo, b, opts...)
	return &testEnv{
		repo:        repo,
		broadcaster: b,
		ledger:      ledger,
		service:     NewPollService(repo, ledger, b, opts...),
		clock:       clock,
	}
}

func (e *testEnv) createPoll(t *testing.T, creator string, expiresIn time.Duration) *domain.Poll {
	t.Helper()
	input := ports.CreatePollInput{
		Title:   "Best editor",
		Options: []string{"vim", "emacs", "nano"},
		Creator: creator,
	}
	if expiresIn > 0 {
		expires := e.clock.Now().Add(expiresIn)
		input.ExpiresAt = &expires
	}
	poll, err := e.service.CreatePoll(context.Background(), input)
	require.NoError(t, err)
	return poll
}

func requireConsistent(t *testing.T, p *domain.Poll) {
	t.Helper()
	require.Truef(t, p.Consistent(), "tally %d does not match %d voters", p.TotalVotes(), len(p.UsersVoted))
}
