package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

func TestCreatePollValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	past := env.clock.Now().Add(-time.Second)

	tests := []struct {
		name  string
		input ports.CreatePollInput
		msg   string
	}{
		{
			name:  "missing title",
			input: ports.CreatePollInput{Title: "  ", Options: []string{"a", "b"}, Creator: "alice"},
			msg:   "title is required",
		},
		{
			name:  "single option",
			input: ports.CreatePollInput{Title: "Q", Options: []string{"a"}, Creator: "alice"},
			msg:   "at least 2 options are required",
		},
		{
			name:  "blank option",
			input: ports.CreatePollInput{Title: "Q", Options: []string{"a", " "}, Creator: "alice"},
			msg:   "is required",
		},
		{
			name:  "missing creator",
			input: ports.CreatePollInput{Title: "Q", Options: []string{"a", "b"}},
			msg:   "creator is required",
		},
		{
			name:  "expiration in the past",
			input: ports.CreatePollInput{Title: "Q", Options: []string{"a", "b"}, Creator: "alice", ExpiresAt: &past},
			msg:   "expiration date must be in the future",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.CreatePoll(ctx, tt.input)
			require.ErrorIs(t, err, domain.ErrInvalidPoll)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	all, err := env.service.ListPolls(ctx, ports.ListPollsInput{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreatePoll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	expires := env.clock.Now().Add(time.Hour)

	poll, err := env.service.CreatePoll(ctx, ports.CreatePollInput{
		Title:       " Release name ",
		Description: "Pick one",
		Options:     []string{"Aurora", " Borealis "},
		ExpiresAt:   &expires,
		Creator:     "alice",
	})
	require.NoError(t, err)

	assert.NotZero(t, poll.ID)
	assert.Equal(t, "Release name", poll.Title)
	assert.Equal(t, domain.StatusActive, poll.Status)
	assert.Equal(t, env.clock.Now(), poll.CreatedAt)
	assert.Empty(t, poll.UsersVoted)
	require.Len(t, poll.Options, 2)
	assert.Equal(t, domain.PollOption{ID: 1, Text: "Aurora"}, poll.Options[0])
	assert.Equal(t, domain.PollOption{ID: 2, Text: "Borealis"}, poll.Options[1])

	fetched, err := env.service.GetPoll(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, poll, fetched)
}

func TestCreatePollLeavesInputUntouched(t *testing.T) {
	env := newTestEnv(t)
	options := []string{" vim ", "emacs "}

	poll, err := env.service.CreatePoll(context.Background(), ports.CreatePollInput{
		Title:   "Editor",
		Options: options,
		Creator: "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{" vim ", "emacs "}, options)
	assert.Equal(t, "vim", poll.Options[0].Text)
	assert.Equal(t, "emacs", poll.Options[1].Text)
}

func TestCreatePollWithCallerAssignedID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := ports.CreatePollInput{ID: 42, Title: "Q", Options: []string{"a", "b"}, Creator: "alice"}

	poll, err := env.service.CreatePoll(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, int64(42), poll.ID)

	_, err = env.service.CreatePoll(ctx, input)
	assert.ErrorIs(t, err, domain.ErrPollExists)
}

func TestGetAndListPolls(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.GetPoll(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidPollID)
	_, err = env.service.GetPoll(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)

	first := env.createPoll(t, "alice", 0)
	env.createPoll(t, "bob", 0)
	_, err = env.service.ClosePoll(ctx, first.ID, "alice")
	require.NoError(t, err)

	byAlice, err := env.service.ListPolls(ctx, ports.ListPollsInput{Creator: "alice"})
	require.NoError(t, err)
	require.Len(t, byAlice, 1)
	assert.Equal(t, first.ID, byAlice[0].ID)

	active, err := env.service.ListPolls(ctx, ports.ListPollsInput{Status: domain.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "bob", active[0].Creator)

	_, err = env.service.ListPolls(ctx, ports.ListPollsInput{Status: "paused"})
	assert.ErrorIs(t, err, domain.ErrInvalidPoll)
}

func TestResultsAndHasVoted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	poll := env.createPoll(t, "alice", 0)

	for _, user := range []string{"u1", "u2", "u3"} {
		_, err := env.service.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: 1, UserID: user})
		require.NoError(t, err)
	}
	_, err := env.service.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: 2, UserID: "u4"})
	require.NoError(t, err)

	snap, err := env.service.Results(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.TotalVotes)
	assert.Equal(t, 75, snap.Results[0].Percentage)
	assert.Equal(t, 25, snap.Results[1].Percentage)
	assert.Equal(t, 0, snap.Results[2].Percentage)

	voted, err := env.service.HasVoted(ctx, poll.ID, "u4")
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = env.service.HasVoted(ctx, poll.ID, "u5")
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestSubscribeDeliversEachCommittedVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	poll := env.createPoll(t, "alice", 0)

	sub, baseline, err := env.service.Subscribe(ctx, poll.ID)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, poll.Version, baseline.Version)

	voted, err := env.service.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: 3, UserID: "bob"})
	require.NoError(t, err)

	select {
	case got := <-sub.Updates():
		assert.Equal(t, voted.Version, got.Version)
		assert.Equal(t, int64(1), got.Options[2].Votes)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	select {
	case got := <-sub.Updates():
		t.Fatalf("expected exactly one snapshot, got another with version %d", got.Version)
	default:
	}
}

func TestSubscribeUnknownPoll(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.service.Subscribe(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
	assert.Zero(t, env.broadcaster.Subscribers(5))
}
