package domain

import (
	"slices"
	"time"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
	StatusExpired Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusClosed, StatusExpired:
		return true
	}
	return false
}

type Poll struct {
	ID          int64        `json:"poll_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Creator     string       `json:"creator"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   *time.Time   `json:"expiration_date,omitempty"`
	Status      Status       `json:"status"`
	Options     []PollOption `json:"options"`
	UsersVoted  []string     `json:"users_voted"`
	// Version is bumped by the repository on every committed Save.
	Version int64 `json:"version"`
}

type PollOption struct {
	ID    int64  `json:"option_id"`
	Text  string `json:"text"`
	Votes int64  `json:"votes"`
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (p *Poll) Clone() *Poll {
	c := *p
	c.Options = slices.Clone(p.Options)
	c.UsersVoted = slices.Clone(p.UsersVoted)
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (p *Poll) HasVoted(userID string) bool {
	return slices.Contains(p.UsersVoted, userID)
}

func (p *Poll) Option(optionID int64) (int, bool) {
	for i, opt := range p.Options {
		if opt.ID == optionID {
			return i, true
		}
	}
	return -1, false
}

// PastExpiration reports whether now is at or after the expiration date.
func (p *Poll) PastExpiration(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// CheckVotable returns the state error that prevents a vote at now, if any.
func (p *Poll) CheckVotable(now time.Time) error {
	switch p.Status {
	case StatusClosed:
		return ErrPollClosed
	case StatusExpired:
		return ErrPollExpired
	}
	if p.PastExpiration(now) {
		return ErrPollExpired
	}
	return nil
}

func (p *Poll) TotalVotes() int64 {
	var total int64
	for _, opt := range p.Options {
		total += opt.Votes
	}
	return total
}

// Consistent reports whether the tallies match the recorded voters.
func (p *Poll) Consistent() bool {
	return p.TotalVotes() == int64(len(p.UsersVoted))
}

func (p *Poll) IsOwnedBy(userID string) bool {
	return userID != "" && p.Creator == userID
}
