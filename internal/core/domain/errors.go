package domain

import "errors"

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrPollExists    = errors.New("poll id already in use")
	ErrInvalidPollID = errors.New("invalid poll id")
	ErrInvalidPoll   = errors.New("invalid poll")
	ErrInvalidOption = errors.New("invalid option for this poll")
	ErrAlreadyVoted  = errors.New("user has already voted")
	ErrPollClosed    = errors.New("poll is closed")
	ErrPollExpired   = errors.New("poll has expired")
	ErrUnauthorized  = errors.New("requester is not allowed to manage this poll")
	ErrConflict      = errors.New("concurrent modification")
	ErrUnavailable   = errors.New("poll is busy, try again")

	ErrSlowConsumer      = errors.New("subscriber could not keep up")
	ErrBroadcasterClosed = errors.New("broadcaster closed")
)
