package ports

import "github.com/vncsmyrnk/livepoll/internal/core/domain"

type Publisher interface {
	Publish(poll *domain.Poll)
}

// Subscription is a live feed of snapshots for one poll. Updates is closed
// when the subscription ends; Err then tells why (nil after Close).
type Subscription interface {
	ID() string
	PollID() int64
	Updates() <-chan *domain.Poll
	Err() error
	Close()
}

type Broadcaster interface {
	Publisher
	Subscribe(pollID int64) Subscription
}
