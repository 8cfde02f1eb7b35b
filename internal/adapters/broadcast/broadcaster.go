package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/metrics"
)

const DefaultBufferSize = 16

// Broadcaster fans poll snapshots out to live subscribers. Sends never block:
// a subscriber whose queue is full is dropped and its stream ends with
// domain.ErrSlowConsumer.
//
// Publishing happens under a single lock, and a snapshot whose version is not
// newer than the last one published for its poll is discarded, so every
// subscriber sees a poll's snapshots in commit order.
type Broadcaster struct {
	mu          sync.Mutex
	topics      map[int64]map[string]*Subscription
	lastVersion map[int64]int64
	bufferSize  int
	closed      bool
	logger      *slog.Logger
}

type Option func(*Broadcaster)

func WithBufferSize(size int) Option {
	return func(b *Broadcaster) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Broadcaster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func New(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		topics:      make(map[int64]map[string]*Subscription),
		lastVersion: make(map[int64]int64),
		bufferSize:  DefaultBufferSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broadcaster) Subscribe(pollID int64) ports.Subscription {
	sub := &Subscription{
		id:          uuid.NewString(),
		pollID:      pollID,
		ch:          make(chan *domain.Poll, b.bufferSize),
		broadcaster: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.closed = true
		sub.err = domain.ErrBroadcasterClosed
		close(sub.ch)
		return sub
	}

	topic, ok := b.topics[pollID]
	if !ok {
		topic = make(map[string]*Subscription)
		b.topics[pollID] = topic
	}
	topic[sub.id] = sub
	metrics.AddSubscribers(1)

	b.logger.Debug("live subscriber added",
		"event", "broadcast_subscribe",
		"poll_id", pollID,
		"subscription_id", sub.id,
	)
	return sub
}

// Publish hands a snapshot of poll to every current subscriber of poll.ID.
// Subscribers share the snapshot and must treat it as read-only.
func (b *Broadcaster) Publish(poll *domain.Poll) {
	if poll == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if last, ok := b.lastVersion[poll.ID]; ok && poll.Version <= last {
		b.logger.Debug("stale snapshot discarded",
			"event", "broadcast_stale",
			"poll_id", poll.ID,
			"version", poll.Version,
			"last_version", last,
		)
		return
	}
	b.lastVersion[poll.ID] = poll.Version
	metrics.IncPublished()

	topic := b.topics[poll.ID]
	if len(topic) == 0 {
		return
	}

	snapshot := poll.Clone()
	for _, sub := range topic {
		select {
		case sub.ch <- snapshot:
		default:
			b.removeLocked(sub, domain.ErrSlowConsumer)
			metrics.IncDropped()
			b.logger.Warn("dropping slow live subscriber",
				"event", "broadcast_drop",
				"poll_id", poll.ID,
				"subscription_id", sub.id,
			)
		}
	}
}

func (b *Broadcaster) Subscribers(pollID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[pollID])
}

// Close ends every subscription with domain.ErrBroadcasterClosed and rejects
// further subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, topic := range b.topics {
		for _, sub := range topic {
			b.removeLocked(sub, domain.ErrBroadcasterClosed)
		}
	}
}

func (b *Broadcaster) removeLocked(sub *Subscription, err error) {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.err = err
	close(sub.ch)

	topic := b.topics[sub.pollID]
	delete(topic, sub.id)
	if len(topic) == 0 {
		delete(b.topics, sub.pollID)
	}
	metrics.AddSubscribers(-1)
}

type Subscription struct {
	id          string
	pollID      int64
	ch          chan *domain.Poll
	broadcaster *Broadcaster

	// guarded by broadcaster.mu
	closed bool
	err    error
}

func (s *Subscription) ID() string { return s.id }

func (s *Subscription) PollID() int64 { return s.pollID }

func (s *Subscription) Updates() <-chan *domain.Poll { return s.ch }

func (s *Subscription) Err() error {
	s.broadcaster.mu.Lock()
	defer s.broadcaster.mu.Unlock()
	return s.err
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.broadcaster.mu.Lock()
	defer s.broadcaster.mu.Unlock()
	s.broadcaster.removeLocked(s, nil)
}
