package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	pollsCollection    = "polls"
	countersCollection = "counters"
	pollCounterID      = "poll_id"

	// createAttempts bounds how often an auto-numbered insert draws a fresh
	// id after landing on one a caller-assigned poll already holds.
	createAttempts = 5
)

type pollDocument struct {
	ID          int64            `bson:"poll_id"`
	Title       string           `bson:"title"`
	Description string           `bson:"description"`
	Creator     string           `bson:"creator"`
	CreatedAt   time.Time        `bson:"created_at"`
	ExpiresAt   *time.Time       `bson:"expiration_date,omitempty"`
	Status      string           `bson:"status"`
	Options     []optionDocument `bson:"options"`
	UsersVoted  []string         `bson:"users_voted"`
	Version     int64            `bson:"version"`
}

type optionDocument struct {
	ID    int64  `bson:"option_id"`
	Text  string `bson:"text"`
	Votes int64  `bson:"votes"`
}

type counterDocument struct {
	Seq int64 `bson:"seq"`
}

// PollRepository stores each poll as one document. A document update is
// atomic, so Save's compare-and-swap is a single UpdateOne filtered on the
// expected version.
type PollRepository struct {
	polls    *mongo.Collection
	counters *mongo.Collection
}

var _ ports.PollRepository = (*PollRepository)(nil)

func NewPollRepository(db *mongo.Database) *PollRepository {
	return &PollRepository{
		polls:    db.Collection(pollsCollection),
		counters: db.Collection(countersCollection),
	}
}

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}
	return client, nil
}

func (r *PollRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.polls.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "poll_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "creator", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiration_date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create poll indexes: %w", err)
	}
	return nil
}

func (r *PollRepository) Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	created := poll.Clone()
	if created.UsersVoted == nil {
		created.UsersVoted = []string{}
	}
	created.Version = 1

	for attempt := 1; ; attempt++ {
		if poll.ID == 0 {
			id, err := r.nextID(ctx)
			if err != nil {
				return nil, err
			}
			created.ID = id
		}

		_, err := r.polls.InsertOne(ctx, toDocument(created))
		if err == nil {
			break
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to insert poll: %w", err)
		}
		if poll.ID != 0 || attempt >= createAttempts {
			return nil, domain.ErrPollExists
		}
	}

	if poll.ID != 0 {
		// keep the counter ahead of caller-assigned ids
		_, err := r.counters.UpdateOne(ctx,
			bson.M{"_id": pollCounterID},
			bson.M{"$max": bson.M{"seq": created.ID}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to advance poll counter: %w", err)
		}
	}

	return created, nil
}

func (r *PollRepository) Get(ctx context.Context, id int64) (*domain.Poll, error) {
	var doc pollDocument
	err := r.polls.FindOne(ctx, bson.M{"poll_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return fromDocument(doc), nil
}

func (r *PollRepository) Save(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	doc := toDocument(poll)
	res, err := r.polls.UpdateOne(ctx,
		bson.M{"poll_id": poll.ID, "version": poll.Version},
		bson.M{
			"$set": bson.M{
				"status":      doc.Status,
				"options":     doc.Options,
				"users_voted": doc.UsersVoted,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update poll: %w", err)
	}

	if res.MatchedCount == 0 {
		n, err := r.polls.CountDocuments(ctx, bson.M{"poll_id": poll.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to check poll: %w", err)
		}
		if n == 0 {
			return nil, domain.ErrPollNotFound
		}
		return nil, domain.ErrConflict
	}

	saved := fromDocument(doc)
	saved.Version = poll.Version + 1
	return saved, nil
}

func (r *PollRepository) List(ctx context.Context, filter ports.PollFilter) ([]*domain.Poll, error) {
	query := bson.M{}
	if filter.Creator != "" {
		query["creator"] = filter.Creator
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.ExpiresBy != nil {
		query["expiration_date"] = bson.M{"$lte": *filter.ExpiresBy}
	}

	cursor, err := r.polls.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "poll_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	var docs []pollDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode polls: %w", err)
	}

	polls := make([]*domain.Poll, 0, len(docs))
	for _, doc := range docs {
		polls = append(polls, fromDocument(doc))
	}
	return polls, nil
}

func (r *PollRepository) nextID(ctx context.Context) (int64, error) {
	var counter counterDocument
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": pollCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate poll id: %w", err)
	}
	return counter.Seq, nil
}

func toDocument(p *domain.Poll) pollDocument {
	doc := pollDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Creator:     p.Creator,
		CreatedAt:   p.CreatedAt,
		ExpiresAt:   p.ExpiresAt,
		Status:      string(p.Status),
		Options:     make([]optionDocument, 0, len(p.Options)),
		UsersVoted:  p.UsersVoted,
		Version:     p.Version,
	}
	if doc.UsersVoted == nil {
		doc.UsersVoted = []string{}
	}
	for _, opt := range p.Options {
		doc.Options = append(doc.Options, optionDocument{ID: opt.ID, Text: opt.Text, Votes: opt.Votes})
	}
	return doc
}

func fromDocument(doc pollDocument) *domain.Poll {
	p := &domain.Poll{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Creator:     doc.Creator,
		CreatedAt:   doc.CreatedAt.UTC(),
		Status:      domain.Status(doc.Status),
		Options:     make([]domain.PollOption, 0, len(doc.Options)),
		UsersVoted:  doc.UsersVoted,
		Version:     doc.Version,
	}
	if doc.ExpiresAt != nil {
		t := doc.ExpiresAt.UTC()
		p.ExpiresAt = &t
	}
	if p.UsersVoted == nil {
		p.UsersVoted = []string{}
	}
	for _, opt := range doc.Options {
		p.Options = append(p.Options, domain.PollOption{ID: opt.ID, Text: opt.Text, Votes: opt.Votes})
	}
	return p
}
