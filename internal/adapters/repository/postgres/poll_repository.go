package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

const (
	uniqueViolation = "23505"

	// createAttempts bounds how often an auto-numbered insert redraws an id
	// that a caller-assigned poll already took.
	createAttempts = 5
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

// Create inserts poll. An explicit id may sit ahead of the serial, so an
// auto-numbered insert that collides with it retries with the next value.
func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	for attempt := 1; ; attempt++ {
		created, err := r.insert(ctx, poll)
		if errors.Is(err, domain.ErrPollExists) && poll.ID == 0 && attempt < createAttempts {
			continue
		}
		return created, err
	}
}

func (r *pollRepository) insert(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := poll.Clone()
	if created.UsersVoted == nil {
		created.UsersVoted = []string{}
	}

	var expiresAt sql.NullTime
	if created.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *created.ExpiresAt, Valid: true}
	}

	if created.ID == 0 {
		queryPoll := `
			INSERT INTO polls (title, description, creator, status, created_at, expires_at, users_voted)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, version
		`
		err = tx.QueryRowContext(ctx, queryPoll,
			created.Title, created.Description, created.Creator, created.Status,
			created.CreatedAt, expiresAt, pq.Array(created.UsersVoted),
		).Scan(&created.ID, &created.Version)
	} else {
		queryPoll := `
			INSERT INTO polls (id, title, description, creator, status, created_at, expires_at, users_voted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING version
		`
		err = tx.QueryRowContext(ctx, queryPoll,
			created.ID, created.Title, created.Description, created.Creator, created.Status,
			created.CreatedAt, expiresAt, pq.Array(created.UsersVoted),
		).Scan(&created.Version)
		if err == nil {
			// keep the serial ahead of caller-assigned ids
			_, err = tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('polls', 'id'), (SELECT MAX(id) FROM polls))`)
		}
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrPollExists
		}
		return nil, fmt.Errorf("failed to insert poll: %w", err)
	}

	queryOption := `
		INSERT INTO poll_options (poll_id, id, position, text, votes)
		VALUES ($1, $2, $3, $4, $5)
	`
	stmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare option statement: %w", err)
	}
	defer stmt.Close()

	for i, opt := range created.Options {
		_, err = stmt.ExecContext(ctx, created.ID, opt.ID, i, opt.Text, opt.Votes)
		if err != nil {
			return nil, fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// readTx opens a snapshot so a poll row and its options come from the same
// committed state.
func (r *pollRepository) readTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	return tx, nil
}

func (r *pollRepository) Get(ctx context.Context, id int64) (*domain.Poll, error) {
	tx, err := r.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	queryPoll := `
		SELECT id, title, description, creator, status, created_at, expires_at, users_voted, version
		FROM polls
		WHERE id = $1
	`

	poll, err := scanPoll(tx.QueryRowContext(ctx, queryPoll, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	options, err := fetchOptions(ctx, tx, poll.ID)
	if err != nil {
		return nil, err
	}
	poll.Options = options[poll.ID]

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}
	return poll, nil
}

// Save writes the mutable state of poll only if the stored version still
// equals poll.Version. A concurrent writer holding the row lock makes this
// UPDATE wait and then match zero rows, which surfaces as domain.ErrConflict.
func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) (*domain.Poll, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	usersVoted := poll.UsersVoted
	if usersVoted == nil {
		usersVoted = []string{}
	}

	queryPoll := `
		UPDATE polls
		SET status = $1, users_voted = $2, version = version + 1
		WHERE id = $3 AND version = $4
	`
	res, err := tx.ExecContext(ctx, queryPoll, poll.Status, pq.Array(usersVoted), poll.ID, poll.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update poll: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update poll: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, poll.ID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check poll: %w", err)
		}
		if !exists {
			return nil, domain.ErrPollNotFound
		}
		return nil, domain.ErrConflict
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE poll_options SET votes = $1 WHERE poll_id = $2 AND id = $3`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare option statement: %w", err)
	}
	defer stmt.Close()

	for _, opt := range poll.Options {
		if _, err := stmt.ExecContext(ctx, opt.Votes, poll.ID, opt.ID); err != nil {
			return nil, fmt.Errorf("failed to update option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	saved := poll.Clone()
	saved.UsersVoted = usersVoted
	saved.Version = poll.Version + 1
	return saved, nil
}

func (r *pollRepository) List(ctx context.Context, filter ports.PollFilter) ([]*domain.Poll, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Creator != "" {
		args = append(args, filter.Creator)
		conds = append(conds, fmt.Sprintf("creator = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ExpiresBy != nil {
		args = append(args, *filter.ExpiresBy)
		conds = append(conds, fmt.Sprintf("expires_at <= $%d", len(args)))
	}

	query := `
		SELECT id, title, description, creator, status, created_at, expires_at, users_voted, version
		FROM polls
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	tx, err := r.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var (
		polls []*domain.Poll
		ids   []int64
	)
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
		ids = append(ids, poll.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	rows.Close()
	if len(polls) == 0 {
		return []*domain.Poll{}, nil
	}

	options, err := fetchOptions(ctx, tx, ids...)
	if err != nil {
		return nil, err
	}
	for _, poll := range polls {
		poll.Options = options[poll.ID]
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}
	return polls, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var (
		poll      domain.Poll
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.Creator, &poll.Status,
		&poll.CreatedAt, &expiresAt, pq.Array(&poll.UsersVoted), &poll.Version,
	)
	if err != nil {
		return nil, err
	}

	poll.CreatedAt = poll.CreatedAt.UTC()
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		poll.ExpiresAt = &t
	}
	if poll.UsersVoted == nil {
		poll.UsersVoted = []string{}
	}
	return &poll, nil
}

func fetchOptions(ctx context.Context, q querier, pollIDs ...int64) (map[int64][]domain.PollOption, error) {
	queryOptions := `
		SELECT poll_id, id, text, votes
		FROM poll_options
		WHERE poll_id = ANY($1)
		ORDER BY poll_id, position
	`
	rows, err := q.QueryContext(ctx, queryOptions, pq.Array(pollIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get poll options: %w", err)
	}
	defer rows.Close()

	options := make(map[int64][]domain.PollOption, len(pollIDs))
	for rows.Next() {
		var (
			pollID int64
			opt    domain.PollOption
		)
		if err := rows.Scan(&pollID, &opt.ID, &opt.Text, &opt.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options[pollID] = append(options[pollID], opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return options, nil
}
