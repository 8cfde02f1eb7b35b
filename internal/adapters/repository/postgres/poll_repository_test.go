package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, connStr, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migrations are idempotent")
	return db
}

func samplePoll(creator string) *domain.Poll {
	return &domain.Poll{
		Title:       "Team lunch",
		Description: "Friday",
		Creator:     creator,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		Status:      domain.StatusActive,
		Options: []domain.PollOption{
			{ID: 1, Text: "Tacos"},
			{ID: 2, Text: "Ramen"},
			{ID: 3, Text: "Salad"},
		},
	}
}

func TestPollRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewPollRepository(db)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
		p := samplePoll("alice")
		p.ExpiresAt = &expires

		created, err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, int64(1), created.Version)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Title, got.Title)
		assert.Equal(t, created.Options, got.Options)
		assert.Equal(t, expires, *got.ExpiresAt)
		assert.Empty(t, got.UsersVoted)
	})

	t.Run("explicit id", func(t *testing.T) {
		p := samplePoll("alice")
		p.ID = 5000

		_, err := repo.Create(ctx, p)
		require.NoError(t, err)

		_, err = repo.Create(ctx, p)
		assert.ErrorIs(t, err, domain.ErrPollExists)

		next, err := repo.Create(ctx, samplePoll("alice"))
		require.NoError(t, err)
		assert.Greater(t, next.ID, int64(5000))
	})

	t.Run("auto id skips rows inserted ahead of the serial", func(t *testing.T) {
		var taken int64
		err := db.QueryRowContext(ctx, `
			INSERT INTO polls (id, title, creator)
			VALUES (nextval(pg_get_serial_sequence('polls', 'id')) + 1, 'Imported', 'importer')
			RETURNING id
		`).Scan(&taken)
		require.NoError(t, err)

		created, err := repo.Create(ctx, samplePoll("alice"))
		require.NoError(t, err)
		assert.Greater(t, created.ID, taken)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, got.Options, 3)
	})

	t.Run("missing poll", func(t *testing.T) {
		_, err := repo.Get(ctx, 987654)
		assert.ErrorIs(t, err, domain.ErrPollNotFound)

		_, err = repo.Save(ctx, &domain.Poll{ID: 987654, Version: 1})
		assert.ErrorIs(t, err, domain.ErrPollNotFound)
	})

	t.Run("compare and swap", func(t *testing.T) {
		created, err := repo.Create(ctx, samplePoll("bob"))
		require.NoError(t, err)

		a := created.Clone()
		a.UsersVoted = append(a.UsersVoted, "carol")
		a.Options[1].Votes = 1
		saved, err := repo.Save(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, int64(2), saved.Version)

		stale := created.Clone()
		stale.Status = domain.StatusClosed
		_, err = repo.Save(ctx, stale)
		assert.ErrorIs(t, err, domain.ErrConflict)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, got.Status)
		assert.Equal(t, []string{"carol"}, got.UsersVoted)
		assert.Equal(t, int64(1), got.Options[1].Votes)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("concurrent saves from the same base", func(t *testing.T) {
		created, err := repo.Create(ctx, samplePoll("bob"))
		require.NoError(t, err)

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			committed int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p := created.Clone()
				p.UsersVoted = append(p.UsersVoted, fmt.Sprintf("user-%d", i))
				p.Options[0].Votes++
				if _, err := repo.Save(ctx, p); err == nil {
					mu.Lock()
					committed++
					mu.Unlock()
				} else {
					assert.ErrorIs(t, err, domain.ErrConflict)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, committed)
		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.Consistent())
	})

	t.Run("reads never mix poll rows and options from different commits", func(t *testing.T) {
		created, err := repo.Create(ctx, samplePoll("erin"))
		require.NoError(t, err)

		const (
			writers = 4
			votes   = 15
			readers = 4
		)
		var (
			writersWG sync.WaitGroup
			readersWG sync.WaitGroup
			done      = make(chan struct{})
		)
		for w := 0; w < writers; w++ {
			writersWG.Add(1)
			go func(w int) {
				defer writersWG.Done()
				for v := 0; v < votes; v++ {
					for {
						current, err := repo.Get(ctx, created.ID)
						if !assert.NoError(t, err) {
							return
						}
						next := current.Clone()
						next.UsersVoted = append(next.UsersVoted, fmt.Sprintf("voter-%d-%d", w, v))
						next.Options[v%len(next.Options)].Votes++
						_, err = repo.Save(ctx, next)
						if err == nil {
							break
						}
						if !assert.ErrorIs(t, err, domain.ErrConflict) {
							return
						}
					}
				}
			}(w)
		}
		for i := 0; i < readers; i++ {
			readersWG.Add(1)
			go func() {
				defer readersWG.Done()
				for {
					select {
					case <-done:
						return
					default:
					}
					got, err := repo.Get(ctx, created.ID)
					if assert.NoError(t, err) {
						assert.True(t, got.Consistent(), "get returned %d votes for %d voters", got.TotalVotes(), len(got.UsersVoted))
					}
					listed, err := repo.List(ctx, ports.PollFilter{Creator: "erin"})
					if assert.NoError(t, err) && assert.Len(t, listed, 1) {
						assert.True(t, listed[0].Consistent(), "list returned %d votes for %d voters", listed[0].TotalVotes(), len(listed[0].UsersVoted))
					}
				}
			}()
		}
		writersWG.Wait()
		close(done)
		readersWG.Wait()

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, got.UsersVoted, writers*votes)
		assert.Equal(t, int64(writers*votes), got.TotalVotes())
	})

	t.Run("list filters", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		due := samplePoll("dave")
		due.ExpiresAt = &past
		dueCreated, err := repo.Create(ctx, due)
		require.NoError(t, err)

		byDave, err := repo.List(ctx, ports.PollFilter{Creator: "dave"})
		require.NoError(t, err)
		require.Len(t, byDave, 1)
		assert.Len(t, byDave[0].Options, 3)

		now := time.Now()
		expiring, err := repo.List(ctx, ports.PollFilter{Status: domain.StatusActive, ExpiresBy: &now})
		require.NoError(t, err)
		require.Len(t, expiring, 1)
		assert.Equal(t, dueCreated.ID, expiring[0].ID)

		none, err := repo.List(ctx, ports.PollFilter{Creator: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
