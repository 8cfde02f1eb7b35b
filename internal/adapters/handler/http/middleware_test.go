package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestKeyedRateLimiter(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	l := newKeyedRateLimiter(rate.Every(time.Second), 2, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = start

	t.Run("throttles each key independently", func(t *testing.T) {
		assert.True(t, l.allow("user:alice"))
		assert.True(t, l.allow("user:alice"))
		assert.False(t, l.allow("user:alice"))
		assert.True(t, l.allow("user:bob"))

		now = now.Add(time.Second)
		assert.True(t, l.allow("user:alice"))
	})

	t.Run("keeps idle keys until the next sweep is due", func(t *testing.T) {
		now = start.Add(30 * time.Second)
		l.lastSeen["user:carol"] = start.Add(-time.Hour)
		l.limiters["user:carol"] = rate.NewLimiter(l.limit, l.burst)

		l.allow("user:alice")
		assert.Contains(t, l.lastSeen, "user:carol")
	})

	t.Run("evicts idle keys once the sweep interval passes", func(t *testing.T) {
		now = start.Add(2 * time.Minute)
		l.allow("user:alice")

		assert.NotContains(t, l.lastSeen, "user:carol")
		assert.NotContains(t, l.limiters, "user:carol")
		assert.NotContains(t, l.limiters, "user:bob")
		assert.Contains(t, l.limiters, "user:alice")
		assert.Equal(t, now, l.lastSweep)
	})
}
