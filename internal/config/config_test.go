package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, IdentityJWT, cfg.IdentityProvider)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 16, cfg.SubscriberBuffer)
	assert.Equal(t, 8, cfg.VoteRetryAttempts)
	assert.Empty(t, cfg.AdminUserIDs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("SWEEP_INTERVAL", "5s")
	t.Setenv("ADMIN_USER_IDS", " root , ops@example.com,,")
	t.Setenv("VOTE_RATE_LIMIT", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Equal(t, []string{"root", "ops@example.com"}, cfg.AdminUserIDs)
	assert.Equal(t, 0.5, cfg.VoteRateLimit)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown store", env: map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "redis"}},
		{name: "google without client", env: map[string]string{"IDENTITY_PROVIDER": "google", "GOOGLE_CLIENT_ID": ""}},
		{name: "bad duration", env: map[string]string{"JWT_SECRET": "s", "SWEEP_INTERVAL": "soon"}},
		{name: "bad buffer", env: map[string]string{"JWT_SECRET": "s", "SUBSCRIBER_BUFFER": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadJob(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("STORE_DRIVER", "postgres")

	cfg, err := LoadJob()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.NoError(t, cfg.RequireDurableStore())

	t.Setenv("STORE_DRIVER", "redis")
	_, err = LoadJob()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("SUBSCRIBER_BUFFER", "0")
	_, err = LoadJob()
	assert.Error(t, err)
}

func TestRequireDurableStore(t *testing.T) {
	assert.NoError(t, Config{StoreDriver: StorePostgres}.RequireDurableStore())
	assert.NoError(t, Config{StoreDriver: StoreMongo}.RequireDurableStore())
	assert.Error(t, Config{StoreDriver: StoreMemory}.RequireDurableStore())
}
