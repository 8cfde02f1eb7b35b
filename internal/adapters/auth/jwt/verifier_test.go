package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", "")

	token, err := m.Issue("user-1", "user@example.com", time.Minute)
	require.NoError(t, err)

	id, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "user@example.com", id.Email)
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("test-secret", "")

	expired, err := m.Issue("user-1", "", -time.Minute)
	require.NoError(t, err)

	foreign, err := NewManager("other-secret", "").Issue("user-1", "", time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := NewManager("test-secret", "someone-else").Issue("user-1", "", time.Minute)
	require.NoError(t, err)

	noSubject, err := m.Issue("", "", time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"bad key":      foreign,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(context.Background(), token)
			assert.Error(t, err)
		})
	}
}
