package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyRejectsMalformedToken(t *testing.T) {
	v := NewVerifier("client-id.apps.googleusercontent.com")

	identity, err := v.Verify(context.Background(), "not-a-token")
	assert.Error(t, err)
	assert.Nil(t, identity)
}
