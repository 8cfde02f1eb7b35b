package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHelpersAreNoOpsUntilRegistered(t *testing.T) {
	assert.Nil(t, votesTotal)
	assert.NotPanics(t, func() {
		IncVote("accepted")
		IncConflict()
		AddSubscribers(1)
	})
}

func TestRegister(t *testing.T) {
	Register()
	Register()

	IncVote("accepted")
	IncVote("accepted")
	IncVote("already_voted")
	IncRequest("POST", "/api/polls/{id}/vote", 200)
	AddSubscribers(2)
	AddSubscribers(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(votesTotal.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(votesTotal.WithLabelValues("already_voted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/polls/{id}/vote", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(liveSubscribers))
}
