package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		votes    []int64
		expected []int
	}{
		{name: "three to one", votes: []int64{3, 1}, expected: []int{75, 25}},
		{name: "no votes", votes: []int64{0, 0, 0}, expected: []int{0, 0, 0}},
		{name: "thirds are not normalized", votes: []int64{1, 1, 1}, expected: []int{33, 33, 33}},
		{name: "rounds half up", votes: []int64{1, 7}, expected: []int{13, 88}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Poll{ID: 9, Version: 4, Status: StatusActive}
			for i, v := range tt.votes {
				p.Options = append(p.Options, PollOption{ID: int64(i + 1), Votes: v})
			}

			snap := Aggregate(p)

			assert.Equal(t, int64(9), snap.PollID)
			assert.Equal(t, int64(4), snap.Version)
			got := make([]int, 0, len(snap.Results))
			for _, r := range snap.Results {
				got = append(got, r.Percentage)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
