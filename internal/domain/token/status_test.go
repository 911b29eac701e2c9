package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusNotStarted, StatusValid}: true,
		{StatusValid, StatusCancelled}:  true,
		{StatusValid, StatusEnded}:      true,
	}

	// Every (from, to) pair outside the legal edge set must be rejected,
	// including self-transitions and anything out of a terminal state.
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := legal[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "transition %s -> %s", from, to)
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(Status("BOGUS"), StatusValid))
	assert.False(t, CanTransition(StatusNotStarted, Status("BOGUS")))
}
