package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusTransitions(t *testing.T) {
	m, err := ParseStatusTransitions(
		"1970-01-01T00:00:00Z=NOT_STARTED,2024-05-31T00:00:00Z=VALID,2024-06-01T00:00:00Z=CANCELLED")
	require.NoError(t, err)

	pairs := m.Pairs()
	require.Len(t, pairs, 3)
	assert.True(t, pairs[0].Instant.Equal(StartOfTime))
	assert.Equal(t, StatusNotStarted, pairs[0].State)
	assert.Equal(t, StatusValid, pairs[1].State)
	assert.Equal(t, StatusCancelled, pairs[2].State)
}

func TestParseStatusTransitionsQuotedAndCaseInsensitive(t *testing.T) {
	// The serialized form may arrive shell-quoted, with mixed-case statuses.
	m, err := ParseStatusTransitions(`"1970-01-01T00:00:00Z=not_started,2024-06-01T00:00:00Z=valid"`)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, StatusValid, m.Last().State)
}

func TestParseStatusTransitionsErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "missing equals", raw: "1970-01-01T00:00:00Z"},
		{name: "bad time", raw: "yesterday=VALID"},
		{name: "unknown status", raw: "1970-01-01T00:00:00Z=SUSPENDED"},
		{name: "out of order", raw: "2024-06-01T00:00:00Z=NOT_STARTED,1970-01-01T00:00:00Z=VALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatusTransitions(tt.raw)
			require.Error(t, err)
		})
	}
}

func TestFormatStatusTransitionsRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := transitions(t,
		StatusTransition{Instant: StartOfTime, State: StatusNotStarted},
		StatusTransition{Instant: now, State: StatusValid},
	)

	parsed, err := ParseStatusTransitions(FormatStatusTransitions(m))
	require.NoError(t, err)
	assert.True(t, m.Equal(parsed))
}
