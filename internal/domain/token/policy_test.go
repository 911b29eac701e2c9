package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transitions(t *testing.T, pairs ...StatusTransition) *StatusTransitions {
	t.Helper()
	m, err := NewStatusTransitions(pairs)
	require.NoError(t, err)
	return m
}

func TestValidateStatusTransitions(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		tokenType      Type
		domainsInPromo int
		pairs          []StatusTransition
		wantErr        error
		wantMsg        string
	}{
		{
			name:      "full legal lifecycle to cancelled",
			tokenType: TypeUnlimitedUse,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
				{Instant: now.AddDate(0, 0, -1), State: StatusValid},
				{Instant: now, State: StatusCancelled},
			},
		},
		{
			name:      "single entry map is legal",
			tokenType: TypeSingleUse,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
			},
		},
		{
			name:      "skipping valid is rejected",
			tokenType: TypeUnlimitedUse,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
				{Instant: now, State: StatusEnded},
			},
			wantErr: KindError(ErrKindIllegalTransition),
			wantMsg: "tokenStatusTransitions map cannot transition from NOT_STARTED to ENDED.",
		},
		{
			name:      "transition out of terminal state is rejected",
			tokenType: TypeUnlimitedUse,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
				{Instant: now.AddDate(0, 0, -2), State: StatusEnded},
				{Instant: now, State: StatusValid},
			},
			wantErr: KindError(ErrKindIllegalTransition),
			wantMsg: "tokenStatusTransitions map cannot transition from NOT_STARTED to ENDED.",
		},
		{
			name:      "map not starting at start of time is rejected",
			tokenType: TypeUnlimitedUse,
			pairs: []StatusTransition{
				{Instant: now, State: StatusNotStarted},
				{Instant: now.Add(time.Hour), State: StatusValid},
			},
			wantErr: KindError(ErrKindMalformedTransitions),
		},
		{
			name:           "bulk token ending with bound domains is rejected",
			tokenType:      TypeBulkPricing,
			domainsInPromo: 1,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
				{Instant: now.AddDate(0, 0, -1), State: StatusValid},
				{Instant: now, State: StatusEnded},
			},
			wantErr: KindError(ErrKindPromotionStillActive),
			wantMsg: "Bulk token bulk can not end its promotion because it still has 1 domains in the promotion",
		},
		{
			name:           "bulk token ending with no bound domains is legal",
			tokenType:      TypeBulkPricing,
			domainsInPromo: 0,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
				{Instant: now.AddDate(0, 0, -1), State: StatusValid},
				{Instant: now, State: StatusEnded},
			},
		},
		{
			name:           "non-bulk token ending ignores bound domains",
			tokenType:      TypeUnlimitedUse,
			domainsInPromo: 7,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
				{Instant: now.AddDate(0, 0, -1), State: StatusValid},
				{Instant: now, State: StatusEnded},
			},
		},
		{
			name:           "bulk token cancellation ignores bound domains",
			tokenType:      TypeBulkPricing,
			domainsInPromo: 3,
			pairs: []StatusTransition{
				{Instant: StartOfTime, State: StatusNotStarted},
				{Instant: now.AddDate(0, 0, -1), State: StatusValid},
				{Instant: now, State: StatusCancelled},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := transitions(t, tt.pairs...)
			err := ValidateStatusTransitions("bulk", tt.tokenType, tt.domainsInPromo, m)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.EqualError(t, err, tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
		})
	}
}

// TestValidateStatusTransitionsAllIllegalEdges quantifies transition legality:
// every consecutive edge outside the legal set must fail with the exact
// illegal-transition message for that pair.
func TestValidateStatusTransitionsAllIllegalEdges(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusNotStarted, StatusValid}: true,
		{StatusValid, StatusCancelled}:  true,
		{StatusValid, StatusEnded}:      true,
	}
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			if legal[[2]Status{from, to}] {
				continue
			}

			// Build a map whose only questionable edge is from -> to, reaching
			// `from` through legal edges first where possible.
			pairs := []StatusTransition{{Instant: StartOfTime, State: StatusNotStarted}}
			switch from {
			case StatusNotStarted:
			case StatusValid:
				pairs = append(pairs, StatusTransition{Instant: now.Add(-2 * time.Hour), State: StatusValid})
			case StatusCancelled:
				pairs = append(pairs,
					StatusTransition{Instant: now.Add(-3 * time.Hour), State: StatusValid},
					StatusTransition{Instant: now.Add(-2 * time.Hour), State: StatusCancelled})
			case StatusEnded:
				pairs = append(pairs,
					StatusTransition{Instant: now.Add(-3 * time.Hour), State: StatusValid},
					StatusTransition{Instant: now.Add(-2 * time.Hour), State: StatusEnded})
			}
			pairs = append(pairs, StatusTransition{Instant: now, State: to})

			m := transitions(t, pairs...)
			err := ValidateStatusTransitions("tok", TypeUnlimitedUse, 0, m)
			require.Error(t, err, "edge %s -> %s must be illegal", from, to)
			require.ErrorIs(t, err, KindError(ErrKindIllegalTransition))
		}
	}
}

func TestValidateStatusTransitionsNilMap(t *testing.T) {
	err := ValidateStatusTransitions("tok", TypeSingleUse, 0, nil)
	require.ErrorIs(t, err, KindError(ErrKindMalformedTransitions))
}

func TestEndsPromotion(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	ending := transitions(t,
		StatusTransition{Instant: StartOfTime, State: StatusNotStarted},
		StatusTransition{Instant: now.Add(-time.Hour), State: StatusValid},
		StatusTransition{Instant: now, State: StatusEnded},
	)
	assert.True(t, EndsPromotion(ending))

	cancelled := transitions(t,
		StatusTransition{Instant: StartOfTime, State: StatusNotStarted},
		StatusTransition{Instant: now.Add(-time.Hour), State: StatusValid},
		StatusTransition{Instant: now, State: StatusCancelled},
	)
	assert.False(t, EndsPromotion(cancelled))

	single := transitions(t, StatusTransition{Instant: StartOfTime, State: StatusNotStarted})
	assert.False(t, EndsPromotion(single))
	assert.False(t, EndsPromotion(nil))
}
