package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/ahrav/registry-tokens/internal/domain/timemap"
)

// StartOfTime is the sentinel instant at which every token's status map
// begins. Status maps that do not start here are rejected.
var StartOfTime = time.Unix(0, 0).UTC()

// StatusTransitions is the ordered history of (instant, status) pairs
// describing a token's lifecycle.
type StatusTransitions = timemap.Map[Status]

// StatusTransition is one entry of a token's status history.
type StatusTransition = timemap.Pair[Status]

// NewStatusTransitions builds a status map from ordered pairs. It enforces the
// structural contract only; lifecycle legality is checked by
// ValidateStatusTransitions.
func NewStatusTransitions(pairs []StatusTransition) (*StatusTransitions, error) {
	m, err := timemap.New(pairs)
	if err != nil {
		return nil, NewMalformedTransitionsError("must contain at least one entry with strictly increasing times")
	}
	return m, nil
}

// ParseStatusTransitions parses the serialized form of a status map:
// comma-separated TIME=STATUS pairs with RFC 3339 times, e.g.
// "1970-01-01T00:00:00Z=NOT_STARTED,2024-06-01T00:00:00Z=VALID".
func ParseStatusTransitions(raw string) (*StatusTransitions, error) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" {
		return nil, NewInvalidFieldValueError(
			"Invalid value for --token_status_transitions parameter. Expected comma-separated TIME=STATUS pairs")
	}

	var pairs []StatusTransition
	for _, entry := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, NewInvalidFieldValueError(fmt.Sprintf(
				"Invalid value for --token_status_transitions parameter. Expected TIME=STATUS, got %q", entry))
		}

		instant, err := time.Parse(time.RFC3339, strings.TrimSpace(k))
		if err != nil {
			return nil, NewInvalidFieldValueError(fmt.Sprintf(
				"Invalid value for --token_status_transitions parameter. Bad time %q", strings.TrimSpace(k)))
		}

		status, ok := statusesByName[strings.ToUpper(strings.TrimSpace(v))]
		if !ok {
			return nil, NewInvalidFieldValueError(fmt.Sprintf(
				"Invalid value for --token_status_transitions parameter. Allowed statuses:[NOT_STARTED, VALID, CANCELLED, ENDED], got %q",
				strings.TrimSpace(v)))
		}

		pairs = append(pairs, StatusTransition{Instant: instant.UTC(), State: status})
	}
	return NewStatusTransitions(pairs)
}

// FormatStatusTransitions renders a status map back into its serialized form.
func FormatStatusTransitions(m *StatusTransitions) string {
	pairs := m.Pairs()
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%s", p.Instant.UTC().Format(time.RFC3339), p.State)
	}
	return strings.Join(parts, ",")
}

// initialStatusTransitions seeds a new token's status map with NOT_STARTED at
// the start-of-time sentinel.
func initialStatusTransitions() *StatusTransitions {
	m, err := timemap.New([]StatusTransition{{Instant: StartOfTime, State: StatusNotStarted}})
	if err != nil {
		panic(fmt.Sprintf("seeding status transitions: %v", err))
	}
	return m
}
