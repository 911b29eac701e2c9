package token

// Status represents the lifecycle states of an allocation token.
// It is implemented as a value object using a string type to ensure type safety
// and domain invariants. The status transitions form a state machine that
// enforces valid lifecycle progression.
type Status string

const (
	// StatusNotStarted indicates the token's promotion has not begun yet.
	// This is the initial state for newly created tokens.
	StatusNotStarted Status = "NOT_STARTED"

	// StatusValid indicates the token is live and redeemable.
	// The token can only reach this state from StatusNotStarted.
	StatusValid Status = "VALID"

	// StatusCancelled indicates the promotion was withdrawn before its natural end.
	// This is a terminal state reachable only from StatusValid.
	StatusCancelled Status = "CANCELLED"

	// StatusEnded indicates the promotion ran to completion.
	// This is a terminal state reachable only from StatusValid.
	StatusEnded Status = "ENDED"
)

// validStatusTransitions defines the allowed lifecycle edges for a token.
// Empty slices indicate terminal states with no outbound edges.
var validStatusTransitions = map[Status][]Status{
	StatusNotStarted: {StatusValid},
	StatusValid:      {StatusCancelled, StatusEnded},
	StatusCancelled:  {},
	StatusEnded:      {},
}

// CanTransition validates whether the edge from one status to another is legal.
func CanTransition(from, to Status) bool {
	allowed, exists := validStatusTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// AllStatuses lists every token status, in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusNotStarted, StatusValid, StatusCancelled, StatusEnded}
}

// statusesByName resolves normalized status text to the enumerated value.
var statusesByName = map[string]Status{
	"NOT_STARTED": StatusNotStarted,
	"VALID":       StatusValid,
	"CANCELLED":   StatusCancelled,
	"ENDED":       StatusEnded,
}
