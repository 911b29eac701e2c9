package token

// ValidateStatusTransitions decides whether a proposed whole-map replacement
// is a legal lifecycle for a token, given its type and current external usage.
// The policy only gates; on success the proposed map is accepted unchanged.
//
// domainsInPromo is the number of domains currently referencing the token as
// their active bulk token. It is only consulted for the bulk-end guard, so
// callers may pass zero for non-bulk tokens or maps that do not end.
func ValidateStatusTransitions(tokenID string, tokenType Type, domainsInPromo int, m *StatusTransitions) error {
	if m == nil || m.Len() == 0 {
		return NewMalformedTransitionsError("must contain at least one entry with strictly increasing times")
	}
	if !m.First().Instant.Equal(StartOfTime) {
		return NewMalformedTransitionsError("must start at START_OF_TIME")
	}

	pairs := m.Pairs()
	for i := 1; i < len(pairs); i++ {
		from, to := pairs[i-1].State, pairs[i].State
		if !CanTransition(from, to) {
			return NewIllegalTransitionError(from, to)
		}
	}

	// A bulk pricing token cannot end its promotion while domains still rely
	// on it.
	if tokenType == TypeBulkPricing && len(pairs) >= 2 {
		last, prev := pairs[len(pairs)-1].State, pairs[len(pairs)-2].State
		if last == StatusEnded && prev == StatusValid && domainsInPromo > 0 {
			return NewPromotionStillActiveError(tokenID, domainsInPromo)
		}
	}

	return nil
}

// EndsPromotion reports whether the proposed map's final edge is VALID→ENDED,
// the case where the bulk-end guard applies and the current domain usage must
// be consulted.
func EndsPromotion(m *StatusTransitions) bool {
	if m == nil || m.Len() < 2 {
		return false
	}
	pairs := m.Pairs()
	return pairs[len(pairs)-1].State == StatusEnded && pairs[len(pairs)-2].State == StatusValid
}
