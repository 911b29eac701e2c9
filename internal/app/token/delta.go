package token

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ahrav/registry-tokens/internal/domain/token"
)

// FieldDeltas carries the optionally-supplied new values of one update
// request. Every field is the raw option text: an unset field leaves the
// token's value unchanged, a set field replaces it, and for the list options
// an explicitly empty string clears the set.
type FieldDeltas struct {
	AllowedTlds            Optional[string]
	AllowedRegistrarIds    Optional[string]
	AllowedEppActions      Optional[string]
	DiscountFraction       Optional[string]
	DiscountPremiums       Optional[string]
	DiscountYears          Optional[string]
	RenewalPriceBehavior   Optional[string]
	RegistrationBehavior   Optional[string]
	TokenStatusTransitions Optional[string]
}

// IsEmpty reports whether no option was supplied at all.
func (f FieldDeltas) IsEmpty() bool {
	return !f.AllowedTlds.IsSet() &&
		!f.AllowedRegistrarIds.IsSet() &&
		!f.AllowedEppActions.IsSet() &&
		!f.DiscountFraction.IsSet() &&
		!f.DiscountPremiums.IsSet() &&
		!f.DiscountYears.IsSet() &&
		!f.RenewalPriceBehavior.IsSet() &&
		!f.RegistrationBehavior.IsSet() &&
		!f.TokenStatusTransitions.IsSet()
}

// DeltaApplier computes and applies field-level deltas against a token's
// current state. Status map replacements are gated by the lifecycle policy,
// which may need the token's current domain usage.
type DeltaApplier struct {
	domains token.DomainCounter
}

// NewDeltaApplier creates a DeltaApplier using the given domain back-reference
// counter.
func NewDeltaApplier(domains token.DomainCounter) *DeltaApplier {
	return &DeltaApplier{domains: domains}
}

// Apply mutates tok in place according to the supplied deltas and reports
// whether anything changed. The first failing field aborts with its error and
// may leave tok partially modified; callers run Apply inside a transaction
// that is rolled back on error, so a partial in-memory state is never
// persisted.
func (a *DeltaApplier) Apply(ctx context.Context, tok *token.Token, fields FieldDeltas) (bool, error) {
	changed := false

	if fields.AllowedTlds.IsSet() {
		if tok.SetAllowedTlds(splitList(fields.AllowedTlds.Value())) {
			changed = true
		}
	}

	if fields.AllowedRegistrarIds.IsSet() {
		if tok.SetAllowedRegistrarIds(splitList(fields.AllowedRegistrarIds.Value())) {
			changed = true
		}
	}

	if fields.AllowedEppActions.IsSet() {
		actions, err := parseActionList(fields.AllowedEppActions.Value())
		if err != nil {
			return changed, err
		}
		if tok.SetAllowedEppActions(actions) {
			changed = true
		}
	}

	if fields.DiscountFraction.IsSet() {
		raw := strings.TrimSpace(fields.DiscountFraction.Value())
		fraction, err := decimal.NewFromString(raw)
		if err != nil {
			return changed, token.NewInvalidFieldValueError(fmt.Sprintf(
				"Invalid value for --discount_fraction parameter. Expected a decimal number, got %q", raw))
		}
		fieldChanged, err := tok.SetDiscountFraction(fraction)
		if err != nil {
			return changed, err
		}
		changed = changed || fieldChanged
	}

	if fields.DiscountPremiums.IsSet() {
		raw := strings.TrimSpace(fields.DiscountPremiums.Value())
		b, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return changed, token.NewInvalidFieldValueError(fmt.Sprintf(
				"Invalid value for --discount_premiums parameter. Expected true or false, got %q", raw))
		}
		if tok.SetDiscountPremiums(b) {
			changed = true
		}
	}

	if fields.DiscountYears.IsSet() {
		raw := strings.TrimSpace(fields.DiscountYears.Value())
		years, err := strconv.Atoi(raw)
		if err != nil {
			return changed, token.NewInvalidFieldValueError(fmt.Sprintf(
				"Invalid value for --discount_years parameter. Expected an integer, got %q", raw))
		}
		fieldChanged, err := tok.SetDiscountYears(years)
		if err != nil {
			return changed, err
		}
		changed = changed || fieldChanged
	}

	if fields.RenewalPriceBehavior.IsSet() {
		behavior, err := token.ParseRenewalPriceBehavior(fields.RenewalPriceBehavior.Value())
		if err != nil {
			return changed, err
		}
		if tok.SetRenewalPriceBehavior(behavior) {
			changed = true
		}
	}

	if fields.RegistrationBehavior.IsSet() {
		behavior, err := token.ParseRegistrationBehavior(fields.RegistrationBehavior.Value())
		if err != nil {
			return changed, err
		}
		fieldChanged, err := tok.SetRegistrationBehavior(behavior)
		if err != nil {
			return changed, err
		}
		changed = changed || fieldChanged
	}

	if fields.TokenStatusTransitions.IsSet() {
		proposed, err := token.ParseStatusTransitions(fields.TokenStatusTransitions.Value())
		if err != nil {
			return changed, err
		}

		// The domain count is only consulted when the map actually ends a
		// promotion; everything else validates without a storage read.
		domainsInPromo := 0
		if tok.TokenType() == token.TypeBulkPricing && token.EndsPromotion(proposed) {
			domainsInPromo, err = a.domains.CountDomainsWithBulkToken(ctx, tok.ID())
			if err != nil {
				return changed, fmt.Errorf("counting domains in promotion for token %s: %w", tok.ID(), err)
			}
		}

		if err := token.ValidateStatusTransitions(tok.ID(), tok.TokenType(), domainsInPromo, proposed); err != nil {
			return changed, err
		}
		if tok.SetStatusTransitions(proposed) {
			changed = true
		}
	}

	return changed, nil
}

// splitList parses a comma-separated option value. An empty or blank value
// yields an empty list, the explicit-clear form.
func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseActionList(raw string) ([]token.EppAction, error) {
	parts := splitList(raw)
	actions := make([]token.EppAction, 0, len(parts))
	for _, p := range parts {
		action, err := token.ParseEppAction(p)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}
