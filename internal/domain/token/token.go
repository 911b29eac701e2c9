// Package token provides domain types for allocation tokens: promotional and
// registration credentials attached to domain-name registrations. It defines
// the token and bulk pricing package aggregates, the four-state status
// lifecycle with its legality rules, and the repository ports the application
// layer depends on.
package token

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Token is an aggregate root representing one allocation credential. The
// identifier and type are immutable after creation; every other field is
// patched incrementally by the update engine, with the status map replaced
// wholesale per request. Tokens are never physically deleted; their lifecycle
// ends via the CANCELLED or ENDED statuses.
type Token struct {
	// Identity.
	id        string
	tokenType Type

	// Eligibility restrictions. Empty means unrestricted.
	allowedTlds         []string
	allowedRegistrarIds []string
	allowedEppActions   []EppAction

	// Discount terms.
	discountFraction decimal.Decimal
	discountPremiums bool
	discountYears    int

	// Behavior flags.
	renewalPriceBehavior RenewalPriceBehavior
	registrationBehavior RegistrationBehavior

	// Lifecycle.
	statusTransitions *StatusTransitions

	// domainName binds the token to a single domain. Required for
	// ANCHOR_TENANT registration behavior.
	domainName string

	creationTime time.Time
}

// TokenOption configures optional fields at creation time.
type TokenOption func(*Token)

func WithAllowedTlds(tlds []string) TokenOption {
	return func(t *Token) { t.allowedTlds = normalizeSet(tlds) }
}

func WithAllowedRegistrarIds(ids []string) TokenOption {
	return func(t *Token) { t.allowedRegistrarIds = normalizeSet(ids) }
}

func WithAllowedEppActions(actions []EppAction) TokenOption {
	return func(t *Token) { t.allowedEppActions = normalizeActions(actions) }
}

func WithDiscountFraction(f decimal.Decimal) TokenOption {
	return func(t *Token) { t.discountFraction = f }
}

func WithDiscountPremiums(b bool) TokenOption {
	return func(t *Token) { t.discountPremiums = b }
}

func WithDiscountYears(years int) TokenOption {
	return func(t *Token) { t.discountYears = years }
}

func WithRenewalPriceBehavior(b RenewalPriceBehavior) TokenOption {
	return func(t *Token) { t.renewalPriceBehavior = b }
}

func WithRegistrationBehavior(b RegistrationBehavior) TokenOption {
	return func(t *Token) { t.registrationBehavior = b }
}

func WithStatusTransitions(m *StatusTransitions) TokenOption {
	return func(t *Token) { t.statusTransitions = m }
}

func WithDomainName(domain string) TokenOption {
	return func(t *Token) { t.domainName = domain }
}

func WithCreationTime(ts time.Time) TokenOption {
	return func(t *Token) { t.creationTime = ts }
}

// NewToken creates an allocation token with the given identifier and type.
// The status map is seeded with NOT_STARTED at start-of-time unless an
// explicit map is supplied. Returns an error if creation-time invariants are
// violated.
func NewToken(id string, tokenType Type, opts ...TokenOption) (*Token, error) {
	if id == "" {
		return nil, errors.New("token identifier must be provided")
	}

	t := &Token{
		id:                   id,
		tokenType:            tokenType,
		discountFraction:     decimal.Zero,
		discountYears:        1,
		renewalPriceBehavior: RenewalPriceDefault,
		registrationBehavior: RegistrationDefault,
		statusTransitions:    initialStatusTransitions(),
		creationTime:         time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := validateDiscountFraction(t.discountFraction); err != nil {
		return nil, err
	}
	if err := validateDiscountYears(t.discountYears); err != nil {
		return nil, err
	}
	if t.registrationBehavior == RegistrationAnchorTenant && t.domainName == "" {
		return nil, NewAnchorTenantRequiresDomainError()
	}
	return t, nil
}

// ReconstructToken creates a Token from persisted data without enforcing
// creation-time invariants. This should only be used by repositories when
// rehydrating from storage.
func ReconstructToken(
	id string,
	tokenType Type,
	allowedTlds []string,
	allowedRegistrarIds []string,
	allowedEppActions []EppAction,
	discountFraction decimal.Decimal,
	discountPremiums bool,
	discountYears int,
	renewalPriceBehavior RenewalPriceBehavior,
	registrationBehavior RegistrationBehavior,
	statusTransitions *StatusTransitions,
	domainName string,
	creationTime time.Time,
) *Token {
	return &Token{
		id:                   id,
		tokenType:            tokenType,
		allowedTlds:          normalizeSet(allowedTlds),
		allowedRegistrarIds:  normalizeSet(allowedRegistrarIds),
		allowedEppActions:    normalizeActions(allowedEppActions),
		discountFraction:     discountFraction,
		discountPremiums:     discountPremiums,
		discountYears:        discountYears,
		renewalPriceBehavior: renewalPriceBehavior,
		registrationBehavior: registrationBehavior,
		statusTransitions:    statusTransitions,
		domainName:           domainName,
		creationTime:         creationTime,
	}
}

// Getters.
func (t *Token) ID() string                                 { return t.id }
func (t *Token) TokenType() Type                            { return t.tokenType }
func (t *Token) AllowedTlds() []string                      { return copyStrings(t.allowedTlds) }
func (t *Token) AllowedRegistrarIds() []string              { return copyStrings(t.allowedRegistrarIds) }
func (t *Token) DiscountFraction() decimal.Decimal          { return t.discountFraction }
func (t *Token) DiscountPremiums() bool                     { return t.discountPremiums }
func (t *Token) DiscountYears() int                         { return t.discountYears }
func (t *Token) RenewalPriceBehavior() RenewalPriceBehavior { return t.renewalPriceBehavior }
func (t *Token) RegistrationBehavior() RegistrationBehavior { return t.registrationBehavior }
func (t *Token) StatusTransitions() *StatusTransitions      { return t.statusTransitions }
func (t *Token) DomainName() string                         { return t.domainName }
func (t *Token) CreationTime() time.Time                    { return t.creationTime }

func (t *Token) AllowedEppActions() []EppAction {
	out := make([]EppAction, len(t.allowedEppActions))
	copy(out, t.allowedEppActions)
	return out
}

// StatusAt returns the status effective at the given instant.
func (t *Token) StatusAt(instant time.Time) (Status, error) {
	return t.statusTransitions.ValueAt(instant)
}

// SetAllowedTlds replaces the allowed TLD set. An empty or nil slice clears
// the restriction. Reports whether the stored value changed.
func (t *Token) SetAllowedTlds(tlds []string) bool {
	next := normalizeSet(tlds)
	if stringSetsEqual(t.allowedTlds, next) {
		return false
	}
	t.allowedTlds = next
	return true
}

// SetAllowedRegistrarIds replaces the allowed registrar set. An empty or nil
// slice clears the restriction. Reports whether the stored value changed.
func (t *Token) SetAllowedRegistrarIds(ids []string) bool {
	next := normalizeSet(ids)
	if stringSetsEqual(t.allowedRegistrarIds, next) {
		return false
	}
	t.allowedRegistrarIds = next
	return true
}

// SetAllowedEppActions replaces the allowed action set. An empty or nil slice
// clears the restriction. Reports whether the stored value changed.
func (t *Token) SetAllowedEppActions(actions []EppAction) bool {
	next := normalizeActions(actions)
	if actionSetsEqual(t.allowedEppActions, next) {
		return false
	}
	t.allowedEppActions = next
	return true
}

// SetDiscountFraction replaces the discount fraction. The value must lie in
// [0, 1]. Reports whether the stored value changed.
func (t *Token) SetDiscountFraction(f decimal.Decimal) (bool, error) {
	if err := validateDiscountFraction(f); err != nil {
		return false, err
	}
	if t.discountFraction.Equal(f) {
		return false, nil
	}
	t.discountFraction = f
	return true, nil
}

// SetDiscountPremiums replaces the premium-discount flag. Reports whether the
// stored value changed.
func (t *Token) SetDiscountPremiums(b bool) bool {
	if t.discountPremiums == b {
		return false
	}
	t.discountPremiums = b
	return true
}

// SetDiscountYears replaces the discount year count, which must be at least 1.
// Reports whether the stored value changed.
func (t *Token) SetDiscountYears(years int) (bool, error) {
	if err := validateDiscountYears(years); err != nil {
		return false, err
	}
	if t.discountYears == years {
		return false, nil
	}
	t.discountYears = years
	return true, nil
}

// SetRenewalPriceBehavior replaces the renewal price behavior. Reports whether
// the stored value changed.
func (t *Token) SetRenewalPriceBehavior(b RenewalPriceBehavior) bool {
	if t.renewalPriceBehavior == b {
		return false
	}
	t.renewalPriceBehavior = b
	return true
}

// SetRegistrationBehavior replaces the registration behavior. ANCHOR_TENANT
// is rejected unless the token is bound to a domain; the violation is
// reported, never silently coerced. Reports whether the stored value changed.
func (t *Token) SetRegistrationBehavior(b RegistrationBehavior) (bool, error) {
	if b == RegistrationAnchorTenant && t.domainName == "" {
		return false, NewAnchorTenantRequiresDomainError()
	}
	if t.registrationBehavior == b {
		return false, nil
	}
	t.registrationBehavior = b
	return true, nil
}

// SetStatusTransitions replaces the status map wholesale. Lifecycle legality
// must already have been checked via ValidateStatusTransitions; this only
// swaps the value. Reports whether the stored map changed.
func (t *Token) SetStatusTransitions(m *StatusTransitions) bool {
	if t.statusTransitions.Equal(m) {
		return false
	}
	t.statusTransitions = m
	return true
}

func validateDiscountFraction(f decimal.Decimal) error {
	if f.IsNegative() || f.GreaterThan(decimal.NewFromInt(1)) {
		return NewInvalidFieldValueError("Discount fraction must be between 0 and 1 inclusive")
	}
	return nil
}

func validateDiscountYears(years int) error {
	if years < 1 {
		return NewInvalidFieldValueError("Discount years must be at least 1")
	}
	return nil
}

// normalizeSet dedups, trims, drops empties, and sorts for stable comparison
// and storage.
func normalizeSet(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func normalizeActions(in []EppAction) []EppAction {
	seen := make(map[EppAction]struct{}, len(in))
	out := make([]EppAction, 0, len(in))
	for _, a := range in {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func actionSetsEqual(a, b []EppAction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
