package token

import "strings"

// Type classifies how an allocation token may be redeemed.
type Type string

const (
	// TypeSingleUse tokens are consumed by a single registration.
	TypeSingleUse Type = "SINGLE_USE"

	// TypeUnlimitedUse tokens may be redeemed any number of times while valid.
	TypeUnlimitedUse Type = "UNLIMITED_USE"

	// TypeBulkPricing tokens group many domains under one discounted,
	// capacity-limited contract.
	TypeBulkPricing Type = "BULK_PRICING"
)

// EppAction enumerates the EPP commands a token can be restricted to.
type EppAction string

const (
	ActionCreate   EppAction = "CREATE"
	ActionRenew    EppAction = "RENEW"
	ActionTransfer EppAction = "TRANSFER"
	ActionRestore  EppAction = "RESTORE"
	ActionUpdate   EppAction = "UPDATE"
)

// eppActionsByName resolves normalized-uppercase action text to the
// enumerated value. Parsing is table-driven rather than reflective.
var eppActionsByName = map[string]EppAction{
	"CREATE":   ActionCreate,
	"RENEW":    ActionRenew,
	"TRANSFER": ActionTransfer,
	"RESTORE":  ActionRestore,
	"UPDATE":   ActionUpdate,
}

// ParseEppAction matches action text case-insensitively against the known
// vocabulary.
func ParseEppAction(raw string) (EppAction, error) {
	action, ok := eppActionsByName[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return "", NewUnknownActionError()
	}
	return action, nil
}

// RenewalPriceBehavior controls how renewals of a registration created with
// the token are priced.
type RenewalPriceBehavior string

const (
	RenewalPriceDefault    RenewalPriceBehavior = "DEFAULT"
	RenewalPriceNonPremium RenewalPriceBehavior = "NONPREMIUM"
	RenewalPriceSpecified  RenewalPriceBehavior = "SPECIFIED"
)

var renewalPriceBehaviorsByName = map[string]RenewalPriceBehavior{
	"DEFAULT":    RenewalPriceDefault,
	"NONPREMIUM": RenewalPriceNonPremium,
	"SPECIFIED":  RenewalPriceSpecified,
}

// ParseRenewalPriceBehavior matches behavior text case-insensitively.
func ParseRenewalPriceBehavior(raw string) (RenewalPriceBehavior, error) {
	b, ok := renewalPriceBehaviorsByName[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return "", NewInvalidParameterError("renewal_price_behavior", "DEFAULT, NONPREMIUM, SPECIFIED")
	}
	return b, nil
}

// RegistrationBehavior controls special handling of registrations created
// with the token.
type RegistrationBehavior string

const (
	RegistrationDefault RegistrationBehavior = "DEFAULT"

	// RegistrationBypassTldState allows registration regardless of TLD launch state.
	RegistrationBypassTldState RegistrationBehavior = "BYPASS_TLD_STATE"

	// RegistrationAnchorTenant marks an anchor tenant registration. Only legal
	// for tokens bound to a specific domain.
	RegistrationAnchorTenant RegistrationBehavior = "ANCHOR_TENANT"
)

var registrationBehaviorsByName = map[string]RegistrationBehavior{
	"DEFAULT":          RegistrationDefault,
	"BYPASS_TLD_STATE": RegistrationBypassTldState,
	"ANCHOR_TENANT":    RegistrationAnchorTenant,
}

// ParseRegistrationBehavior matches behavior text case-insensitively.
func ParseRegistrationBehavior(raw string) (RegistrationBehavior, error) {
	b, ok := registrationBehaviorsByName[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return "", NewInvalidParameterError("registration_behavior", "DEFAULT, BYPASS_TLD_STATE, ANCHOR_TENANT")
	}
	return b, nil
}
