package token

import "fmt"

// ErrorKind identifies specific types of errors that can occur while managing
// allocation tokens. This enables error handling code to make decisions based
// on the type of error without matching on message text.
type ErrorKind int

const (
	// ErrKindIllegalTransition indicates a proposed status map contains an edge
	// outside of the legal lifecycle.
	ErrKindIllegalTransition ErrorKind = iota

	// ErrKindPromotionStillActive indicates a bulk pricing token cannot end its
	// promotion because domains still reference it.
	ErrKindPromotionStillActive

	// ErrKindMalformedTransitions indicates a status map that is structurally
	// invalid (wrong sentinel, unparseable, or out of order).
	ErrKindMalformedTransitions

	// ErrKindUnknownToken indicates a requested token identifier does not exist.
	ErrKindUnknownToken

	// ErrKindUnknownPackage indicates no bulk pricing package exists for a token.
	ErrKindUnknownPackage

	// ErrKindInvalidSelector indicates a blank prefix selector.
	ErrKindInvalidSelector

	// ErrKindAmbiguousSelector indicates both or neither of the token list and
	// prefix selectors were supplied.
	ErrKindAmbiguousSelector

	// ErrKindUnknownAction indicates an EPP action name outside the known vocabulary.
	ErrKindUnknownAction

	// ErrKindInvalidFieldValue indicates an update option whose value could not
	// be parsed or is out of range.
	ErrKindInvalidFieldValue

	// ErrKindAnchorTenantRequiresDomain indicates an attempt to set
	// ANCHOR_TENANT behavior on a token not bound to a domain.
	ErrKindAnchorTenantRequiresDomain
)

// Error represents domain-specific failures in token management. The message
// strings are part of the external contract: batch tooling matches on them,
// so wording must stay stable.
type Error struct {
	msg  string
	kind ErrorKind
}

// Error returns the error message. This implements the error interface.
func (e *Error) Error() string { return e.msg }

// Kind returns the error discriminator.
func (e *Error) Kind() ErrorKind { return e.kind }

// Is enables errors.Is matching by comparing error kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind
}

// KindError returns a sentinel usable with errors.Is to match any token error
// of the given kind.
func KindError(kind ErrorKind) error { return &Error{kind: kind} }

// NewIllegalTransitionError reports a status map edge outside the legal
// lifecycle.
func NewIllegalTransitionError(from, to Status) error {
	return &Error{
		msg:  fmt.Sprintf("tokenStatusTransitions map cannot transition from %s to %s.", from, to),
		kind: ErrKindIllegalTransition,
	}
}

// NewPromotionStillActiveError reports that a bulk pricing token cannot end
// while domains remain in its promotion.
func NewPromotionStillActiveError(tokenID string, domainCount int) error {
	return &Error{
		msg: fmt.Sprintf(
			"Bulk token %s can not end its promotion because it still has %d domains in the promotion",
			tokenID, domainCount),
		kind: ErrKindPromotionStillActive,
	}
}

// NewMalformedTransitionsError reports a structurally invalid status map.
func NewMalformedTransitionsError(reason string) error {
	return &Error{
		msg:  fmt.Sprintf("tokenStatusTransitions map %s", reason),
		kind: ErrKindMalformedTransitions,
	}
}

// NewUnknownTokenError reports a missing token identifier.
func NewUnknownTokenError(tokenID string) error {
	return &Error{
		msg:  fmt.Sprintf("Token with id %s does not exist", tokenID),
		kind: ErrKindUnknownToken,
	}
}

// NewUnknownPackageError reports a token with no bulk pricing package.
func NewUnknownPackageError(tokenID string) error {
	return &Error{
		msg:  fmt.Sprintf("BulkPricingPackage with token %s does not exist", tokenID),
		kind: ErrKindUnknownPackage,
	}
}

// NewBlankPrefixError reports an empty or blank prefix selector.
func NewBlankPrefixError() error {
	return &Error{
		msg:  "Provided prefix should not be blank",
		kind: ErrKindInvalidSelector,
	}
}

// NewAmbiguousSelectorError reports that the caller supplied both or neither
// of the token list and prefix selectors.
func NewAmbiguousSelectorError() error {
	return &Error{
		msg:  "Must provide one of --tokens or --prefix, not both / neither",
		kind: ErrKindAmbiguousSelector,
	}
}

// NewUnknownActionError reports an EPP action name outside the known vocabulary.
func NewUnknownActionError() error {
	return &Error{
		msg:  "Invalid EPP action name. Valid actions are CREATE, RENEW, TRANSFER, RESTORE, and UPDATE",
		kind: ErrKindUnknownAction,
	}
}

// NewInvalidParameterError reports an update option whose text does not match
// any allowed value, enumerating the full vocabulary.
func NewInvalidParameterError(param string, allowed string) error {
	return &Error{
		msg:  fmt.Sprintf("Invalid value for --%s parameter. Allowed values:[%s]", param, allowed),
		kind: ErrKindInvalidFieldValue,
	}
}

// NewInvalidFieldValueError reports an update option value that could not be
// parsed or is outside its legal range.
func NewInvalidFieldValueError(msg string) error {
	return &Error{msg: msg, kind: ErrKindInvalidFieldValue}
}

// NewAnchorTenantRequiresDomainError reports ANCHOR_TENANT behavior requested
// for a token that is not bound to a domain.
func NewAnchorTenantRequiresDomainError() error {
	return &Error{
		msg:  "ANCHOR_TENANT tokens must be tied to a domain",
		kind: ErrKindAnchorTenantRequiresDomain,
	}
}
