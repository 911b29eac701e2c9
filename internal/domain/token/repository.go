package token

import "context"

// Repository provides persistent storage for allocation tokens. Lookups that
// find nothing return (nil, nil); mapping a missing token to a domain error is
// the caller's concern.
type Repository interface {
	// GetByID retrieves a token by its identifier.
	GetByID(ctx context.Context, id string) (*Token, error)

	// FindByPrefix returns every token whose identifier starts with prefix,
	// in ascending identifier order. The result may be empty.
	FindByPrefix(ctx context.Context, prefix string) ([]*Token, error)

	// Save persists the token, inserting or replacing by identifier.
	Save(ctx context.Context, t *Token) error
}

// BulkPackageRepository provides persistent storage for bulk pricing packages,
// keyed by their owning token's identifier.
type BulkPackageRepository interface {
	// GetByTokenID retrieves the package owned by the given token.
	// Returns (nil, nil) if no package exists.
	GetByTokenID(ctx context.Context, tokenID string) (*BulkPricingPackage, error)

	// SavePackage persists the package, inserting or replacing by token
	// identifier.
	SavePackage(ctx context.Context, p *BulkPricingPackage) error
}

// DomainCounter answers how many domains currently reference a token as their
// active bulk token. The domain entities themselves are owned elsewhere; this
// core only reads the back-reference to gate promotion endings.
type DomainCounter interface {
	CountDomainsWithBulkToken(ctx context.Context, tokenID string) (int, error)
}

// Transactor runs a function inside one serializable, all-or-nothing store
// transaction. Repositories invoked with the context passed to fn participate
// in that transaction. If fn returns an error nothing is committed.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
