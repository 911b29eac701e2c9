package token

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// BulkPricingPackage holds the commercial terms tied to a BULK_PRICING token:
// capacity ceilings, the recurring bulk price, and billing timestamps. There
// is zero or one package per token, keyed by the owning token's identifier.
// The package references its token; it does not own it.
type BulkPricingPackage struct {
	tokenID    string
	maxDomains int
	maxCreates int

	bulkPrice decimal.Decimal
	currency  string

	nextBillingDate      time.Time
	lastNotificationSent time.Time
}

// NewBulkPricingPackage creates a package for the given token.
func NewBulkPricingPackage(
	tokenID string,
	maxDomains, maxCreates int,
	bulkPrice decimal.Decimal,
	currency string,
	nextBillingDate time.Time,
	lastNotificationSent time.Time,
) (*BulkPricingPackage, error) {
	switch {
	case tokenID == "":
		return nil, errors.New("bulk pricing package must reference a token")
	case maxDomains < 0 || maxCreates < 0:
		return nil, errors.New("bulk pricing package capacities must be non-negative")
	case bulkPrice.IsNegative():
		return nil, errors.New("bulk price must be non-negative")
	case currency == "":
		return nil, errors.New("bulk price currency must be provided")
	}

	return &BulkPricingPackage{
		tokenID:              tokenID,
		maxDomains:           maxDomains,
		maxCreates:           maxCreates,
		bulkPrice:            bulkPrice,
		currency:             currency,
		nextBillingDate:      nextBillingDate,
		lastNotificationSent: lastNotificationSent,
	}, nil
}

// ReconstructBulkPricingPackage creates a package from persisted data. This
// should only be used by repositories when rehydrating from storage.
func ReconstructBulkPricingPackage(
	tokenID string,
	maxDomains, maxCreates int,
	bulkPrice decimal.Decimal,
	currency string,
	nextBillingDate time.Time,
	lastNotificationSent time.Time,
) *BulkPricingPackage {
	return &BulkPricingPackage{
		tokenID:              tokenID,
		maxDomains:           maxDomains,
		maxCreates:           maxCreates,
		bulkPrice:            bulkPrice,
		currency:             currency,
		nextBillingDate:      nextBillingDate,
		lastNotificationSent: lastNotificationSent,
	}
}

// Getters.
func (p *BulkPricingPackage) TokenID() string                 { return p.tokenID }
func (p *BulkPricingPackage) MaxDomains() int                 { return p.maxDomains }
func (p *BulkPricingPackage) MaxCreates() int                 { return p.maxCreates }
func (p *BulkPricingPackage) BulkPrice() decimal.Decimal      { return p.bulkPrice }
func (p *BulkPricingPackage) Currency() string                { return p.currency }
func (p *BulkPricingPackage) NextBillingDate() time.Time      { return p.nextBillingDate }
func (p *BulkPricingPackage) LastNotificationSent() time.Time { return p.lastNotificationSent }
