package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/registry-tokens/internal/domain/token"
	"github.com/ahrav/registry-tokens/internal/infra/storage"
)

var _ token.BulkPackageRepository = (*bulkPackageStore)(nil)

// bulkPackageStore provides a PostgreSQL implementation of
// token.BulkPackageRepository, keyed by the owning token's identifier.
type bulkPackageStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewBulkPackageStore creates a new PostgreSQL-backed bulk pricing package
// repository using the provided connection pool.
func NewBulkPackageStore(pool *pgxpool.Pool, tracer trace.Tracer) *bulkPackageStore {
	return &bulkPackageStore{pool: pool, tracer: tracer}
}

// GetByTokenID retrieves the package owned by the given token. Returns
// (nil, nil) if no package exists for that token.
func (s *bulkPackageStore) GetByTokenID(ctx context.Context, tokenID string) (*token.BulkPricingPackage, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("token_id", tokenID),
	)

	var pkg *token.BulkPricingPackage
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_bulk_package", dbAttrs, func(ctx context.Context) error {
		var (
			maxDomains           int
			maxCreates           int
			bulkPrice            string
			currency             string
			nextBillingDate      time.Time
			lastNotificationSent *time.Time
		)
		err := conn(ctx, s.pool).QueryRow(ctx, `
			SELECT max_domains, max_creates, bulk_price::text, currency, next_billing_date, last_notification_sent
			FROM bulk_pricing_packages WHERE token = $1`, tokenID,
		).Scan(&maxDomains, &maxCreates, &bulkPrice, &currency, &nextBillingDate, &lastNotificationSent)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to get bulk pricing package: %w", err)
		}

		price, err := decimal.NewFromString(bulkPrice)
		if err != nil {
			return fmt.Errorf("failed to parse bulk price: %w", err)
		}

		var lastSent time.Time
		if lastNotificationSent != nil {
			lastSent = lastNotificationSent.UTC()
		}
		pkg = token.ReconstructBulkPricingPackage(
			tokenID, maxDomains, maxCreates, price, currency, nextBillingDate.UTC(), lastSent)
		return nil
	})
	return pkg, err
}

// SavePackage persists the package using an upsert keyed on the token
// identifier.
func (s *bulkPackageStore) SavePackage(ctx context.Context, p *token.BulkPricingPackage) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("token_id", p.TokenID()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.save_bulk_package", dbAttrs, func(ctx context.Context) error {
		var lastSent *time.Time
		if !p.LastNotificationSent().IsZero() {
			t := p.LastNotificationSent().UTC()
			lastSent = &t
		}

		_, err := conn(ctx, s.pool).Exec(ctx, `
			INSERT INTO bulk_pricing_packages (
				token, max_domains, max_creates, bulk_price, currency, next_billing_date, last_notification_sent
			) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
			ON CONFLICT (token) DO UPDATE SET
				max_domains = EXCLUDED.max_domains,
				max_creates = EXCLUDED.max_creates,
				bulk_price = EXCLUDED.bulk_price,
				currency = EXCLUDED.currency,
				next_billing_date = EXCLUDED.next_billing_date,
				last_notification_sent = EXCLUDED.last_notification_sent`,
			p.TokenID(), p.MaxDomains(), p.MaxCreates(), p.BulkPrice().String(), p.Currency(),
			p.NextBillingDate().UTC(), lastSent,
		)
		if err != nil {
			return fmt.Errorf("failed to save bulk pricing package: %w", err)
		}
		return nil
	})
}
