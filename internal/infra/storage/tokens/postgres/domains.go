package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/registry-tokens/internal/domain/token"
	"github.com/ahrav/registry-tokens/internal/infra/storage"
)

var _ token.DomainCounter = (*domainStore)(nil)

// domainStore answers domain back-reference queries against the domains
// table. The update engine only needs the count of domains still attached to
// a bulk token; nothing here mutates domain rows.
type domainStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewDomainStore creates a new PostgreSQL-backed domain counter using the
// provided connection pool.
func NewDomainStore(pool *pgxpool.Pool, tracer trace.Tracer) *domainStore {
	return &domainStore{pool: pool, tracer: tracer}
}

// CountDomainsWithBulkToken returns how many domains currently reference the
// given token as their active bulk token.
func (s *domainStore) CountDomainsWithBulkToken(ctx context.Context, tokenID string) (int, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("token_id", tokenID),
	)

	var count int
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.count_domains_with_bulk_token", dbAttrs, func(ctx context.Context) error {
		err := conn(ctx, s.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM domains WHERE current_bulk_token = $1`, tokenID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count domains with bulk token: %w", err)
		}
		return nil
	})
	return count, err
}
