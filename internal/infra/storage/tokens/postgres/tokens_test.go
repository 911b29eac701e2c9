package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/registry-tokens/internal/domain/token"
	"github.com/ahrav/registry-tokens/internal/infra/storage"
)

func setupTokenTest(t *testing.T) (context.Context, *pgxpool.Pool, *tokenStore, func()) {
	t.Helper()

	pool, cleanup := storage.SetupTestContainer(t)
	store := NewTokenStore(pool, storage.NoOpTracer())
	ctx := context.Background()

	return ctx, pool, store, cleanup
}

func promoTransitions(t *testing.T, start, end time.Time) *token.StatusTransitions {
	t.Helper()

	m, err := token.NewStatusTransitions([]token.StatusTransition{
		{Instant: token.StartOfTime, State: token.StatusNotStarted},
		{Instant: start, State: token.StatusValid},
		{Instant: end, State: token.StatusEnded},
	})
	require.NoError(t, err)
	return m
}

func TestPGTokenStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	ctx, _, store, cleanup := setupTokenTest(t)
	defer cleanup()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tok, err := token.NewToken("promo2024", token.TypeUnlimitedUse,
		token.WithAllowedTlds([]string{"dev", "app"}),
		token.WithAllowedRegistrarIds([]string{"TheRegistrar"}),
		token.WithAllowedEppActions([]token.EppAction{token.ActionCreate, token.ActionRenew}),
		token.WithDiscountFraction(decimal.RequireFromString("0.5")),
		token.WithDiscountPremiums(true),
		token.WithDiscountYears(2),
		token.WithRenewalPriceBehavior(token.RenewalPriceNonPremium),
		token.WithStatusTransitions(promoTransitions(t, start, end)),
	)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, tok))

	loaded, err := store.GetByID(ctx, "promo2024")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, tok.ID(), loaded.ID())
	assert.Equal(t, token.TypeUnlimitedUse, loaded.TokenType())
	assert.Equal(t, []string{"app", "dev"}, loaded.AllowedTlds())
	assert.Equal(t, []string{"TheRegistrar"}, loaded.AllowedRegistrarIds())
	assert.Equal(t, []token.EppAction{token.ActionCreate, token.ActionRenew}, loaded.AllowedEppActions())
	assert.True(t, loaded.DiscountFraction().Equal(decimal.RequireFromString("0.5")),
		"expected fraction 0.5, got %s", loaded.DiscountFraction())
	assert.True(t, loaded.DiscountPremiums())
	assert.Equal(t, 2, loaded.DiscountYears())
	assert.Equal(t, token.RenewalPriceNonPremium, loaded.RenewalPriceBehavior())
	assert.Equal(t, token.RegistrationDefault, loaded.RegistrationBehavior())
	assert.True(t, loaded.StatusTransitions().Equal(tok.StatusTransitions()),
		"status transitions should round-trip")
	assert.False(t, loaded.CreationTime().IsZero())
}

func TestPGTokenStore_GetNonExistent(t *testing.T) {
	t.Parallel()

	ctx, _, store, cleanup := setupTokenTest(t)
	defer cleanup()

	loaded, err := store.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestPGTokenStore_Update(t *testing.T) {
	t.Parallel()

	ctx, _, store, cleanup := setupTokenTest(t)
	defer cleanup()

	tok, err := token.NewToken("mutable", token.TypeSingleUse)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, tok))

	changed, err := tok.SetDiscountFraction(decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, tok.SetAllowedTlds([]string{"example"}))

	require.NoError(t, store.Save(ctx, tok))

	loaded, err := store.GetByID(ctx, "mutable")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.DiscountFraction().Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, []string{"example"}, loaded.AllowedTlds())
}

func TestPGTokenStore_FindByPrefix(t *testing.T) {
	t.Parallel()

	ctx, _, store, cleanup := setupTokenTest(t)
	defer cleanup()

	for _, id := range []string{"tokenX", "token", "other", "toil"} {
		tok, err := token.NewToken(id, token.TypeSingleUse)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, tok))
	}

	found, err := store.FindByPrefix(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "token", found[0].ID())
	assert.Equal(t, "tokenX", found[1].ID())

	none, err := store.FindByPrefix(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPGBulkPackageStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	ctx, pool, store, cleanup := setupTokenTest(t)
	defer cleanup()

	tok, err := token.NewToken("bulk-token", token.TypeBulkPricing)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, tok))

	pkgStore := NewBulkPackageStore(pool, storage.NoOpTracer())

	nextBilling := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pkg, err := token.NewBulkPricingPackage(
		"bulk-token", 100, 500, decimal.RequireFromString("1000.00"), "USD", nextBilling, time.Time{})
	require.NoError(t, err)

	require.NoError(t, pkgStore.SavePackage(ctx, pkg))

	loaded, err := pkgStore.GetByTokenID(ctx, "bulk-token")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 100, loaded.MaxDomains())
	assert.Equal(t, 500, loaded.MaxCreates())
	assert.True(t, loaded.BulkPrice().Equal(decimal.RequireFromString("1000.00")))
	assert.Equal(t, "USD", loaded.Currency())
	assert.True(t, loaded.NextBillingDate().Equal(nextBilling))
	assert.True(t, loaded.LastNotificationSent().IsZero(),
		"unset notification timestamp should round-trip as zero")

	missing, err := pkgStore.GetByTokenID(ctx, "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPGDomainStore_CountDomainsWithBulkToken(t *testing.T) {
	t.Parallel()

	ctx, pool, store, cleanup := setupTokenTest(t)
	defer cleanup()

	tok, err := token.NewToken("bulk-count", token.TypeBulkPricing)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, tok))

	for _, domain := range []string{"a.example", "b.example", "c.example"} {
		_, err := pool.Exec(ctx,
			`INSERT INTO domains (domain_name, current_bulk_token) VALUES ($1, $2)`, domain, "bulk-count")
		require.NoError(t, err)
	}
	_, err = pool.Exec(ctx, `INSERT INTO domains (domain_name) VALUES ('detached.example')`)
	require.NoError(t, err)

	domains := NewDomainStore(pool, storage.NoOpTracer())

	count, err := domains.CountDomainsWithBulkToken(ctx, "bulk-count")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = domains.CountDomainsWithBulkToken(ctx, "unused")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPGTxManager_RollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx, pool, store, cleanup := setupTokenTest(t)
	defer cleanup()

	tx := NewTxManager(pool, storage.NoOpTracer())

	sentinel := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		tok, err := token.NewToken("doomed", token.TypeSingleUse)
		require.NoError(t, err)
		if err := store.Save(ctx, tok); err != nil {
			return err
		}

		// The write is visible inside the transaction.
		inside, err := store.GetByID(ctx, "doomed")
		require.NoError(t, err)
		require.NotNil(t, inside)

		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	loaded, err := store.GetByID(ctx, "doomed")
	require.NoError(t, err)
	assert.Nil(t, loaded, "rolled-back write should not be visible")
}

func TestPGTxManager_CommitsOnSuccess(t *testing.T) {
	t.Parallel()

	ctx, pool, store, cleanup := setupTokenTest(t)
	defer cleanup()

	tx := NewTxManager(pool, storage.NoOpTracer())

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range []string{"batch-a", "batch-b"} {
			tok, err := token.NewToken(id, token.TypeSingleUse)
			if err != nil {
				return err
			}
			if err := store.Save(ctx, tok); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	for _, id := range []string{"batch-a", "batch-b"} {
		loaded, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, loaded)
	}
}
