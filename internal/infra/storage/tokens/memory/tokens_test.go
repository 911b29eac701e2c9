package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/registry-tokens/internal/domain/token"
)

func TestSaveAndGetByID(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	tok, err := token.NewToken("token", token.TypeUnlimitedUse,
		token.WithAllowedTlds([]string{"tld"}))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, tok))

	loaded, err := store.GetByID(ctx, "token")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "token", loaded.ID())
	assert.Equal(t, []string{"tld"}, loaded.AllowedTlds())

	// Loads are deep copies; mutating one must not leak into the store.
	loaded.SetAllowedTlds(nil)
	again, err := store.GetByID(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []string{"tld"}, again.AllowedTlds())
}

func TestGetByIDMissing(t *testing.T) {
	loaded, err := NewStore().GetByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFindByPrefixOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, id := range []string{"tokenX", "other", "token"} {
		tok, err := token.NewToken(id, token.TypeSingleUse)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, tok))
	}

	matches, err := store.FindByPrefix(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "token", matches[0].ID())
	assert.Equal(t, "tokenX", matches[1].ID())
}

func TestCountDomainsWithBulkToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.SetDomainBulkToken("a.tld", "bulk")
	store.SetDomainBulkToken("b.tld", "bulk")
	store.SetDomainBulkToken("c.tld", "otherBulk")

	count, err := store.CountDomainsWithBulkToken(ctx, "bulk")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountDomainsWithBulkToken(ctx, "unused")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	tok, err := token.NewToken("token", token.TypeUnlimitedUse,
		token.WithAllowedTlds([]string{"tld"}))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, tok))

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context) error {
		tok.SetAllowedTlds(nil)
		require.NoError(t, store.Save(ctx, tok))
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := store.GetByID(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []string{"tld"}, reloaded.AllowedTlds())
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		tok, err := token.NewToken("token", token.TypeSingleUse)
		if err != nil {
			return err
		}
		return store.Save(ctx, tok)
	})
	require.NoError(t, err)

	loaded, err := store.GetByID(ctx, "token")
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}
