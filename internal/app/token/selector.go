// Package token provides the application services for managing allocation
// tokens: resolving batch targets, applying optional field deltas, running
// atomic batch updates, and reporting bulk pricing packages.
package token

import (
	"context"
	"strings"

	"github.com/ahrav/registry-tokens/internal/domain/token"
)

// TargetSelector names the set of tokens a batch operation targets: either an
// explicit identifier list or a prefix over identifiers. Exactly one must be
// supplied per request.
type TargetSelector struct {
	Identifiers Optional[[]string]
	Prefix      Optional[string]
}

// Selector resolves a batch operation's target set against the backing store.
type Selector struct {
	repo token.Repository
}

// NewSelector creates a Selector over the given token repository.
func NewSelector(repo token.Repository) *Selector {
	return &Selector{repo: repo}
}

// Select resolves the target tokens. Identifier lookups fail on the first
// missing identifier; prefix lookups return matches in identifier order,
// possibly empty. Supplying both or neither selector fails before any lookup.
func (s *Selector) Select(ctx context.Context, sel TargetSelector) ([]*token.Token, error) {
	switch {
	case sel.Identifiers.IsSet() == sel.Prefix.IsSet():
		return nil, token.NewAmbiguousSelectorError()

	case sel.Prefix.IsSet():
		prefix := strings.TrimSpace(sel.Prefix.Value())
		if prefix == "" {
			return nil, token.NewBlankPrefixError()
		}
		return s.repo.FindByPrefix(ctx, prefix)

	default:
		ids := sel.Identifiers.Value()
		tokens := make([]*token.Token, 0, len(ids))
		for _, id := range ids {
			id = strings.TrimSpace(id)
			tok, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if tok == nil {
				return nil, token.NewUnknownTokenError(id)
			}
			tokens = append(tokens, tok)
		}
		return tokens, nil
	}
}
