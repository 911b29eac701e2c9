// Package memory provides an in-memory implementation of the token storage
// ports for testing and development. The store honors the transactional
// contract: mutations made inside WithinTx are discarded when the function
// fails, so a batch is observed all-or-nothing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ahrav/registry-tokens/internal/domain/token"
)

// Store holds tokens, bulk pricing packages, and the domain back-references
// keyed the same way the persisted layout is: tokens by identifier, packages
// by owning token identifier, domains by domain name.
type Store struct {
	mu       sync.Mutex
	tokens   map[string]*token.Token
	packages map[string]*token.BulkPricingPackage
	domains  map[string]string // domain name -> current bulk token id
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		tokens:   make(map[string]*token.Token),
		packages: make(map[string]*token.BulkPricingPackage),
		domains:  make(map[string]string),
	}
}

// GetByID retrieves a token by identifier. Returns (nil, nil) if absent.
func (s *Store) GetByID(ctx context.Context, id string) (*token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[id]
	if !ok {
		return nil, nil
	}
	return deepCopyToken(tok), nil
}

// FindByPrefix returns every token whose identifier starts with prefix, in
// ascending identifier order.
func (s *Store) FindByPrefix(ctx context.Context, prefix string) ([]*token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.tokens))
	for id := range s.tokens {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]*token.Token, 0, len(ids))
	for _, id := range ids {
		out = append(out, deepCopyToken(s.tokens[id]))
	}
	return out, nil
}

// Save persists the token, replacing any previous state for its identifier.
func (s *Store) Save(ctx context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[t.ID()] = deepCopyToken(t)
	return nil
}

// GetByTokenID retrieves the bulk pricing package owned by a token.
// Returns (nil, nil) if absent.
func (s *Store) GetByTokenID(ctx context.Context, tokenID string) (*token.BulkPricingPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg, ok := s.packages[tokenID]
	if !ok {
		return nil, nil
	}
	return deepCopyPackage(pkg), nil
}

// SavePackage persists the bulk pricing package keyed by its owning token.
func (s *Store) SavePackage(ctx context.Context, p *token.BulkPricingPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.packages[p.TokenID()] = deepCopyPackage(p)
	return nil
}

// CountDomainsWithBulkToken returns how many domains currently reference the
// token as their active bulk token.
func (s *Store) CountDomainsWithBulkToken(ctx context.Context, tokenID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, id := range s.domains {
		if id == tokenID {
			count++
		}
	}
	return count, nil
}

// SetDomainBulkToken records a domain's current-bulk-token back-reference.
// The reference is owned by the domain side; this helper exists for seeding
// test fixtures.
func (s *Store) SetDomainBulkToken(domainName, tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.domains[domainName] = tokenID
}

// WithinTx runs fn against the store with all-or-nothing semantics: the store
// state is snapshotted up front and restored if fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	tokens := make(map[string]*token.Token, len(s.tokens))
	for id, t := range s.tokens {
		tokens[id] = deepCopyToken(t)
	}
	packages := make(map[string]*token.BulkPricingPackage, len(s.packages))
	for id, p := range s.packages {
		packages[id] = deepCopyPackage(p)
	}
	domains := make(map[string]string, len(s.domains))
	for name, id := range s.domains {
		domains[name] = id
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.tokens = tokens
		s.packages = packages
		s.domains = domains
		s.mu.Unlock()
		return err
	}
	return nil
}

func deepCopyToken(t *token.Token) *token.Token {
	return token.ReconstructToken(
		t.ID(),
		t.TokenType(),
		t.AllowedTlds(),
		t.AllowedRegistrarIds(),
		t.AllowedEppActions(),
		t.DiscountFraction(),
		t.DiscountPremiums(),
		t.DiscountYears(),
		t.RenewalPriceBehavior(),
		t.RegistrationBehavior(),
		t.StatusTransitions(),
		t.DomainName(),
		t.CreationTime(),
	)
}

func deepCopyPackage(p *token.BulkPricingPackage) *token.BulkPricingPackage {
	return token.ReconstructBulkPricingPackage(
		p.TokenID(),
		p.MaxDomains(),
		p.MaxCreates(),
		p.BulkPrice(),
		p.Currency(),
		p.NextBillingDate(),
		p.LastNotificationSent(),
	)
}
