package postgres

import (
	"context"
	"encoding/json"
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

var _ token.Repository = (*tokenStore)(nil)

// tokenStore provides a PostgreSQL implementation of token.Repository.
// String sets are stored as TEXT[] columns and the status history as a JSONB
// array of {time, status} records, so the schema stays queryable without a
// bespoke codec.
type tokenStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewTokenStore creates a new PostgreSQL-backed token repository using the
// provided connection pool.
func NewTokenStore(pool *pgxpool.Pool, tracer trace.Tracer) *tokenStore {
	return &tokenStore{pool: pool, tracer: tracer}
}

// transitionRecord is the JSONB wire form of one status history entry.
type transitionRecord struct {
	Time   time.Time    `json:"time"`
	Status token.Status `json:"status"`
}

func marshalTransitions(m *token.StatusTransitions) ([]byte, error) {
	pairs := m.Pairs()
	records := make([]transitionRecord, len(pairs))
	for i, p := range pairs {
		records[i] = transitionRecord{Time: p.Instant.UTC(), Status: p.State}
	}
	return json.Marshal(records)
}

func unmarshalTransitions(data []byte) (*token.StatusTransitions, error) {
	var records []transitionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status transitions: %w", err)
	}
	pairs := make([]token.StatusTransition, len(records))
	for i, r := range records {
		pairs[i] = token.StatusTransition{Instant: r.Time.UTC(), State: r.Status}
	}
	return token.NewStatusTransitions(pairs)
}

const tokenColumns = `token, token_type, allowed_tlds, allowed_registrar_ids, allowed_epp_actions,
	discount_fraction::text, discount_premiums, discount_years,
	renewal_price_behavior, registration_behavior, status_transitions, domain_name, creation_time`

// GetByID retrieves a token by its identifier. Returns (nil, nil) if no token
// with that identifier exists.
func (s *tokenStore) GetByID(ctx context.Context, id string) (*token.Token, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("token_id", id),
	)

	var tok *token.Token
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_token", dbAttrs, func(ctx context.Context) error {
		row := conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+tokenColumns+` FROM allocation_tokens WHERE token = $1`, id)

		t, err := scanToken(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to get token: %w", err)
		}
		tok = t
		return nil
	})
	return tok, err
}

// FindByPrefix returns every token whose identifier starts with prefix, in
// ascending identifier order.
func (s *tokenStore) FindByPrefix(ctx context.Context, prefix string) ([]*token.Token, error) {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("prefix", prefix),
	)

	var tokens []*token.Token
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.find_tokens_by_prefix", dbAttrs, func(ctx context.Context) error {
		rows, err := conn(ctx, s.pool).Query(ctx,
			`SELECT `+tokenColumns+` FROM allocation_tokens WHERE starts_with(token, $1) ORDER BY token`, prefix)
		if err != nil {
			return fmt.Errorf("failed to find tokens by prefix: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanToken(rows)
			if err != nil {
				return fmt.Errorf("failed to scan token row: %w", err)
			}
			tokens = append(tokens, t)
		}
		return rows.Err()
	})
	return tokens, err
}

// Save persists the token using an upsert keyed on the token identifier.
func (s *tokenStore) Save(ctx context.Context, t *token.Token) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("token_id", t.ID()),
		attribute.String("token_type", string(t.TokenType())),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.save_token", dbAttrs, func(ctx context.Context) error {
		transitions, err := marshalTransitions(t.StatusTransitions())
		if err != nil {
			return fmt.Errorf("failed to marshal status transitions: %w", err)
		}

		actions := t.AllowedEppActions()
		actionNames := make([]string, len(actions))
		for i, a := range actions {
			actionNames[i] = string(a)
		}

		_, err = conn(ctx, s.pool).Exec(ctx, `
			INSERT INTO allocation_tokens (
				token, token_type, allowed_tlds, allowed_registrar_ids, allowed_epp_actions,
				discount_fraction, discount_premiums, discount_years,
				renewal_price_behavior, registration_behavior, status_transitions, domain_name, creation_time
			) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (token) DO UPDATE SET
				allowed_tlds = EXCLUDED.allowed_tlds,
				allowed_registrar_ids = EXCLUDED.allowed_registrar_ids,
				allowed_epp_actions = EXCLUDED.allowed_epp_actions,
				discount_fraction = EXCLUDED.discount_fraction,
				discount_premiums = EXCLUDED.discount_premiums,
				discount_years = EXCLUDED.discount_years,
				renewal_price_behavior = EXCLUDED.renewal_price_behavior,
				registration_behavior = EXCLUDED.registration_behavior,
				status_transitions = EXCLUDED.status_transitions,
				domain_name = EXCLUDED.domain_name`,
			t.ID(), string(t.TokenType()), t.AllowedTlds(), t.AllowedRegistrarIds(), actionNames,
			t.DiscountFraction().String(), t.DiscountPremiums(), t.DiscountYears(),
			string(t.RenewalPriceBehavior()), string(t.RegistrationBehavior()), transitions,
			t.DomainName(), t.CreationTime().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		return nil
	})
}

// scanToken rehydrates one token row. It accepts pgx.Row so both QueryRow and
// rows-iteration callers share the column ordering.
func scanToken(row pgx.Row) (*token.Token, error) {
	var (
		id                   string
		tokenType            string
		allowedTlds          []string
		allowedRegistrarIds  []string
		allowedActionNames   []string
		discountFraction     string
		discountPremiums     bool
		discountYears        int
		renewalPriceBehavior string
		registrationBehavior string
		transitionsJSON      []byte
		domainName           string
		creationTime         time.Time
	)
	if err := row.Scan(
		&id, &tokenType, &allowedTlds, &allowedRegistrarIds, &allowedActionNames,
		&discountFraction, &discountPremiums, &discountYears,
		&renewalPriceBehavior, &registrationBehavior, &transitionsJSON, &domainName, &creationTime,
	); err != nil {
		return nil, err
	}

	fraction, err := decimal.NewFromString(discountFraction)
	if err != nil {
		return nil, fmt.Errorf("failed to parse discount fraction: %w", err)
	}

	transitions, err := unmarshalTransitions(transitionsJSON)
	if err != nil {
		return nil, err
	}

	actions := make([]token.EppAction, len(allowedActionNames))
	for i, name := range allowedActionNames {
		actions[i] = token.EppAction(name)
	}

	return token.ReconstructToken(
		id,
		token.Type(tokenType),
		allowedTlds,
		allowedRegistrarIds,
		actions,
		fraction,
		discountPremiums,
		discountYears,
		token.RenewalPriceBehavior(renewalPriceBehavior),
		token.RegistrationBehavior(registrationBehavior),
		transitions,
		domainName,
		creationTime.UTC(),
	), nil
}
