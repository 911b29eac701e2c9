package token

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/registry-tokens/internal/domain/token"
	"github.com/ahrav/registry-tokens/pkg/common/logger"
)

// UpdateRequest is one batch update invocation: a target selector plus the
// optional field set to apply to every target.
type UpdateRequest struct {
	Targets TargetSelector
	Fields  FieldDeltas

	// DryRun resolves targets and validates every delta exactly as a real
	// run would, then rolls the transaction back instead of committing.
	DryRun bool
}

// TokenResult reports the outcome for one token in a committed batch.
type TokenResult struct {
	Identifier string
	Changed    bool
}

// UpdateResult reports, per token in selector order, whether the token
// changed or was a no-op.
type UpdateResult struct {
	Tokens []TokenResult
}

// Updated returns how many tokens actually changed.
func (r *UpdateResult) Updated() int {
	n := 0
	for _, t := range r.Tokens {
		if t.Changed {
			n++
		}
	}
	return n
}

// Updater runs batch update requests end-to-end: it resolves targets, applies
// field deltas, validates lifecycle changes against current referenced state,
// and commits all resulting entity states in one store transaction. A failure
// on any token aborts the entire batch; no partial application is ever
// committed.
type Updater struct {
	repo     token.Repository
	selector *Selector
	applier  *DeltaApplier
	tx       token.Transactor

	logger *logger.Logger
	tracer trace.Tracer
}

// NewUpdater creates an Updater over the given repositories and transaction
// boundary.
func NewUpdater(
	repo token.Repository,
	domains token.DomainCounter,
	tx token.Transactor,
	log *logger.Logger,
	tracer trace.Tracer,
) *Updater {
	return &Updater{
		repo:     repo,
		selector: NewSelector(repo),
		applier:  NewDeltaApplier(domains),
		tx:       tx,
		logger:   log.With("component", "token_updater"),
		tracer:   tracer,
	}
}

// Update executes one batch request. All target lookups, validations against
// current referenced state, and writes happen inside a single serializable
// transaction; tokens are processed sequentially in selector order so error
// reporting stays deterministic. A transaction abort surfaces as a terminal
// error for this invocation; the core never retries.
func (u *Updater) Update(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	batchID := uuid.New().String()
	ctx, span := u.tracer.Start(ctx, "token.batch_update",
		trace.WithAttributes(
			attribute.String("batch_id", batchID),
			attribute.Bool("by_prefix", req.Targets.Prefix.IsSet()),
			attribute.Bool("no_op", req.Fields.IsEmpty()),
			attribute.Bool("dry_run", req.DryRun),
		))
	defer span.End()

	var result UpdateResult
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		tokens, err := u.selector.Select(ctx, req.Targets)
		if err != nil {
			return err
		}

		for _, tok := range tokens {
			changed, err := u.applier.Apply(ctx, tok, req.Fields)
			if err != nil {
				u.logger.Warn(ctx, "aborting batch update", "token", tok.ID(), "error", err)
				return err
			}

			// A no-op update is always legal and must not touch storage.
			if changed {
				if err := u.repo.Save(ctx, tok); err != nil {
					return err
				}
			}
			result.Tokens = append(result.Tokens, TokenResult{Identifier: tok.ID(), Changed: changed})
		}

		if req.DryRun {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		span.SetAttributes(attribute.Int("tokens_updated", result.Updated()))
		u.logger.Info(ctx, "dry run rolled back",
			"batch_id", batchID,
			"tokens_selected", len(result.Tokens),
			"tokens_updated", result.Updated())
		return &result, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("tokens_updated", result.Updated()))
	u.logger.Info(ctx, "batch update committed",
		"batch_id", batchID,
		"tokens_selected", len(result.Tokens),
		"tokens_updated", result.Updated())
	return &result, nil
}

// errDryRun forces the transaction to roll back after a dry run; it never
// escapes Update.
var errDryRun = errors.New("dry run rollback")
