package token

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/registry-tokens/internal/domain/token"
	"github.com/ahrav/registry-tokens/pkg/common/logger"
)

// PackageReader looks up the bulk pricing packages attached to tokens for
// reporting.
type PackageReader struct {
	pkgs token.BulkPackageRepository

	logger *logger.Logger
	tracer trace.Tracer
}

// NewPackageReader creates a PackageReader over the given package repository.
func NewPackageReader(pkgs token.BulkPackageRepository, log *logger.Logger, tracer trace.Tracer) *PackageReader {
	return &PackageReader{
		pkgs:   pkgs,
		logger: log.With("component", "package_reader"),
		tracer: tracer,
	}
}

// Get returns the package for each requested token identifier, in request
// order. Any identifier without a package fails the whole request.
func (r *PackageReader) Get(ctx context.Context, tokenIDs []string) ([]*token.BulkPricingPackage, error) {
	ctx, span := r.tracer.Start(ctx, "token.get_bulk_packages",
		trace.WithAttributes(attribute.Int("token_count", len(tokenIDs))))
	defer span.End()

	packages := make([]*token.BulkPricingPackage, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		pkg, err := r.pkgs.GetByTokenID(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if pkg == nil {
			err := token.NewUnknownPackageError(id)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		packages = append(packages, pkg)
	}

	r.logger.Debug(ctx, "bulk pricing packages resolved", "count", len(packages))
	return packages, nil
}
