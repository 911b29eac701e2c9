// Command tokenadmin administers allocation tokens: batch updates across
// tokens selected by identifier list or prefix, and bulk pricing package
// reports.
//
// Usage:
//
//	tokenadmin update-tokens --tokens tok1,tok2 --discount_fraction 0.5
//	tokenadmin update-tokens --prefix promo2024 --token_status_transitions "1970-01-01T00:00:00Z=NOT_STARTED,2024-06-01T00:00:00Z=VALID"
//	tokenadmin get-bulk-package --tokens bulk-token-1
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/automaxprocs/maxprocs"

	apptoken "github.com/ahrav/registry-tokens/internal/app/token"
	"github.com/ahrav/registry-tokens/internal/config"
	"github.com/ahrav/registry-tokens/internal/config/envloader"
	"github.com/ahrav/registry-tokens/internal/config/fileloader"
	"github.com/ahrav/registry-tokens/internal/domain/token"
	"github.com/ahrav/registry-tokens/internal/infra/storage/tokens/postgres"
	"github.com/ahrav/registry-tokens/pkg/common/logger"
	"github.com/ahrav/registry-tokens/pkg/common/otel"
)

const serviceType = "tokenadmin"

func main() {
	_, _ = maxprocs.Set()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: tokenadmin <update-tokens|get-bulk-package> [flags]")
		os.Exit(2)
	}

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A config file, when given, is authoritative; otherwise configuration
	// comes from TOKENADMIN_* environment variables layered over defaults.
	var loader config.Loader = envloader.NewEnvLoader("")
	if path := os.Getenv("TOKENADMIN_CONFIG"); path != "" {
		loader = fileloader.NewFileLoader(path)
	}
	cfg, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	svcName := fmt.Sprintf("TOKENADMIN-%s", hostname)
	logg := logger.NewWithMetadata(os.Stderr, logLevel(cfg.Log.Level), svcName, otel.GetTraceID, logger.Events{}, map[string]string{
		"service":  svcName,
		"hostname": hostname,
		"app":      serviceType,
	})

	// Tracing is wired through the stores so a collector can be attached
	// later; the CLI itself runs with a no-op provider.
	tracer := noop.NewTracerProvider().Tracer(serviceType)

	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := runMigrations(pool); err != nil {
		logg.Error(ctx, "failed to run migrations", "error", err)
		os.Exit(1)
	}

	tokenStore := postgres.NewTokenStore(pool, tracer)
	pkgStore := postgres.NewBulkPackageStore(pool, tracer)
	domainStore := postgres.NewDomainStore(pool, tracer)
	txManager := postgres.NewTxManager(pool, tracer)

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "update-tokens":
		updater := apptoken.NewUpdater(tokenStore, domainStore, txManager, logg, tracer)
		err = runUpdateTokens(ctx, updater, args)
	case "get-bulk-package":
		reader := apptoken.NewPackageReader(pkgStore, logg, tracer)
		err = runGetBulkPackage(ctx, reader, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runUpdateTokens parses the update flag set and executes one batch update.
// Flags that are not passed at all leave the corresponding token fields
// untouched; passing a flag with an empty value clears list-valued fields.
func runUpdateTokens(ctx context.Context, updater *apptoken.Updater, args []string) error {
	fs := flag.NewFlagSet("update-tokens", flag.ExitOnError)
	tokens := fs.String("tokens", "", "comma-separated token identifiers to update")
	prefix := fs.String("prefix", "", "update every token whose identifier starts with this prefix")
	dryRun := fs.Bool("dry_run", false, "report what would change without committing")

	fieldFlags := map[string]*string{
		"allowed_tlds":             fs.String("allowed_tlds", "", "comma-separated TLDs the token is limited to"),
		"allowed_client_ids":       fs.String("allowed_client_ids", "", "comma-separated registrar IDs the token is limited to"),
		"allowed_epp_actions":      fs.String("allowed_epp_actions", "", "comma-separated EPP actions the token is limited to"),
		"discount_fraction":        fs.String("discount_fraction", "", "discount fraction between 0 and 1"),
		"discount_premiums":        fs.String("discount_premiums", "", "whether the discount applies to premium names"),
		"discount_years":           fs.String("discount_years", "", "number of years the discount applies for"),
		"renewal_price_behavior":   fs.String("renewal_price_behavior", "", "DEFAULT, NONPREMIUM, or SPECIFIED"),
		"registration_behavior":    fs.String("registration_behavior", "", "DEFAULT, BYPASS_TLD_STATE, or ANCHOR_TENANT"),
		"token_status_transitions": fs.String("token_status_transitions", "", "comma-separated TIME=STATUS pairs replacing the status history"),
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Absent and empty are different things for every option, so deltas are
	// built only from flags the operator actually passed.
	passed := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { passed[f.Name] = true })

	req := apptoken.UpdateRequest{}
	if passed["tokens"] {
		req.Targets.Identifiers = apptoken.Set(splitIDs(*tokens))
	}
	if passed["prefix"] {
		req.Targets.Prefix = apptoken.Set(*prefix)
	}

	setField := func(name string, dst *apptoken.Optional[string]) {
		if passed[name] {
			*dst = apptoken.Set(*fieldFlags[name])
		}
	}
	setField("allowed_tlds", &req.Fields.AllowedTlds)
	setField("allowed_client_ids", &req.Fields.AllowedRegistrarIds)
	setField("allowed_epp_actions", &req.Fields.AllowedEppActions)
	setField("discount_fraction", &req.Fields.DiscountFraction)
	setField("discount_premiums", &req.Fields.DiscountPremiums)
	setField("discount_years", &req.Fields.DiscountYears)
	setField("renewal_price_behavior", &req.Fields.RenewalPriceBehavior)
	setField("registration_behavior", &req.Fields.RegistrationBehavior)
	setField("token_status_transitions", &req.Fields.TokenStatusTransitions)

	if *dryRun {
		req.DryRun = true
	}

	result, err := updater.Update(ctx, req)
	if err != nil {
		return err
	}

	for _, tr := range result.Tokens {
		if tr.Changed {
			fmt.Printf("updated %s\n", tr.Identifier)
		} else {
			fmt.Printf("unchanged %s\n", tr.Identifier)
		}
	}
	fmt.Printf("%d of %d token(s) updated\n", result.Updated(), len(result.Tokens))
	return nil
}

// runGetBulkPackage prints the bulk pricing package of each requested token.
func runGetBulkPackage(ctx context.Context, reader *apptoken.PackageReader, args []string) error {
	fs := flag.NewFlagSet("get-bulk-package", flag.ExitOnError)
	tokens := fs.String("tokens", "", "comma-separated bulk token identifiers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids := splitIDs(*tokens)
	if len(ids) == 0 {
		return fmt.Errorf("must provide --tokens")
	}

	packages, err := reader.Get(ctx, ids)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		printPackage(pkg)
	}
	return nil
}

func printPackage(pkg *token.BulkPricingPackage) {
	fmt.Printf("token: %s\n", pkg.TokenID())
	fmt.Printf("  max domains: %d\n", pkg.MaxDomains())
	fmt.Printf("  max creates: %d\n", pkg.MaxCreates())
	fmt.Printf("  bulk price: %s %s\n", pkg.BulkPrice(), pkg.Currency())
	fmt.Printf("  next billing date: %s\n", pkg.NextBillingDate().Format(time.RFC3339))
	if !pkg.LastNotificationSent().IsZero() {
		fmt.Printf("  last notification sent: %s\n", pkg.LastNotificationSent().Format(time.RFC3339))
	}
}

// connectDB opens the pool and waits for the database to accept connections.
// Startup commonly races the database container, so the initial ping retries
// with exponential backoff.
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = timeout
	expBackoff.InitialInterval = time.Second

	if err := backoff.Retry(func() error { return pool.Ping(ctx) }, expBackoff); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database after retries: %w", err)
	}
	return pool, nil
}

// runMigrations applies all up migrations from db/migrations. Running them on
// every invocation is idempotent; ErrNoChange is the normal case.
func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("could not create pgx driver: %w", err)
	}

	migrationsPath := os.Getenv("TOKENADMIN_MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "file://db/migrations"
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

func logLevel(level string) logger.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func splitIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
