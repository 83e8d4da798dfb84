package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventsite_backend/internal/adapters/storage"
	"eventsite_backend/internal/email"
	apphttp "eventsite_backend/internal/http"
	"eventsite_backend/internal/http/router"
	"eventsite_backend/internal/notification"
	"eventsite_backend/internal/payments"
	"eventsite_backend/internal/pdf"
	"eventsite_backend/internal/quotes"
	"eventsite_backend/internal/quotes/service"
	"eventsite_backend/internal/webhook"
	"eventsite_backend/platform/config"
	"eventsite_backend/platform/db"
	"eventsite_backend/platform/logger"
	"eventsite_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for quote documents and branding (MinIO)
	var storageSvc *storage.MinIOService
	if cfg.IsMinIOEnabled() {
		storageSvc, err = storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, storageSvc, "quote-pdfs", cfg.GetMinioBucketQuotePDFs())
		ensureBucket(ctx, log, storageSvc, "branding", cfg.GetMinioBucketBranding())
		log.Info("storage service initialized",
			"quotePDFsBucket", cfg.GetMinioBucketQuotePDFs(),
			"brandingBucket", cfg.GetMinioBucketBranding(),
		)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; quote documents are attached only")
	}

	renderer := initRenderer(cfg.GetBusinessProfile(), storageSvc, cfg.GetMinioBucketBranding(), log)

	templates, err := email.LoadTemplates()
	if err != nil {
		log.Error("failed to load email templates", "error", err)
		panic("failed to load email templates: " + err.Error())
	}

	dispatcher := notification.NewDispatcher(notification.BuildChain(cfg, log), log)
	log.Info("notification chain ready", "providers", dispatcher.ProviderNames())

	issuer, closeCache := initPayments(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	deps := quotes.Dependencies{
		Renderer:  renderer,
		Notifier:  dispatcher,
		Templates: templates,
	}
	if issuer != nil {
		deps.Payments = issuer
	}
	if storageSvc != nil {
		deps.Documents = storageSvc
	}
	quotesModule := quotes.NewModule(pool, deps, service.Config{
		Business:       cfg.GetBusinessProfile(),
		ContactPageURL: cfg.GetContactPageURL(),
		QuoteCCList:    cfg.GetQuoteCCList(),
		DepositPct:     cfg.GetDefaultDepositPct(),
		PaymentTimeout: cfg.GetPaymentTimeout(),
		DocumentBucket: cfg.GetMinioBucketQuotePDFs(),
	}, val, log)

	modules := []apphttp.Module{quotesModule}
	if cfg.GetStripeWebhookSecret() != "" {
		modules = append(modules, webhook.NewModule(pool, cfg.GetStripeWebhookSecret(), quotesModule.Service(), log))
	} else {
		log.Warn("STRIPE_WEBHOOK_SECRET not configured; payments will not be recorded automatically")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolHealth(pool),
		Modules: modules,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRenderer(business config.BusinessProfile, storageSvc *storage.MinIOService, brandingBucket string, log *logger.Logger) *pdf.Renderer {
	renderer := pdf.NewRenderer(log)
	switch {
	case business.LogoObjectKey != "" && storageSvc != nil:
		renderer.SetLogoLoader(pdf.ObjectLogoLoader{Storage: storageSvc, Bucket: brandingBucket, Key: business.LogoObjectKey})
	case business.LogoPath != "":
		renderer.SetLogoLoader(pdf.FileLogoLoader{Path: business.LogoPath})
	}
	return renderer
}

func initPayments(ctx context.Context, cfg *config.Config, log *logger.Logger) (*payments.Issuer, func()) {
	if !cfg.IsStripeEnabled() {
		log.Warn("STRIPE_SECRET_KEY not configured; quotes will link to the contact page")
		return nil, nil
	}

	issuer := payments.NewIssuer(payments.NewStripeProvider(cfg.GetStripeSecretKey()), payments.IssuerConfig{
		Currency:            cfg.GetCurrency(),
		SuccessURL:          cfg.GetCheckoutSuccessURL(),
		CancelURL:           cfg.GetCheckoutCancelURL(),
		DefaultDepositPct:   cfg.GetDefaultDepositPct(),
		MinimumDepositMinor: cfg.GetCheckoutMinimumDepositMinor(),
	}, log)

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; checkout sessions are deduplicated by the provider only")
		return issuer, nil
	}

	client, err := payments.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize checkout session cache", "error", err)
		return issuer, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("checkout session cache unreachable, continuing without it", "error", err)
		_ = client.Close()
		return issuer, nil
	}

	issuer.SetSessionCache(payments.NewRedisSessionCache(client))
	log.Info("checkout session cache enabled")
	return issuer, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
