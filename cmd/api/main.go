package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/config"
	"github.com/ashmitsharp/moneybook-api/internal/database"
	"github.com/ashmitsharp/moneybook-api/internal/handlers"
	"github.com/ashmitsharp/moneybook-api/internal/logger"
	"github.com/ashmitsharp/moneybook-api/internal/middleware"
	"github.com/ashmitsharp/moneybook-api/internal/services"
	"github.com/ashmitsharp/moneybook-api/internal/store"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{
		Level:   cfg.LogLevel,
		Console: !cfg.IsProduction(),
	})
	if envErr != nil {
		log.Debug().Msg(".env file not found, using system environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	// Persistence
	var st store.Store
	if cfg.DatabaseURL != "" {
		if cfg.AutoMigrate {
			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Info().Msg("Database migrations applied")
		}

		pool, err := database.Connect(ctx, database.Options{
			URL:            cfg.DatabaseURL,
			MaxConnections: cfg.DBMaxConnections,
			ConnectTimeout: cfg.DBConnectionTimeout,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		st = store.NewPostgres(pool)
		log.Info().Msg("Connected to database")
	} else {
		st = store.NewMemory()
		log.Warn().Msg("DATABASE_URL not set, using in-memory store; data is lost on exit")
	}

	// Services
	tagger, err := services.NewAutoTagger(st, cfg.PatternCacheTTL, log)
	if err != nil {
		return err
	}
	defer tagger.Close()

	ledger := services.NewLedger(st, tagger, log)
	categories := services.NewCategoryService(st, log)
	loans := services.NewLoanService(st, ledger, log)
	importer := services.NewImporter(ledger, tagger, log)
	parser := services.NewParser(log)
	validator := services.NewFileValidator(cfg.MaxUploadBytes)

	// Statement storage is optional; without it only direct uploads work
	var storage handlers.StorageService
	if cfg.S3Bucket != "" {
		s3, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint, log)
		if err != nil {
			return err
		}
		storage = s3
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Storage service initialized")
	} else {
		log.Warn().Msg("S3_BUCKET not set, presigned uploads disabled")
	}

	seed := func(ctx context.Context) error {
		return services.SeedDefaults(ctx, categories, ledger)
	}
	if cfg.SeedDefaults {
		if err := seed(ctx); err != nil {
			return err
		}
	}

	if cfg.BalanceAuditInterval > 0 {
		go ledger.RunBalanceAudit(ctx, cfg.BalanceAuditInterval)
		log.Info().Dur("interval", cfg.BalanceAuditInterval).Msg("Balance audit scheduled")
	}

	routes := &handlers.Handlers{
		Accounts:     handlers.NewAccountHandler(ledger),
		Categories:   handlers.NewCategoryHandler(categories),
		Transactions: handlers.NewTransactionHandler(ledger),
		TagPatterns:  handlers.NewTagPatternHandler(tagger),
		Loans:        handlers.NewLoanHandler(loans),
		Imports:      handlers.NewImportHandler(storage, validator, parser, importer, log),
		Admin:        handlers.NewAdminHandler(ledger, seed),
	}

	app := fiber.New(fiber.Config{
		AppName:      "moneybook API v1.0",
		ErrorHandler: utils.NewErrorHandler(log, cfg.IsProduction()),
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
	})

	// Apply global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoint (public)
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "moneybook-api",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1", middleware.RequireSession(cfg.RequireAuth, cfg.ClerkSecretKey, log))
	routes.Register(v1)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Info().Str("addr", addr).Str("environment", cfg.Environment).Msg("moneybook API is running")
		errCh <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
