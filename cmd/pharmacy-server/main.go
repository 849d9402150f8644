package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicore/pharmacy/internal/config"
	"github.com/clinicore/pharmacy/internal/domain/audit"
	"github.com/clinicore/pharmacy/internal/domain/catalog"
	"github.com/clinicore/pharmacy/internal/domain/dispense"
	"github.com/clinicore/pharmacy/internal/domain/inventory"
	"github.com/clinicore/pharmacy/internal/domain/safety"
	"github.com/clinicore/pharmacy/internal/platform/auth"
	"github.com/clinicore/pharmacy/internal/platform/db"
	"github.com/clinicore/pharmacy/internal/platform/middleware"
	"github.com/clinicore/pharmacy/internal/platform/notification"
	"github.com/clinicore/pharmacy/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pharmacy-server",
		Short: "Pharmacy safety and inventory allocation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the pharmacy API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Telemetry
	metrics := telemetry.NewMetrics()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(cfg.JWTSecret))
	}

	// Health check and metrics
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", metrics.Handler())

	apiV1 := e.Group("/api/v1")

	// Catalog domain
	medicineRepo := catalog.NewMedicineRepoPG(pool)
	catalogSvc := catalog.NewService(medicineRepo)
	catalogHandler := catalog.NewHandler(catalogSvc)
	catalogHandler.RegisterRoutes(apiV1)

	// Safety domain
	ruleRepo := safety.NewRuleRepoPG(pool)
	groupRepo := safety.NewGroupRepoPG(pool)
	safetySvc := safety.NewService(ruleRepo, groupRepo, catalogSvc)
	if err := safetySvc.Reload(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load safety rules")
	}
	safetyHandler := safety.NewHandler(safetySvc)
	safetyHandler.RegisterRoutes(apiV1)

	// Inventory domain
	batchRepo := inventory.NewBatchRepoPG(pool)
	inventorySvc := inventory.NewService(batchRepo, medicineRepo)
	inventoryHandler := inventory.NewHandler(inventorySvc, cfg.ExpiryWarningDays)
	inventoryHandler.RegisterRoutes(apiV1)

	// Audit trail
	auditStore := audit.NewPGEmitter(pool)
	auditHandler := audit.NewHandler(auditStore)
	auditHandler.RegisterRoutes(apiV1)

	// Notifications go to the operations log until real gateways are
	// provisioned.
	tplEngine := notification.NewTemplateEngine()
	notifyManager := notification.NewManager(
		notification.NewLogEmailSender(logger), notification.NewLogSMSSender(logger), tplEngine)
	notifier := dispense.NewAlertNotifier(notifyManager, "pharmacy-ops", logger)

	// Dispense coordinator
	txRepo := dispense.NewTransactionRepoPG(pool)
	coordinator := dispense.NewCoordinator(
		dispense.Config{
			LockTimeout:            cfg.DispenseLockTimeout,
			MaxRetries:             cfg.DispenseMaxRetries,
			OverrideRequiresReason: cfg.OverrideRequiresReason,
		},
		medicineRepo,
		batchRepo,
		txRepo,
		dispense.NewPGAtomic(pool),
		safetySvc,
		auditStore,
		notifier,
		metrics,
		logger,
	)
	dispenseHandler := dispense.NewHandler(coordinator)
	dispenseHandler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
