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

	"github.com/isdelr/ender-auth/internal/api"
	"github.com/isdelr/ender-auth/internal/auth"
	"github.com/isdelr/ender-auth/internal/config"
	"github.com/isdelr/ender-auth/internal/database"
	"github.com/isdelr/ender-auth/internal/email"
	"github.com/isdelr/ender-auth/internal/logger"
	"github.com/isdelr/ender-auth/internal/monitoring"
	"github.com/isdelr/ender-auth/internal/repository"
	"github.com/isdelr/ender-auth/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 5 * time.Second

// NewRootCmd creates the root command. Running it without a subcommand serves
// the API.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ender-auth",
		Short:         "User account service",
		Long:          `Account registration, login sessions, profiles and password recovery over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations and exit.`,
		RunE:  runMigrate,
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up database
	db, err := database.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		return err
	}

	// Set up email delivery
	var mailer email.Sender = email.LogSender{}
	if cfg.EmailFrom != "" {
		ses, err := email.NewSESSender(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		mailer = ses
	} else {
		log.Warn().Msg("EMAIL_FROM not set, reset emails will not be delivered")
	}

	// Set up services
	accountRepo := repository.NewAccountRepository(db)
	resetRepo := repository.NewResetTokenRepository(db)
	sessions := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	eventService := services.NewEventService(repository.NewEventRepository(db))
	accountService, err := services.NewAccountService(services.AccountDeps{
		Accounts:    accountRepo,
		ResetTokens: resetRepo,
		Hasher:      auth.NewBcryptHasher(auth.PasswordCost),
		Sessions:    sessions,
		Resets:      auth.NewResetTokens(cfg.ResetTokenTTL),
		Mailer:      mailer,
		Events:      eventService,
		Tx:          repository.NewTxRunner(db),
		ClientURL:   cfg.ClientURL,
		MailFrom:    email.FormatFrom(cfg.EmailFromName, cfg.EmailFrom),
	})
	if err != nil {
		return err
	}

	metrics := monitoring.NewMetrics()

	// Set up and run the expired reset token janitor
	scheduler, err := monitoring.NewScheduler(resetRepo, cfg.ResetPurgeSchedule, metrics)
	if err != nil {
		return err
	}
	scheduler.Run()
	defer scheduler.Stop()

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		Accounts:      accountService,
		Events:        eventService,
		Sessions:      sessions,
		Metrics:       metrics,
		DB:            db,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
