package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benflix/benflix/handlers"
	"github.com/benflix/benflix/lib/auth"
	"github.com/benflix/benflix/lib/catalog"
	"github.com/benflix/benflix/lib/config"
	"github.com/benflix/benflix/lib/db"
	"github.com/benflix/benflix/lib/favorites"
	"github.com/benflix/benflix/lib/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app is the state shared by every subcommand, set up in PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	store  *store.GormStore
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "benflix",
		Short:         "TV catalog API with per-user favorites",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(
		newServeCmd(a),
		newSeedCmd(a),
		newMigrateCmd(a),
		newStatsCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		return err
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(a.logger)

	gormDB, err := db.Open(cfg.Database, a.logger)
	if err != nil {
		a.logger.Error("Failed to connect to database", slog.Any("error", err))
		return err
	}
	a.db = gormDB

	if err := db.RunMigrations(ctx, gormDB, a.logger); err != nil {
		a.logger.Error("Failed to run migrations", slog.Any("error", err))
		return err
	}

	a.store = store.New(gormDB)
	return nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Error("Failed to close database", slog.Any("error", err))
		}
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateServe(); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := handlers.NewRouter(handlers.Deps{
		Catalog:   catalog.New(a.store, a.logger),
		Favorites: favorites.New(a.store, a.logger),
		Auth:      auth.NewService(a.store, a.cfg.Auth.Secret, a.cfg.Auth.Expiration, a.logger),
		Health:    a.store,
		Logger:    a.logger,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", slog.String("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("Server failed", slog.Any("error", err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// setup already migrated.
			a.logger.Info("Database is up to date", slog.String("driver", a.cfg.Database.Driver))
			return nil
		},
	}
}
