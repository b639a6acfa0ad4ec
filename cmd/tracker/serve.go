package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/go-project-tracker/internal/config"
	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/internal/handlers"
	"github.com/chepyr/go-project-tracker/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := validateEnv()
		if err != nil {
			return err
		}
		logData, err := initLogger(cfg)
		if err != nil {
			return err
		}
		defer logData.Close()
		log := logData.Logger

		dbConn, err := initDB(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				log.Error().Err(err).Msg("closing database connection")
			}
		}()

		if migrateOnStart {
			if err := migrate(cmd.Context(), dbConn); err != nil {
				return err
			}
		}

		handler := initHandlers(cfg, dbConn, log)
		defer handler.RateLimiter.Stop()

		server := initServer(cfg, handler.Routes(log))
		return startServer(server, log)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply the schema before serving")
}

func initHandlers(cfg *config.Config, dbConn *sql.DB, log zerolog.Logger) *handlers.Handler {
	store := db.NewStore(dbConn)
	return &handlers.Handler{
		Users:     service.NewUserDirectory(store, log),
		Projects:  service.NewProjectService(store, log),
		Tasks:     service.NewTaskService(store, log),
		Resolver:  service.NewResolver(store.Users, log),
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
		// AuthRateLimit auth attempts per window from the same IP
		RateLimiter:    handlers.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow),
		TrustedProxies: cfg.TrustedProxies,
	}
}

func initServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func startServer(server *http.Server, log zerolog.Logger) error {
	log.Info().Str("addr", server.Addr).Msg("starting server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
