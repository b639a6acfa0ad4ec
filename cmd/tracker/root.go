package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chepyr/go-project-tracker/internal/config"
	"github.com/chepyr/go-project-tracker/internal/db"
	"github.com/chepyr/go-project-tracker/internal/logger"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:     "tracker",
	Short:   "Project and task tracker API server",
	Version: version,
	Long: `tracker serves a JSON API for projects, tasks and team assignments.
Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// validateEnv loads and checks the configuration.
func validateEnv() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.Config) (*logger.LogData, error) {
	return logger.New().
		FromPath(cfg.LogFile).
		WithLevel(cfg.LogLevel).
		Pretty(cfg.LogPretty).
		Make()
}

func initDB(cfg *config.Config) (*sql.DB, error) {
	driver, dsn := cfg.DataSource()
	dbConn, err := db.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return dbConn, nil
}

func migrate(ctx context.Context, dbConn *sql.DB) error {
	if err := db.Migrate(ctx, dbConn); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
