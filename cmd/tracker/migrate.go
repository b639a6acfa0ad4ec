package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes, then exit",
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

		dbConn, err := initDB(cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := migrate(cmd.Context(), dbConn); err != nil {
			return err
		}
		logData.Logger.Info().Str("driver", cfg.DBDriver).Msg("schema is up to date")
		return nil
	},
}
