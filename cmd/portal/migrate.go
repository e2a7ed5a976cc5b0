package main

import (
	idb "feedback_portal/internal/infra/database"
	"feedback_portal/internal/infra/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := idb.NewPostgresConnection(cmd.Context(), cfg.DatabaseURL, cfg.DBPool)
		if err != nil {
			return err
		}
		defer db.Close()

		return idb.Migrate(db, logger.Component("migrations"))
	},
}
