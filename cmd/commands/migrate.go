package commands

import (
	"github.com/spf13/cobra"

	"loyaltydesk/backoffice/internal/model"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		if err := model.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("database migration completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
