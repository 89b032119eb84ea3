package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"loyaltydesk/backoffice/internal/config"
	"loyaltydesk/backoffice/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Loyalty and referral back office for a single shop",
	Long: `backoffice records customers and invoices, tracks the loyalty and referral
points each invoice earns, and reports daily sales.

Commands:
  serve        - Run the HTTP API
  migrate      - Create or update the database schema
  create-user  - Add an operator account`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
}

// bootstrap loads config, the logger and the database shared by every command.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return cfg, log, db, nil
}
