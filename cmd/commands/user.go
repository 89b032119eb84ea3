package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/repository"
	"loyaltydesk/backoffice/internal/service"
	jwtpkg "loyaltydesk/backoffice/pkg/jwt"
)

var (
	username string
	password string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Add an operator account",
	Long: `Add an operator account that can sign in to the back office.

Examples:
  backoffice create-user --username clerk --password 's3cret-pass'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
		authService := service.NewAuthService(
			repository.NewPGUserRepository(db),
			repository.NewMemorySessionStore(),
			jwtManager, nil, log,
		)

		user, err := authService.CreateUser(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		log.Info("operator created", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
		fmt.Fprintln(cmd.OutOrStdout(), user.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVarP(&username, "username", "u", "", "Operator username")
	createUserCmd.Flags().StringVarP(&password, "password", "p", "", "Operator password")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createUserCmd)
}
