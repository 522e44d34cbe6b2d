package commands

import (
	"fmt"
	"time"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/utils/crypto"
	"github.com/mirakyc/onboarding/utils/token"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		subject  string
		lifespan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authConf := config.AuthConfig()
			if subject == "" {
				subject = authConf.AdminUsername
			}
			if lifespan == 0 {
				lifespan = authConf.JwtAccessLifespan
			}

			accessToken, err := token.GenerateAccessJWT(authConf.Secret, subject, token.ScopeAdmin, lifespan)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), accessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (default ADMIN_USERNAME)")
	cmd.Flags().DurationVar(&lifespan, "ttl", 0, "token lifespan (default JWT_ACCESS_LIFESPAN)")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash to set as ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := crypto.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func secretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Print a random value suitable for SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := crypto.GenerateSecureSeed()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), seed)
			return nil
		},
	}
}
