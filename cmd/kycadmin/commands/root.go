package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/services"
	"github.com/mirakyc/onboarding/storage"
	"github.com/spf13/cobra"
)

var (
	timeout time.Duration
	withDB  bool
)

// Execute runs the operator CLI
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kycadmin",
		Short:         "Operator tools for the MiraKYC registry",
		SilenceUsage: true,
	}

	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "deadline for chain calls")
	root.PersistentFlags().BoolVar(&withDB, "db", false, "connect to the database and record writes in the transaction log")

	root.AddCommand(
		statusCmd(),
		balanceCmd(),
		withdrawalsCmd(),
		withdrawCmd(),
		historyCmd(),
		tokenCmd(),
		hashPasswordCmd(),
		secretCmd(),
	)
	return root
}

// loadServices connects to the chain, and to the database when requested
func loadServices(cmd *cobra.Command) (*services.Services, error) {
	ctx := cmd.Context()
	if withDB && storage.DB == nil {
		if err := storage.DBConnection(ctx, config.DBConfig()); err != nil {
			return nil, err
		}
	}
	return services.NewServices(ctx, config.ChainConfig())
}

func printJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
