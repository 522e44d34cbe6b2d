package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mirakyc/onboarding/services/kyc"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func parseAddress(raw string) (common.Address, error) {
	if !utils.IsValidEthereumAddress(raw) {
		return common.Address{}, fmt.Errorf("%q is not a valid address", raw)
	}
	return common.HexToAddress(raw), nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <address>",
		Short: "Print the contract KYC status of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}

			svc, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			status := svc.Chain.GetKYCStatusFromContract(ctx, address)
			return printJSON(cmd.OutOrStdout(), types.KYCStatusResponse{
				Address:  address.Hex(),
				Status:   kyc.MergeStatus(status, nil),
				Contract: status,
			})
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the contract owner and token balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			owner, err := svc.Chain.GetContractOwner(ctx)
			if err != nil {
				return err
			}
			balance, err := svc.Chain.GetContractBalance(ctx)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), types.ContractOverview{
				Owner:       owner.Hex(),
				Balance:     balance.String(),
				TokenSymbol: svc.Chain.Config().TokenSymbol,
			})
		},
	}
}

func withdrawalsCmd() *cobra.Command {
	var totalOnly bool

	cmd := &cobra.Command{
		Use:   "withdrawals",
		Short: "Scan the FundsWithdrawn history of the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if totalOnly {
				total, err := svc.Scanner.GetTotalWithdrawals(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", total, svc.Chain.Config().TokenSymbol)
				return nil
			}

			scan, err := svc.Scanner.ScanWithdrawals(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), scan)
		},
	}
	cmd.Flags().BoolVar(&totalOnly, "total", false, "print only the formatted total")
	return cmd
}

func withdrawCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw registry funds to the owner with the configured signer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			if !amount.IsPositive() {
				return errors.New("amount must be greater than zero")
			}
			if !yes {
				return errors.New("withdrawals move funds on-chain, rerun with --yes to confirm")
			}

			svc, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			txHash, err := svc.Chain.WithdrawContractFunds(ctx, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), types.SubmissionResponse{
				TxHash:      txHash,
				ExplorerURL: svc.Chain.Config().ExplorerTxURL + txHash,
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the withdrawal")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <address>",
		Short: "List recorded contract writes of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}

			withDB = true
			svc, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			logs, err := svc.Logs.ListByWallet(cmd.Context(), address.Hex(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), logs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	return cmd
}
