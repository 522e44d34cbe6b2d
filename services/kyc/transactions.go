package kyc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/mirakyc/onboarding/utils/metrics"
	"github.com/shopspring/decimal"
)

type sendFunc func(opts *bind.TransactOpts) (*ethTypes.Transaction, error)

// transact signs and broadcasts one contract write and waits for it to be mined
func (s *ChainService) transact(ctx context.Context, kind types.TransactionKind, amount decimal.Decimal, send sendFunc) (receipt *ethTypes.Receipt, err error) {
	defer func() { metrics.RecordContractTx(string(kind), err) }()

	if s.signer == nil {
		return nil, kycErrors.ErrSignerRequired{}
	}

	opts, err := s.signer.TransactOpts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s.transactOpts: %w", kind, err)
	}
	from := s.signer.Address()

	err = s.nonces.SubmitWithNonce(ctx, s.client, s.conf.ChainID, from, func(nonce uint64) error {
		txOpts := *opts
		txOpts.Context = ctx
		txOpts.Nonce = new(big.Int).SetUint64(nonce)

		tx, sendErr := send(&txOpts)
		if sendErr != nil {
			return sendErr
		}

		logger.WithFields(logger.Fields{
			"Kind":    kind,
			"TxHash":  tx.Hash().Hex(),
			"Address": from.Hex(),
			"Nonce":   nonce,
		}).Infof("Transaction sent, waiting for confirmation")
		s.recordSent(ctx, kind, from, tx.Hash(), amount)

		waitCtx := ctx
		if s.conf.ReceiptTimeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, s.conf.ReceiptTimeout)
			defer cancel()
		}

		mined, waitErr := bind.WaitMined(waitCtx, s.client, tx)
		if waitErr != nil {
			return fmt.Errorf("%w: %s: %v", utils.ErrTxBroadcastNoReceipt, tx.Hash().Hex(), waitErr)
		}
		receipt = mined
		return nil
	})
	if err != nil {
		return nil, err
	}

	if receipt.Status != ethTypes.ReceiptStatusSuccessful {
		s.recordMined(ctx, receipt, types.TransactionStatusFailed)
		return receipt, fmt.Errorf("execution reverted (tx %s, block %s)", receipt.TxHash.Hex(), receipt.BlockNumber.String())
	}
	s.recordMined(ctx, receipt, types.TransactionStatusConfirmed)

	logger.WithFields(logger.Fields{
		"Kind":        kind,
		"TxHash":      receipt.TxHash.Hex(),
		"BlockNumber": receipt.BlockNumber.String(),
		"GasUsed":     receipt.GasUsed,
	}).Infof("Transaction confirmed")

	return receipt, nil
}

func (s *ChainService) recordSent(ctx context.Context, kind types.TransactionKind, from common.Address, txHash common.Hash, amount decimal.Decimal) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Create(ctx, &types.TransactionLog{
		Kind:          kind,
		Status:        types.TransactionStatusPending,
		WalletAddress: from.Hex(),
		TxHash:        txHash.Hex(),
		Amount:        amount,
		Network:       s.conf.NetworkName,
	})
	if err != nil {
		logger.WithFields(logger.Fields{
			"TxHash": txHash.Hex(),
			"Error":  err.Error(),
		}).Warnf("Failed to record transaction")
	}
}

func (s *ChainService) recordMined(ctx context.Context, receipt *ethTypes.Receipt, status types.TransactionStatus) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.MarkStatus(ctx, receipt.TxHash.Hex(), status, receipt.BlockNumber.Int64()); err != nil {
		logger.WithFields(logger.Fields{
			"TxHash": receipt.TxHash.Hex(),
			"Error":  err.Error(),
		}).Warnf("Failed to update transaction status")
	}
}

// ApproveFee approves the registry to pull amount of the fee token from the signer
func (s *ChainService) ApproveFee(ctx context.Context, amount decimal.Decimal) (string, error) {
	decimals := s.TokenDecimals(ctx)
	amountInWei := utils.ToSubunit(amount, decimals)

	receipt, err := s.transact(ctx, types.TransactionKindApprove, amount, func(opts *bind.TransactOpts) (*ethTypes.Transaction, error) {
		return s.token.Approve(opts, s.conf.KYCContractAddress, amountInWei)
	})
	if err != nil {
		if ClassifyRPCError(err) == RPCErrorNotFound {
			return "", s.tokenNotFound(ctx)
		}
		return "", MapError(err, OperationApprove, s.conf.NetworkName)
	}

	return receipt.TxHash.Hex(), nil
}

func (s *ChainService) metadataURL(metadataURL string, address common.Address) string {
	if metadataURL != "" {
		return metadataURL
	}
	return s.conf.MetadataBaseURL + address.Hex()
}

// SubmitKYCVerification pays the fee and records the submission on-chain
func (s *ChainService) SubmitKYCVerification(ctx context.Context, anonymousID, metadataURL string) (string, error) {
	txHash, err := s.submitKYC(ctx, anonymousID, metadataURL)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Error": err.Error(),
		}).Errorf("Error submitting KYC")
		return "", MapError(err, OperationSubmit, s.conf.NetworkName)
	}
	return txHash, nil
}

func (s *ChainService) submitKYC(ctx context.Context, anonymousID, metadataURL string) (string, error) {
	if s.signer == nil {
		return "", kycErrors.ErrSignerRequired{}
	}
	userAddress := s.signer.Address()
	combinedDataHash := utils.KeccakID(anonymousID)

	decimals := s.TokenDecimals(ctx)
	amountInWei := s.chargeInWei(decimals)

	logger.WithFields(logger.Fields{
		"KYCContract":      s.conf.KYCContractAddress.Hex(),
		"Token":            s.conf.StablecoinAddress.Hex(),
		"Address":          userAddress.Hex(),
		"CombinedDataHash": combinedDataHash.Hex(),
		"Fee":              s.conf.ChargeAmount.String(),
	}).Infof("Submitting KYC to smart contract")

	isApproved, err := s.CheckFeeApproval(ctx, userAddress)
	if err != nil {
		return "", err
	}
	if !isApproved {
		_, err := s.transact(ctx, types.TransactionKindApprove, s.conf.ChargeAmount, func(opts *bind.TransactOpts) (*ethTypes.Transaction, error) {
			return s.token.Approve(opts, s.conf.KYCContractAddress, amountInWei)
		})
		if err != nil {
			return "", err
		}
	}

	paused, err := s.registry.Paused(callOpts(ctx))
	if err != nil {
		logger.WithFields(logger.Fields{
			"Error": err.Error(),
		}).Warnf("Could not check pause status")
	} else if paused {
		return "", kycErrors.ErrContractPaused{}
	}

	hasSubmitted, err := s.registry.HasSubmitted(callOpts(ctx), userAddress)
	if err != nil {
		return "", err
	}
	if hasSubmitted {
		return "", kycErrors.ErrAlreadySubmitted{}
	}

	balanceBefore, err := s.TokenBalance(ctx, userAddress)
	if err != nil {
		return "", err
	}

	url := s.metadataURL(metadataURL, userAddress)
	receipt, err := s.transact(ctx, types.TransactionKindSubmit, s.conf.ChargeAmount, func(opts *bind.TransactOpts) (*ethTypes.Transaction, error) {
		return s.registry.SubmitKYC(opts, combinedDataHash, url)
	})
	if err != nil {
		return "", err
	}

	balanceAfter, err := s.TokenBalance(ctx, userAddress)
	if err != nil {
		logger.WithFields(logger.Fields{
			"TxHash": receipt.TxHash.Hex(),
			"Error":  err.Error(),
		}).Warnf("Could not verify fee deduction")
	} else {
		diff := balanceBefore.Sub(balanceAfter)
		if diff.LessThan(s.conf.FeeToleranceLow) || diff.GreaterThan(s.conf.FeeToleranceHigh) {
			logger.WithFields(logger.Fields{
				"TxHash":   receipt.TxHash.Hex(),
				"Expected": s.conf.ChargeAmount.String(),
				"Actual":   diff.String(),
			}).Warnf("Fee deduction outside the expected range")
		}
	}

	return receipt.TxHash.Hex(), nil
}

// UpdateDocuments replaces the data hash and metadata URL of an existing submission
func (s *ChainService) UpdateDocuments(ctx context.Context, anonymousID, metadataURL string) (string, error) {
	if s.signer == nil {
		return "", kycErrors.ErrSignerRequired{}
	}
	userAddress := s.signer.Address()

	hasSubmitted, err := s.registry.HasSubmitted(callOpts(ctx), userAddress)
	if err != nil {
		return "", MapError(err, OperationUpdate, s.conf.NetworkName)
	}
	if !hasSubmitted {
		return "", kycErrors.ErrNotSubmitted{}
	}

	combinedDataHash := utils.KeccakID(anonymousID)
	url := s.metadataURL(metadataURL, userAddress)

	receipt, err := s.transact(ctx, types.TransactionKindUpdate, decimal.Zero, func(opts *bind.TransactOpts) (*ethTypes.Transaction, error) {
		return s.registry.UpdateDocuments(opts, combinedDataHash, url)
	})
	if err != nil {
		return "", MapError(err, OperationUpdate, s.conf.NetworkName)
	}

	return receipt.TxHash.Hex(), nil
}

// WithdrawContractFunds moves amount of the fee token from the registry to the owner
// and verifies the owner's balance increased accordingly
func (s *ChainService) WithdrawContractFunds(ctx context.Context, amount decimal.Decimal) (string, error) {
	txHash, err := s.withdraw(ctx, amount)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Amount": amount.String(),
			"Error":  err.Error(),
		}).Errorf("Error withdrawing funds")
		return "", MapError(err, OperationWithdraw, s.conf.NetworkName)
	}
	return txHash, nil
}

func (s *ChainService) withdraw(ctx context.Context, amount decimal.Decimal) (string, error) {
	if s.signer == nil {
		return "", kycErrors.ErrSignerRequired{}
	}
	userAddress := s.signer.Address()
	symbol := s.conf.TokenSymbol

	if !s.VerifyOwner(ctx, userAddress) {
		owner, err := s.GetContractOwner(ctx)
		if err != nil {
			return "", err
		}
		return "", kycErrors.ErrNotOwner{Owner: owner.Hex(), Caller: userAddress.Hex()}
	}

	contractBalance, err := s.GetContractBalance(ctx)
	if err != nil {
		return "", err
	}

	decimals := s.TokenDecimals(ctx)
	amountInWei := utils.ToSubunit(amount, decimals)
	if utils.ToSubunit(contractBalance, decimals).Cmp(amountInWei) < 0 {
		return "", kycErrors.ErrInsufficientContractBalance{
			Available: contractBalance.String(),
			Requested: amount.String(),
			Symbol:    symbol,
		}
	}

	balanceBefore, err := s.TokenBalance(ctx, userAddress)
	if err != nil {
		return "", err
	}

	logger.WithFields(logger.Fields{
		"KYCContract":     s.conf.KYCContractAddress.Hex(),
		"Address":         userAddress.Hex(),
		"Amount":          amount.String(),
		"AmountInWei":     amountInWei.String(),
		"ContractBalance": contractBalance.String(),
		"BalanceBefore":   balanceBefore.String(),
	}).Infof("Withdrawing funds from contract")

	receipt, err := s.transact(ctx, types.TransactionKindWithdraw, amount, func(opts *bind.TransactOpts) (*ethTypes.Transaction, error) {
		return s.registry.WithdrawFunds(opts, amountInWei)
	})
	if err != nil {
		return "", err
	}
	txHash := receipt.TxHash.Hex()

	event := utils.FindFundsWithdrawnEvent(receipt.Logs, s.conf.KYCContractAddress)
	if event == nil {
		logger.WithFields(logger.Fields{
			"TxHash": txHash,
		}).Warnf("FundsWithdrawn event not found in transaction logs")
	} else if !utils.SameAddress(event.Owner, userAddress.Hex()) {
		return "", kycErrors.ErrFundsMisdirected{Recipient: event.Owner, Expected: userAddress.Hex()}
	}

	if err := s.sleep(ctx, s.conf.BalanceSettleDelay); err != nil {
		return "", err
	}

	balanceAfter, err := s.TokenBalance(ctx, userAddress)
	if err != nil {
		return "", err
	}
	contractBalanceAfter, err := s.GetContractBalance(ctx)
	if err != nil {
		return "", err
	}

	threshold := amount.Mul(s.conf.WithdrawTolerance)
	increase := balanceAfter.Sub(balanceBefore)
	decrease := contractBalance.Sub(contractBalanceAfter)

	if increase.LessThan(threshold) {
		return "", kycErrors.ErrWithdrawalVerification{
			Expected:    amount.String(),
			Actual:      increase.String(),
			Symbol:      symbol,
			ExplorerURL: s.conf.ExplorerTxURL + txHash,
		}
	}

	if decrease.LessThan(threshold) {
		logger.WithFields(logger.Fields{
			"TxHash":   txHash,
			"Expected": amount.String(),
			"Actual":   decrease.String(),
		}).Warnf("Contract balance did not decrease as expected")
	}

	logger.WithFields(logger.Fields{
		"TxHash":    txHash,
		"Amount":    amount.String(),
		"Recipient": userAddress.Hex(),
		"Explorer":  s.conf.ExplorerTxURL + txHash,
	}).Infof("Funds withdrawn successfully")

	return txHash, nil
}
