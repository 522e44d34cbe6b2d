package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mirakyc/onboarding/types"
	"github.com/shopspring/decimal"
)

// ErrTransactionLogNotFound is returned when no log matches a tx hash
var ErrTransactionLogNotFound = errors.New("transaction log not found")

// TransactionLogStore persists contract writes in Postgres
type TransactionLogStore struct {
	db *sql.DB
}

// NewTransactionLogStore creates a store over an open database
func NewTransactionLogStore(db *sql.DB) *TransactionLogStore {
	return &TransactionLogStore{db: db}
}

const transactionLogColumns = `id, kind, status, wallet_address, tx_hash, amount, network, block_number, created_at`

// Create inserts a log. Re-recording the same tx hash is a no-op.
func (s *TransactionLogStore) Create(ctx context.Context, log *types.TransactionLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.Status == "" {
		log.Status = types.TransactionStatusPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kyc_transaction_logs (`+transactionLogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tx_hash) DO NOTHING`,
		log.ID, string(log.Kind), string(log.Status), log.WalletAddress, log.TxHash,
		log.Amount.String(), log.Network, log.BlockNumber, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("TransactionLogStore.Create: %w", err)
	}
	return nil
}

// MarkStatus moves a log to confirmed or failed
func (s *TransactionLogStore) MarkStatus(ctx context.Context, txHash string, status types.TransactionStatus, blockNumber int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE kyc_transaction_logs SET status = $1, block_number = $2 WHERE tx_hash = $3`,
		string(status), blockNumber, txHash,
	)
	if err != nil {
		return fmt.Errorf("TransactionLogStore.MarkStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("TransactionLogStore.MarkStatus: %w", err)
	}
	if rows == 0 {
		return ErrTransactionLogNotFound
	}
	return nil
}

// ListByWallet returns the most recent logs for a wallet
func (s *TransactionLogStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]types.TransactionLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionLogColumns+` FROM kyc_transaction_logs
		WHERE LOWER(wallet_address) = LOWER($1)
		ORDER BY created_at DESC LIMIT $2`,
		wallet, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("TransactionLogStore.ListByWallet: %w", err)
	}
	defer rows.Close()

	return scanTransactionLogs(rows)
}

// ListPending returns pending logs created before the cutoff
func (s *TransactionLogStore) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]types.TransactionLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionLogColumns+` FROM kyc_transaction_logs
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC LIMIT $3`,
		string(types.TransactionStatusPending), createdBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("TransactionLogStore.ListPending: %w", err)
	}
	defer rows.Close()

	return scanTransactionLogs(rows)
}

// SumConfirmedWithdrawals totals every confirmed owner withdrawal
func (s *TransactionLogStore) SumConfirmedWithdrawals(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM kyc_transaction_logs WHERE kind = $1 AND status = $2`,
		string(types.TransactionKindWithdraw), string(types.TransactionStatusConfirmed),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("TransactionLogStore.SumConfirmedWithdrawals: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func scanTransactionLogs(rows *sql.Rows) ([]types.TransactionLog, error) {
	var logs []types.TransactionLog
	for rows.Next() {
		var (
			log          types.TransactionLog
			kind, status string
		)
		if err := rows.Scan(
			&log.ID, &kind, &status, &log.WalletAddress, &log.TxHash,
			&log.Amount, &log.Network, &log.BlockNumber, &log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction log: %w", err)
		}
		log.Kind = types.TransactionKind(kind)
		log.Status = types.TransactionStatus(status)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
