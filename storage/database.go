package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/utils/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// DB holds the database connection
	DB *sql.DB
	// Err holds database connection error
	Err error
)

const schema = `
CREATE TABLE IF NOT EXISTS kyc_transaction_logs (
	id             UUID PRIMARY KEY,
	kind           VARCHAR(16) NOT NULL,
	status         VARCHAR(16) NOT NULL,
	wallet_address VARCHAR(42) NOT NULL,
	tx_hash        VARCHAR(66) NOT NULL UNIQUE,
	amount         NUMERIC(78, 18) NOT NULL DEFAULT 0,
	network        VARCHAR(64) NOT NULL,
	block_number   BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS kyc_transaction_logs_wallet_idx ON kyc_transaction_logs (wallet_address);
CREATE INDEX IF NOT EXISTS kyc_transaction_logs_status_idx ON kyc_transaction_logs (status);
`

// DBConnection create database connection
func DBConnection(ctx context.Context, DSN string) error {
	logger.Infof("Connecting to the database")

	var db *sql.DB
	var err error
	for i := 0; i < 3; i++ { // Retry mechanism
		db, err = sql.Open("pgx", DSN)
		if err == nil {
			err = db.PingContext(ctx)
		}
		if err == nil {
			break
		}
		logger.WithFields(logger.Fields{
			"Error":   err.Error(),
			"Attempt": i + 1,
		}).Warnf("Database connection attempt failed")
		time.Sleep(2 * time.Second) // Wait before retrying
	}

	if err != nil {
		Err = err
		return fmt.Errorf("DBConnection: %w", err)
	}

	dbConf := config.DatabaseConfig()
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(dbConf.MaxOpenConns)
	db.SetConnMaxLifetime(2 * time.Minute)

	if err := Migrate(ctx, db); err != nil {
		Err = err
		return err
	}

	DB = db
	logger.Infof("DB connection done")

	return nil
}

// Migrate applies the transaction log schema
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("Migrate: %w", err)
	}
	return nil
}

// GetError connection error
func GetError() error {
	return Err
}
