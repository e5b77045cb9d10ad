package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

// Service is the SQLite-backed implementation of store.LedgerStore.
type Service struct {
	db *sql.DB
}

// NewService opens (creating if necessary) the SQLite database at
// cfg.Path, tunes the connection pool, and initializes the schema.
func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() error {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
		return err
	}
	return nil
}

// Now returns the store's notion of the current time. Every caller that
// needs a creation or settlement timestamp reads it from here rather than
// calling time.Now() directly, keeping timestamp authority at the
// persistence layer.
func (s *Service) Now(_ context.Context) time.Time {
	return time.Now().UTC()
}

func (s *Service) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	password_salt TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT 1,
	created_date TIMESTAMP NOT NULL,
	deposit_wallet_address TEXT NOT NULL UNIQUE,
	deposit_wallet_passphrase TEXT NOT NULL,
	deposit_wallet_private_key TEXT NOT NULL,
	deposit_wallet_public_key TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deposits (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	transaction_id TEXT NOT NULL,
	height INTEGER NOT NULL,
	created_date TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	type TEXT NOT NULL,
	amount TEXT NOT NULL,
	created_date TIMESTAMP NOT NULL,
	settled BOOLEAN NOT NULL DEFAULT 0,
	settled_date TIMESTAMP,
	balance TEXT NOT NULL DEFAULT '0',
	canceled BOOLEAN NOT NULL DEFAULT 0,
	settlement_shard_key TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_shard_key ON transactions(settlement_shard_key);
CREATE INDEX IF NOT EXISTS idx_transactions_created_date ON transactions(created_date);
`
