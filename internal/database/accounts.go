package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	zap.L().Info("Creating account",
		zap.String("id", params.Id),
		zap.String("username", params.Username))

	_, err := s.db.ExecContext(ctx, queryInsertAccount,
		params.Id, params.Username, params.Password, params.PasswordSalt, params.Active, params.CreatedDate,
		params.DepositWalletAddress, params.DepositWalletPassphrase, params.DepositWalletPrivateKey, params.DepositWalletPublicKey)
	if err != nil {
		if isUniqueConstraintError(err) {
			zap.L().Warn("Account creation hit a unique constraint",
				zap.String("username", params.Username), zap.Error(err))
			if strings.Contains(err.Error(), "deposit_wallet_address") {
				return nil, fmt.Errorf("%w: %v", store.ErrDuplicateDepositAddress, err)
			}
			return nil, fmt.Errorf("%w: %v", store.ErrDuplicateAccount, err)
		}
		zap.L().Error("Failed to insert account", zap.String("username", params.Username), zap.Error(err))
		return nil, fmt.Errorf("unable to insert account: %w", err)
	}

	return s.GetAccount(ctx, params.Id)
}

func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, queryGetAccountById, id))
}

func (s *Service) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, queryGetAccountByUsername, username))
}

func (s *Service) GetAccountByDepositAddress(ctx context.Context, address string) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, queryGetAccountByDepositAddress, address))
}

func (s *Service) scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.Id, &a.Username, &a.Password, &a.PasswordSalt, &a.Active, &a.CreatedDate,
		&a.DepositWalletAddress, &a.DepositWalletPassphrase, &a.DepositWalletPrivateKey, &a.DepositWalletPublicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan account: %w", err)
	}
	return &a, nil
}

// isUniqueConstraintError reports whether err is a SQLite UNIQUE or
// PRIMARY KEY constraint violation, by inspecting the driver's extended
// error code. A duplicate deposits.id (a TEXT PRIMARY KEY) is reported as
// the latter.
func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
