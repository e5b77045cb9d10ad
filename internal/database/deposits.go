package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/store"

	"go.uber.org/zap"
)

func (s *Service) CreateDeposit(ctx context.Context, params store.CreateDepositParams) (*models.Deposit, error) {
	zap.L().Debug("Inserting deposit",
		zap.String("id", params.Id),
		zap.String("account_id", params.AccountId))

	_, err := s.db.ExecContext(ctx, queryInsertDeposit,
		params.Id, params.AccountId, params.TransactionId, params.Height, params.CreatedDate)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %v", store.ErrDuplicateDeposit, err)
		}
		return nil, fmt.Errorf("unable to insert deposit: %w", err)
	}

	return s.GetDeposit(ctx, params.Id)
}

func (s *Service) GetDeposit(ctx context.Context, id string) (*models.Deposit, error) {
	var d models.Deposit
	err := s.db.QueryRowContext(ctx, queryGetDepositById, id).Scan(&d.Id, &d.AccountId, &d.TransactionId, &d.Height, &d.CreatedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan deposit: %w", err)
	}
	return &d, nil
}
