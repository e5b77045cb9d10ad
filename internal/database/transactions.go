package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/store"

	"go.uber.org/zap"
)

func (s *Service) CreateTransaction(ctx context.Context, params store.CreateTransactionParams) (*models.Transaction, error) {
	zap.L().Debug("Inserting transaction",
		zap.String("id", params.Id),
		zap.String("account_id", params.AccountId),
		zap.String("type", string(params.Type)))

	_, err := s.db.ExecContext(ctx, queryInsertTransaction,
		params.Id, params.AccountId, string(params.Type), params.Amount, params.CreatedDate, params.SettlementShardKey)
	if err != nil {
		return nil, fmt.Errorf("unable to insert transaction: %w", err)
	}

	return s.GetTransaction(ctx, params.Id)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return s.scanTransaction(s.db.QueryRowContext(ctx, queryGetTransactionById, id))
}

func (s *Service) scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	var typ string
	var settledDate sql.NullTime
	var shardKey sql.NullString

	err := row.Scan(&t.Id, &t.AccountId, &typ, &t.Amount, &t.CreatedDate,
		&t.Settled, &settledDate, &t.Balance, &t.Canceled, &shardKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("unable to scan transaction: %w", err)
	}

	t.Type = models.TransactionType(typ)
	if settledDate.Valid {
		t.SettledDate = &settledDate.Time
	}
	if shardKey.Valid {
		t.SettlementShardKey = &shardKey.String
	}
	return &t, nil
}

// UpdateTransactionSettlement writes the explicit field set (settled,
// settledDate, balance, canceled) the settlement engine's Phase 2 fold
// produces for one transaction.
func (s *Service) UpdateTransactionSettlement(ctx context.Context, id string, update store.SettleTransactionUpdate) error {
	result, err := s.db.ExecContext(ctx, queryUpdateTransactionSettlement,
		update.Settled, update.SettledDate, update.Balance, update.Canceled, id)
	if err != nil {
		return fmt.Errorf("unable to update transaction settlement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to read rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNoRowsUpdated
	}
	return nil
}

// ClearSettlementShardKey is the field-scoped delete Phase 3 uses to drop
// an older settled transaction out of future shard range scans.
func (s *Service) ClearSettlementShardKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, queryClearSettlementShardKey, id)
	if err != nil {
		return fmt.Errorf("unable to clear settlement shard key: %w", err)
	}
	return nil
}

// TransactionsInShardRange range-scans transactions by settlementShardKey
// over [start, end), ordered by createdDate ascending with id as a
// lexicographic tiebreak -- the exact feed Phase 1 gather reads.
func (s *Service) TransactionsInShardRange(ctx context.Context, start, end string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryTransactionsInShardRange, start, end)
	if err != nil {
		return nil, fmt.Errorf("unable to range-scan transactions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			zap.L().Warn("Failed to close rows", zap.Error(cerr))
		}
	}()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var typ string
		var settledDate sql.NullTime
		var shardKey sql.NullString

		if err := rows.Scan(&t.Id, &t.AccountId, &typ, &t.Amount, &t.CreatedDate,
			&t.Settled, &settledDate, &t.Balance, &t.Canceled, &shardKey); err != nil {
			return nil, fmt.Errorf("unable to scan transaction row: %w", err)
		}

		t.Type = models.TransactionType(typ)
		if settledDate.Valid {
			t.SettledDate = &settledDate.Time
		}
		if shardKey.Valid {
			t.SettlementShardKey = &shardKey.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return out, nil
}

// SettleTransactionOnly is the administrative single-row settle bypass: it
// marks a transaction settled without computing a balance and is never
// called from the batch settlement path. See cmd/settle-one.
func (s *Service) SettleTransactionOnly(ctx context.Context, id string, settledDate time.Time) error {
	result, err := s.db.ExecContext(ctx, querySettleTransactionOnly, settledDate, id)
	if err != nil {
		return fmt.Errorf("unable to settle transaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to read rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNoRowsUpdated
	}
	return nil
}
