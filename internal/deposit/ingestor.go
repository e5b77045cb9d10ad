// Package deposit implements exactly-once materialization of a
// BlockchainTransaction into a (Deposit, Transaction) pair against the
// account that owns the sending address.
package deposit

import (
	"context"
	"errors"
	"fmt"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/sharding"
	"account-settlement-core/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDepositIngestFatal is raised when a Deposit insert collided (presumed
// duplicate) but the row it collided with could not be read back.
var ErrDepositIngestFatal = errors.New("deposit: ingest failed and existing deposit could not be read")

// Result is the pair an ingest call materializes, or leaves nil when the
// incoming transaction does not belong to any known account.
type Result struct {
	Deposit     *models.Deposit
	Transaction *models.Transaction
}

// Ingestor pairs BlockchainTransaction events with Deposit and Transaction
// rows.
type Ingestor struct {
	store store.LedgerStore
}

// NewIngestor constructs an Ingestor over the given store.
func NewIngestor(s store.LedgerStore) *Ingestor {
	return &Ingestor{store: s}
}

// Ingest looks up the owning account, inserts the Deposit and Transaction
// rows, and includes the repair path for a Deposit left dangling by a
// crash between the Deposit insert and the Transaction insert.
func (in *Ingestor) Ingest(ctx context.Context, b models.BlockchainTransaction) (Result, error) {
	account, err := in.store.GetAccountByDepositAddress(ctx, b.SenderId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("deposit: looking up account by deposit address: %w", err)
	}

	transactionId := uuid.NewString()

	deposit, err := in.store.CreateDeposit(ctx, store.CreateDepositParams{
		Id:            b.Id,
		AccountId:     account.Id,
		TransactionId: transactionId,
		Height:        b.Height,
		CreatedDate:   in.store.Now(ctx),
	})
	if err != nil {
		if !errors.Is(err, store.ErrDuplicateDeposit) {
			return Result{}, fmt.Errorf("deposit: inserting deposit: %w", err)
		}
		return in.recoverFromDuplicate(ctx, b, account)
	}

	transaction, err := in.createTransaction(ctx, deposit.TransactionId, account.Id, b.Amount)
	if err != nil {
		return Result{}, err
	}
	return Result{Deposit: deposit, Transaction: transaction}, nil
}

// recoverFromDuplicate handles step 5: the Deposit already exists. If its
// Transaction exists too, ingestion is a pure idempotent replay. If not,
// the prior attempt crashed between the two inserts and this call finishes
// the job under the transactionId the existing Deposit already committed
// to.
func (in *Ingestor) recoverFromDuplicate(ctx context.Context, b models.BlockchainTransaction, account *models.Account) (Result, error) {
	existing, err := in.store.GetDeposit(ctx, b.Id)
	if err != nil {
		return Result{}, fmt.Errorf("%w: insert collided but lookup of %q also failed: %v", ErrDepositIngestFatal, b.Id, err)
	}

	transaction, err := in.store.GetTransaction(ctx, existing.TransactionId)
	if err == nil {
		return Result{Deposit: existing, Transaction: transaction}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("deposit: reading transaction for existing deposit: %w", err)
	}

	zap.L().Warn("Repairing dangling deposit from a prior crash",
		zap.String("deposit_id", existing.Id),
		zap.String("transaction_id", existing.TransactionId))

	transaction, err = in.createTransaction(ctx, existing.TransactionId, account.Id, b.Amount)
	if err != nil {
		return Result{}, err
	}
	return Result{Deposit: existing, Transaction: transaction}, nil
}

func (in *Ingestor) createTransaction(ctx context.Context, id, accountId, amount string) (*models.Transaction, error) {
	transaction, err := in.store.CreateTransaction(ctx, store.CreateTransactionParams{
		Id:                 id,
		AccountId:          accountId,
		Type:               models.TransactionDeposit,
		Amount:             amount,
		CreatedDate:        in.store.Now(ctx),
		SettlementShardKey: sharding.ShardKey(accountId),
	})
	if err != nil {
		return nil, fmt.Errorf("deposit: inserting transaction: %w", err)
	}
	return transaction, nil
}
