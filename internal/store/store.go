// Package store defines the contract the settlement core uses to talk to
// the account/deposit/transaction persistence layer. The persistence
// engine itself (the CRUD store with secondary indices and range scans) is
// an external collaborator; this package only pins down the shape every
// backend must satisfy, plus the one backing implementation
// (internal/database) this module ships for tests and local running.
package store

import (
	"context"
	"errors"
	"time"

	"account-settlement-core/internal/models"
)

// Sentinel errors shared across backends.
var (
	ErrNotFound                = errors.New("row not found")
	ErrDuplicateAccount        = errors.New("unique constraint violated on account username")
	ErrDuplicateDepositAddress = errors.New("unique constraint violated on account deposit wallet address")
	ErrDuplicateDeposit        = errors.New("duplicate deposit")
	ErrNoRowsUpdated           = errors.New("no rows updated")
)

// CreateAccountParams captures the fields needed to insert a fresh account.
// Id, CreatedDate are stamped by the caller (credential.Service) before
// the insert; the store performs no field generation of its own beyond
// exposing Now() for the caller to stamp timestamps from.
type CreateAccountParams struct {
	Id                      string
	Username                string
	Password                string
	PasswordSalt            string
	Active                  bool
	CreatedDate             time.Time
	DepositWalletAddress    string
	DepositWalletPassphrase string
	DepositWalletPrivateKey string
	DepositWalletPublicKey  string
}

// CreateDepositParams captures the fields needed to insert a deposit row.
type CreateDepositParams struct {
	Id            string
	AccountId     string
	TransactionId string
	Height        int64
	CreatedDate   time.Time
}

// CreateTransactionParams captures the fields needed to insert a ledger
// transaction. Settled is always false at creation time; the settlement
// engine is the only writer of Settled=true.
type CreateTransactionParams struct {
	Id                 string
	AccountId          string
	Type               models.TransactionType
	Amount             string
	CreatedDate        time.Time
	SettlementShardKey string
}

// SettleTransactionUpdate is the explicit field set the settlement engine
// writes back onto a transaction row during Phase 2, in place of an ad hoc
// {id, txnData} shape.
type SettleTransactionUpdate struct {
	Settled     bool
	SettledDate time.Time
	Balance     string
	Canceled    bool
}

// LedgerStore is the contract every backend must satisfy.
type LedgerStore interface {
	// --- Accounts ---
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	GetAccountByDepositAddress(ctx context.Context, address string) (*models.Account, error)

	// --- Deposits ---
	CreateDeposit(ctx context.Context, params CreateDepositParams) (*models.Deposit, error)
	GetDeposit(ctx context.Context, id string) (*models.Deposit, error)

	// --- Transactions ---
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransactionSettlement(ctx context.Context, id string, update SettleTransactionUpdate) error
	ClearSettlementShardKey(ctx context.Context, id string) error
	TransactionsInShardRange(ctx context.Context, start, end string) ([]models.Transaction, error)

	// --- Lifecycle ---
	Now(ctx context.Context) time.Time
	Close() error
}
