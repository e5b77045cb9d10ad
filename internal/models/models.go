package models

import "time"

// TransactionType enumerates the kinds of ledger events the settlement
// engine folds into an account balance.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionCredit     TransactionType = "credit"
	TransactionDebit      TransactionType = "debit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Account is a custodial account: credentials plus its deposit wallet.
type Account struct {
	Id                      string    `db:"id"`
	Username                string    `db:"username"`
	Password                string    `db:"password"`
	PasswordSalt            string    `db:"password_salt"`
	Active                  bool      `db:"active"`
	CreatedDate             time.Time `db:"created_date"`
	DepositWalletAddress    string    `db:"deposit_wallet_address"`
	DepositWalletPassphrase string    `db:"deposit_wallet_passphrase"`
	DepositWalletPrivateKey string    `db:"deposit_wallet_private_key"`
	DepositWalletPublicKey  string    `db:"deposit_wallet_public_key"`
}

// Deposit pairs an externally observed blockchain transaction with the
// internal Transaction it materialized. Id equals the originating
// blockchain transaction id and is the idempotency key for ingestion.
type Deposit struct {
	Id            string    `db:"id"`
	AccountId     string    `db:"account_id"`
	TransactionId string    `db:"transaction_id"`
	Height        int64     `db:"height"`
	CreatedDate   time.Time `db:"created_date"`
}

// Transaction is the ledger event folded by the settlement engine.
// Amount and Balance are canonical decimal strings at rest; SettlementShardKey
// is non-empty only while the row is still "interesting" to a settlement
// shard (see the Settlement Engine pruning phase).
type Transaction struct {
	Id                 string          `db:"id"`
	AccountId          string          `db:"account_id"`
	Type               TransactionType `db:"type"`
	Amount             string          `db:"amount"`
	CreatedDate        time.Time       `db:"created_date"`
	Settled            bool            `db:"settled"`
	SettledDate        *time.Time      `db:"settled_date"`
	Balance            string          `db:"balance"`
	Canceled           bool            `db:"canceled"`
	SettlementShardKey *string         `db:"settlement_shard_key"`
}

// BlockchainTransaction is an inbound event observed on-chain. SenderId is
// matched against Account.DepositWalletAddress to find the crediting
// account.
type BlockchainTransaction struct {
	Id       string
	SenderId string
	Height   int64
	Amount   string
}

// WalletInfo is the tuple an external wallet generator (or our concrete
// stand-in for one, see internal/wallet) yields for a freshly minted
// deposit wallet.
type WalletInfo struct {
	Address    string
	Passphrase string
	PrivateKey string
	PublicKey  string
}

// Config is the application configuration, assembled by internal/config.
type Config struct {
	Database   DatabaseConfig
	Settlement SettlementConfig
	Credential CredentialConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// SettlementConfig holds the settlement worker's shard assignment and
// scheduling parameters. ShardIndex is nil when settlement is disabled for
// this process.
type SettlementConfig struct {
	ShardIndex   *int
	ShardCount   int
	CronSchedule string
	Concurrency  int
}

// CredentialConfig holds the signup/login bounds and crypto parameters.
type CredentialConfig struct {
	MinUsernameLength int
	MaxUsernameLength int
	MinPasswordLength int
	MaxPasswordLength int
	SaltSize          int
	MaxWalletAttempts int
}
