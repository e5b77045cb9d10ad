package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func testAccountParams(id, username, address string) store.CreateAccountParams {
	return store.CreateAccountParams{
		Id:                      id,
		Username:                username,
		Password:                "hashed",
		PasswordSalt:            "salt",
		Active:                  true,
		CreatedDate:             time.Now().UTC(),
		DepositWalletAddress:    address,
		DepositWalletPassphrase: "mnemonic",
		DepositWalletPrivateKey: "priv",
		DepositWalletPublicKey:  "pub",
	}
}

func TestCreateAccountAndLookups(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account, err := service.CreateAccount(ctx, testAccountParams("acct-1", "alice", "addr-1"))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if account.Username != "alice" {
		t.Fatalf("expected username alice, got %s", account.Username)
	}

	byId, err := service.GetAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if byId.Id != "acct-1" {
		t.Fatalf("expected id acct-1, got %s", byId.Id)
	}

	byUsername, err := service.GetAccountByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccountByUsername failed: %v", err)
	}
	if byUsername.Id != "acct-1" {
		t.Fatalf("expected id acct-1, got %s", byUsername.Id)
	}

	byAddress, err := service.GetAccountByDepositAddress(ctx, "addr-1")
	if err != nil {
		t.Fatalf("GetAccountByDepositAddress failed: %v", err)
	}
	if byAddress.Id != "acct-1" {
		t.Fatalf("expected id acct-1, got %s", byAddress.Id)
	}

	if _, err := service.GetAccount(ctx, "does-not-exist"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAccountRejectsDuplicateUsername(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateAccount(ctx, testAccountParams("acct-1", "bob", "addr-1")); err != nil {
		t.Fatalf("first CreateAccount failed: %v", err)
	}

	_, err := service.CreateAccount(ctx, testAccountParams("acct-2", "bob", "addr-2"))
	if !errors.Is(err, store.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestCreateAccountRejectsDuplicateDepositAddress(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateAccount(ctx, testAccountParams("acct-1", "carol", "addr-shared")); err != nil {
		t.Fatalf("first CreateAccount failed: %v", err)
	}

	_, err := service.CreateAccount(ctx, testAccountParams("acct-2", "dana", "addr-shared"))
	if !errors.Is(err, store.ErrDuplicateDepositAddress) {
		t.Fatalf("expected ErrDuplicateDepositAddress, got %v", err)
	}
}

func TestCreateDepositRejectsDuplicateId(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateAccount(ctx, testAccountParams("acct-1", "erin", "addr-1")); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	params := store.CreateDepositParams{
		Id:            "chain-tx-1",
		AccountId:     "acct-1",
		TransactionId: "ledger-tx-1",
		Height:        100,
		CreatedDate:   time.Now().UTC(),
	}
	if _, err := service.CreateDeposit(ctx, params); err != nil {
		t.Fatalf("first CreateDeposit failed: %v", err)
	}

	_, err := service.CreateDeposit(ctx, params)
	if !errors.Is(err, store.ErrDuplicateDeposit) {
		t.Fatalf("expected ErrDuplicateDeposit, got %v", err)
	}

	stored, err := service.GetDeposit(ctx, "chain-tx-1")
	if err != nil {
		t.Fatalf("GetDeposit failed: %v", err)
	}
	if stored.TransactionId != "ledger-tx-1" {
		t.Fatalf("expected transaction id ledger-tx-1, got %s", stored.TransactionId)
	}
}

func TestTransactionsInShardRangeOrdersByCreatedDateThenId(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateAccount(ctx, testAccountParams("acct-1", "frank", "addr-1")); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	insert := func(id string, createdDate time.Time, shardKey string) {
		_, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
			Id:                 id,
			AccountId:          "acct-1",
			Type:               models.TransactionDeposit,
			Amount:             "10",
			CreatedDate:        createdDate,
			SettlementShardKey: shardKey,
		})
		if err != nil {
			t.Fatalf("CreateTransaction(%s) failed: %v", id, err)
		}
	}

	// Two rows sharing a timestamp (tiebroken by id) and one row outside the
	// requested range, which must not appear in the result.
	insert("tx-b", base, "5000000000000000")
	insert("tx-a", base, "5000000000000000")
	insert("tx-later", base.Add(time.Minute), "5000000000000000")
	insert("tx-out-of-range", base, "ffff000000000000")

	rows, err := service.TransactionsInShardRange(ctx, "0000000000000000", "6000000000000000")
	if err != nil {
		t.Fatalf("TransactionsInShardRange failed: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows in range, got %d", len(rows))
	}
	gotIds := []string{rows[0].Id, rows[1].Id, rows[2].Id}
	wantIds := []string{"tx-a", "tx-b", "tx-later"}
	for i, want := range wantIds {
		if gotIds[i] != want {
			t.Fatalf("expected order %v, got %v", wantIds, gotIds)
		}
	}
}

func TestUpdateTransactionSettlementAndClearShardKey(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateAccount(ctx, testAccountParams("acct-1", "gina", "addr-1")); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	txn, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		Id:                 "tx-1",
		AccountId:          "acct-1",
		Type:               models.TransactionDeposit,
		Amount:             "25",
		CreatedDate:        time.Now().UTC(),
		SettlementShardKey: "0000000000000001",
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if txn.Settled {
		t.Fatalf("expected freshly inserted transaction to be unsettled")
	}

	settledDate := time.Now().UTC()
	err = service.UpdateTransactionSettlement(ctx, "tx-1", store.SettleTransactionUpdate{
		Settled:     true,
		SettledDate: settledDate,
		Balance:     "25",
		Canceled:    false,
	})
	if err != nil {
		t.Fatalf("UpdateTransactionSettlement failed: %v", err)
	}

	updated, err := service.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if !updated.Settled || updated.Balance != "25" {
		t.Fatalf("expected settled balance 25, got settled=%v balance=%s", updated.Settled, updated.Balance)
	}
	if updated.SettlementShardKey == nil || *updated.SettlementShardKey != "0000000000000001" {
		t.Fatalf("expected shard key to survive settlement update")
	}

	if err := service.ClearSettlementShardKey(ctx, "tx-1"); err != nil {
		t.Fatalf("ClearSettlementShardKey failed: %v", err)
	}

	cleared, err := service.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if cleared.SettlementShardKey != nil {
		t.Fatalf("expected shard key to be cleared, got %v", *cleared.SettlementShardKey)
	}
}

func TestUpdateTransactionSettlementReportsNoRowsUpdated(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	err := service.UpdateTransactionSettlement(ctx, "missing-tx", store.SettleTransactionUpdate{
		Settled:     true,
		SettledDate: time.Now().UTC(),
		Balance:     "0",
	})
	if !errors.Is(err, store.ErrNoRowsUpdated) {
		t.Fatalf("expected ErrNoRowsUpdated, got %v", err)
	}
}
