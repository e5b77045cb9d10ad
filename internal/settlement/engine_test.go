package settlement

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/sharding"
	"account-settlement-core/internal/store"

	"github.com/google/uuid"
)

// fakeLedgerStore is a minimal in-memory store.LedgerStore sufficient to
// drive the settlement engine's gather/fold/prune cycle in tests.
type fakeLedgerStore struct {
	mu           sync.Mutex
	transactions map[string]*models.Transaction
	clock        time.Time
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{transactions: map[string]*models.Transaction{}, clock: time.Now().UTC()}
}

func (f *fakeLedgerStore) seedTransaction(accountId string, typ models.TransactionType, amount string, createdDate time.Time, settled bool, balance string) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()

	shardKey := sharding.ShardKey(accountId)
	t := &models.Transaction{
		Id:                 uuid.NewString(),
		AccountId:          accountId,
		Type:               typ,
		Amount:             amount,
		CreatedDate:        createdDate,
		Settled:            settled,
		Balance:            balance,
		SettlementShardKey: &shardKey,
	}
	f.transactions[t.Id] = t
	return t
}

func (f *fakeLedgerStore) CreateAccount(context.Context, store.CreateAccountParams) (*models.Account, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeLedgerStore) GetAccount(context.Context, string) (*models.Account, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeLedgerStore) GetAccountByUsername(context.Context, string) (*models.Account, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeLedgerStore) GetAccountByDepositAddress(context.Context, string) (*models.Account, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeLedgerStore) CreateDeposit(context.Context, store.CreateDepositParams) (*models.Deposit, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeLedgerStore) GetDeposit(context.Context, string) (*models.Deposit, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLedgerStore) CreateTransaction(_ context.Context, params store.CreateTransactionParams) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	shardKey := params.SettlementShardKey
	t := &models.Transaction{
		Id:                 params.Id,
		AccountId:          params.AccountId,
		Type:               params.Type,
		Amount:             params.Amount,
		CreatedDate:        params.CreatedDate,
		SettlementShardKey: &shardKey,
	}
	f.transactions[t.Id] = t
	return t, nil
}

func (f *fakeLedgerStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.transactions[id]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLedgerStore) UpdateTransactionSettlement(_ context.Context, id string, update store.SettleTransactionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return store.ErrNoRowsUpdated
	}
	settledDate := update.SettledDate
	t.Settled = update.Settled
	t.SettledDate = &settledDate
	t.Balance = update.Balance
	t.Canceled = update.Canceled
	return nil
}

func (f *fakeLedgerStore) ClearSettlementShardKey(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return store.ErrNoRowsUpdated
	}
	t.SettlementShardKey = nil
	return nil
}

func (f *fakeLedgerStore) TransactionsInShardRange(_ context.Context, start, end string) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Transaction
	for _, t := range f.transactions {
		if t.SettlementShardKey == nil {
			continue
		}
		if sharding.InRange(*t.SettlementShardKey, start, end) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessByCreatedDateThenId(out[i], out[j]) })
	return out, nil
}

func (f *fakeLedgerStore) Now(context.Context) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock
}

func (f *fakeLedgerStore) Close() error { return nil }

func singleShard(idx int) *int { return &idx }

func TestTickHappyPathDepositSettles(t *testing.T) {
	s := newFakeLedgerStore()
	base := time.Now().UTC()
	dep := s.seedTransaction("account-a", models.TransactionDeposit, "500", base, false, "")

	engine := NewEngine(s, singleShard(0), 1, 2)
	if err := engine.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetTransaction(context.Background(), dep.Id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Settled || got.Canceled || got.Balance != "500" {
		t.Fatalf("unexpected transaction state: %+v", got)
	}
	if got.SettlementShardKey == nil {
		t.Fatalf("expected the only settled transaction to retain its shard key")
	}
}

func TestTickOverdraftCancellation(t *testing.T) {
	s := newFakeLedgerStore()
	base := time.Now().UTC()
	dep := s.seedTransaction("account-a", models.TransactionDeposit, "500", base, true, "500")
	withdrawal := s.seedTransaction("account-a", models.TransactionWithdrawal, "700", base.Add(time.Second), false, "")
	credit := s.seedTransaction("account-a", models.TransactionCredit, "200", base.Add(2*time.Second), false, "")

	engine := NewEngine(s, singleShard(0), 1, 2)
	if err := engine.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotWithdrawal, _ := s.GetTransaction(context.Background(), withdrawal.Id)
	if !gotWithdrawal.Canceled || gotWithdrawal.Balance != "500" {
		t.Fatalf("expected withdrawal canceled at balance 500, got %+v", gotWithdrawal)
	}

	gotCredit, _ := s.GetTransaction(context.Background(), credit.Id)
	if gotCredit.Canceled || gotCredit.Balance != "700" {
		t.Fatalf("expected credit settled at balance 700, got %+v", gotCredit)
	}

	if gotCredit.SettlementShardKey == nil {
		t.Fatalf("expected the credit (latest settled) to retain its shard key")
	}

	gotDeposit, _ := s.GetTransaction(context.Background(), dep.Id)
	if gotDeposit.SettlementShardKey != nil {
		t.Fatalf("expected the older settled deposit to have had its shard key pruned")
	}
	if gotWithdrawal.SettlementShardKey != nil {
		t.Fatalf("expected the canceled withdrawal (not the latest settled) to have had its shard key pruned")
	}
}

func TestTickShardedIsolation(t *testing.T) {
	s := newFakeLedgerStore()
	base := time.Now().UTC()

	var accountA, accountB string
	for i := 0; ; i++ {
		candidate := uuid.NewString()
		if sharding.IndexFor(candidate, 2) == 0 {
			accountA = candidate
			break
		}
	}
	for i := 0; ; i++ {
		candidate := uuid.NewString()
		if sharding.IndexFor(candidate, 2) == 1 {
			accountB = candidate
			break
		}
	}

	txA := s.seedTransaction(accountA, models.TransactionCredit, "10", base, false, "")
	txB := s.seedTransaction(accountB, models.TransactionCredit, "10", base, false, "")

	engine := NewEngine(s, singleShard(0), 2, 2)
	if err := engine.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotA, _ := s.GetTransaction(context.Background(), txA.Id)
	if !gotA.Settled {
		t.Fatalf("expected account A's transaction to be settled by shard 0")
	}

	gotB, _ := s.GetTransaction(context.Background(), txB.Id)
	if gotB.Settled {
		t.Fatalf("expected account B's transaction to remain untouched by shard 0")
	}
	if gotB.SettlementShardKey == nil {
		t.Fatalf("expected account B's shard key to be preserved")
	}
}

func TestTickIsNoOpWhenShardUnset(t *testing.T) {
	s := newFakeLedgerStore()
	tx := s.seedTransaction("account-a", models.TransactionDeposit, "500", time.Now().UTC(), false, "")

	engine := NewEngine(s, nil, 1, 2)
	if err := engine.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.GetTransaction(context.Background(), tx.Id)
	if got.Settled {
		t.Fatalf("expected a disabled engine to leave transactions untouched")
	}
}
