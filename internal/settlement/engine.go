// Package settlement implements the settlement engine: the per-tick
// gather/fold/prune cycle that turns a shard's unsettled transactions into
// settled balances under an overdraft-prevention rule.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/sharding"
	"account-settlement-core/internal/store"

	"github.com/alitto/pond/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrSettleFailed is returned by SettleOne when no row was replaced.
var ErrSettleFailed = errors.New("settlement: no matching row to settle")

const defaultConcurrency = 8

// Engine owns one worker's shard assignment and runs its tick. Folding is
// independent between accounts, so Tick spreads the fold phase across a
// bounded pool sized by concurrency.
type Engine struct {
	store       store.LedgerStore
	shardIndex  int
	shardCount  int
	enabled     bool
	concurrency int
}

// NewEngine constructs an Engine pinned to (shardIndex, shardCount).
// Passing a nil shardIndex disables settlement entirely, matching
// SETTLEMENT_SHARD_INDEX being unset in configuration. concurrency caps how
// many accounts this engine folds at once; values <= 0 fall back to
// defaultConcurrency.
func NewEngine(s store.LedgerStore, shardIndex *int, shardCount, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if shardIndex == nil {
		return &Engine{store: s, enabled: false, concurrency: concurrency}
	}
	return &Engine{store: s, shardIndex: *shardIndex, shardCount: shardCount, enabled: true, concurrency: concurrency}
}

// accountLedger accumulates one account's Phase 1 gather result.
type accountLedger struct {
	accountId              string
	balance                decimal.Decimal
	lastSettledTransaction *models.Transaction
	unsettledTransactions  []models.Transaction
}

// Tick runs one gather/fold/prune cycle over this engine's shard range. A
// disabled engine (no shard assigned) returns immediately.
func (e *Engine) Tick(ctx context.Context) error {
	if !e.enabled {
		return nil
	}

	ledgers, err := e.gather(ctx)
	if err != nil {
		return fmt.Errorf("settlement: gather phase: %w", err)
	}

	pool := pond.NewPool(e.concurrency)
	group := pool.NewGroupContext(ctx)
	for _, ledger := range ledgers {
		ledger := ledger
		group.Submit(func() {
			newlySettled := e.fold(ctx, ledger)
			e.prune(ctx, ledger, newlySettled)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		zap.L().Warn("Settlement tick encountered an error folding accounts", zap.Error(err))
	}
	pool.StopAndWait()

	return nil
}

// gather implements Phase 1: range-scan the shard, group by account, and
// seed each account's running balance from its newest already-settled
// transaction.
func (e *Engine) gather(ctx context.Context) ([]*accountLedger, error) {
	start, end := sharding.ShardRange(e.shardIndex, e.shardCount)

	rows, err := e.store.TransactionsInShardRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("range-scanning shard [%s, %s): %w", start, end, err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return lessByCreatedDateThenId(rows[i], rows[j])
	})

	order := make([]string, 0)
	byAccount := make(map[string]*accountLedger)

	for i := range rows {
		t := rows[i]
		ledger, ok := byAccount[t.AccountId]
		if !ok {
			ledger = &accountLedger{accountId: t.AccountId}
			byAccount[t.AccountId] = ledger
			order = append(order, t.AccountId)
		}

		if t.Settled {
			// Phase 3 guarantees at most one settled row per account keeps
			// its shard key, so the last settled row seen wins.
			tc := t
			ledger.lastSettledTransaction = &tc
			ledger.balance, err = decimal.NewFromString(t.Balance)
			if err != nil {
				return nil, fmt.Errorf("parsing balance %q on settled transaction %s: %w", t.Balance, t.Id, err)
			}
			continue
		}

		ledger.unsettledTransactions = append(ledger.unsettledTransactions, t)
	}

	ledgers := make([]*accountLedger, 0, len(order))
	for _, accountId := range order {
		ledgers = append(ledgers, byAccount[accountId])
	}
	return ledgers, nil
}

// fold implements Phase 2: apply each unsettled transaction in order,
// cancel debits/withdrawals that would overdraw, and write the settlement
// back onto each row. It returns the rows it successfully settled, which
// Phase 3 then needs to decide what to prune.
func (e *Engine) fold(ctx context.Context, ledger *accountLedger) []models.Transaction {
	var settled []models.Transaction

	for _, t := range ledger.unsettledTransactions {
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			zap.L().Error("Skipping transaction with unparseable amount",
				zap.String("transaction_id", t.Id), zap.String("amount", t.Amount), zap.Error(err))
			continue
		}

		canceled := false
		switch t.Type {
		case models.TransactionDeposit, models.TransactionCredit:
			ledger.balance = ledger.balance.Add(amount)
		case models.TransactionDebit, models.TransactionWithdrawal:
			next := ledger.balance.Sub(amount)
			if next.IsNegative() {
				canceled = true
			} else {
				ledger.balance = next
			}
		}

		settledDate := e.store.Now(ctx)
		update := store.SettleTransactionUpdate{
			Settled:     true,
			SettledDate: settledDate,
			Balance:     ledger.balance.String(),
			Canceled:    canceled,
		}

		if err := e.store.UpdateTransactionSettlement(ctx, t.Id, update); err != nil {
			// Left settled=false in the store; it re-enters the next tick's
			// gather untouched, per the self-healing failure semantics. Stop
			// folding the rest of this account's queue now rather than
			// continuing: ledger.balance already advanced past this
			// transaction in memory, and folding anything after it would
			// compute against that uncommitted balance out of order.
			zap.L().Warn("Failed to settle transaction, will retry next tick",
				zap.String("transaction_id", t.Id), zap.Error(err))
			break
		}

		t.Settled = true
		t.SettledDate = &settledDate
		t.Balance = update.Balance
		t.Canceled = canceled
		settled = append(settled, t)
	}

	return settled
}

// prune implements Phase 3: of {lastSettledTransaction} ∪ {newly settled
// rows}, keep the shard key only on the last one (the new "latest
// settled") and field-delete it from every other row.
func (e *Engine) prune(ctx context.Context, ledger *accountLedger, newlySettled []models.Transaction) {
	var candidates []models.Transaction
	if ledger.lastSettledTransaction != nil {
		candidates = append(candidates, *ledger.lastSettledTransaction)
	}
	candidates = append(candidates, newlySettled...)

	if len(candidates) <= 1 {
		return
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return lessByCreatedDateThenId(candidates[i], candidates[j])
	})

	for _, t := range candidates[:len(candidates)-1] {
		if err := e.store.ClearSettlementShardKey(ctx, t.Id); err != nil {
			// Non-fatal: a stale shard key only costs a row re-read next tick.
			zap.L().Warn("Failed to clear shard key during prune",
				zap.String("transaction_id", t.Id), zap.Error(err))
		}
	}
}

// SettleOne is the administrative single-row settle bypass. It does not
// compute a balance and must never be called from Tick; see
// cmd/settle-one.
func (e *Engine) SettleOne(ctx context.Context, id string) error {
	err := e.settleOneOnly(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNoRowsUpdated) {
			return fmt.Errorf("%w: %s", ErrSettleFailed, id)
		}
		return fmt.Errorf("settlement: settling %s: %w", id, err)
	}
	return nil
}

// settleOneOnly is split out so backing stores that do not expose the
// administrative single-row settle (anything satisfying only
// store.LedgerStore) fail loudly rather than silently no-op.
func (e *Engine) settleOneOnly(ctx context.Context, id string) error {
	type singleRowSettler interface {
		SettleTransactionOnly(ctx context.Context, id string, settledDate time.Time) error
	}
	s, ok := e.store.(singleRowSettler)
	if !ok {
		return fmt.Errorf("settlement: backing store does not support single-row settle")
	}
	return s.SettleTransactionOnly(ctx, id, e.store.Now(ctx))
}

func lessByCreatedDateThenId(a, b models.Transaction) bool {
	if !a.CreatedDate.Equal(b.CreatedDate) {
		return a.CreatedDate.Before(b.CreatedDate)
	}
	return a.Id < b.Id
}
