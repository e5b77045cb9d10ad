package wallet

import (
	"context"
	"errors"
	"fmt"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/store"

	"go.uber.org/zap"
)

// ErrAllocationExhausted is returned when no unused deposit address could
// be found within the configured attempt budget.
var ErrAllocationExhausted = errors.New("wallet: exhausted allocation attempts")

// AddressLookup is the narrow slice of store.LedgerStore the allocator
// needs to probe for a collision; common.InitializeServices passes its
// store.LedgerStore straight through.
type AddressLookup interface {
	GetAccountByDepositAddress(ctx context.Context, address string) (*models.Account, error)
}

// Allocator wraps a Generator with collision retry against the account
// store.
type Allocator struct {
	generator   Generator
	lookup      AddressLookup
	maxAttempts int
}

// NewAllocator constructs an Allocator. maxAttempts should come from
// MAX_WALLET_CREATE_ATTEMPTS (10 by default).
func NewAllocator(generator Generator, lookup AddressLookup, maxAttempts int) *Allocator {
	return &Allocator{generator: generator, lookup: lookup, maxAttempts: maxAttempts}
}

// Allocate generates wallets until one whose address is not already on an
// account is found, or maxAttempts is exhausted.
func (a *Allocator) Allocate(ctx context.Context) (models.WalletInfo, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		info, err := a.generator.Generate(ctx)
		if err != nil {
			return models.WalletInfo{}, fmt.Errorf("wallet: generating wallet: %w", err)
		}

		existing, err := a.lookup.GetAccountByDepositAddress(ctx, info.Address)
		if err == nil && existing != nil {
			zap.L().Warn("Deposit wallet address collision, retrying",
				zap.String("address", info.Address),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return models.WalletInfo{}, fmt.Errorf("wallet: probing address collision: %w", err)
		}

		return info, nil
	}

	lastErr = fmt.Errorf("%w: after %d attempts", ErrAllocationExhausted, a.maxAttempts)
	return models.WalletInfo{}, lastErr
}
