// Command settle-one is the administrative single-row settle bypass. It
// marks one transaction settled without computing a balance and
// must never be run against a row still eligible for the batch settlement
// path -- doing so will corrupt that account's running balance invariant.
package main

import (
	"context"
	"flag"
	"fmt"

	"account-settlement-core/internal/common"
	"account-settlement-core/internal/config"
	"account-settlement-core/internal/settlement"

	"go.uber.org/zap"
)

func main() {
	idFlag := flag.String("id", "", "Transaction id to settle (required)")
	confirmFlag := flag.Bool("i-understand-this-skips-the-balance-fold", false, "Required acknowledgement that this bypasses Phase 2 entirely")
	flag.Parse()

	if *idFlag == "" || !*confirmFlag {
		fmt.Println("Usage: settle-one --id <transaction-id> --i-understand-this-skips-the-balance-fold")
		fmt.Println("This does not compute a balance. Only use it on rows already excluded from batch settlement.")
		return
	}

	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	engine := settlement.NewEngine(dbService, cfg.Settlement.ShardIndex, cfg.Settlement.ShardCount, cfg.Settlement.Concurrency)
	if err := engine.SettleOne(ctx, *idFlag); err != nil {
		zap.L().Fatal("Failed to settle transaction", zap.String("transaction_id", *idFlag), zap.Error(err))
	}

	fmt.Printf("Transaction %s marked settled (balance untouched)\n", *idFlag)
}
