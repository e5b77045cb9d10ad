// Command ingest manually feeds one BlockchainTransaction into the deposit
// ingestor. The blockchain observer that discovers these events in
// production is an external collaborator; this is the administrative
// stand-in for replaying or backfilling one.
package main

import (
	"context"
	"flag"
	"fmt"

	"account-settlement-core/internal/common"
	"account-settlement-core/internal/config"
	"account-settlement-core/internal/models"

	"go.uber.org/zap"
)

func main() {
	idFlag := flag.String("id", "", "Blockchain transaction id (required, also the deposit idempotency key)")
	senderFlag := flag.String("sender", "", "Sending address, matched against an account's deposit wallet (required)")
	heightFlag := flag.Int64("height", 0, "Source chain height")
	amountFlag := flag.String("amount", "", "Amount as a decimal string (required)")
	flag.Parse()

	if *idFlag == "" || *senderFlag == "" || *amountFlag == "" {
		fmt.Println("Usage: ingest --id <txid> --sender <address> --amount <decimal> [--height <n>]")
		return
	}

	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := services.Ingestor.Ingest(ctx, models.BlockchainTransaction{
		Id:       *idFlag,
		SenderId: *senderFlag,
		Height:   *heightFlag,
		Amount:   *amountFlag,
	})
	if err != nil {
		zap.L().Fatal("Failed to ingest transaction", zap.Error(err))
	}

	if result.Deposit == nil {
		fmt.Println("No account owns this sender address; ignored as not ours")
		return
	}

	common.PrintHeader("DEPOSIT INGESTED", common.DefaultWidth)
	fmt.Printf("Deposit ID:     %s\n", result.Deposit.Id)
	fmt.Printf("Account ID:     %s\n", result.Deposit.AccountId)
	fmt.Printf("Transaction ID: %s\n", result.Transaction.Id)
	fmt.Printf("Amount:         %s\n", result.Transaction.Amount)
	common.PrintSeparator("=", common.DefaultWidth)
}
