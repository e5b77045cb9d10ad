package common

import (
	"context"
	"log"
	"strings"

	"account-settlement-core/internal/credential"
	"account-settlement-core/internal/database"
	"account-settlement-core/internal/deposit"
	"account-settlement-core/internal/models"
	"account-settlement-core/internal/settlement"
	"account-settlement-core/internal/wallet"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		// godotenv returns an error both when .env doesn't exist and when
		// it exists but couldn't be read; either case is logged as a note
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services bundles the wired components every cmd entry needs: the
// database-backed store, the credential service (signup/login), the
// deposit ingestor, and the settlement engine for this process's shard.
type Services struct {
	DbService         *database.Service
	CredentialService *credential.Service
	Ingestor          *deposit.Ingestor
	Engine            *settlement.Engine
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the full set of components against cfg: the
// database, the wallet allocator (backed by the BTC generator this module
// ships), the credential service, the deposit ingestor, and the
// settlement engine for this process's configured shard.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	allocator := wallet.NewAllocator(wallet.NewBTCGenerator(), dbService, cfg.Credential.MaxWalletAttempts)
	credentialService := credential.NewService(dbService, allocator, cfg.Credential)
	ingestor := deposit.NewIngestor(dbService)
	engine := settlement.NewEngine(dbService, cfg.Settlement.ShardIndex, cfg.Settlement.ShardCount, cfg.Settlement.Concurrency)

	return &Services{
		DbService:         dbService,
		CredentialService: credentialService,
		Ingestor:          ingestor,
		Engine:            engine,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service, useful for
// administrative tooling that needs the store but none of the other
// services (cmd/settle-one writes through it).
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
