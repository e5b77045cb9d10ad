// Command settlementd runs the settlement daemon: it wires the account
// store, credential service, deposit ingestor, and settlement engine, then
// runs the settlement worker on its configured cron schedule until an
// interrupt signal arrives. It does not ingest deposits itself; see
// cmd/ingest for that.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-settlement-core/internal/common"
	"account-settlement-core/internal/config"
	"account-settlement-core/internal/settlement"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting account settlement daemon")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Settlement.ShardIndex == nil {
		zap.L().Warn("SETTLEMENT_SHARD_INDEX is unset; settlement is disabled and every worker tick is a no-op")
	} else {
		zap.L().Info("Settlement worker configured",
			zap.Int("shard_index", *cfg.Settlement.ShardIndex),
			zap.Int("shard_count", cfg.Settlement.ShardCount),
			zap.String("cron", cfg.Settlement.CronSchedule))
	}

	shardTag := 0
	if cfg.Settlement.ShardIndex != nil {
		shardTag = *cfg.Settlement.ShardIndex
	}
	worker := settlement.NewWorker(services.Engine, cfg.Settlement.CronSchedule, shardTag)
	if err := worker.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start settlement worker", zap.Error(err))
	}

	zap.L().Info("Settlement daemon running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping settlement worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Settlement worker stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
