package settlement

import (
	"context"
	"testing"
	"time"

	"account-settlement-core/internal/models"
)

func TestWorkerRunsTickOnSchedule(t *testing.T) {
	s := newFakeLedgerStore()
	tx := s.seedTransaction("account-a", models.TransactionDeposit, "100", time.Now().UTC(), false, "")

	engine := NewEngine(s, singleShard(0), 1, 1)
	worker := NewWorker(engine, "* * * * * *", 0)

	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error starting worker: %v", err)
	}
	defer worker.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got, err := s.GetTransaction(context.Background(), tx.Id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Settled {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("expected the worker's cron schedule to settle the transaction within the deadline")
}
