package settlement

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Worker schedules an Engine's Tick on a cron expression and tracks which
// shard index is currently mid-tick, so overlapping schedules (a tick
// running long past its own period) skip rather than double-run.
type Worker struct {
	engine   *Engine
	cron     *cron.Cron
	schedule string
	inFlight *xsync.Map[int, struct{}]
	shardTag int
}

// NewWorker wraps engine with a cron schedule. shardTag is only used to
// key the in-flight map and for logging; it should be the engine's own
// shard index (or 0 for a single-shard deployment).
func NewWorker(engine *Engine, schedule string, shardTag int) *Worker {
	return &Worker{
		engine:   engine,
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		inFlight: xsync.NewMap[int, struct{}](),
		shardTag: shardTag,
	}
}

// Start registers the tick function and starts the cron scheduler. ctx
// governs the lifetime of every tick this worker runs; canceling it does
// not stop the scheduler itself -- call Stop for that.
func (w *Worker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		w.runTick(ctx)
	})
	if err != nil {
		return fmt.Errorf("settlement: registering cron schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for any in-progress tick to return.
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
}

func (w *Worker) runTick(ctx context.Context) {
	if _, loaded := w.inFlight.LoadOrStore(w.shardTag, struct{}{}); loaded {
		zap.L().Debug("Skipping settlement tick, previous tick still in flight", zap.Int("shard", w.shardTag))
		return
	}
	defer w.inFlight.Delete(w.shardTag)

	if err := w.engine.Tick(ctx); err != nil {
		zap.L().Error("Settlement tick failed", zap.Int("shard", w.shardTag), zap.Error(err))
	}
}
