package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/meridian/internal/platform/db"
)

// StockSnapshotJob copies current stock counters into a dated snapshot table
// so stock history survives later adjustments and reversals.
type StockSnapshotJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStockSnapshotJob builds the job.
func NewStockSnapshotJob(pool *pgxpool.Pool, logger *slog.Logger) *StockSnapshotJob {
	return &StockSnapshotJob{pool: pool, logger: logger}
}

// Handle processes TaskStockSnapshot tasks.
func (j *StockSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StockSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	start := time.Now()
	tag, err := j.pool.Exec(ctx, `INSERT INTO stock_snapshots (company_id, warehouse_id, product_id, variant_id, available_qty, reserved_qty, taken_at)
SELECT company_id, warehouse_id, product_id, variant_id, available_qty, reserved_qty, NOW()
FROM stock_records`)
	if err != nil {
		j.logger.Error("stock snapshot", slog.Any("error", err))
		return db.ClassifyError(err)
	}
	j.logger.Info("stock snapshot taken",
		slog.Int64("rows", tag.RowsAffected()),
		slog.Duration("elapsed", time.Since(start)),
		slog.Time("scheduled_for", payload.ScheduledFor))
	return nil
}
