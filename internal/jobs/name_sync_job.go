package jobs

import (
	"context"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/domain"
	"go.uber.org/zap"
)

// NameSyncJobName is the scheduler name of the Netsis name sync
const NameSyncJobName = "netsis_name_sync"

// DefaultNameSyncTimeout bounds a single drain of all batches
const DefaultNameSyncTimeout = 30 * time.Minute

// NameSyncer fills missing product names from the ERP one batch at a time.
type NameSyncer interface {
	SyncNamesBatch(ctx context.Context, cursor string, limit int) (*domain.NameSyncResult, error)
}

// NameSyncJob drains name sync batches until a batch comes back empty or without a cursor
type NameSyncJob struct {
	syncer    NameSyncer
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewNameSyncJob creates a new name sync job
func NewNameSyncJob(syncer NameSyncer, batchSize int, timeout time.Duration, logger *zap.Logger) *NameSyncJob {
	if timeout <= 0 {
		timeout = DefaultNameSyncTimeout
	}
	return &NameSyncJob{
		syncer:    syncer,
		batchSize: batchSize,
		timeout:   timeout,
		logger:    logger,
	}
}

// Run is called by the scheduler
func (j *NameSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.Drain(ctx); err != nil {
		j.logger.Warn("netsis name sync stopped", zap.Error(err))
	}
}

// Drain processes batches while products keep coming and returns the accumulated totals.
func (j *NameSyncJob) Drain(ctx context.Context) (*domain.NameSyncResult, error) {
	start := time.Now()
	total := &domain.NameSyncResult{}
	cursor := ""
	batches := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		res, err := j.syncer.SyncNamesBatch(ctx, cursor, j.batchSize)
		if err != nil {
			j.logger.Error("netsis name sync batch failed",
				zap.String("cursor", cursor),
				zap.Int("batches", batches),
				zap.Error(err))
			return total, err
		}
		batches++
		total.Processed += res.Processed
		total.Updated += res.Updated

		if res.Processed == 0 || res.NextCursor == "" || res.NextCursor == cursor {
			break
		}
		cursor = res.NextCursor
	}

	j.logger.Info("netsis name sync completed",
		zap.Int("batches", batches),
		zap.Int("processed", total.Processed),
		zap.Int("updated", total.Updated),
		zap.Duration("duration", time.Since(start)))
	return total, nil
}

// RegisterNameSyncJob adds the name sync to the scheduler
func RegisterNameSyncJob(scheduler *Scheduler, syncer NameSyncer, batchSize int, cronExpr string, logger *zap.Logger) error {
	job := NewNameSyncJob(syncer, batchSize, DefaultNameSyncTimeout, logger)
	return scheduler.AddJob(NameSyncJobName, cronExpr, job.Run)
}
