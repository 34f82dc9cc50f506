package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskhub/backend/internal/infrastructure/buffer"
	"github.com/taskhub/backend/usecase"
	syncUC "github.com/taskhub/backend/usecase/sync"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// SyncProcessor replays buffered sync operations once the store is
// reachable, acting as the repair pass for the denormalized fields.
type SyncProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	syncer  *syncUC.Syncer
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewSyncProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	syncer *syncUC.Syncer,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *SyncProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := &SyncProcessor{
		store:   store,
		monitor: monitor,
		syncer:  syncer,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = sp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sp.Drain(ctx); err != nil {
			sp.logger.Error("sync buffer drain failed", zap.Error(err))
		}
	})

	return sp
}

// Start launches the cron scheduler.
func (sp *SyncProcessor) Start() {
	if sp == nil || sp.cron == nil {
		return
	}
	sp.cron.Start()
	sp.logger.Info("sync processor started")
}

// Stop gracefully stops the scheduler.
func (sp *SyncProcessor) Stop(ctx context.Context) {
	if sp == nil || sp.cron == nil {
		return
	}
	stopCtx := sp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sp.logger.Info("sync processor stopped")
}

// Drain replays buffered sync operations synchronously.
func (sp *SyncProcessor) Drain(ctx context.Context) error {
	if sp == nil || sp.store == nil {
		return nil
	}
	if sp.monitor != nil && !sp.monitor.IsOnline() {
		sp.logger.Debug("skipping sync drain (store offline)")
		return nil
	}

	if err := sp.store.Cleanup(time.Now().Add(-sp.cfg.Retention)); err != nil {
		sp.logger.Warn("sync buffer cleanup failed", zap.Error(err))
	}

	items, err := sp.store.GetBatch(sp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := sp.processItem(ctx, item); err != nil {
			sp.logger.Error("failed to replay sync op",
				zap.String("item_id", item.ID),
				zap.String("op", item.Op),
				zap.Error(err))

			item.Retries++
			if item.Retries >= sp.cfg.MaxRetries {
				sp.logger.Warn("dropping sync op (max retries reached)", zap.String("item_id", item.ID))
				_ = sp.store.Remove(item)
				continue
			}

			if err := sp.store.Remove(item); err != nil {
				sp.logger.Warn("failed to remove sync op", zap.Error(err))
			}
			if err := sp.store.Requeue(item); err != nil {
				sp.logger.Error("failed to requeue sync op", zap.Error(err))
			}
			continue
		}

		if err := sp.store.Remove(item); err != nil {
			sp.logger.Warn("failed to purge replayed sync op", zap.Error(err))
		}
	}
	return nil
}

// Enqueue persists a sync op for later replay.
func (sp *SyncProcessor) Enqueue(op usecase.SyncOp) error {
	if sp == nil || sp.store == nil {
		return fmt.Errorf("sync processor not configured")
	}
	payload, err := json.Marshal(op)
	if err != nil {
		return err
	}
	return sp.store.Enqueue(buffer.Item{
		Op:       op.Op,
		Data:     payload,
		Priority: 3,
	})
}

// Size returns the number of buffered items.
func (sp *SyncProcessor) Size() int {
	if sp == nil || sp.store == nil {
		return 0
	}
	size, err := sp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (sp *SyncProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if sp.syncer == nil {
		return fmt.Errorf("sync processor has no syncer")
	}

	var op usecase.SyncOp
	if err := json.Unmarshal(item.Data, &op); err != nil {
		return err
	}
	return sp.syncer.Apply(ctx, op)
}
