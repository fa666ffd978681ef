package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/logger"
	"github.com/eventloom/finance-backend/pkg/metrics"
)

const (
	retentionWorker      = "outbox-retention"
	defaultRetentionDays = 30
	retentionInterval    = time.Hour
)

type retentionRepository interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type RetentionParams struct {
	Logger     *logger.Logger
	DB         dbClient
	Repository retentionRepository
	Metrics    *metrics.WorkerMetrics
	Days       int
	Interval   time.Duration
}

// Retention deletes published outbox rows once they are older than the
// retention window. Rows that were never published are left alone.
type Retention struct {
	logg     *logger.Logger
	db       dbClient
	repo     retentionRepository
	metrics  *metrics.WorkerMetrics
	days     int
	interval time.Duration
	now      func() time.Time
}

func NewRetention(params RetentionParams) (*Retention, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	days := params.Days
	if days <= 0 {
		days = defaultRetentionDays
	}
	interval := params.Interval
	if interval <= 0 {
		interval = retentionInterval
	}
	return &Retention{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repository,
		metrics:  params.Metrics,
		days:     days,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run sweeps once at start and then on every tick until ctx ends.
func (r *Retention) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		started := time.Now()
		_, err := r.Sweep(ctx)
		r.metrics.ObserveBatch(retentionWorker, time.Since(started), err)
		if err != nil {
			r.logg.Error(ctx, "outbox retention sweep failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Retention) Sweep(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-time.Duration(r.days) * 24 * time.Hour)
	var deleted int64
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.repo.DeletePublishedBefore(tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("outbox retention: %w", err)
	}
	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": r.days,
		"rows_deleted":   deleted,
	}), "outbox retention sweep complete")
	return deleted, nil
}
