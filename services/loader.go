package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"naver-trends/metrics"
	"naver-trends/models"
	"naver-trends/storage"
	"naver-trends/utils"
)

var (
	// ErrTableNotVisible means a table created in this run never became
	// visible to inserts. The run cannot continue.
	ErrTableNotVisible = errors.New("table not visible after retries")

	// ErrLoadFailed wraps any other insert failure. Only the client fails.
	ErrLoadFailed = errors.New("load failed")
)

// Loader writes a client's accumulated rows to the warehouse.
type Loader struct {
	warehouse  storage.Warehouse
	maxRetries int
	delay      time.Duration
	logger     *utils.Logger
	metrics    *metrics.Recorder
}

// NewLoader creates a Loader that retries up to maxRetries times, delay apart,
// while a freshly created table propagates.
func NewLoader(warehouse storage.Warehouse, maxRetries int, delay time.Duration, logger *utils.Logger, rec *metrics.Recorder) *Loader {
	return &Loader{
		warehouse:  warehouse,
		maxRetries: maxRetries,
		delay:      delay,
		logger:     logger,
		metrics:    rec,
	}
}

// Load inserts rows into the plan's table with a single logical call.
// Nothing is sent when rows is empty.
func (l *Loader) Load(ctx context.Context, plan *Plan, rows []*models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	retry := &utils.RetryConfig{
		MaxAttempts: 1,
		BaseDelay:   l.delay,
		Retryable: func(err error) bool {
			return errors.Is(err, storage.ErrTableNotFound)
		},
	}
	if plan.Created {
		retry.MaxAttempts = l.maxRetries + 1
	}

	attempts := 0
	err := retry.Do(ctx, "insert "+plan.Table.ID(), func() error {
		attempts++
		if attempts > 1 {
			l.metrics.InsertRetry()
			l.logger.Debug("[loader] %s not visible yet, retry %d/%d", plan.Table.ID(), attempts-1, l.maxRetries)
		}
		return l.warehouse.InsertRows(ctx, plan.Table, rows)
	})

	switch {
	case err == nil:
		l.logger.Info("[loader] Inserted %d rows into %s", len(rows), plan.Table.ID())
		return nil
	case plan.Created && errors.Is(err, storage.ErrTableNotFound):
		return fmt.Errorf("%w: %s: %w", ErrTableNotVisible, plan.Table.ID(), err)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %s: %w", ErrLoadFailed, plan.Table.ID(), err)
	}
}
