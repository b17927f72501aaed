package job

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"task-board-api/internal/automation"
	"task-board-api/internal/cache"
	"task-board-api/internal/repository"
)

// Scanner runs one due-date scan
type Scanner interface {
	Scan(ctx context.Context, now time.Time) (*automation.ScanResult, error)
}

// DueDateJob drives the due-date rule scanner from the scheduler
type DueDateJob struct {
	scanner Scanner
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewDueDateJob(scanner Scanner, timeout time.Duration, logger *zap.Logger) *DueDateJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &DueDateJob{scanner: scanner, timeout: timeout, logger: logger, now: time.Now}
}

// Run implements cron.Job
func (j *DueDateJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := j.now()
	result, err := j.scanner.Scan(ctx, start)
	if err != nil {
		j.logger.Error("Due date scan failed", zap.Error(err))
		return
	}

	j.logger.Info("Due date scan completed",
		zap.Int("rules", result.RulesEvaluated),
		zap.Int("matched", result.TasksMatched),
		zap.Int("fired", result.Fired),
		zap.Int("already_fired", result.AlreadyFired),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
}

// NewFiringLedger claims due-date slots in redis when available and in the database otherwise.
// The database ledger also backs redis when a SETNX fails.
func NewFiringLedger(firings repository.DueDateFiringRepository, rdb *redis.Client, logger *zap.Logger) automation.FiringLedger {
	if rdb == nil {
		return firings
	}
	return cache.NewRedisFiringLedger(rdb, firings, logger)
}
