package jobs

import (
	"context"
	"time"

	"github.com/wonny/crisis-audit/pkg/logger"
)

// Pruner deletes runs older than a cutoff (audit.Repository)
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// PruneJob trims the run history
type PruneJob struct {
	pruner    Pruner
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewPruneJob creates a new history prune job
func NewPruneJob(pruner Pruner, retention time.Duration, log *logger.Logger) *PruneJob {
	return &PruneJob{
		pruner:    pruner,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *PruneJob) Name() string {
	return "history_prune"
}

// Schedule returns the cron schedule (daily at 03:30)
func (j *PruneJob) Schedule() string {
	return "0 30 3 * * *"
}

// Run deletes runs older than the retention window
func (j *PruneJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	count, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": count,
			"cutoff":  cutoff,
		}).Info("History prune completed")
	}
	return nil
}
