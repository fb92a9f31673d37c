package jobs

import (
	"context"

	"github.com/wonny/crisis-audit/internal/brain"
	"github.com/wonny/crisis-audit/pkg/logger"
)

// Runner one evaluation cycle (brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context) (*brain.RunResult, error)
}

// EvaluateJob collects, evaluates, persists and publishes on a schedule
type EvaluateJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger
}

// NewEvaluateJob creates a new evaluation job
func NewEvaluateJob(runner Runner, schedule string, log *logger.Logger) *EvaluateJob {
	return &EvaluateJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *EvaluateJob) Name() string {
	return "evaluate"
}

// Schedule returns the configured cron expression (seconds field first)
func (j *EvaluateJob) Schedule() string {
	return j.schedule
}

// Run executes one evaluation cycle
func (j *EvaluateJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx)
	if err != nil {
		return err
	}

	if result.OverrideError != nil {
		j.logger.WithError(result.OverrideError).Warn("Evaluation used configured thresholds")
	}
	return nil
}
