package scheduler

import (
	"context"
	"time"
)

// historyLimit results kept per job
const historyLimit = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes one attempt; the scheduler retries on error
	Run(ctx context.Context) error

	// Schedule returns a six-field cron expression (seconds first)
	// Examples: "0 */15 * * * *" (every 15 minutes)
	//           "0 30 3 * * *" (daily at 03:30), "@hourly"
	Schedule() string
}

// JobResult outcome of one run including retries
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory bounded run history of one job
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond historyLimit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// Failed returns every failed result
func (h *JobHistory) Failed() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// SuccessRate 0.0 - 1.0 (0 with no runs)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-len(h.Failed())) / float64(len(h.Results))
}

// clone copies the history so callers can read it without the scheduler lock
func (h *JobHistory) clone() *JobHistory {
	return &JobHistory{Results: append([]JobResult(nil), h.Results...)}
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

// stats summarises the history; LastSuccess and LastFailure are the most recent of each
func (h *JobHistory) stats(name, schedule string) JobStats {
	failures := len(h.Failed())
	st := JobStats{
		JobName:      name,
		Schedule:     schedule,
		TotalRuns:    len(h.Results),
		SuccessCount: len(h.Results) - failures,
		FailureCount: failures,
		SuccessRate:  h.SuccessRate(),
	}

	for i := len(h.Results) - 1; i >= 0; i-- {
		start := h.Results[i].StartTime
		if st.LastRun == nil {
			st.LastRun = &start
		}
		if h.Results[i].Success && st.LastSuccess == nil {
			st.LastSuccess = &start
		}
		if !h.Results[i].Success && st.LastFailure == nil {
			st.LastFailure = &start
		}
		if st.LastSuccess != nil && st.LastFailure != nil {
			break
		}
	}
	return st
}
