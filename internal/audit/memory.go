package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the most recent runs in process (used when no database is configured)
type MemoryStore struct {
	mu     sync.RWMutex
	runs   []*Run
	nextID int64
	limit  int
}

// NewMemoryStore keeps at most limit runs
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryStore{limit: limit, nextID: 1}
}

// Save stores a copy and assigns ID / CreatedAt
func (m *MemoryStore) Save(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run.ID = m.nextID
	m.nextID++
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	stored := *run
	m.runs = append(m.runs, &stored)
	if len(m.runs) > m.limit {
		m.runs = m.runs[len(m.runs)-m.limit:]
	}
	return nil
}

// Latest returns the newest run
func (m *MemoryStore) Latest(_ context.Context) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.runs) == 0 {
		return nil, ErrNoRuns
	}
	run := *m.runs[len(m.runs)-1]
	return &run, nil
}

// History newest first
func (m *MemoryStore) History(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i].Summarize())
	}
	return out, nil
}
