package scheduler

import (
	"sync"
	"time"
)

const statsTimeLayout = "2006-01-02 15:04:05"

// statsData holds the raw scheduler counters, mutated only through
// Stats.apply
type statsData struct {
	totalRuns       int64
	successfulRuns  int64
	failedRuns      int64
	runsByTask      map[string]int64
	lastRunDuration time.Duration
	lastError       string
	lastErrorTime   time.Time
}

// Stats tracks scheduler-wide execution counters, decoupled from the
// per-task run-state so statistics reads never block dispatch.
type Stats struct {
	mu   sync.RWMutex
	data statsData
}

// NewStats creates an empty stats tracker
func NewStats() *Stats {
	return &Stats{data: statsData{runsByTask: make(map[string]int64)}}
}

func (s *Stats) apply(fn func(*statsData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// StatsSnapshot is a consistent copy of the scheduler counters plus the
// status of every registered task
type StatsSnapshot struct {
	TotalRuns         int64            `json:"total_runs"`
	SuccessfulRuns    int64            `json:"successful_runs"`
	FailedRuns        int64            `json:"failed_runs"`
	RunsByTask        map[string]int64 `json:"runs_by_task"`
	LastRunDurationMs int64            `json:"last_run_duration_ms"`
	LastErrorMessage  string           `json:"last_error_message,omitempty"`
	LastErrorTime     string           `json:"last_error_time,omitempty"`
	Tasks             []TaskStatus     `json:"tasks"`
}

// Snapshot returns a consistent copy of the counters
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byTask := make(map[string]int64, len(s.data.runsByTask))
	for name, count := range s.data.runsByTask {
		byTask[name] = count
	}

	snap := StatsSnapshot{
		TotalRuns:         s.data.totalRuns,
		SuccessfulRuns:    s.data.successfulRuns,
		FailedRuns:        s.data.failedRuns,
		RunsByTask:        byTask,
		LastRunDurationMs: s.data.lastRunDuration.Milliseconds(),
		LastErrorMessage:  s.data.lastError,
	}
	if !s.data.lastErrorTime.IsZero() {
		snap.LastErrorTime = s.data.lastErrorTime.Format(statsTimeLayout)
	}
	return snap
}
