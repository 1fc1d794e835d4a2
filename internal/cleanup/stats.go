package cleanup

import (
	"sync"
	"time"
)

const statsTimeLayout = "2006-01-02 15:04:05"

type statsData struct {
	totalRuns             int64
	failedRuns            int64
	trafficDeleted        int64
	statusDeleted         int64
	orphanedStatusDeleted int64
	staleEndpointsMarked  int64
	lastRunAt             time.Time
	lastErrorMessage      string
	lastErrorTime         time.Time
}

// Stats tracks cumulative cleanup counters
type Stats struct {
	mu   sync.RWMutex
	data statsData
}

// NewStats creates an empty stats tracker
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) apply(fn func(*statsData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// StatsSnapshot is a consistent copy of the cleanup counters
type StatsSnapshot struct {
	TotalRuns             int64  `json:"total_runs"`
	FailedRuns            int64  `json:"failed_runs"`
	TrafficDeleted        int64  `json:"traffic_deleted"`
	StatusDeleted         int64  `json:"status_deleted"`
	OrphanedStatusDeleted int64  `json:"orphaned_status_deleted"`
	StaleEndpointsMarked  int64  `json:"stale_endpoints_marked"`
	LastRunAt             string `json:"last_run_at,omitempty"`
	LastErrorMessage      string `json:"last_error_message,omitempty"`
	LastErrorTime         string `json:"last_error_time,omitempty"`
}

// Snapshot returns a consistent copy of the counters
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatsSnapshot{
		TotalRuns:             s.data.totalRuns,
		FailedRuns:            s.data.failedRuns,
		TrafficDeleted:        s.data.trafficDeleted,
		StatusDeleted:         s.data.statusDeleted,
		OrphanedStatusDeleted: s.data.orphanedStatusDeleted,
		StaleEndpointsMarked:  s.data.staleEndpointsMarked,
		LastErrorMessage:      s.data.lastErrorMessage,
	}
	if !s.data.lastRunAt.IsZero() {
		snap.LastRunAt = s.data.lastRunAt.Format(statsTimeLayout)
	}
	if !s.data.lastErrorTime.IsZero() {
		snap.LastErrorTime = s.data.lastErrorTime.Format(statsTimeLayout)
	}
	return snap
}
