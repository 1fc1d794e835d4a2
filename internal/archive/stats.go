package archive

import (
	"sync"
	"time"
)

const statsTimeLayout = "2006-01-02 15:04:05"

// statsData holds the raw archive counters. Mutated only through
// Stats.apply so no caller can write a field without holding the lock.
type statsData struct {
	totalArchived     int64
	trafficRecords    int64
	statusRecords     int64
	batchesProcessed  int64
	failedBatches     int64
	droppedRecords    int64
	skippedRecords    int64
	lastBatchDuration time.Duration
	lastFlushAt       time.Time
	lastErrorMessage  string
	lastErrorTime     time.Time
}

// Stats tracks archive manager throughput and errors. Reads go through
// Snapshot so callers never observe a partial update.
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

// StatsSnapshot is a consistent copy of the archive counters, with
// timestamps formatted for the admin API
type StatsSnapshot struct {
	TotalArchived       int64  `json:"total_archived"`
	TrafficRecords      int64  `json:"traffic_records"`
	StatusRecords       int64  `json:"status_records"`
	BatchesProcessed    int64  `json:"batches_processed"`
	FailedBatches       int64  `json:"failed_batches"`
	DroppedRecords      int64  `json:"dropped_records"`
	SkippedRecords      int64  `json:"skipped_records"`
	QueueDepth          int    `json:"queue_depth"`
	LastBatchDurationMs int64  `json:"last_batch_duration_ms"`
	LastFlushAt         string `json:"last_flush_at,omitempty"`
	LastErrorMessage    string `json:"last_error_message,omitempty"`
	LastErrorTime       string `json:"last_error_time,omitempty"`
}

// Snapshot returns a consistent copy of the counters
func (s *Stats) Snapshot(queueDepth int) StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatsSnapshot{
		TotalArchived:       s.data.totalArchived,
		TrafficRecords:      s.data.trafficRecords,
		StatusRecords:       s.data.statusRecords,
		BatchesProcessed:    s.data.batchesProcessed,
		FailedBatches:       s.data.failedBatches,
		DroppedRecords:      s.data.droppedRecords,
		SkippedRecords:      s.data.skippedRecords,
		QueueDepth:          queueDepth,
		LastBatchDurationMs: s.data.lastBatchDuration.Milliseconds(),
		LastErrorMessage:    s.data.lastErrorMessage,
	}
	if !s.data.lastFlushAt.IsZero() {
		snap.LastFlushAt = s.data.lastFlushAt.Format(statsTimeLayout)
	}
	if !s.data.lastErrorTime.IsZero() {
		snap.LastErrorTime = s.data.lastErrorTime.Format(statsTimeLayout)
	}
	return snap
}
