package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tunneld/internal/telemetry"
	"tunneld/pkg/logger"
	"tunneld/pkg/store/mysql"
	"tunneld/pkg/store/mysql/model"
)

// Store persists one flush worth of converted rows in a single transaction
type Store interface {
	SaveBatch(ctx context.Context, traffic []*model.TrafficArchiveRecord, status []*model.StatusChangeRecord) error
}

var _ Store = (*mysql.ArchiveRepository)(nil)

// Config controls the queue, batching and worker pool of the Manager
type Config struct {
	QueueSize     int           // bounded queue capacity
	BatchSize     int           // buffer length that triggers an immediate flush
	Workers       int           // queue drain workers
	FlushInterval time.Duration // staleness bound for buffered records
}

func (c *Config) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 1000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 30 * time.Second
	}
}

// Manager absorbs a bursty stream of archive records and persists them in
// size- or time-bounded batches. Enqueue never blocks: when the queue is full
// the record is dropped. Persistence is at-most-once; a failed flush is
// counted and not retried.
type Manager struct {
	cfg       Config
	store     Store
	telemetry telemetry.Source

	queue chan *Record

	mu     sync.Mutex // guards buffer append/swap only
	buffer []*Record

	stats *Stats

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewManager creates an archive manager bound to the provided lifecycle
// context. The telemetry source may be nil when the hourly sweep is unused.
func NewManager(parent context.Context, cfg Config, store Store, src telemetry.Source) *Manager {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		cfg:       cfg,
		store:     store,
		telemetry: src,
		queue:     make(chan *Record, cfg.QueueSize),
		buffer:    make([]*Record, 0, cfg.BatchSize),
		stats:     NewStats(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the worker pool and the flush timer
func (m *Manager) Start() {
	if m.started {
		return
	}
	m.started = true

	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	m.wg.Add(1)
	go m.flushLoop()

	logger.Infof("archive manager started (queue=%d batch=%d workers=%d flush=%v)",
		m.cfg.QueueSize, m.cfg.BatchSize, m.cfg.Workers, m.cfg.FlushInterval)
}

// Enqueue accepts a record without blocking. When the queue is full the
// record is dropped and counted; producers are never stalled by archival.
func (m *Manager) Enqueue(rec *Record) {
	if rec == nil {
		return
	}

	select {
	case m.queue <- rec:
	default:
		m.stats.apply(func(d *statsData) { d.droppedRecords++ })
		logger.Warnf("archive queue full, dropping %s record (endpoint=%d tunnel=%s)",
			rec.Kind, rec.EndpointID, rec.TunnelID)
	}
}

// worker drains the queue into the shared batch buffer and triggers a flush
// when the buffer reaches the batch size
func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case rec := <-m.queue:
			if m.append(rec) {
				m.flush(m.ctx)
			}
		}
	}
}

// append adds one record to the buffer and reports whether the buffer has
// reached the flush threshold
func (m *Manager) append(rec *Record) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffer = append(m.buffer, rec)
	return len(m.buffer) >= m.cfg.BatchSize
}

// flushLoop bounds the staleness of buffered records under low load
func (m *Manager) flushLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.flush(m.ctx)
		}
	}
}

// flush swaps the buffer for an empty one and persists the swapped-out batch
// in a single transaction. Workers keep appending to the fresh buffer while
// the transaction runs; the buffer lock is never held across the store call.
func (m *Manager) flush(ctx context.Context) {
	m.mu.Lock()
	if len(m.buffer) == 0 {
		m.mu.Unlock()
		return
	}
	batch := m.buffer
	m.buffer = make([]*Record, 0, m.cfg.BatchSize)
	m.mu.Unlock()

	traffic, status, skipped := convertBatch(batch)
	if skipped > 0 {
		m.stats.apply(func(d *statsData) { d.skippedRecords += int64(skipped) })
	}
	if len(traffic) == 0 && len(status) == 0 {
		return
	}

	start := time.Now()
	err := m.store.SaveBatch(ctx, traffic, status)
	elapsed := time.Since(start)

	if err != nil {
		// at-most-once: the batch is counted as failed and not re-queued
		logger.ErrorCtx(ctx, "archive flush failed (%d traffic, %d status): %v",
			len(traffic), len(status), err)
		m.stats.apply(func(d *statsData) {
			d.failedBatches++
			d.lastBatchDuration = elapsed
			d.lastErrorMessage = err.Error()
			d.lastErrorTime = time.Now()
		})
		return
	}

	m.stats.apply(func(d *statsData) {
		d.totalArchived += int64(len(traffic) + len(status))
		d.trafficRecords += int64(len(traffic))
		d.statusRecords += int64(len(status))
		d.batchesProcessed++
		d.lastBatchDuration = elapsed
		d.lastFlushAt = time.Now()
	})
	logger.DebugCtx(ctx, "archive flush persisted %d traffic and %d status records in %v",
		len(traffic), len(status), elapsed)
}

// ExecuteHourlyArchive synthesizes one traffic-delta record per running
// tunnel of every online endpoint and enqueues them. Invoked by the
// scheduler's hourly archive task.
func (m *Manager) ExecuteHourlyArchive(ctx context.Context) error {
	if m.telemetry == nil {
		return fmt.Errorf("telemetry source not configured")
	}

	endpoints, err := m.telemetry.ListOnlineEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate online endpoints: %w", err)
	}

	recordedAt := time.Now().Truncate(time.Hour)
	enqueued := 0

	for _, ep := range endpoints {
		tunnels, err := m.telemetry.ListTunnels(ctx, ep.ID)
		if err != nil {
			logger.WarnCtx(ctx, "failed to list tunnels for endpoint %d: %v", ep.ID, err)
			continue
		}

		for _, tn := range tunnels {
			// only tunnels with a live runtime instance have counters
			if tn.InstanceID == "" {
				continue
			}

			counters, err := m.telemetry.TunnelCounters(ctx, tn.ID)
			if err != nil {
				logger.WarnCtx(ctx, "failed to read counters for tunnel %s: %v", tn.ID, err)
				continue
			}

			rec := NewTrafficDeltaRecord(ep.ID, tn.ID, TrafficPayload{
				TotalTCPRx:       counters.TCPRx,
				TotalTCPTx:       counters.TCPTx,
				TotalUDPRx:       counters.UDPRx,
				TotalUDPTx:       counters.UDPTx,
				AggregationLevel: model.AggregationHourly,
			})
			rec.Timestamp = recordedAt
			m.Enqueue(rec)
			enqueued++
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	logger.InfoCtx(ctx, "hourly archive sweep enqueued %d traffic records from %d endpoints",
		enqueued, len(endpoints))
	return nil
}

// GetStats returns a consistent snapshot of the archive counters
func (m *Manager) GetStats() StatsSnapshot {
	return m.stats.Snapshot(len(m.queue))
}

// Close shuts the manager down: stop the workers and flush timer, fold any
// records still sitting in the queue into the buffer, then run one final
// best-effort flush. Abrupt process termination may still lose buffered
// records. Close is expected to be called at most once.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()

drain:
	for {
		select {
		case rec := <-m.queue:
			m.mu.Lock()
			m.buffer = append(m.buffer, rec)
			m.mu.Unlock()
		default:
			break drain
		}
	}

	// lifecycle context is canceled by now; the final flush gets its own
	m.flush(context.Background())
	logger.Infof("archive manager stopped")
}
