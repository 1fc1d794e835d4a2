package cleanup

import (
	"context"
	"fmt"
	"time"

	"tunneld/pkg/logger"
	"tunneld/pkg/store/mysql"
)

// Config controls retention and whether cleanup runs at all
type Config struct {
	Enabled              bool
	TrafficRetentionDays int // traffic archive rows older than this are deleted
	StatusRetentionDays  int // status change rows older than this are deleted
}

func (c *Config) applyDefaults() {
	if c.TrafficRetentionDays <= 0 {
		c.TrafficRetentionDays = 90
	}
	if c.StatusRetentionDays <= 0 {
		c.StatusRetentionDays = 30
	}
}

// endpoints silent longer than this are flipped offline by the deep pass
const staleEndpointThreshold = 24 * time.Hour

// ArchiveStore is the slice of the archive repository the cleanup passes use
type ArchiveStore interface {
	DeleteTrafficBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteStatusBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOrphanedStatusRecords(ctx context.Context) (int64, error)
}

// InventoryStore is the slice of the inventory repository the deep pass uses
type InventoryStore interface {
	MarkStaleEndpointsOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

var (
	_ ArchiveStore   = (*mysql.ArchiveRepository)(nil)
	_ InventoryStore = (*mysql.InventoryRepository)(nil)
)

// Manager is the retention engine. The scheduler owns when its passes run;
// the manager only knows how to delete.
type Manager struct {
	cfg       Config
	archive   ArchiveStore
	inventory InventoryStore
	stats     *Stats
}

// NewManager creates a cleanup manager over the store repositories
func NewManager(cfg Config, archive ArchiveStore, inventory InventoryStore) *Manager {
	cfg.applyDefaults()
	return &Manager{
		cfg:       cfg,
		archive:   archive,
		inventory: inventory,
		stats:     NewStats(),
	}
}

// ExecuteScheduledCleanup deletes archive rows past their retention window.
// This is the daily pass.
func (m *Manager) ExecuteScheduledCleanup(ctx context.Context) error {
	if !m.cfg.Enabled {
		logger.InfoCtx(ctx, "cleanup is disabled, skipping scheduled cleanup")
		return nil
	}
	return m.runRetention(ctx, "scheduled")
}

// ExecuteDeepCleanup runs the retention pass plus the consistency work that
// is too expensive for the daily cadence: orphaned status rows and stale
// endpoint flags. This is the weekly pass.
func (m *Manager) ExecuteDeepCleanup(ctx context.Context) error {
	if !m.cfg.Enabled {
		logger.InfoCtx(ctx, "cleanup is disabled, skipping deep cleanup")
		return nil
	}

	if err := m.runRetention(ctx, "deep"); err != nil {
		return err
	}

	orphaned, err := m.archive.DeleteOrphanedStatusRecords(ctx)
	if err != nil {
		m.recordError(err)
		return fmt.Errorf("deep cleanup: %w", err)
	}

	stale, err := m.inventory.MarkStaleEndpointsOffline(ctx, time.Now().Add(-staleEndpointThreshold))
	if err != nil {
		m.recordError(err)
		return fmt.Errorf("deep cleanup: %w", err)
	}

	m.stats.apply(func(d *statsData) {
		d.orphanedStatusDeleted += orphaned
		d.staleEndpointsMarked += stale
	})

	logger.InfoCtx(ctx, "deep cleanup removed %d orphaned status records, marked %d endpoints offline",
		orphaned, stale)
	return nil
}

// ExecuteStartupCleanup runs one retention pass at boot so a long-stopped
// instance does not serve months of expired rows until the first scheduled
// pass. No-op when cleanup is disabled.
func (m *Manager) ExecuteStartupCleanup(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}
	return m.runRetention(ctx, "startup")
}

// runRetention deletes rows past the per-family retention cutoffs
func (m *Manager) runRetention(ctx context.Context, pass string) error {
	now := time.Now()
	trafficCutoff := now.AddDate(0, 0, -m.cfg.TrafficRetentionDays)
	statusCutoff := now.AddDate(0, 0, -m.cfg.StatusRetentionDays)

	traffic, err := m.archive.DeleteTrafficBefore(ctx, trafficCutoff)
	if err != nil {
		m.recordError(err)
		return fmt.Errorf("%s cleanup: %w", pass, err)
	}

	status, err := m.archive.DeleteStatusBefore(ctx, statusCutoff)
	if err != nil {
		m.recordError(err)
		return fmt.Errorf("%s cleanup: %w", pass, err)
	}

	m.stats.apply(func(d *statsData) {
		d.totalRuns++
		d.trafficDeleted += traffic
		d.statusDeleted += status
		d.lastRunAt = now
	})

	logger.InfoCtx(ctx, "%s cleanup deleted %d traffic records (older than %dd) and %d status records (older than %dd)",
		pass, traffic, m.cfg.TrafficRetentionDays, status, m.cfg.StatusRetentionDays)
	return nil
}

func (m *Manager) recordError(err error) {
	m.stats.apply(func(d *statsData) {
		d.failedRuns++
		d.lastErrorMessage = err.Error()
		d.lastErrorTime = time.Now()
	})
}

// GetStats returns a consistent snapshot of the cleanup counters
func (m *Manager) GetStats() StatsSnapshot {
	return m.stats.Snapshot()
}
