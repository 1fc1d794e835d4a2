package mysql

import (
	"context"
	"fmt"
	"time"

	"tunneld/pkg/store/mysql/model"
)

// insertBatchSize bounds the row count per INSERT statement inside a flush
// transaction, keeping statements under the server packet limit.
const insertBatchSize = 100

// ArchiveRepository persists durable archive rows in MySQL
type ArchiveRepository struct {
	ds *Datastore
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(ds *Datastore) *ArchiveRepository {
	return &ArchiveRepository{ds: ds}
}

// SaveBatch persists one flush worth of rows inside a single transaction.
// Both record families commit or roll back together, so a reader never
// observes a half-written flush.
func (r *ArchiveRepository) SaveBatch(ctx context.Context, traffic []*model.TrafficArchiveRecord, status []*model.StatusChangeRecord) error {
	if len(traffic) == 0 && len(status) == 0 {
		return nil
	}

	err := r.ds.ExecTx(ctx, func(ctx context.Context) error {
		if len(traffic) > 0 {
			if err := r.ds.DB(ctx).CreateInBatches(traffic, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert traffic archive records: %w", err)
			}
		}
		if len(status) > 0 {
			if err := r.ds.DB(ctx).CreateInBatches(status, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert status change records: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive batch transaction failed: %w", err)
	}
	return nil
}

// CountTrafficRecords returns the number of traffic rows at a given aggregation level
func (r *ArchiveRepository) CountTrafficRecords(ctx context.Context, level string) (int64, error) {
	var count int64
	q := r.ds.DB(ctx).Model(&model.TrafficArchiveRecord{})
	if level != "" {
		q = q.Where("aggregation_level = ?", level)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count traffic archive records: %w", err)
	}
	return count, nil
}

// CountStatusRecords returns the number of status change rows
func (r *ArchiveRepository) CountStatusRecords(ctx context.Context) (int64, error) {
	var count int64
	if err := r.ds.DB(ctx).Model(&model.StatusChangeRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count status change records: %w", err)
	}
	return count, nil
}

// DeleteTrafficBefore deletes traffic rows recorded before the cutoff
func (r *ArchiveRepository) DeleteTrafficBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.ds.DB(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&model.TrafficArchiveRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old traffic archive records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteStatusBefore deletes status change rows observed before the cutoff
func (r *ArchiveRepository) DeleteStatusBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.ds.DB(ctx).
		Where("event_time < ?", cutoff).
		Delete(&model.StatusChangeRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old status change records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOrphanedStatusRecords deletes status change rows whose tunnel no
// longer exists in the inventory. Rows without a tunnel id are kept.
func (r *ArchiveRepository) DeleteOrphanedStatusRecords(ctx context.Context) (int64, error) {
	result := r.ds.DB(ctx).
		Where("tunnel_id <> '' AND tunnel_id NOT IN (?)",
			r.ds.DB(ctx).Model(&model.Tunnel{}).Select("id")).
		Delete(&model.StatusChangeRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned status change records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
