package mysql

import (
	"context"
	"fmt"
	"time"

	"tunneld/pkg/store/mysql/model"
)

// InventoryRepository reads the endpoint/tunnel inventory used by the hourly
// archive sweep and maintenance jobs
type InventoryRepository struct {
	ds *Datastore
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(ds *Datastore) *InventoryRepository {
	return &InventoryRepository{ds: ds}
}

// ListOnlineEndpoints returns all endpoints currently marked online
func (r *InventoryRepository) ListOnlineEndpoints(ctx context.Context) ([]*model.Endpoint, error) {
	var endpoints []*model.Endpoint
	err := r.ds.DB(ctx).
		Where("status = ?", model.EndpointOnline).
		Order("id ASC").
		Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list online endpoints: %w", err)
	}
	return endpoints, nil
}

// ListTunnels returns all tunnels belonging to an endpoint
func (r *InventoryRepository) ListTunnels(ctx context.Context, endpointID int64) ([]*model.Tunnel, error) {
	var tunnels []*model.Tunnel
	err := r.ds.DB(ctx).
		Where("endpoint_id = ?", endpointID).
		Order("id ASC").
		Find(&tunnels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tunnels for endpoint %d: %w", endpointID, err)
	}
	return tunnels, nil
}

// MarkStaleEndpointsOffline flips endpoints that have not been seen since the
// cutoff to offline and returns the number of rows changed
func (r *InventoryRepository) MarkStaleEndpointsOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.ds.DB(ctx).
		Model(&model.Endpoint{}).
		Where("status = ? AND last_seen_at < ?", model.EndpointOnline, cutoff).
		Update("status", model.EndpointOffline)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark stale endpoints offline: %w", result.Error)
	}
	return result.RowsAffected, nil
}
