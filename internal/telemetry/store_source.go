package telemetry

import (
	"context"
	"fmt"

	"tunneld/pkg/store/mysql"
)

// StoreSource reads inventory from the relational store. Counter reads
// return zeros until the live tunnel runtime exposes its cumulative totals;
// the archive pipeline treats zero counters as "no traffic observed".
type StoreSource struct {
	inventory *mysql.InventoryRepository
}

// NewStoreSource creates a store-backed telemetry source
func NewStoreSource(inventory *mysql.InventoryRepository) *StoreSource {
	return &StoreSource{inventory: inventory}
}

// ListOnlineEndpoints returns endpoints currently marked online
func (s *StoreSource) ListOnlineEndpoints(ctx context.Context) ([]Endpoint, error) {
	rows, err := s.inventory.ListOnlineEndpoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read online endpoints: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(rows))
	for _, row := range rows {
		endpoints = append(endpoints, Endpoint{ID: row.ID, Name: row.Name})
	}
	return endpoints, nil
}

// ListTunnels returns the tunnels hosted by an endpoint
func (s *StoreSource) ListTunnels(ctx context.Context, endpointID int64) ([]Tunnel, error) {
	rows, err := s.inventory.ListTunnels(ctx, endpointID)
	if err != nil {
		return nil, fmt.Errorf("failed to read tunnels: %w", err)
	}

	tunnels := make([]Tunnel, 0, len(rows))
	for _, row := range rows {
		tunnels = append(tunnels, Tunnel{
			ID:         row.ID,
			EndpointID: row.EndpointID,
			Name:       row.Name,
			InstanceID: row.InstanceID,
		})
	}
	return tunnels, nil
}

// TunnelCounters returns cumulative counters for a tunnel.
// TODO: read live counters from the tunnel runtime once it exposes them.
func (s *StoreSource) TunnelCounters(ctx context.Context, tunnelID string) (Counters, error) {
	return Counters{}, nil
}

var _ Source = (*StoreSource)(nil)
