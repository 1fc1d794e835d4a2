// Package telemetry abstracts the live inventory and counter source consumed
// by the hourly archive sweep. The sweep only needs three reads: which
// endpoints are online, which tunnels they host, and the cumulative counters
// of a running tunnel.
package telemetry

import "context"

// Endpoint is an online device as seen by the sweep
type Endpoint struct {
	ID   int64
	Name string
}

// Tunnel is a tunnel hosted by an endpoint. InstanceID is empty when no live
// runtime instance is serving the tunnel.
type Tunnel struct {
	ID         string
	EndpointID int64
	Name       string
	InstanceID string
}

// Counters are cumulative TCP/UDP byte totals for one tunnel
type Counters struct {
	TCPRx int64
	TCPTx int64
	UDPRx int64
	UDPTx int64
}

// Source supplies live inventory and traffic counters
type Source interface {
	ListOnlineEndpoints(ctx context.Context) ([]Endpoint, error)
	ListTunnels(ctx context.Context, endpointID int64) ([]Tunnel, error)
	TunnelCounters(ctx context.Context, tunnelID string) (Counters, error)
}
