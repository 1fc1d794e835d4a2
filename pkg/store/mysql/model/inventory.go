package model

import "time"

// Endpoint statuses
const (
	EndpointOnline  = "online"
	EndpointOffline = "offline"
)

// Endpoint is a managed device that terminates tunnels
type Endpoint struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Name       string    `gorm:"size:255;not null;uniqueIndex:uk_endpoint_name"`
	Status     string    `gorm:"size:32;not null;default:offline;index:idx_endpoint_status"`
	LastSeenAt time.Time `gorm:"index:idx_endpoint_last_seen"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Endpoint) TableName() string { return "endpoints" }

// Tunnel is a forwarding tunnel hosted by an endpoint. InstanceID identifies
// the live runtime instance currently serving the tunnel; empty means the
// tunnel is configured but not running.
type Tunnel struct {
	ID         string    `gorm:"primaryKey;size:64"`
	EndpointID int64     `gorm:"not null;index:idx_tunnel_endpoint"`
	Name       string    `gorm:"size:255;not null"`
	Status     string    `gorm:"size:32;not null;default:offline"`
	InstanceID string    `gorm:"size:64"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Tunnel) TableName() string { return "tunnels" }
