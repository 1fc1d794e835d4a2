package model

import "time"

// Aggregation levels for traffic archive rows
const (
	AggregationHourly = "hourly"
	AggregationDaily  = "daily"
	AggregationWeekly = "weekly"
)

// TrafficArchiveRecord is one durable row per endpoint+tunnel+aggregation
// window. RecordedAt is truncated to the start of its window before insert.
// Rows are immutable once written.
type TrafficArchiveRecord struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	EndpointID       int64     `gorm:"not null;index:idx_endpoint_recorded,priority:1"`
	TunnelID         string    `gorm:"size:64;index:idx_tunnel_recorded,priority:1"`
	RecordedAt       time.Time `gorm:"not null;index:idx_endpoint_recorded,priority:2;index:idx_tunnel_recorded,priority:2;index:idx_level_recorded,priority:2"`
	AggregationLevel string    `gorm:"size:16;not null;index:idx_level_recorded,priority:1"`
	TotalTCPRx       int64     `gorm:"default:0"`
	TotalTCPTx       int64     `gorm:"default:0"`
	TotalUDPRx       int64     `gorm:"default:0"`
	TotalUDPTx       int64     `gorm:"default:0"`
	DeltaTCPRx       int64     `gorm:"default:0"`
	DeltaTCPTx       int64     `gorm:"default:0"`
	DeltaUDPRx       int64     `gorm:"default:0"`
	DeltaUDPTx       int64     `gorm:"default:0"`
	AvgThroughputRx  float64   `gorm:"type:decimal(20,2);default:0"`
	AvgThroughputTx  float64   `gorm:"type:decimal(20,2);default:0"`
	PeakThroughputRx float64   `gorm:"type:decimal(20,2);default:0"`
	PeakThroughputTx float64   `gorm:"type:decimal(20,2);default:0"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (TrafficArchiveRecord) TableName() string { return "traffic_archive_records" }

// StatusChangeRecord is one durable row per observed tunnel status
// transition. Rows are immutable once written.
type StatusChangeRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	EndpointID int64     `gorm:"not null;index:idx_endpoint_event,priority:1"`
	TunnelID   string    `gorm:"size:64;index:idx_tunnel_event,priority:1"`
	EventType  string    `gorm:"size:32;not null;index:idx_type_event,priority:1"`
	FromStatus string    `gorm:"size:32"`
	ToStatus   string    `gorm:"size:32"`
	Reason     string    `gorm:"size:255"`
	DurationMs int64     `gorm:"default:0"`
	EventTime  time.Time `gorm:"not null;index:idx_endpoint_event,priority:2;index:idx_tunnel_event,priority:2;index:idx_type_event,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (StatusChangeRecord) TableName() string { return "status_change_records" }
