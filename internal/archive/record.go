package archive

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the payload variant carried by a Record
type Kind string

const (
	KindTrafficDelta Kind = "traffic_delta"
	KindStatusChange Kind = "status_change"
	KindPerformance  Kind = "performance"
	KindAlert        Kind = "alert"
)

// maxReasonLen bounds the free-text reason stored on status change rows
const maxReasonLen = 255

// TrafficPayload carries the counters of a traffic-delta record. Zero values
// are valid and mean "no traffic observed"; producers only fill what they
// know.
type TrafficPayload struct {
	TotalTCPRx       int64
	TotalTCPTx       int64
	TotalUDPRx       int64
	TotalUDPTx       int64
	DeltaTCPRx       int64
	DeltaTCPTx       int64
	DeltaUDPRx       int64
	DeltaUDPTx       int64
	AvgThroughputRx  float64
	AvgThroughputTx  float64
	PeakThroughputRx float64
	PeakThroughputTx float64
	AggregationLevel string
}

// StatusPayload carries one observed status transition
type StatusPayload struct {
	EventType  string
	FromStatus string
	ToStatus   string
	Reason     string
	DurationMs int64 // time spent in the prior status
}

// Record is a transient unit of archival work. Exactly one payload variant is
// set, matching Kind; a record whose variant is missing converts to no rows
// and is skipped at flush time.
type Record struct {
	ID         string
	Kind       Kind
	EndpointID int64
	TunnelID   string
	Timestamp  time.Time
	Metadata   map[string]string

	Traffic *TrafficPayload
	Status  *StatusPayload
}

// NewTrafficDeltaRecord builds a traffic-delta record. Unset payload fields
// stay zero and the aggregation level defaults to hourly.
func NewTrafficDeltaRecord(endpointID int64, tunnelID string, payload TrafficPayload) *Record {
	if payload.AggregationLevel == "" {
		payload.AggregationLevel = "hourly"
	}
	return &Record{
		ID:         uuid.New().String(),
		Kind:       KindTrafficDelta,
		EndpointID: endpointID,
		TunnelID:   tunnelID,
		Timestamp:  time.Now(),
		Traffic:    &payload,
	}
}

// NewStatusChangeRecord builds a status-change record. The event type
// defaults to "status_change" and the reason is truncated to the stored
// column width.
func NewStatusChangeRecord(endpointID int64, tunnelID string, payload StatusPayload) *Record {
	if payload.EventType == "" {
		payload.EventType = "status_change"
	}
	if len(payload.Reason) > maxReasonLen {
		payload.Reason = payload.Reason[:maxReasonLen]
	}
	return &Record{
		ID:         uuid.New().String(),
		Kind:       KindStatusChange,
		EndpointID: endpointID,
		TunnelID:   tunnelID,
		Timestamp:  time.Now(),
		Status:     &payload,
	}
}
