package archive

import (
	"time"

	"tunneld/pkg/store/mysql/model"
)

// convertBatch partitions one flush worth of records into the two durable
// record families. Records whose kind has no durable family, or whose payload
// variant is missing, yield no rows and are counted as skipped; a bad record
// never fails its siblings.
func convertBatch(batch []*Record) (traffic []*model.TrafficArchiveRecord, status []*model.StatusChangeRecord, skipped int) {
	for _, rec := range batch {
		switch rec.Kind {
		case KindTrafficDelta:
			if row := convertTraffic(rec); row != nil {
				traffic = append(traffic, row)
			} else {
				skipped++
			}
		case KindStatusChange:
			if row := convertStatus(rec); row != nil {
				status = append(status, row)
			} else {
				skipped++
			}
		default:
			// performance/alert records have no durable family yet
			skipped++
		}
	}
	return traffic, status, skipped
}

func convertTraffic(rec *Record) *model.TrafficArchiveRecord {
	p := rec.Traffic
	if p == nil {
		return nil
	}

	level := p.AggregationLevel
	switch level {
	case model.AggregationHourly, model.AggregationDaily, model.AggregationWeekly:
	default:
		level = model.AggregationHourly
	}

	return &model.TrafficArchiveRecord{
		EndpointID:       rec.EndpointID,
		TunnelID:         rec.TunnelID,
		RecordedAt:       truncateToWindow(rec.Timestamp, level),
		AggregationLevel: level,
		TotalTCPRx:       p.TotalTCPRx,
		TotalTCPTx:       p.TotalTCPTx,
		TotalUDPRx:       p.TotalUDPRx,
		TotalUDPTx:       p.TotalUDPTx,
		DeltaTCPRx:       p.DeltaTCPRx,
		DeltaTCPTx:       p.DeltaTCPTx,
		DeltaUDPRx:       p.DeltaUDPRx,
		DeltaUDPTx:       p.DeltaUDPTx,
		AvgThroughputRx:  p.AvgThroughputRx,
		AvgThroughputTx:  p.AvgThroughputTx,
		PeakThroughputRx: p.PeakThroughputRx,
		PeakThroughputTx: p.PeakThroughputTx,
	}
}

func convertStatus(rec *Record) *model.StatusChangeRecord {
	p := rec.Status
	if p == nil {
		return nil
	}

	eventTime := rec.Timestamp
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	return &model.StatusChangeRecord{
		EndpointID: rec.EndpointID,
		TunnelID:   rec.TunnelID,
		EventType:  p.EventType,
		FromStatus: p.FromStatus,
		ToStatus:   p.ToStatus,
		Reason:     p.Reason,
		DurationMs: p.DurationMs,
		EventTime:  eventTime,
	}
}

// truncateToWindow aligns a timestamp to the start of its aggregation window
func truncateToWindow(t time.Time, level string) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	switch level {
	case model.AggregationDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case model.AggregationWeekly:
		// weeks start on Monday
		daysBack := (int(t.Weekday()) + 6) % 7
		start := t.AddDate(0, 0, -daysBack)
		return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
	default:
		return t.Truncate(time.Hour)
	}
}
