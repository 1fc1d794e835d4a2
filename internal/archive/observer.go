package archive

import "time"

// StatusObserver turns observed tunnel status transitions into archive
// records. It is the ad-hoc producer that feeds the queue outside the
// scheduler's polling cadence; recording is fire-and-forget.
type StatusObserver struct {
	mgr *Manager
}

// NewStatusObserver creates an observer publishing into the given manager
func NewStatusObserver(mgr *Manager) *StatusObserver {
	return &StatusObserver{mgr: mgr}
}

// TunnelStatusChanged records one transition. inPrior is how long the tunnel
// spent in the prior status.
func (o *StatusObserver) TunnelStatusChanged(endpointID int64, tunnelID, from, to, reason string, inPrior time.Duration) {
	o.mgr.Enqueue(NewStatusChangeRecord(endpointID, tunnelID, StatusPayload{
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		DurationMs: inPrior.Milliseconds(),
	}))
}
