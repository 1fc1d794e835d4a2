package handler

import (
	"net/http"

	"tunneld/internal/archive"
	"tunneld/internal/cleanup"
	"tunneld/internal/scheduler"
	"tunneld/pkg/logger"
	"tunneld/pkg/store/mysql"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the combined runtime statistics of the background
// pipeline
type StatsHandler struct {
	archiveMgr *archive.Manager
	sched      *scheduler.Scheduler
	cleanupMgr *cleanup.Manager
	archiveRep *mysql.ArchiveRepository
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(archiveMgr *archive.Manager, sched *scheduler.Scheduler, cleanupMgr *cleanup.Manager, archiveRep *mysql.ArchiveRepository) *StatsHandler {
	return &StatsHandler{
		archiveMgr: archiveMgr,
		sched:      sched,
		cleanupMgr: cleanupMgr,
		archiveRep: archiveRep,
	}
}

// GetStats returns the archive, scheduler and cleanup snapshots plus the
// durable row counts in one payload
func (h *StatsHandler) GetStats(c *gin.Context) {
	resp := gin.H{
		"archive":   h.archiveMgr.GetStats(),
		"scheduler": h.sched.GetStats(),
		"cleanup":   h.cleanupMgr.GetStats(),
	}

	if h.archiveRep != nil {
		ctx := c.Request.Context()
		trafficRows, err := h.archiveRep.CountTrafficRecords(ctx, "")
		if err != nil {
			logger.ErrorCtx(ctx, "failed to count traffic archive rows: %v", err)
		}
		statusRows, err := h.archiveRep.CountStatusRecords(ctx)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to count status change rows: %v", err)
		}
		resp["store"] = gin.H{
			"traffic_rows": trafficRows,
			"status_rows":  statusRows,
		}
	}

	c.JSON(http.StatusOK, resp)
}
