package handler

import (
	"net/http"
	"strings"

	"tunneld/internal/scheduler"
	"tunneld/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SchedulerHandler exposes task inspection and manual triggering
type SchedulerHandler struct {
	sched *scheduler.Scheduler
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(sched *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{sched: sched}
}

// ListTasks returns the status of every registered task
func (h *SchedulerHandler) ListTasks(c *gin.Context) {
	snap := h.sched.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"tasks": snap.Tasks,
		"total": len(snap.Tasks),
	})
}

// ForceExecute triggers one task outside its schedule. Execution itself is
// asynchronous; a 202 only means the trigger was accepted.
func (h *SchedulerHandler) ForceExecute(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task name required"})
		return
	}

	if err := h.sched.ForceExecuteTask(name); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.ErrorCtx(c.Request.Context(), "failed to force execute task %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task":    name,
		"message": "execution triggered",
	})
}
