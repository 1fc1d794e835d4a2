package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tunneld/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchedulerTestRouter(t *testing.T) (*gin.Engine, *scheduler.Scheduler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sched := scheduler.New(context.Background(), scheduler.Config{}, nil, nil, nil)
	t.Cleanup(sched.Close)

	h := NewSchedulerHandler(sched)
	engine := gin.New()
	engine.GET("/v1/scheduler/tasks", h.ListTasks)
	engine.POST("/v1/scheduler/tasks/:name/execute", h.ForceExecute)
	return engine, sched
}

func TestListTasks(t *testing.T) {
	engine, sched := newSchedulerTestRouter(t)
	sched.RegisterTask(scheduler.Task{
		Name: "nightly-report",
		Rule: scheduler.Daily(1, 0),
		Run:  func(ctx context.Context) error { return nil },
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/scheduler/tasks", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tasks []scheduler.TaskStatus `json:"tasks"`
		Total int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "nightly-report", resp.Tasks[0].Name)
	assert.NotEmpty(t, resp.Tasks[0].NextRun)
}

func TestForceExecuteAccepted(t *testing.T) {
	engine, sched := newSchedulerTestRouter(t)

	done := make(chan struct{})
	sched.RegisterTask(scheduler.Task{
		Name: "manual",
		Rule: scheduler.Daily(1, 0),
		Run: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/scheduler/tasks/manual/execute", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	<-done
}

func TestForceExecuteUnknownTaskReturns404(t *testing.T) {
	engine, _ := newSchedulerTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/scheduler/tasks/no-such-task/execute", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}
