package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tunneld/internal/archive"
	"tunneld/internal/cleanup"
	"tunneld/internal/scheduler"
	"tunneld/pkg/store/mysql/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopStore struct{}

func (noopStore) SaveBatch(ctx context.Context, traffic []*model.TrafficArchiveRecord, status []*model.StatusChangeRecord) error {
	return nil
}

func TestGetStatsCombinesSnapshots(t *testing.T) {
	gin.SetMode(gin.TestMode)

	archiveMgr := archive.NewManager(context.Background(), archive.Config{}, noopStore{}, nil)
	sched := scheduler.New(context.Background(), scheduler.Config{}, nil, nil, nil)
	t.Cleanup(sched.Close)
	cleanupMgr := cleanup.NewManager(cleanup.Config{Enabled: true}, nil, nil)

	h := NewStatsHandler(archiveMgr, sched, cleanupMgr, nil)
	engine := gin.New()
	engine.GET("/v1/stats", h.GetStats)

	// an accepted but unflushed record shows up as queue depth
	archiveMgr.Enqueue(archive.NewStatusChangeRecord(1, "tun-1", archive.StatusPayload{ToStatus: "online"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "archive")
	assert.Contains(t, resp, "scheduler")
	assert.Contains(t, resp, "cleanup")

	var archiveSnap archive.StatsSnapshot
	require.NoError(t, json.Unmarshal(resp["archive"], &archiveSnap))
	assert.Equal(t, 1, archiveSnap.QueueDepth)
}
