package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"zoneguard-worker-go/internal/worker"
)

// WorkerStatser reports frame loop counters.
type WorkerStatser interface {
	Stats() worker.Stats
}

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	WorkerID  string
	startedAt time.Time
	worker    WorkerStatser
	viewers   func() int
	clients   func() int
}

func NewSystemHandler(workerID string, w WorkerStatser, viewers, clients func() int) *SystemHandler {
	return &SystemHandler{
		WorkerID:  workerID,
		startedAt: time.Now(),
		worker:    w,
		viewers:   viewers,
		clients:   clients,
	}
}

// @Summary Get system stats
// @Description Runtime and frame loop statistics
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := gin.H{
		"worker_id":      h.WorkerID,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"memory_mb":      m.Alloc / 1024 / 1024,
		"cpu_cores":      runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	}
	if h.worker != nil {
		stats["frames"] = h.worker.Stats()
	}
	if h.viewers != nil {
		stats["stream_viewers"] = h.viewers()
	}
	if h.clients != nil {
		stats["event_clients"] = h.clients()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stats":     stats,
		"timestamp": time.Now().Unix(),
	})
}
