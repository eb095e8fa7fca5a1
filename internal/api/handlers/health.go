package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func() bool

type HealthHandler struct {
	WorkerID string
	Version  string
	checks   map[string]HealthCheck
}

func NewHealthHandler(workerID, version string, checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{WorkerID: workerID, Version: version, checks: checks}
}

type HealthResponse struct {
	Status     string          `json:"status" example:"healthy"`
	WorkerID   string          `json:"worker_id" example:"zoneguard-1"`
	Components map[string]bool `json:"components"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"zoneguard-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Report worker health. Status is degraded when any dependency check fails.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	components := make(map[string]bool, len(names))
	for _, name := range names {
		ok := h.checks[name]()
		components[name] = ok
		if !ok {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:     status,
		WorkerID:   h.WorkerID,
		Components: components,
	})
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router /api/info [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID: h.WorkerID,
		Status:   "running",
		Version:  h.Version,
		Capabilities: []string{
			"person_tracking",
			"face_identification",
			"zone_loitering_alerts",
			"banned_person_alerts",
			"mjpeg_streaming",
		},
	})
}
