package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/models"
)

// SnapshotSource exposes the engine's latest published snapshot.
type SnapshotSource interface {
	Latest() *engine.Snapshot
}

type TracksHandler struct {
	source SnapshotSource
	zone   engine.Zone
}

func NewTracksHandler(source SnapshotSource, zone engine.Zone) *TracksHandler {
	return &TracksHandler{source: source, zone: zone}
}

type TracksResponse struct {
	FrameCount int64                         `json:"frame_count"`
	Total      int                           `json:"total"`
	Counts     map[models.IdentityStatus]int `json:"counts"`
	People     []engine.PersonView           `json:"people"`
}

// @Summary List tracked people
// @Description People currently held by the engine, as of the last processed frame
// @Tags tracks
// @Produce json
// @Param status query string false "Filter by identity status (known, allowed, banned, unknown)"
// @Success 200 {object} TracksResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/tracks [get]
func (h *TracksHandler) ListTracks(c *gin.Context) {
	snap := h.source.Latest()
	if snap == nil {
		c.JSON(http.StatusOK, TracksResponse{Counts: map[models.IdentityStatus]int{}, People: []engine.PersonView{}})
		return
	}

	people := snap.People
	if s := c.Query("status"); s != "" {
		status := models.IdentityStatus(s)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		people = make([]engine.PersonView, 0, len(snap.People))
		for _, p := range snap.People {
			if p.Status == status {
				people = append(people, p)
			}
		}
	}
	if people == nil {
		people = []engine.PersonView{}
	}

	c.JSON(http.StatusOK, TracksResponse{
		FrameCount: snap.FrameCount,
		Total:      len(people),
		Counts:     snap.Counts(),
		People:     people,
	})
}

// @Summary Get one tracked person
// @Tags tracks
// @Produce json
// @Param id path int true "Track ID"
// @Success 200 {object} engine.PersonView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/tracks/{id} [get]
func (h *TracksHandler) GetTrack(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track id must be an integer"})
		return
	}
	p, ok := h.source.Latest().Person(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type ZoneResponse struct {
	Zone   engine.Zone `json:"zone"`
	InZone []int       `json:"in_zone"`
}

// @Summary Restricted zone
// @Description Zone geometry and the ids of people currently inside it
// @Tags tracks
// @Produce json
// @Success 200 {object} ZoneResponse
// @Router /api/v1/zone [get]
func (h *TracksHandler) GetZone(c *gin.Context) {
	inZone := []int{}
	if snap := h.source.Latest(); snap != nil {
		for _, p := range snap.People {
			if p.InZone {
				inZone = append(inZone, p.ID)
			}
		}
	}
	c.JSON(http.StatusOK, ZoneResponse{Zone: h.zone, InZone: inZone})
}
