package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() {
	s.router.GET("/", s.streamHandler.Index)
	s.router.GET("/video_feed", s.streamHandler.VideoFeed)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/frame", s.streamHandler.LatestFrame)
		v1.GET("/tracks", s.tracksHandler.ListTracks)
		v1.GET("/tracks/:id", s.tracksHandler.GetTrack)
		v1.GET("/zone", s.tracksHandler.GetZone)

		alerts := v1.Group("/alerts")
		if s.alertsHandler != nil {
			alerts.GET("", s.alertsHandler.ListAlerts)
			alerts.GET("/stats", s.alertsHandler.AlertStats)
			alerts.GET("/chart", s.alertsHandler.AlertChart)
		} else {
			alerts.GET("", journalDisabled)
			alerts.GET("/stats", journalDisabled)
			alerts.GET("/chart", journalDisabled)
		}
	}

	if s.deps.Events != nil {
		s.router.GET("/ws/events", gin.WrapF(s.deps.Events))
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}
}

func journalDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert journal is disabled"})
}
