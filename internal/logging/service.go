package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/config"
)

// NewServiceLogger derives a component logger from the global one, tagged
// with the worker id and the service name.
func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

// WithTrack tags every line of base with a track id.
func WithTrack(base zerolog.Logger, trackID int) zerolog.Logger {
	return base.With().Int("track_id", trackID).Logger()
}
