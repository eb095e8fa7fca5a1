package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/api/handlers"
	"zoneguard-worker-go/internal/api/middleware"
	"zoneguard-worker-go/internal/config"
	"zoneguard-worker-go/internal/engine"
)

// Deps are the runtime components the HTTP surface reads from. Journal,
// Dispatcher and Events may be nil when the matching feature is disabled.
type Deps struct {
	Stream     handlers.FrameStreamer
	Viewers    func() int
	Snapshots  handlers.SnapshotSource
	Zone       engine.Zone
	Journal    handlers.AlertJournal
	Dispatcher handlers.DispatchStatser
	Worker     handlers.WorkerStatser
	Events     http.HandlerFunc
	Clients    func() int
	Checks     map[string]handlers.HealthCheck
}

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server
	deps   Deps

	healthHandler *handlers.HealthHandler
	streamHandler *handlers.StreamHandler
	tracksHandler *handlers.TracksHandler
	alertsHandler *handlers.AlertsHandler
	systemHandler *handlers.SystemHandler
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:        cfg,
		router:        gin.New(),
		deps:          deps,
		healthHandler: handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, deps.Checks),
		streamHandler: handlers.NewStreamHandler(deps.Stream, cfg.FrameWidth, cfg.FrameHeight),
		tracksHandler: handlers.NewTracksHandler(deps.Snapshots, deps.Zone),
		systemHandler: handlers.NewSystemHandler(cfg.WorkerID, deps.Worker, deps.Viewers, deps.Clients),
	}
	if deps.Journal != nil {
		s.alertsHandler = handlers.NewAlertsHandler(deps.Journal, deps.Dispatcher)
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting ZoneGuard Worker API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping ZoneGuard Worker API")
	return s.server.Shutdown(ctx)
}
