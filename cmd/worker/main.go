package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/api"
	"zoneguard-worker-go/internal/api/handlers"
	"zoneguard-worker-go/internal/config"
	"zoneguard-worker-go/internal/db"
	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/framebuffer"
	"zoneguard-worker-go/internal/hub"
	"zoneguard-worker-go/internal/identity"
	"zoneguard-worker-go/internal/logging"
	"zoneguard-worker-go/internal/models"
	"zoneguard-worker-go/internal/services/detection"
	"zoneguard-worker-go/internal/services/journal"
	"zoneguard-worker-go/internal/services/messaging"
	"zoneguard-worker-go/internal/services/notification"
	"zoneguard-worker-go/internal/services/publisher/mjpeg"
	"zoneguard-worker-go/internal/services/rpc"
	"zoneguard-worker-go/internal/tracking"
	"zoneguard-worker-go/internal/vision"
	"zoneguard-worker-go/internal/worker"
)

// @title ZoneGuard Worker API
// @version 1.0
// @description Zone intrusion and loitering alerts for a single camera.
// @BasePath /
func main() {
	cfg := config.Load()

	logs, err := logging.Setup(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logs.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("camera", cfg.CameraSource).
		Bool("identity_enabled", cfg.IdentityEnabled).
		Bool("nats_enabled", cfg.NatsEnabled).
		Msg("Starting ZoneGuard Worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	encoder := vision.NewJPEGEncoder(cfg.OutputQuality)
	renderer := vision.NewRenderer(encoder)
	stream := mjpeg.NewPublisher(renderer.Placeholder(cfg.FrameWidth, cfg.FrameHeight, "Waiting for camera..."))

	events := hub.New().WithLogger(logging.NewServiceLogger(cfg, "hub"))
	go events.Run(ctx)

	var store *db.DB
	if cfg.DBPath != "" {
		store, err = db.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open alert journal")
		}
		defer store.Close()
		log.Info().Str("path", cfg.DBPath).Msg("Alert journal opened")
	}

	var bus *messaging.Service
	if cfg.NatsEnabled {
		bus, err = messaging.NewService(cfg)
		if err != nil {
			// Alerts still reach the local sinks without the bus.
			log.Error().Err(err).Str("url", cfg.NatsURL).Msg("NATS unavailable, alerts will not be published")
			bus = nil
		}
	}

	sinks := []notification.Sink{
		notification.NewSnapshotSink(cfg.SnapshotDir, vision.NewSnapshotEncoder(encoder)),
		notification.EventLogSink{},
	}
	if store != nil {
		sinks = append(sinks, notification.NewJournalSink(store))
	}
	sinks = append(sinks, notification.NewBroadcastSink(events))
	if bus != nil {
		sinks = append(sinks, notification.NewPublishSink(bus, cfg.AlertsSubject, cfg.WorkerID))
	}
	if cfg.SirenEnabled {
		sinks = append(sinks, notification.NewSirenSink(cfg.SirenPath, cfg.SirenPlayer))
	}
	dispatcher := notification.NewDispatcher(cfg.AlertsQueueSize, cfg.AlertsWorkers, sinks...).
		WithLogger(logging.NewServiceLogger(cfg, "notification"))
	dispatcher.Start()

	var trackJournal *journal.Service
	if store != nil {
		trackJournal = journal.NewService(store, events, cfg.JournalQueueSize).
			WithLogger(logging.NewServiceLogger(cfg, "journal"))
		trackJournal.Start()
	}

	detectorClient := rpc.NewClient(rpc.Options{
		Name:           "detector",
		Endpoint:       cfg.DetectorGRPCURL,
		Timeout:        cfg.AITimeout,
		BackoffInitial: cfg.AIBackoffInitial,
		BackoffMax:     cfg.AIBackoffMax,
	})
	if err := detectorClient.Connect(); err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.DetectorGRPCURL).Msg("Detector not reachable yet, will retry per frame")
	}
	defer detectorClient.Close()
	detector := detection.NewService(detectorClient, encoder, cfg.DetectorConfidence, cfg.DetectorPersonClass)

	resolver, identityClient := newResolver(ctx, cfg, encoder)
	if identityClient != nil {
		defer identityClient.Close()
	}

	tracker := tracking.NewByteTrack(tracking.Config{
		MaxDisappeared: cfg.TrackerMaxDisappeared,
		MinHits:        cfg.TrackerMinHits,
		MinIoU:         cfg.TrackerMinIoU,
		HighThresh:     cfg.TrackerHighThresh,
		LowThresh:      cfg.TrackerLowThresh,
	})

	zone, err := engine.NewZone(cfg.ZoneX, cfg.ZoneY, cfg.ZoneWidth, cfg.ZoneHeight, cfg.ZoneMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid restricted zone")
	}
	zone.Label = cfg.ZoneLabel

	people := engine.NewStore(engine.StoreConfig{
		Zone:            zone,
		LoiterThreshold: cfg.LoiterThreshold,
		TrackTTL:        cfg.TrackTTL,
		AlertCooldown:   cfg.AlertCooldown,
	})
	processor := engine.NewProcessor(people, resolver, dispatcher, engine.Options{
		FrameInterval:         cfg.FrameProcessingInterval,
		ReRecognitionInterval: cfg.ReRecognitionInterval,
	}).WithPipeline(detector, tracker).WithLogger(logging.NewServiceLogger(cfg, "engine"))
	if trackJournal != nil {
		processor = processor.WithObserver(trackJournal)
	}

	capture, err := vision.OpenCapture(vision.CaptureConfig{
		Source: cfg.CameraSource,
		Width:  cfg.FrameWidth,
		Height: cfg.FrameHeight,
		FPS:    cfg.CaptureFPS,
	})
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.CameraSource).Msg("Failed to open camera")
	}

	frames := framebuffer.NewLatest()
	var cameraUp atomic.Bool
	cameraUp.Store(true)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		err := capture.Run(ctx, frames)
		cameraUp.Store(false)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Camera capture stopped")
			cancel()
		}
	}()

	loop := worker.New(frames, processor, renderer, stream, events, cfg.PanicRestartDelay).
		WithLogger(logging.NewServiceLogger(cfg, "worker"))
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Frame loop stopped")
			cancel()
		}
	}()

	checks := map[string]handlers.HealthCheck{
		"camera":   cameraUp.Load,
		"detector": detectorClient.IsConnected,
	}
	if identityClient != nil {
		checks["identity"] = identityClient.IsConnected
	}
	if bus != nil {
		checks["nats"] = bus.IsConnected
	}

	deps := api.Deps{
		Stream:     stream,
		Viewers:    stream.Viewers,
		Snapshots:  processor,
		Zone:       zone,
		Dispatcher: dispatcher,
		Worker:     loop,
		Events:     events.ServeWS,
		Clients:    events.ClientCount,
		Checks:     checks,
	}
	if store != nil {
		deps.Journal = store
	}
	server := api.NewServer(cfg, deps)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server failed")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Warn().Msg("Worker stopping after a fatal error")
	}

	shutdown(cfg, cancel, &wg, server, stream, dispatcher, trackJournal, bus)
}

// newResolver builds the identity resolver. With identity disabled, or when
// the gallery cannot be loaded, every track stays Unknown.
func newResolver(ctx context.Context, cfg *config.Config, cropper identity.Cropper) (engine.IdentityResolver, *rpc.Client) {
	unknown := engine.IdentityResolverFunc(func(context.Context, *models.Frame, models.Box) (models.IdentityResult, error) {
		return models.UnknownIdentity(), nil
	})
	if !cfg.IdentityEnabled {
		log.Info().Msg("Identity resolution disabled, all tracks are Unknown")
		return unknown, nil
	}

	client := rpc.NewClient(rpc.Options{
		Name:           "identity",
		Endpoint:       cfg.IdentityGRPCURL,
		Timeout:        cfg.AITimeout,
		BackoffInitial: cfg.AIBackoffInitial,
		BackoffMax:     cfg.AIBackoffMax,
	})
	if err := client.Connect(); err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.IdentityGRPCURL).Msg("Identity service not reachable yet")
	}

	embedder := identity.NewGRPCEmbedder(client)
	gallery := identity.NewGallery(cfg.FaceMatchThreshold)

	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	n, err := identity.LoadDir(loadCtx, cfg.FacesDir, embedder, gallery)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.FacesDir).Msg("Failed to load face gallery")
	} else if n == 0 {
		log.Warn().Str("dir", cfg.FacesDir).Msg("No registered faces, every track stays Unknown")
	}

	return identity.NewResolver(cropper, embedder, gallery), client
}

func shutdown(cfg *config.Config, cancel context.CancelFunc, wg *sync.WaitGroup, server *api.Server,
	stream *mjpeg.Publisher, dispatcher *notification.Dispatcher, trackJournal *journal.Service, bus *messaging.Service) {
	ctx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer done()

	stream.Shutdown()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancel()
	wg.Wait()

	if err := dispatcher.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Pending alerts were not delivered")
	}
	if trackJournal != nil {
		if err := trackJournal.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Track journal did not drain")
		}
	}
	if bus != nil {
		if err := bus.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("NATS drain incomplete")
		}
	}
	log.Info().Msg("Shutdown complete")
}
