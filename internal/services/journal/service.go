// Package journal records track lifecycle events off the frame-processing path.
package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/models"
)

// EventStore persists track events.
type EventStore interface {
	RecordTrackEvent(ctx context.Context, e models.TrackEvent) error
}

// Broadcaster pushes events to live clients.
type Broadcaster interface {
	Publish(eventType string, at time.Time, data interface{})
}

// Service implements the engine observer with a bounded queue drained by a
// single writer goroutine.
type Service struct {
	store  EventStore
	hub    Broadcaster
	events chan models.TrackEvent

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
	written atomic.Int64

	logger zerolog.Logger
}

// NewService returns a journal writing to store and, when hub is non-nil,
// broadcasting each event to live clients.
func NewService(store EventStore, hub Broadcaster, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Service{
		store:  store,
		hub:    hub,
		events: make(chan models.TrackEvent, queueSize),
		done:   make(chan struct{}),
		logger: log.With().Str("service", "journal").Logger(),
	}
}

// WithLogger replaces the default logger. Call it before Start.
func (s *Service) WithLogger(l zerolog.Logger) *Service {
	s.logger = l
	return s
}

// Start launches the writer.
func (s *Service) Start() {
	go s.run()
}

// OnTrackEvent queues an event without blocking.
func (s *Service) OnTrackEvent(e models.TrackEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
		if s.dropped.Add(1)%100 == 1 {
			s.logger.Warn().Int64("dropped", s.dropped.Load()).Msg("Journal queue full, dropping track events")
		}
	}
}

func (s *Service) run() {
	defer close(s.done)
	for e := range s.events {
		if s.hub != nil {
			s.hub.Publish("track."+string(e.Type), e.At, e)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.store.RecordTrackEvent(ctx, e)
		cancel()
		if err != nil {
			s.logger.Error().Err(err).Int("track_id", e.TrackID).Str("event", string(e.Type)).Msg("Failed to record track event")
			continue
		}
		s.written.Add(1)

		ev := s.logger.Info().Int("track_id", e.TrackID).Str("event", string(e.Type))
		if e.Ident != nil {
			ev = ev.Str("name", e.Ident.Name).Str("status", e.Ident.Status.String())
		}
		ev.Msg("Track event")
	}
}

// Written returns how many events reached the store.
func (s *Service) Written() int64 { return s.written.Load() }

// Dropped returns how many events were discarded because the queue was full.
func (s *Service) Dropped() int64 { return s.dropped.Load() }

// Shutdown stops accepting events and waits for the queue to drain.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
