// Package worker runs the frame loop: take the newest captured frame, step
// the engine, draw the overlay and hand the JPEG to the stream publisher.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/engine"
	"zoneguard-worker-go/internal/models"
)

// FrameSource yields frames newer than the given sequence number.
type FrameSource interface {
	Next(ctx context.Context, after uint64) (*models.Frame, uint64, error)
}

// Stepper is the engine entry point.
type Stepper interface {
	Step(ctx context.Context, frame *models.Frame) engine.Result
}

// Renderer draws the overlay and encodes the output frame.
type Renderer interface {
	Render(frame *models.Frame, snap *engine.Snapshot) ([]byte, error)
}

// StreamPublisher receives each encoded output frame.
type StreamPublisher interface {
	Publish(jpeg []byte)
}

// Broadcaster pushes periodic people summaries to live clients.
type Broadcaster interface {
	Publish(eventType string, at time.Time, data interface{})
}

const summaryInterval = time.Second

// Stats are the worker's running counters.
type Stats struct {
	FramesConsumed  int64     `json:"frames_consumed"`
	FramesProcessed int64     `json:"frames_processed"`
	AlertsFired     int64     `json:"alerts_fired"`
	RenderErrors    int64     `json:"render_errors"`
	Panics          int64     `json:"panics"`
	LastFrameAt     time.Time `json:"last_frame_at"`
}

type Worker struct {
	source       FrameSource
	engine       Stepper
	renderer     Renderer
	publisher    StreamPublisher
	hub          Broadcaster
	restartDelay time.Duration

	consumed     atomic.Int64
	processed    atomic.Int64
	alerts       atomic.Int64
	renderErrors atomic.Int64
	panics       atomic.Int64
	lastFrameAt  atomic.Int64

	lastSummary time.Time
	logger      zerolog.Logger
}

// New wires a worker. hub may be nil.
func New(source FrameSource, stepper Stepper, renderer Renderer, publisher StreamPublisher, hub Broadcaster, restartDelay time.Duration) *Worker {
	return &Worker{
		source:       source,
		engine:       stepper,
		renderer:     renderer,
		publisher:    publisher,
		hub:          hub,
		restartDelay: restartDelay,
		logger:       log.With().Str("service", "worker").Logger(),
	}
}

// WithLogger replaces the default worker logger. Call it before Run.
func (w *Worker) WithLogger(l zerolog.Logger) *Worker {
	w.logger = l
	return w
}

// Run consumes frames until ctx is cancelled. A panic while handling a frame
// is logged and the loop resumes after the restart delay.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("Frame loop started")
	var seq uint64
	for {
		frame, next, err := w.source.Next(ctx, seq)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info().Msg("Frame loop stopped")
				return nil
			}
			return fmt.Errorf("frame source failed: %w", err)
		}
		seq = next

		if err := w.handle(ctx, frame); err != nil {
			w.logger.Error().Err(err).Int64("frame_id", frame.ID).Dur("restart_delay", w.restartDelay).Msg("Frame loop panic recovered")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.restartDelay):
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, frame *models.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.panics.Add(1)
			w.logger.Debug().Str("stack", string(debug.Stack())).Msg("Panic stack")
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	w.consumed.Add(1)
	w.lastFrameAt.Store(frame.Timestamp.UnixNano())

	res := w.engine.Step(ctx, frame)
	if res.Processed {
		w.processed.Add(1)
		w.alerts.Add(int64(len(res.Alerts)))
		w.broadcastSummary(frame.Timestamp, res.Snapshot)
	}

	jpeg, err := w.renderer.Render(frame, res.Snapshot)
	if err != nil {
		if w.renderErrors.Add(1)%100 == 1 {
			w.logger.Warn().Err(err).Int64("frame_id", frame.ID).Msg("Failed to render frame")
		}
		return nil
	}
	w.publisher.Publish(jpeg)
	return nil
}

// PeopleSummary is broadcast at most once per second.
type PeopleSummary struct {
	FrameCount int64                         `json:"frame_count"`
	Counts     map[models.IdentityStatus]int `json:"counts"`
	People     []engine.PersonView           `json:"people"`
}

func (w *Worker) broadcastSummary(at time.Time, snap *engine.Snapshot) {
	if w.hub == nil || snap == nil {
		return
	}
	if !w.lastSummary.IsZero() && at.Sub(w.lastSummary) < summaryInterval {
		return
	}
	w.lastSummary = at
	w.hub.Publish("people", at, PeopleSummary{
		FrameCount: snap.FrameCount,
		Counts:     snap.Counts(),
		People:     snap.People,
	})
}

func (w *Worker) Stats() Stats {
	s := Stats{
		FramesConsumed:  w.consumed.Load(),
		FramesProcessed: w.processed.Load(),
		AlertsFired:     w.alerts.Load(),
		RenderErrors:    w.renderErrors.Load(),
		Panics:          w.panics.Load(),
	}
	if ns := w.lastFrameAt.Load(); ns != 0 {
		s.LastFrameAt = time.Unix(0, ns)
	}
	return s
}
