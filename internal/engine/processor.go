package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/logging"
	"zoneguard-worker-go/internal/models"
)

// Detector finds people in a frame.
type Detector interface {
	Detect(ctx context.Context, frame *models.Frame) ([]models.Detection, error)
}

// Tracker associates detections across frames and assigns stable track ids.
type Tracker interface {
	Update(detections []models.Detection, frame *models.Frame) ([]models.Track, error)
}

// IdentityResolver classifies the person inside box on frame.
type IdentityResolver interface {
	Resolve(ctx context.Context, frame *models.Frame, box models.Box) (models.IdentityResult, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(ctx context.Context, frame *models.Frame, box models.Box) (models.IdentityResult, error)

func (f IdentityResolverFunc) Resolve(ctx context.Context, frame *models.Frame, box models.Box) (models.IdentityResult, error) {
	return f(ctx, frame, box)
}

// Notifier receives alerts. Notify must not block the caller.
type Notifier interface {
	Notify(alert models.Alert)
}

// Observer receives track lifecycle events. OnTrackEvent must not block.
type Observer interface {
	OnTrackEvent(event models.TrackEvent)
}

// Options configures a Processor.
type Options struct {
	// FrameInterval processes every Nth captured frame.
	FrameInterval int
	// ReRecognitionInterval re-resolves unknown tracks every Nth captured frame.
	ReRecognitionInterval int
}

// DefaultOptions returns interval 2 and re-recognition every 10 frames.
func DefaultOptions() Options {
	return Options{FrameInterval: 2, ReRecognitionInterval: 10}
}

// Result describes what one call to Step or ProcessTracks did.
type Result struct {
	FrameCount int64
	Processed  bool
	Outcomes   map[int]ZoneOutcome
	Alerts     []models.Alert
	Evicted    []int
	Snapshot   *Snapshot
}

// Processor turns tracker output into record updates, identity requests,
// zone decisions, alerts and evictions. Step and ProcessTracks must be called
// from a single goroutine; Latest is safe from any goroutine.
type Processor struct {
	store    *Store
	detector Detector
	tracker  Tracker
	resolver IdentityResolver
	notifier Notifier
	observer Observer
	opts     Options

	frameCount int64
	latest     atomic.Pointer[Snapshot]
	logger     zerolog.Logger
}

func NewProcessor(store *Store, resolver IdentityResolver, notifier Notifier, opts Options) *Processor {
	if opts.FrameInterval < 1 {
		opts.FrameInterval = 1
	}
	if opts.ReRecognitionInterval < 1 {
		opts.ReRecognitionInterval = 1
	}
	p := &Processor{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		opts:     opts,
		logger:   log.With().Str("service", "engine").Logger(),
	}
	p.latest.Store(store.Snapshot(time.Time{}, 0))
	return p
}

// WithPipeline attaches the detector and tracker used by Step.
func (p *Processor) WithPipeline(detector Detector, tracker Tracker) *Processor {
	p.detector = detector
	p.tracker = tracker
	return p
}

// WithLogger replaces the default engine logger.
func (p *Processor) WithLogger(l zerolog.Logger) *Processor {
	p.logger = l
	return p
}

// WithObserver attaches a lifecycle event observer.
func (p *Processor) WithObserver(o Observer) *Processor {
	p.observer = o
	return p
}

// Latest returns the snapshot of the most recently processed frame.
func (p *Processor) Latest() *Snapshot {
	return p.latest.Load()
}

// FrameCount returns the number of frames seen by Step.
func (p *Processor) FrameCount() int64 {
	return p.frameCount
}

// Step counts a captured frame and, on every FrameInterval-th frame, runs
// detection, tracking and ProcessTracks. Skipped frames leave all state
// untouched and return the previous snapshot.
func (p *Processor) Step(ctx context.Context, frame *models.Frame) Result {
	p.frameCount++
	if p.frameCount%int64(p.opts.FrameInterval) != 0 {
		return Result{FrameCount: p.frameCount, Snapshot: p.Latest()}
	}

	var detections []models.Detection
	if p.detector != nil {
		dets, err := p.detector.Detect(ctx, frame)
		if err != nil {
			p.logger.Warn().Err(err).Int64("frame", p.frameCount).Msg("Detection failed, treating frame as empty")
		} else {
			detections = dets
		}
	}

	var tracks []models.Track
	if p.tracker != nil {
		ts, err := p.tracker.Update(detections, frame)
		if err != nil {
			p.logger.Warn().Err(err).Int64("frame", p.frameCount).Msg("Tracker update failed, treating frame as empty")
		} else {
			tracks = ts
		}
	}

	return p.ProcessTracks(ctx, frame, p.frameCount, tracks)
}

// ProcessTracks applies one processed frame worth of tracks to the store.
//
// Only confirmed tracks updated this frame mutate state. Every confirmed
// track reported by the tracker counts as live for eviction, so a track that
// is only being extrapolated survives until its TTL runs out.
func (p *Processor) ProcessTracks(ctx context.Context, frame *models.Frame, frameCount int64, tracks []models.Track) Result {
	now := frameTime(frame)
	res := Result{
		FrameCount: frameCount,
		Processed:  true,
		Outcomes:   make(map[int]ZoneOutcome),
	}

	active := make([]int, 0, len(tracks))
	for _, t := range tracks {
		if t.Confirmed {
			active = append(active, t.ID)
		}
		if !t.Fresh() {
			continue
		}

		rec, isNew := p.store.Upsert(t.ID, t.Box, now)
		if isNew {
			p.emit(models.TrackEvent{Type: models.TrackEventCreated, TrackID: t.ID, At: now})
			ident := p.resolve(ctx, frame, t.ID, t.Box)
			p.store.SetIdentity(t.ID, ident)
			p.emit(models.TrackEvent{Type: models.TrackEventIdentity, TrackID: t.ID, At: now, Ident: &ident})
		} else if rec.Status == models.IdentityUnknown && frameCount%int64(p.opts.ReRecognitionInterval) == 0 {
			ident := p.resolve(ctx, frame, t.ID, t.Box)
			if ident.Status != models.IdentityUnknown {
				p.store.SetIdentity(t.ID, ident)
				p.emit(models.TrackEvent{Type: models.TrackEventIdentity, TrackID: t.ID, At: now, Ident: &ident})
				tl := logging.WithTrack(p.logger, t.ID)
				tl.Info().Str("name", ident.Name).Str("status", ident.Status.String()).Msg("Track re-identified")
			}
		}

		outcome := p.store.EvaluateZone(t.ID, now)
		res.Outcomes[t.ID] = outcome
		if outcome.Fired() {
			if alert, ok := p.buildAlert(t.ID, outcome, now, frame); ok {
				res.Alerts = append(res.Alerts, alert)
				p.dispatch(alert)
			}
		} else if outcome == LoiterAlertSuppressed {
			tl := logging.WithTrack(p.logger, t.ID)
			tl.Debug().Msg("Loiter alert suppressed by cooldown")
		}
	}

	res.Evicted = p.store.ReapStale(now, active)
	for _, id := range res.Evicted {
		tl := logging.WithTrack(p.logger, id)
		tl.Info().Msg("Track evicted")
		p.emit(models.TrackEvent{Type: models.TrackEventEvicted, TrackID: id, At: now})
	}

	res.Snapshot = p.store.Snapshot(now, frameCount)
	p.latest.Store(res.Snapshot)
	return res
}

func (p *Processor) resolve(ctx context.Context, frame *models.Frame, id int, box models.Box) models.IdentityResult {
	if p.resolver == nil {
		return models.UnknownIdentity()
	}
	crop := box
	if frame != nil && frame.Width > 0 && frame.Height > 0 {
		crop = box.Clamp(frame.Width, frame.Height)
	}
	if crop.Empty() {
		return models.UnknownIdentity()
	}

	ident, err := p.resolver.Resolve(ctx, frame, crop)
	if err != nil {
		tl := logging.WithTrack(p.logger, id)
		tl.Warn().Err(err).Msg("Identity resolution failed, using unknown")
		return models.UnknownIdentity()
	}
	if !ident.Status.IsValid() {
		return models.UnknownIdentity()
	}
	return ident
}

func (p *Processor) buildAlert(id int, outcome ZoneOutcome, now time.Time, frame *models.Frame) (models.Alert, bool) {
	rec, ok := p.store.Get(id)
	if !ok {
		return models.Alert{}, false
	}
	tl := logging.WithTrack(p.logger, id)
	switch outcome {
	case LoiterAlertFired:
		tl.Info().Dur("loiter", rec.LoiterDuration(now)).Msg("Loiter alert fired")
		return models.NewLoiterAlert(id, rec.Box, *rec.LoiterStart, now, frame), true
	case BannedAlertFired:
		tl.Info().Str("name", rec.Name).Msg("Banned alert fired")
		return models.NewBannedAlert(id, rec.Name, rec.Box, now, frame), true
	}
	return models.Alert{}, false
}

func (p *Processor) dispatch(alert models.Alert) {
	if p.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Str("alert_id", alert.ID).Msg("Notifier panicked")
		}
	}()
	p.notifier.Notify(alert)
}

func (p *Processor) emit(event models.TrackEvent) {
	if p.observer != nil {
		p.observer.OnTrackEvent(event)
	}
}

func frameTime(frame *models.Frame) time.Time {
	if frame != nil && !frame.Timestamp.IsZero() {
		return frame.Timestamp
	}
	return time.Now()
}
