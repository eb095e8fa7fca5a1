// Package tracking adapts the ByteTrack multi-object tracker to the
// integer track ids and confirmation semantics the engine expects.
package tracking

import (
	"sort"

	"github.com/LdDl/mot-go/mot"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"zoneguard-worker-go/internal/models"
)

// Config holds ByteTrack parameters.
type Config struct {
	// MaxDisappeared is how many consecutive missed frames a track survives.
	MaxDisappeared int
	// MinHits is how many matched frames a track needs before it is confirmed.
	MinHits        int
	MinIoU         float64
	HighThresh     float64
	LowThresh      float64
}

// DefaultConfig mirrors a DeepSORT-style setup: max age 30, n_init 3.
func DefaultConfig() Config {
	return Config{
		MaxDisappeared: 30,
		MinHits:        3,
		MinIoU:         0.3,
		HighThresh:     0.5,
		LowThresh:      0.1,
	}
}

type trackMeta struct {
	id        int
	hits      int
	confirmed bool
}

// ByteTrack wraps mot.ByteTracker. Not safe for concurrent use.
type ByteTrack struct {
	cfg     Config
	tracker *mot.ByteTracker[*mot.BlobBBox]
	meta    map[uuid.UUID]*trackMeta
	nextID  int
}

func NewByteTrack(cfg Config) *ByteTrack {
	if cfg.MinHits < 1 {
		cfg.MinHits = 1
	}
	return &ByteTrack{
		cfg:     cfg,
		tracker: mot.NewByteTracker[*mot.BlobBBox](cfg.MaxDisappeared, cfg.MinIoU, cfg.HighThresh, cfg.LowThresh, mot.MatchingAlgorithmHungarian),
		meta:    make(map[uuid.UUID]*trackMeta),
	}
}

// Update feeds one frame of detections and returns every live track, sorted by id.
func (t *ByteTrack) Update(detections []models.Detection, _ *models.Frame) ([]models.Track, error) {
	blobs := make([]*mot.BlobBBox, 0, len(detections))
	confidences := make([]float64, 0, len(detections))
	for _, d := range detections {
		if d.Box.Empty() {
			continue
		}
		blobs = append(blobs, mot.NewBlobBBox(toRect(d.Box)))
		confidences = append(confidences, d.Confidence)
	}

	if err := t.tracker.MatchObjects(blobs, confidences); err != nil {
		return nil, errors.Wrap(err, "can't match detections")
	}

	active := t.tracker.GetActiveTracks()
	seen := make(map[uuid.UUID]struct{}, len(active))
	tracks := make([]models.Track, 0, len(active))
	for _, blob := range active {
		uid := blob.GetID()
		seen[uid] = struct{}{}

		// A blob created this frame already carries one miss, so a fresh
		// uuid is treated as matched.
		m, known := t.meta[uid]
		fresh := !known || blob.GetNoMatchTimes() == 0
		if !known {
			t.nextID++
			m = &trackMeta{id: t.nextID}
			t.meta[uid] = m
		}
		if fresh {
			m.hits++
			if m.hits >= t.cfg.MinHits {
				m.confirmed = true
			}
		}

		rect := blob.GetBBox()
		if !fresh {
			rect = blob.GetPredictedBBox()
		}
		tracks = append(tracks, models.Track{
			ID:               m.id,
			Box:              fromRect(rect),
			Confirmed:        m.confirmed,
			UpdatedThisFrame: fresh,
		})
	}

	for uid := range t.meta {
		if _, ok := seen[uid]; !ok {
			delete(t.meta, uid)
		}
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks, nil
}

func toRect(b models.Box) mot.Rectangle {
	return mot.Rectangle{X: b.X1, Y: b.Y1, Width: b.Width(), Height: b.Height()}
}

func fromRect(r mot.Rectangle) models.Box {
	return models.Box{X1: r.X, Y1: r.Y, X2: r.X + r.Width, Y2: r.Y + r.Height}
}
