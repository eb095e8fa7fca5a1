package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/models"
)

const snapshotTimeLayout = "2006-01-02_15-04-05"

// SnapshotEncoder renders the JPEG saved for an alert.
type SnapshotEncoder interface {
	EncodeAlert(alert models.Alert) ([]byte, error)
}

// SnapshotSink writes the alert frame to dir as alert_<timestamp>.jpg.
type SnapshotSink struct {
	dir     string
	encoder SnapshotEncoder
}

func NewSnapshotSink(dir string, encoder SnapshotEncoder) *SnapshotSink {
	return &SnapshotSink{dir: dir, encoder: encoder}
}

func (s *SnapshotSink) Name() string { return "snapshot" }

func (s *SnapshotSink) Deliver(ctx context.Context, d *Delivery) error {
	jpeg, err := s.encoder.EncodeAlert(d.Alert)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if len(jpeg) == 0 {
		return nil
	}
	d.Snapshot = jpeg

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path, err := writeExclusive(SnapshotPath(s.dir, d.Alert), d.Alert.TrackID, jpeg)
	if err != nil {
		return err
	}
	d.SnapshotPath = path

	log.Info().Str("path", path).Str("alert_id", d.Alert.ID).Msg("Snapshot saved")
	return nil
}

// SnapshotPath is the file an alert's snapshot is written to.
func SnapshotPath(dir string, alert models.Alert) string {
	return filepath.Join(dir, "alert_"+alert.FiredAt.Local().Format(snapshotTimeLayout)+".jpg")
}

// maxSnapshotAttempts bounds the suffixed names tried for one second.
const maxSnapshotAttempts = 100

// writeExclusive creates path, or a track-suffixed sibling when alerts share
// a second, without ever replacing an existing file.
func writeExclusive(path string, trackID int, data []byte) (string, error) {
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]

	for attempt := 0; attempt < maxSnapshotAttempts; attempt++ {
		candidate := path
		switch {
		case attempt == 1:
			candidate = fmt.Sprintf("%s_%d%s", stem, trackID, ext)
		case attempt > 1:
			candidate = fmt.Sprintf("%s_%d_%d%s", stem, trackID, attempt, ext)
		}

		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create snapshot: %w", err)
		}
		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("failed to write snapshot: %w", err)
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no free snapshot name for %s", path)
}

// EventLogSink writes the human-readable alert line to the event log.
type EventLogSink struct{}

func (EventLogSink) Name() string { return "event_log" }

func (EventLogSink) Deliver(ctx context.Context, d *Delivery) error {
	a := d.Alert
	ev := log.Warn().
		Str("alert_id", a.ID).
		Str("kind", a.Kind.String()).
		Int("track_id", a.TrackID).
		Time("fired_at", a.FiredAt)
	if d.SnapshotPath != "" {
		ev = ev.Str("snapshot", d.SnapshotPath)
	}

	switch a.Kind {
	case models.AlertBanned:
		ev.Str("person", a.PersonName).Msgf("ALERT: Banned person %s in restricted zone (ID: %d)", a.PersonName, a.TrackID)
	default:
		ev.Dur("dwell", a.Dwell()).Msgf("ALERT: Loitering detected - Person ID %d", a.TrackID)
	}
	return nil
}

// AlertStore persists alerts.
type AlertStore interface {
	RecordAlert(ctx context.Context, alert models.Alert, snapshotPath string) error
}

// JournalSink records alerts in the journal database.
type JournalSink struct {
	store AlertStore
}

func NewJournalSink(store AlertStore) *JournalSink {
	return &JournalSink{store: store}
}

func (s *JournalSink) Name() string { return "journal" }

func (s *JournalSink) Deliver(ctx context.Context, d *Delivery) error {
	return s.store.RecordAlert(ctx, d.Alert, d.SnapshotPath)
}

// Broadcaster pushes events to live clients.
type Broadcaster interface {
	Publish(eventType string, at time.Time, data interface{})
}

// BroadcastSink forwards alerts to websocket clients.
type BroadcastSink struct {
	hub Broadcaster
}

func NewBroadcastSink(hub Broadcaster) *BroadcastSink {
	return &BroadcastSink{hub: hub}
}

func (s *BroadcastSink) Name() string { return "broadcast" }

func (s *BroadcastSink) Deliver(ctx context.Context, d *Delivery) error {
	s.hub.Publish("alert", d.Alert.FiredAt, AlertMessage{
		Alert:        d.Alert,
		SnapshotPath: d.SnapshotPath,
	})
	return nil
}

// MessagePublisher is satisfied by the NATS messaging service.
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}

// AlertMessage is the payload published for each alert.
type AlertMessage struct {
	WorkerID     string       `json:"worker_id,omitempty"`
	Alert        models.Alert `json:"alert"`
	DwellSeconds float64      `json:"dwell_seconds,omitempty"`
	SnapshotPath string       `json:"snapshot_path,omitempty"`
	Snapshot     []byte       `json:"snapshot,omitempty"`
}

// PublishSink publishes alerts on <subject>.<kind>.
type PublishSink struct {
	publisher MessagePublisher
	subject   string
	workerID  string
}

func NewPublishSink(publisher MessagePublisher, subject, workerID string) *PublishSink {
	if subject == "" {
		subject = "alerts"
	}
	return &PublishSink{publisher: publisher, subject: subject, workerID: workerID}
}

func (s *PublishSink) Name() string { return "nats" }

func (s *PublishSink) Subject(kind models.AlertKind) string {
	return s.subject + "." + kind.String()
}

func (s *PublishSink) Deliver(ctx context.Context, d *Delivery) error {
	msg := AlertMessage{
		WorkerID:     s.workerID,
		Alert:        d.Alert,
		DwellSeconds: d.Alert.Dwell().Seconds(),
		SnapshotPath: d.SnapshotPath,
		Snapshot:     d.Snapshot,
	}
	if err := s.publisher.Publish(s.Subject(d.Alert.Kind), msg); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// SirenSink plays an audio file through an external player, falling back to
// the terminal bell when the file or player is missing.
type SirenSink struct {
	path   string
	player string
	bell   io.Writer
	start  func(name string, args ...string) error
	look   func(file string) (string, error)
}

func NewSirenSink(path, player string) *SirenSink {
	return &SirenSink{
		path:   path,
		player: player,
		bell:   os.Stdout,
		start:  startDetached,
		look:   exec.LookPath,
	}
}

func (s *SirenSink) Name() string { return "siren" }

func (s *SirenSink) Deliver(ctx context.Context, d *Delivery) error {
	if s.playable() {
		err := s.start(s.player, s.path)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("player", s.player).Msg("Could not play siren sound")
	}
	_, err := io.WriteString(s.bell, "\a\a\a")
	return err
}

func (s *SirenSink) playable() bool {
	if s.path == "" || s.player == "" {
		return false
	}
	if _, err := os.Stat(s.path); err != nil {
		return false
	}
	_, err := s.look(s.player)
	return err == nil
}

// startDetached starts the player without waiting for it to finish.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Str("player", name).Msg("Siren player exited with error")
		}
	}()
	return nil
}
