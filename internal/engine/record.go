package engine

import (
	"fmt"
	"time"

	"zoneguard-worker-go/internal/models"
)

// PersonRecord is the per-track state. It is the only source the overlay
// and the HTTP views read from.
type PersonRecord struct {
	ID       int
	Box      models.Box
	Name     string
	Status   models.IdentityStatus
	Distance float64

	// LoiterStart is set only while the person is unknown and continuously in the zone.
	LoiterStart *time.Time
	// AlertFired guards against repeat alerts within one in-zone episode.
	AlertFired bool

	FirstSeen   time.Time
	LastSeen    time.Time
	InZone      bool
	LastOutcome ZoneOutcome
}

func newPersonRecord(id int, box models.Box, now time.Time) *PersonRecord {
	unknown := models.UnknownIdentity()
	return &PersonRecord{
		ID:        id,
		Box:       box,
		Name:      unknown.Name,
		Status:    unknown.Status,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// LoiterDuration returns how long the current loitering episode has lasted at now.
func (r *PersonRecord) LoiterDuration(now time.Time) time.Duration {
	if r.LoiterStart == nil {
		return 0
	}
	return now.Sub(*r.LoiterStart)
}

func (r *PersonRecord) clearEpisode() {
	r.LoiterStart = nil
	r.AlertFired = false
}

// ZoneOutcome is the decision EvaluateZone made for a track on one frame.
type ZoneOutcome int

const (
	// NoAction covers out-of-zone tracks, trusted people and unknown records.
	NoAction ZoneOutcome = iota
	// LoiterStarted means an unknown person was first seen in the zone this frame.
	LoiterStarted
	// Loitering means the timer is running but below the threshold.
	Loitering
	// LoiterAlertFired means a generic loitering alert was dispatched.
	LoiterAlertFired
	// LoiterAlertSuppressed means the threshold was exceeded but the cooldown gate refused.
	LoiterAlertSuppressed
	// BannedAlertFired means a banned person entered the zone and an alert was dispatched.
	BannedAlertFired
	// AlreadyAlerted means an alert already fired for the current episode.
	AlreadyAlerted
)

var zoneOutcomeNames = [...]string{
	NoAction:              "no_action",
	LoiterStarted:         "loiter_started",
	Loitering:             "loitering",
	LoiterAlertFired:      "loiter_alert_fired",
	LoiterAlertSuppressed: "loiter_alert_suppressed",
	BannedAlertFired:      "banned_alert_fired",
	AlreadyAlerted:        "already_alerted",
}

func (o ZoneOutcome) String() string {
	if o < 0 || int(o) >= len(zoneOutcomeNames) {
		return "unknown"
	}
	return zoneOutcomeNames[o]
}

// MarshalText lets outcomes appear by name in JSON.
func (o ZoneOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText accepts the names MarshalText produces, so clients decoding
// person views get typed outcomes back.
func (o *ZoneOutcome) UnmarshalText(text []byte) error {
	for i, name := range zoneOutcomeNames {
		if name == string(text) {
			*o = ZoneOutcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown zone outcome %q", text)
}

// Fired reports whether the outcome dispatched an alert.
func (o ZoneOutcome) Fired() bool {
	return o == LoiterAlertFired || o == BannedAlertFired
}
