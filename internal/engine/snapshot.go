package engine

import (
	"time"

	"zoneguard-worker-go/internal/models"
)

// PersonView is the presentation copy of a PersonRecord.
type PersonView struct {
	ID         int                   `json:"id"`
	Box        models.Box            `json:"box"`
	Name       string                `json:"name"`
	Status     models.IdentityStatus `json:"status"`
	Distance   float64               `json:"distance"`
	InZone     bool                  `json:"in_zone"`
	Loitering  bool                  `json:"loitering"`
	LoiterFor  time.Duration         `json:"loiter_for_ns"`
	OverLimit  bool                  `json:"over_limit"`
	AlertFired bool                  `json:"alert_fired"`
	Outcome    ZoneOutcome           `json:"outcome"`
	FirstSeen  time.Time             `json:"first_seen"`
	LastSeen   time.Time             `json:"last_seen"`
}

func newPersonView(r *PersonRecord, now time.Time, threshold time.Duration) PersonView {
	loiter := r.LoiterDuration(now)
	return PersonView{
		ID:         r.ID,
		Box:        r.Box,
		Name:       r.Name,
		Status:     r.Status,
		Distance:   r.Distance,
		InZone:     r.InZone,
		Loitering:  r.LoiterStart != nil,
		LoiterFor:  loiter,
		OverLimit:  r.LoiterStart != nil && loiter > threshold,
		AlertFired: r.AlertFired,
		Outcome:    r.LastOutcome,
		FirstSeen:  r.FirstSeen,
		LastSeen:   r.LastSeen,
	}
}

// Snapshot is an immutable view of the store after one processed frame.
type Snapshot struct {
	FrameCount int64        `json:"frame_count"`
	TakenAt    time.Time    `json:"taken_at"`
	Zone       Zone         `json:"zone"`
	People     []PersonView `json:"people"`
}

// Person returns the view for a track id.
func (s *Snapshot) Person(id int) (PersonView, bool) {
	if s == nil {
		return PersonView{}, false
	}
	for _, p := range s.People {
		if p.ID == id {
			return p, true
		}
	}
	return PersonView{}, false
}

// Counts summarises the snapshot by status.
func (s *Snapshot) Counts() map[models.IdentityStatus]int {
	counts := make(map[models.IdentityStatus]int)
	if s == nil {
		return counts
	}
	for _, p := range s.People {
		counts[p.Status]++
	}
	return counts
}
