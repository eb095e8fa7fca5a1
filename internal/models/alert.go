package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind distinguishes the two alert classes the engine emits.
type AlertKind string

const (
	// AlertLoiter fires for an unknown person staying in the zone past the threshold.
	AlertLoiter AlertKind = "loiter"
	// AlertBanned fires when a banned person enters the zone.
	AlertBanned AlertKind = "banned"
)

// String returns the string representation of AlertKind
func (k AlertKind) String() string {
	return string(k)
}

// Alert is handed to the notifier. Frame is the frame on which the alert fired.
type Alert struct {
	ID         string         `json:"id"`
	Kind       AlertKind      `json:"kind"`
	TrackID    int            `json:"track_id"`
	PersonName string         `json:"person_name,omitempty"`
	Status     IdentityStatus `json:"status"`
	Box        Box            `json:"box"`
	Since      *time.Time     `json:"since,omitempty"` // loiter start, loiter alerts only
	FiredAt    time.Time      `json:"fired_at"`
	Frame      *Frame         `json:"-"`
}

// NewLoiterAlert builds a generic loitering alert.
func NewLoiterAlert(trackID int, box Box, since, firedAt time.Time, frame *Frame) Alert {
	s := since
	return Alert{
		ID:      uuid.NewString(),
		Kind:    AlertLoiter,
		TrackID: trackID,
		Status:  IdentityUnknown,
		Box:     box,
		Since:   &s,
		FiredAt: firedAt,
		Frame:   frame,
	}
}

// NewBannedAlert builds a banned-person alert.
func NewBannedAlert(trackID int, name string, box Box, firedAt time.Time, frame *Frame) Alert {
	return Alert{
		ID:         uuid.NewString(),
		Kind:       AlertBanned,
		TrackID:    trackID,
		PersonName: name,
		Status:     IdentityBanned,
		Box:        box,
		FiredAt:    firedAt,
		Frame:      frame,
	}
}

// Dwell returns how long the person had loitered when the alert fired.
func (a Alert) Dwell() time.Duration {
	if a.Since == nil {
		return 0
	}
	return a.FiredAt.Sub(*a.Since)
}

// TrackEventType enumerates lifecycle events recorded for tracks.
type TrackEventType string

const (
	TrackEventCreated  TrackEventType = "created"
	TrackEventIdentity TrackEventType = "identity"
	TrackEventEvicted  TrackEventType = "evicted"
)

// TrackEvent is a lifecycle record emitted by the engine for observability.
type TrackEvent struct {
	Type    TrackEventType  `json:"type"`
	TrackID int             `json:"track_id"`
	At      time.Time       `json:"at"`
	Ident   *IdentityResult `json:"identity,omitempty"`
}
