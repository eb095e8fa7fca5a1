package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zoneguard-worker-go/internal/models"
)

// AlertRecord is a journaled alert.
type AlertRecord struct {
	ID           string                `json:"id"`
	Kind         models.AlertKind      `json:"kind"`
	TrackID      int                   `json:"track_id"`
	PersonName   string                `json:"person_name,omitempty"`
	Status       models.IdentityStatus `json:"status"`
	Box          models.Box            `json:"box"`
	Since        *time.Time            `json:"since,omitempty"`
	FiredAt      time.Time             `json:"fired_at"`
	SnapshotPath string                `json:"snapshot_path,omitempty"`
}

// RecordAlert stores an alert together with the path of its snapshot, if any.
func (db *DB) RecordAlert(ctx context.Context, a models.Alert, snapshotPath string) error {
	var since sql.NullInt64
	if a.Since != nil {
		since = sql.NullInt64{Int64: toMillis(*a.Since), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO alerts (id, kind, track_id, person_name, status, box_x1, box_y1, box_x2, box_y2, since_ms, fired_at_ms, snapshot_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.TrackID, a.PersonName, string(a.Status),
		a.Box.X1, a.Box.Y1, a.Box.X2, a.Box.Y2,
		since, toMillis(a.FiredAt), snapshotPath,
	)
	if err != nil {
		return fmt.Errorf("failed to record alert %s: %w", a.ID, err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (db *DB) RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, track_id, person_name, status, box_x1, box_y1, box_x2, box_y2, since_ms, fired_at_ms, snapshot_path
		FROM alerts
		ORDER BY fired_at_ms DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var (
			r       AlertRecord
			kind    string
			status  string
			since   sql.NullInt64
			firedAt int64
		)
		if err := rows.Scan(&r.ID, &kind, &r.TrackID, &r.PersonName, &status,
			&r.Box.X1, &r.Box.Y1, &r.Box.X2, &r.Box.Y2, &since, &firedAt, &r.SnapshotPath); err != nil {
			return nil, err
		}
		r.Kind = models.AlertKind(kind)
		r.Status = models.IdentityStatus(status)
		r.FiredAt = fromMillis(firedAt)
		if since.Valid {
			t := fromMillis(since.Int64)
			r.Since = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AlertBucket counts alerts of each kind inside one time bucket.
type AlertBucket struct {
	Start  time.Time `json:"start"`
	Loiter int       `json:"loiter"`
	Banned int       `json:"banned"`
}

// AlertHistogram buckets alerts fired at or after since into bucket-wide
// windows, oldest first. Empty buckets are omitted.
func (db *DB) AlertHistogram(ctx context.Context, since time.Time, bucket time.Duration) ([]AlertBucket, error) {
	if bucket <= 0 {
		return nil, fmt.Errorf("bucket must be positive")
	}
	width := bucket.Milliseconds()
	rows, err := db.QueryContext(ctx, `
		SELECT (fired_at_ms / ?) * ? AS bucket_ms,
		       SUM(CASE WHEN kind = 'loiter' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN kind = 'banned' THEN 1 ELSE 0 END)
		FROM alerts
		WHERE fired_at_ms >= ?
		GROUP BY bucket_ms
		ORDER BY bucket_ms`, width, width, toMillis(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertBucket
	for rows.Next() {
		var (
			start int64
			b     AlertBucket
		)
		if err := rows.Scan(&start, &b.Loiter, &b.Banned); err != nil {
			return nil, err
		}
		b.Start = fromMillis(start)
		out = append(out, b)
	}
	return out, rows.Err()
}

// RecordTrackEvent stores one lifecycle event.
func (db *DB) RecordTrackEvent(ctx context.Context, e models.TrackEvent) error {
	var (
		name, status string
		distance     float64
	)
	if e.Ident != nil {
		name, status, distance = e.Ident.Name, string(e.Ident.Status), e.Ident.Distance
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO track_events (track_id, event, name, status, distance, at_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.TrackID, string(e.Type), name, status, distance, toMillis(e.At))
	if err != nil {
		return fmt.Errorf("failed to record track event: %w", err)
	}
	return nil
}

// TrackEvents returns the events of one track in the order they happened.
func (db *DB) TrackEvents(ctx context.Context, trackID int) ([]models.TrackEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT event, name, status, distance, at_ms
		FROM track_events
		WHERE track_id = ?
		ORDER BY at_ms, id`, trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TrackEvent
	for rows.Next() {
		var (
			event, name, status string
			distance            float64
			at                  int64
		)
		if err := rows.Scan(&event, &name, &status, &distance, &at); err != nil {
			return nil, err
		}
		e := models.TrackEvent{Type: models.TrackEventType(event), TrackID: trackID, At: fromMillis(at)}
		if status != "" {
			e.Ident = &models.IdentityResult{Name: name, Status: models.IdentityStatus(status), Distance: distance}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
