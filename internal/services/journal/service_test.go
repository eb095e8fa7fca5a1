package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoneguard-worker-go/internal/models"
)

type memStore struct {
	mu     sync.Mutex
	events []models.TrackEvent
	failOn int
}

func (m *memStore) RecordTrackEvent(_ context.Context, e models.TrackEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.TrackID == m.failOn {
		return errors.New("disk full")
	}
	m.events = append(m.events, e)
	return nil
}

type memHub struct {
	mu    sync.Mutex
	types []string
}

func (h *memHub) Publish(eventType string, _ time.Time, _ interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, eventType)
}

func TestJournalWritesAndBroadcasts(t *testing.T) {
	store := &memStore{failOn: -1}
	hub := &memHub{}
	s := NewService(store, hub, 8)
	s.Start()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.OnTrackEvent(models.TrackEvent{Type: models.TrackEventCreated, TrackID: 1, At: at})
	s.OnTrackEvent(models.TrackEvent{Type: models.TrackEventIdentity, TrackID: 1, At: at,
		Ident: &models.IdentityResult{Name: "Alice", Status: models.IdentityKnown}})
	s.OnTrackEvent(models.TrackEvent{Type: models.TrackEventEvicted, TrackID: 1, At: at})

	require.NoError(t, s.Shutdown(context.Background()))

	assert.Len(t, store.events, 3)
	assert.Equal(t, []string{"track.created", "track.identity", "track.evicted"}, hub.types)
	assert.EqualValues(t, 3, s.Written())

	// Closed journal ignores late events.
	s.OnTrackEvent(models.TrackEvent{Type: models.TrackEventCreated, TrackID: 2, At: at})
	assert.Len(t, store.events, 3)
}

func TestJournalSurvivesStoreErrors(t *testing.T) {
	store := &memStore{failOn: 5}
	s := NewService(store, nil, 8)
	s.Start()

	s.OnTrackEvent(models.TrackEvent{Type: models.TrackEventCreated, TrackID: 5, At: time.Now()})
	s.OnTrackEvent(models.TrackEvent{Type: models.TrackEventCreated, TrackID: 6, At: time.Now()})
	require.NoError(t, s.Shutdown(context.Background()))

	require.Len(t, store.events, 1)
	assert.Equal(t, 6, store.events[0].TrackID)
	assert.EqualValues(t, 1, s.Written())
}

func TestJournalDropsWhenFull(t *testing.T) {
	s := NewService(&memStore{failOn: -1}, nil, 2)
	// Not started: nothing drains the queue.
	for i := 0; i < 5; i++ {
		s.OnTrackEvent(models.TrackEvent{Type: models.TrackEventCreated, TrackID: i})
	}
	assert.EqualValues(t, 3, s.Dropped())
}
