package engine

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoneguard-worker-go/internal/models"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Time {
	return epoch.Add(time.Duration(n) * time.Millisecond)
}

var (
	inZone  = boxAt(175, 300)
	outZone = boxAt(900, 300)
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	zone, err := NewZone(0, 0, 350, 720, "strip")
	require.NoError(t, err)
	return NewStore(DefaultStoreConfig(zone))
}

func TestUpsertCreatesUnknownRecord(t *testing.T) {
	s := newTestStore(t)

	rec, isNew := s.Upsert(4, inZone, ms(0))
	assert.True(t, isNew)
	assert.Equal(t, models.IdentityUnknown, rec.Status)
	assert.Equal(t, "Unknown", rec.Name)
	assert.Nil(t, rec.LoiterStart)
	assert.False(t, rec.AlertFired)

	rec, isNew = s.Upsert(4, outZone, ms(100))
	assert.False(t, isNew)
	assert.Equal(t, outZone, rec.Box)
	assert.Equal(t, ms(100), rec.LastSeen)
	assert.Equal(t, ms(0), rec.FirstSeen)
	assert.Equal(t, 1, s.Len())
}

func TestSetIdentityUnknownRecord(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.SetIdentity(99, models.IdentityResult{Name: "x", Status: models.IdentityAllowed}))
}

func TestTrustedInZoneClearsEpisode(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(3, inZone, ms(0))
	rec := s.records[3]
	start := ms(0)
	rec.LoiterStart = &start
	rec.AlertFired = true
	rec.Status = models.IdentityKnown

	assert.Equal(t, NoAction, s.EvaluateZone(3, ms(500)))
	assert.Nil(t, rec.LoiterStart)
	assert.False(t, rec.AlertFired, "a trusted record carries no alert episode")
}

// Unknown person loiters, alert fires once, later identified as allowed.
func TestLoiterEpisodeThenAllowed(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(7, outZone, ms(0))
	assert.Equal(t, NoAction, s.EvaluateZone(7, ms(0)))

	s.Upsert(7, inZone, ms(2000))
	assert.Equal(t, LoiterStarted, s.EvaluateZone(7, ms(2000)))

	s.Upsert(7, inZone, ms(6000))
	assert.Equal(t, Loitering, s.EvaluateZone(7, ms(6000)))

	s.Upsert(7, inZone, ms(12000))
	assert.Equal(t, Loitering, s.EvaluateZone(7, ms(12000)), "exactly the threshold does not alert")

	s.Upsert(7, inZone, ms(12200))
	assert.Equal(t, LoiterAlertFired, s.EvaluateZone(7, ms(12200)))

	s.Upsert(7, inZone, ms(12400))
	assert.Equal(t, AlreadyAlerted, s.EvaluateZone(7, ms(12400)))

	require.True(t, s.SetIdentity(7, models.IdentityResult{Name: "alice", Status: models.IdentityAllowed, Distance: 0.41}))
	rec, _ := s.Get(7)
	assert.Nil(t, rec.LoiterStart)
	assert.False(t, rec.AlertFired)

	s.Upsert(7, inZone, ms(12600))
	assert.Equal(t, NoAction, s.EvaluateZone(7, ms(12600)))
	rec, _ = s.Get(7)
	assert.Nil(t, rec.LoiterStart)
}

// Banned person alerts on every entry, independently of the loiter cooldown.
func TestBannedEpisodes(t *testing.T) {
	s := newTestStore(t)

	// Another track consumes the loiter gate first.
	s.Upsert(1, inZone, ms(0))
	s.EvaluateZone(1, ms(0))
	s.Upsert(1, inZone, ms(10100))
	require.Equal(t, LoiterAlertFired, s.EvaluateZone(1, ms(10100)))

	s.Upsert(9, inZone, ms(10200))
	s.SetIdentity(9, models.IdentityResult{Name: "mallory", Status: models.IdentityBanned, Distance: 0.3})
	assert.Equal(t, BannedAlertFired, s.EvaluateZone(9, ms(10200)))

	s.Upsert(9, inZone, ms(10700))
	assert.Equal(t, AlreadyAlerted, s.EvaluateZone(9, ms(10700)))

	s.Upsert(9, outZone, ms(11200))
	assert.Equal(t, NoAction, s.EvaluateZone(9, ms(11200)))
	rec, _ := s.Get(9)
	assert.False(t, rec.AlertFired)
	assert.Nil(t, rec.LoiterStart, "banned people never run a loiter timer")

	s.Upsert(9, inZone, ms(13200))
	assert.Equal(t, BannedAlertFired, s.EvaluateZone(9, ms(13200)))
}

func TestLeavingZoneResetsLoiterTimer(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(2, inZone, ms(0))
	assert.Equal(t, LoiterStarted, s.EvaluateZone(2, ms(0)))

	s.Upsert(2, outZone, ms(8000))
	assert.Equal(t, NoAction, s.EvaluateZone(2, ms(8000)))

	s.Upsert(2, inZone, ms(9000))
	assert.Equal(t, LoiterStarted, s.EvaluateZone(2, ms(9000)))

	s.Upsert(2, inZone, ms(15000))
	assert.Equal(t, Loitering, s.EvaluateZone(2, ms(15000)), "timer restarted at re-entry")
}

func TestLoiterCooldownIsGlobal(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []int{1, 2} {
		s.Upsert(id, inZone, ms(0))
		require.Equal(t, LoiterStarted, s.EvaluateZone(id, ms(0)))
	}

	s.Upsert(1, inZone, ms(10500))
	assert.Equal(t, LoiterAlertFired, s.EvaluateZone(1, ms(10500)))

	s.Upsert(2, inZone, ms(10600))
	assert.Equal(t, LoiterAlertSuppressed, s.EvaluateZone(2, ms(10600)))

	s.Upsert(2, inZone, ms(20500))
	assert.Equal(t, LoiterAlertSuppressed, s.EvaluateZone(2, ms(20500)), "cooldown must be strictly exceeded")

	s.Upsert(2, inZone, ms(20600))
	assert.Equal(t, LoiterAlertFired, s.EvaluateZone(2, ms(20600)))
}

func TestTrustedNeverAlerts(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(5, inZone, ms(0))
	s.SetIdentity(5, models.IdentityResult{Name: "bob", Status: models.IdentityKnown, Distance: 0.2})

	for i := 0; i <= 60; i++ {
		now := ms(i * 500)
		s.Upsert(5, inZone, now)
		assert.Equal(t, NoAction, s.EvaluateZone(5, now))
	}
	rec, _ := s.Get(5)
	assert.Nil(t, rec.LoiterStart)
	assert.True(t, rec.InZone)
}

func TestReapStale(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(3, outZone, ms(0))
	s.Upsert(3, outZone, ms(1900))
	s.Upsert(8, outZone, ms(1900))

	assert.Empty(t, s.ReapStale(ms(3800), []int{3, 8}))
	_, ok := s.Get(3)
	assert.True(t, ok, "still within TTL")

	assert.Equal(t, []int{3, 8}, s.ReapStale(ms(4000), []int{3, 8}))
	assert.Zero(t, s.Len())
}

func TestReapStaleEvictsInactive(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(1, outZone, ms(0))
	s.Upsert(2, outZone, ms(0))
	s.Upsert(3, outZone, ms(0))

	assert.Equal(t, []int{1, 3}, s.ReapStale(ms(100), []int{2}))
	_, ok := s.Get(2)
	assert.True(t, ok)
}

func TestEvictedTrackStartsOver(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(11, inZone, ms(0))
	s.SetIdentity(11, models.IdentityResult{Name: "alice", Status: models.IdentityAllowed})
	s.ReapStale(ms(100), nil)

	rec, isNew := s.Upsert(11, inZone, ms(200))
	assert.True(t, isNew)
	assert.Equal(t, models.IdentityUnknown, rec.Status)
}

func TestSnapshot(t *testing.T) {
	s := newTestStore(t)

	s.Upsert(2, outZone, ms(0))
	s.EvaluateZone(2, ms(0))
	s.Upsert(1, inZone, ms(0))
	s.EvaluateZone(1, ms(0))

	snap := s.Snapshot(ms(4000), 8)
	require.Len(t, snap.People, 2)

	want := PersonView{
		ID:        1,
		Box:       inZone,
		Name:      "Unknown",
		Status:    models.IdentityUnknown,
		InZone:    true,
		Loitering: true,
		LoiterFor: 4 * time.Second,
		Outcome:   LoiterStarted,
		FirstSeen: ms(0),
		LastSeen:  ms(0),
	}
	if diff := cmp.Diff(want, snap.People[0]); diff != "" {
		t.Errorf("snapshot person mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, snap.People[1].ID)
	assert.Equal(t, int64(8), snap.FrameCount)
	assert.Equal(t, 2, snap.Counts()[models.IdentityUnknown])

	// Snapshots are copies.
	s.Upsert(1, outZone, ms(4100))
	s.EvaluateZone(1, ms(4100))
	p, ok := snap.Person(1)
	require.True(t, ok)
	assert.True(t, p.InZone)
}
