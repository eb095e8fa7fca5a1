package engine

import (
	"sort"
	"time"

	"zoneguard-worker-go/internal/models"
)

// StoreConfig holds the policy parameters of a Store.
type StoreConfig struct {
	Zone            Zone
	LoiterThreshold time.Duration
	TrackTTL        time.Duration
	AlertCooldown   time.Duration
}

// DefaultStoreConfig returns the stock policy: 10s loiter, 2s TTL, 10s cooldown.
func DefaultStoreConfig(zone Zone) StoreConfig {
	return StoreConfig{
		Zone:            zone,
		LoiterThreshold: 10 * time.Second,
		TrackTTL:        2 * time.Second,
		AlertCooldown:   10 * time.Second,
	}
}

// Store owns every PersonRecord keyed by track id, plus the loiter cooldown gate.
// It must only be used from the processing goroutine; other goroutines read
// Snapshots.
type Store struct {
	cfg     StoreConfig
	gate    *CooldownGate
	records map[int]*PersonRecord
}

func NewStore(cfg StoreConfig) *Store {
	return &Store{
		cfg:     cfg,
		gate:    NewCooldownGate(cfg.AlertCooldown),
		records: make(map[int]*PersonRecord),
	}
}

// Zone returns the configured restricted zone.
func (s *Store) Zone() Zone { return s.cfg.Zone }

// Len returns the number of live records.
func (s *Store) Len() int { return len(s.records) }

// Get returns a copy of the record for id.
func (s *Store) Get(id int) (PersonRecord, bool) {
	r, ok := s.records[id]
	if !ok {
		return PersonRecord{}, false
	}
	return *r, true
}

// Upsert records a fresh observation of a track. New records start unknown.
func (s *Store) Upsert(id int, box models.Box, now time.Time) (PersonRecord, bool) {
	r, ok := s.records[id]
	if !ok {
		r = newPersonRecord(id, box, now)
		s.records[id] = r
		return *r, true
	}
	r.Box = box
	r.LastSeen = now
	return *r, false
}

// SetIdentity applies a resolution result. Any non-unknown status ends the
// current loitering episode. Returns false when id has no record.
func (s *Store) SetIdentity(id int, ident models.IdentityResult) bool {
	r, ok := s.records[id]
	if !ok {
		return false
	}
	r.Name = ident.Name
	r.Status = ident.Status
	r.Distance = ident.Distance
	if ident.Status != models.IdentityUnknown {
		r.clearEpisode()
	}
	return true
}

// EvaluateZone applies the zone policy to one record at now.
//
// Leaving the zone resets the episode for every status. Inside the zone a
// banned person alerts once per episode without consulting the cooldown; an
// unknown person starts a loiter timer and alerts once the timer exceeds the
// threshold and the global gate allows it. Trusted people never alert.
func (s *Store) EvaluateZone(id int, now time.Time) ZoneOutcome {
	r, ok := s.records[id]
	if !ok {
		return NoAction
	}
	outcome := s.evaluate(r, now)
	r.LastOutcome = outcome
	return outcome
}

func (s *Store) evaluate(r *PersonRecord, now time.Time) ZoneOutcome {
	r.InZone = s.cfg.Zone.Contains(r.Box)
	if !r.InZone {
		r.clearEpisode()
		return NoAction
	}

	switch r.Status {
	case models.IdentityBanned:
		if r.AlertFired {
			return AlreadyAlerted
		}
		r.AlertFired = true
		return BannedAlertFired

	case models.IdentityUnknown:
		if r.LoiterStart == nil {
			start := now
			r.LoiterStart = &start
			return LoiterStarted
		}
		if r.AlertFired {
			return AlreadyAlerted
		}
		if now.Sub(*r.LoiterStart) <= s.cfg.LoiterThreshold {
			return Loitering
		}
		if !s.gate.TryFire(now) {
			return LoiterAlertSuppressed
		}
		r.AlertFired = true
		return LoiterAlertFired

	default:
		r.clearEpisode()
		return NoAction
	}
}

// ReapStale evicts records whose id is missing from activeIDs or that have
// not been refreshed within the TTL. It returns the evicted ids in ascending order.
func (s *Store) ReapStale(now time.Time, activeIDs []int) []int {
	active := make(map[int]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	var evicted []int
	for id, r := range s.records {
		_, live := active[id]
		if !live || now.Sub(r.LastSeen) > s.cfg.TrackTTL {
			delete(s.records, id)
			evicted = append(evicted, id)
		}
	}
	sort.Ints(evicted)
	return evicted
}

// Snapshot copies every record into a read-only view ordered by track id.
func (s *Store) Snapshot(now time.Time, frameCount int64) *Snapshot {
	snap := &Snapshot{
		FrameCount: frameCount,
		TakenAt:    now,
		Zone:       s.cfg.Zone,
		People:     make([]PersonView, 0, len(s.records)),
	}
	for _, r := range s.records {
		snap.People = append(snap.People, newPersonView(r, now, s.cfg.LoiterThreshold))
	}
	sort.Slice(snap.People, func(i, j int) bool { return snap.People[i].ID < snap.People[j].ID })
	return snap
}
