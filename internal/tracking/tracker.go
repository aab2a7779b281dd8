// Package tracking owns pedestrian identities across frames.
//
// Responsibilities: the track arena (Store), cost-matrix construction,
// optimal assignment (Hungarian), and the match / hand-off / miss policy
// that creates, updates and removes tracks.
package tracking

import (
	"sync"

	"github.com/socialnavi/pedtrack/internal/config"
	"github.com/socialnavi/pedtrack/internal/monitoring"
)

// Association outcomes reported to a DebugCollector.
const (
	OutcomeMatched = "matched"  // Real pair within the distance threshold
	OutcomeHandoff = "handoff"  // Real pair but the jump was too large
	OutcomeNoMatch = "no-match" // Track paired with a sentinel cell
	OutcomeNew     = "new"      // Padding row; detection starts a track
)

// TrackerConfig holds the lifecycle parameters.
type TrackerConfig struct {
	DistThreshold float64 // Max center displacement (pixels) for a continuation
	MissThreshold int     // Tracks with more consecutive misses are removed
	NoMatchCost   float64 // Cost-matrix sentinel; must exceed any real distance
}

// DefaultTrackerConfig returns the reference lifecycle parameters.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfigFromTuning(config.EmptyTuningConfig())
}

// TrackerConfigFromTuning builds a TrackerConfig from a loaded TuningConfig.
func TrackerConfigFromTuning(cfg *config.TuningConfig) TrackerConfig {
	return TrackerConfig{
		DistThreshold: cfg.GetDistThreshold(),
		MissThreshold: cfg.GetMissThreshold(),
		NoMatchCost:   cfg.GetNoMatchCost(),
	}
}

// DebugCollector receives one record per assignment pair.
type DebugCollector interface {
	IsEnabled() bool
	RecordAssociation(trackID, detection int, cost float64, outcome string)
}

// Stats are running lifecycle counters.
type Stats struct {
	Frames   int `json:"frames"`
	Created  int `json:"created"`
	Removed  int `json:"removed"`
	Handoffs int `json:"handoffs"`
}

// Tracker is the lifecycle manager. It exclusively owns its Store; other
// components only ever see copies via Snapshot.
type Tracker struct {
	Config TrackerConfig

	// DebugCollector captures association decisions (optional).
	DebugCollector DebugCollector

	store *Store
	stats Stats
	mu    sync.RWMutex
}

// NewTracker creates a tracker with an empty store.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		Config: cfg,
		store:  NewStore(),
	}
}

// plan is the full outcome of one frame's matching, computed before the
// store is touched.
type plan struct {
	hits    map[int]int // track ID → observation index
	misses  []int       // track IDs, in row order
	spawns  []int       // observation indices, in creation order
	handoff int
}

// Update runs one frame of tracking against the given observations.
//
// An empty store skips matching and starts a track per observation.
// Otherwise tracks and observations are paired by Assign and each pair is
// resolved: padding rows start tracks; sentinel cells miss the track (and
// start a track for the detection if it is real); real pairs further than
// DistThreshold are a hand-off (miss the old track, start a new one);
// everything else continues the track. Tracks whose miss count exceeds
// MissThreshold are removed before Update returns.
//
// The returned error is an *UnknownTrackError, which indicates corrupted
// bookkeeping. The store is left untouched in that case.
func (t *Tracker) Update(observations []Observation) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Frames++

	if t.store.Len() == 0 {
		for _, obs := range observations {
			t.spawn(obs)
		}
		return nil
	}

	p := t.resolve(observations)
	if err := t.validate(p); err != nil {
		return err
	}
	t.apply(p, observations)
	t.prune()
	return nil
}

// resolve builds the frame plan from the current store without mutating it.
func (t *Tracker) resolve(observations []Observation) plan {
	ids := t.store.IDs()
	trackCenters := make([]Point, len(ids))
	for i, id := range ids {
		trackCenters[i] = t.store.tracks[id].Center
	}
	detCenters := make([]Point, len(observations))
	for i, obs := range observations {
		detCenters[i] = obs.Box.Center()
	}

	cost := BuildCostMatrix(trackCenters, detCenters, t.Config.NoMatchCost)
	pairs := Assign(cost)

	p := plan{hits: make(map[int]int)}
	var handoffs, unmatched []int
	debug := t.DebugCollector != nil && t.DebugCollector.IsEnabled()
	record := func(trackID, c int, outcome string, r int) {
		if !debug {
			return
		}
		det := c
		if c >= cost.Detections() {
			det = -1
		}
		t.DebugCollector.RecordAssociation(trackID, det, cost.At(r, c), outcome)
	}

	for _, pair := range pairs {
		r, c := pair.Row, pair.Col
		if r >= cost.Tracks() {
			unmatched = append(unmatched, c)
			record(-1, c, OutcomeNew, r)
			continue
		}

		id := ids[r]
		if cost.IsNoMatch(r, c) {
			p.misses = append(p.misses, id)
			if c < cost.Detections() {
				unmatched = append(unmatched, c)
			}
			record(id, c, OutcomeNoMatch, r)
			continue
		}

		displacement := trackCenters[r].DistanceTo(detCenters[c])
		if displacement > t.Config.DistThreshold {
			p.misses = append(p.misses, id)
			handoffs = append(handoffs, c)
			record(id, c, OutcomeHandoff, r)
			continue
		}
		p.hits[id] = c
		record(id, c, OutcomeMatched, r)
	}

	p.handoff = len(handoffs)
	p.spawns = append(handoffs, unmatched...)
	return p
}

func (t *Tracker) validate(p plan) error {
	for id := range p.hits {
		if _, err := t.store.Get(id); err != nil {
			return err
		}
	}
	for _, id := range p.misses {
		if _, err := t.store.Get(id); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) apply(p plan, observations []Observation) {
	for id, c := range p.hits {
		t.store.tracks[id].hit(observations[c])
	}
	for _, id := range p.misses {
		t.store.tracks[id].miss()
	}
	for _, c := range p.spawns {
		t.spawn(observations[c])
	}
	t.stats.Handoffs += p.handoff
}

func (t *Tracker) spawn(obs Observation) {
	track := t.store.Add(obs)
	t.stats.Created++
	monitoring.Debugf("[tracker] new track %v", track)
}

// prune removes every track whose miss count exceeds MissThreshold.
func (t *Tracker) prune() {
	for _, id := range t.store.IDs() {
		track := t.store.tracks[id]
		if track.Misses <= t.Config.MissThreshold {
			continue
		}
		monitoring.Debugf("[tracker] removing track %v", track)
		// ID came from IDs() under the same lock; Remove cannot fail here.
		_ = t.store.Remove(id)
		t.stats.Removed++
	}
}

// Snapshot returns copies of all live tracks ordered by ID.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{Frame: t.stats.Frames, Tracks: t.store.Snapshot()}
}

// Track returns a copy of a single live track.
func (t *Tracker) Track(id int) (Track, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	track, err := t.store.Get(id)
	if err != nil {
		return Track{}, err
	}
	return *track, nil
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.Len()
}

// Stats returns the running lifecycle counters.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Reset clears all tracks and counters. IDs restart from zero.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store = NewStore()
	t.stats = Stats{}
}
