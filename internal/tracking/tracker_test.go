package tracking

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	return NewTracker(DefaultTrackerConfig())
}

func frameAt(points ...Point) []Observation {
	out := make([]Observation, len(points))
	for i, p := range points {
		out[i] = Observation{Box: BoxAround(p, 40, 100)}
	}
	return out
}

func centers(s Snapshot) map[int]Point {
	out := make(map[int]Point, len(s.Tracks))
	for _, tr := range s.Tracks {
		out[tr.ID] = tr.Center
	}
	return out
}

// recordingCollector captures association outcomes for assertions.
type recordingCollector struct {
	outcomes []string
}

func (r *recordingCollector) IsEnabled() bool { return true }
func (r *recordingCollector) RecordAssociation(trackID, detection int, cost float64, outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestDefaultTrackerConfig(t *testing.T) {
	cfg := DefaultTrackerConfig()
	assert.Equal(t, 200.0, cfg.DistThreshold)
	assert.Equal(t, 3, cfg.MissThreshold)
	assert.Equal(t, 1e6, cfg.NoMatchCost)
}

func TestTracker_EmptyStoreCreatesTrackPerDetection(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100}, Point{300, 100}, Point{500, 100})))

	snap := tr.Snapshot()
	require.Len(t, snap.Tracks, 3)
	for i, track := range snap.Tracks {
		assert.Equal(t, i, track.ID)
		assert.Equal(t, 1, track.Age)
		assert.Equal(t, 0, track.Misses)
		assert.Equal(t, TrackActive, track.State)
	}
	assert.Equal(t, 1, snap.Frame)
}

func TestTracker_SmallMoveContinuesTrack(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))
	require.NoError(t, tr.Update(frameAt(Point{105, 102})))

	snap := tr.Snapshot()
	require.Len(t, snap.Tracks, 1)
	track := snap.Tracks[0]
	assert.Equal(t, 0, track.ID)
	assert.Equal(t, Point{X: 105, Y: 102}, track.Center)
	assert.Equal(t, 0, track.Misses)
	assert.Equal(t, 2, track.Age)
}

func TestTracker_LargeJumpIsHandoff(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))
	require.NoError(t, tr.Update(frameAt(Point{900, 900})))

	snap := tr.Snapshot()
	require.Len(t, snap.Tracks, 2)

	old, fresh := snap.Tracks[0], snap.Tracks[1]
	assert.Equal(t, 0, old.ID)
	assert.Equal(t, Point{X: 100, Y: 100}, old.Center, "hand-off must not move the old track")
	assert.Equal(t, 1, old.Misses)
	assert.Equal(t, TrackStale, old.State)

	assert.Equal(t, 1, fresh.ID)
	assert.Equal(t, Point{X: 900, Y: 900}, fresh.Center)
	assert.Equal(t, 0, fresh.Misses)
	assert.Equal(t, 1, fresh.Age)

	assert.Equal(t, 1, tr.Stats().Handoffs)
}

func TestTracker_IdenticalDetectionsKeepIDs(t *testing.T) {
	tr := newTestTracker()
	frame := frameAt(Point{100, 100}, Point{400, 120}, Point{700, 90})

	for i := 0; i < 10; i++ {
		require.NoError(t, tr.Update(frame))
		snap := tr.Snapshot()
		require.Len(t, snap.Tracks, 3)
		want := map[int]Point{0: {100, 100}, 1: {400, 120}, 2: {700, 90}}
		if diff := cmp.Diff(want, centers(snap)); diff != "" {
			t.Fatalf("frame %d: centers mismatch (-want +got):\n%s", i, diff)
		}
		for _, track := range snap.Tracks {
			assert.Equal(t, 0, track.Misses)
			assert.Equal(t, i+1, track.Age)
		}
	}
	assert.Equal(t, 3, tr.Stats().Created)
}

func TestTracker_MissingTrackRemovedWhenThresholdBreached(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))

	// Misses 1..3 keep the track; the 4th exceeds the threshold of 3.
	for miss := 1; miss <= 3; miss++ {
		require.NoError(t, tr.Update(nil))
		snap := tr.Snapshot()
		require.Len(t, snap.Tracks, 1, "after miss %d", miss)
		assert.Equal(t, miss, snap.Tracks[0].Misses)
		assert.Equal(t, miss+1, snap.Tracks[0].Age)
		assert.Equal(t, TrackStale, snap.Tracks[0].State)
	}

	require.NoError(t, tr.Update(nil))
	assert.Empty(t, tr.Snapshot().Tracks)
	assert.Equal(t, 1, tr.Stats().Removed)

	_, err := tr.Track(0)
	var unknown *UnknownTrackError
	assert.True(t, errors.As(err, &unknown))
}

func TestTracker_ReacquiredTrackResetsMisses(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))
	require.NoError(t, tr.Update(nil))
	require.NoError(t, tr.Update(nil))
	require.NoError(t, tr.Update(frameAt(Point{110, 100})))

	track, err := tr.Track(0)
	require.NoError(t, err)
	assert.Equal(t, 0, track.Misses)
	assert.Equal(t, 4, track.Age)
	assert.Equal(t, TrackActive, track.State)
}

func TestTracker_MoreDetectionsThanTracks(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))
	require.NoError(t, tr.Update(frameAt(Point{600, 100}, Point{104, 100})))

	snap := tr.Snapshot()
	want := map[int]Point{0: {104, 100}, 1: {600, 100}}
	if diff := cmp.Diff(want, centers(snap)); diff != "" {
		t.Errorf("centers mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_MoreTracksThanDetections(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100}, Point{500, 100})))
	require.NoError(t, tr.Update(frameAt(Point{498, 101})))

	a, err := tr.Track(0)
	require.NoError(t, err)
	b, err := tr.Track(1)
	require.NoError(t, err)

	assert.Equal(t, 1, a.Misses)
	assert.Equal(t, Point{X: 100, Y: 100}, a.Center)
	assert.Equal(t, 0, b.Misses)
	assert.Equal(t, Point{X: 498, Y: 101}, b.Center)
	assert.Equal(t, 2, tr.Len())
}

func TestTracker_SentinelPairsNeverUpdateTracks(t *testing.T) {
	tr := newTestTracker()
	collector := &recordingCollector{}
	tr.DebugCollector = collector

	require.NoError(t, tr.Update(frameAt(Point{100, 100}, Point{200, 100})))
	require.NoError(t, tr.Update(frameAt(Point{101, 100})))

	// Track 1 is paired with the padding column and only misses.
	b, err := tr.Track(1)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 200, Y: 100}, b.Center)
	assert.Equal(t, 1, b.Misses)
	assert.ElementsMatch(t, []string{OutcomeMatched, OutcomeNoMatch}, collector.outcomes)
}

func TestTracker_SentinelCellMissesTrackAndSpawnsDetection(t *testing.T) {
	// With NoMatchCost below the real distance, the only cell of the 1x1
	// matrix is a sentinel: the track misses and the detection starts anew.
	tr := NewTracker(TrackerConfig{DistThreshold: 200, MissThreshold: 3, NoMatchCost: 300})
	collector := &recordingCollector{}
	tr.DebugCollector = collector

	require.NoError(t, tr.Update(frameAt(Point{100, 100})))
	collector.outcomes = nil
	require.NoError(t, tr.Update(frameAt(Point{500, 100})))

	old, err := tr.Track(0)
	require.NoError(t, err)
	assert.Equal(t, 1, old.Misses)
	assert.Equal(t, TrackStale, old.State)
	assert.Equal(t, Point{X: 100, Y: 100}, old.Center)

	spawned, err := tr.Track(1)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 500, Y: 100}, spawned.Center)
	assert.Equal(t, 1, spawned.Age)
	assert.Equal(t, 0, spawned.Misses)

	assert.Equal(t, []string{OutcomeNoMatch}, collector.outcomes)
	stats := tr.Stats()
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 0, stats.Handoffs)
}

func TestTracker_IDsUniqueAndIncreasing(t *testing.T) {
	tr := newTestTracker()
	frames := [][]Observation{
		frameAt(Point{100, 100}),
		frameAt(Point{900, 900}, Point{102, 100}),
		nil,
		frameAt(Point{50, 600}),
		frameAt(Point{400, 400}, Point{55, 600}, Point{1200, 50}),
		nil, nil, nil, nil,
		frameAt(Point{10, 10}),
	}

	lastMax := -1
	for i, f := range frames {
		require.NoError(t, tr.Update(f))
		seen := map[int]bool{}
		for _, track := range tr.Snapshot().Tracks {
			assert.False(t, seen[track.ID], "frame %d: duplicate id %d", i, track.ID)
			seen[track.ID] = true
			assert.GreaterOrEqual(t, track.Age, track.Misses)
			assert.GreaterOrEqual(t, track.Misses, 0)
			if track.ID > lastMax {
				lastMax = track.ID
			}
		}
	}
	assert.Equal(t, tr.Stats().Created-1, lastMax)
}

func TestTracker_NewTrackOrder(t *testing.T) {
	// A hand-off and an unmatched detection in the same frame: the hand-off
	// track is created first.
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))
	require.NoError(t, tr.Update(frameAt(Point{700, 700}, Point{1000, 100})))

	snap := tr.Snapshot()
	require.Len(t, snap.Tracks, 3)
	assert.Equal(t, 3, tr.Stats().Created)

	// Whichever detection the solver paired with track 0 becomes track 1.
	assert.NotEqual(t, snap.Tracks[1].Center, snap.Tracks[2].Center)
	assert.Equal(t, 1, snap.Tracks[0].Misses)
}

func TestTracker_Reset(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))
	tr.Reset()

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, Stats{}, tr.Stats())
	require.NoError(t, tr.Update(frameAt(Point{5, 5})))
	assert.Equal(t, 0, tr.Snapshot().Tracks[0].ID)
}

func TestTracker_ValidateRejectsUnknownIDs(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.Update(frameAt(Point{100, 100})))

	err := tr.validate(plan{hits: map[int]int{42: 0}})
	var unknown *UnknownTrackError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 42, unknown.ID)

	err = tr.validate(plan{hits: map[int]int{}, misses: []int{7}})
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 7, unknown.ID)
}

func TestTracker_DepthCarriedOnTrack(t *testing.T) {
	tr := newTestTracker()
	obs := Observation{Box: BoxAround(Point{100, 100}, 40, 100), Depth: 3.5, HasDepth: true}
	require.NoError(t, tr.Update([]Observation{obs}))

	next := Observation{Box: BoxAround(Point{102, 100}, 40, 100)}
	require.NoError(t, tr.Update([]Observation{next}))

	track, err := tr.Track(0)
	require.NoError(t, err)
	assert.False(t, track.HasDepth, "depth follows the latest observation")
}
