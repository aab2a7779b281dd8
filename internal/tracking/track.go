package tracking

import "fmt"

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	TrackActive TrackState = "active" // Matched in the most recent frame
	TrackStale  TrackState = "stale"  // Missed at least one consecutive frame
)

// Observation is one detection as seen by the tracker: a box plus the
// optional depth that was estimated for it.
type Observation struct {
	Box      BBox
	Depth    float64
	HasDepth bool
}

// Track is a persistent pedestrian identity.
type Track struct {
	ID     int        `json:"id"`
	Box    BBox       `json:"box"`
	Center Point      `json:"center"`
	Age    int        `json:"age"`    // Frames since creation, including the first
	Misses int        `json:"misses"` // Consecutive frames without a match
	State  TrackState `json:"state"`

	// Depth of the observation that last updated the track.
	Depth    float64 `json:"depth,omitempty"`
	HasDepth bool    `json:"has_depth"`
}

func newTrack(id int, obs Observation) *Track {
	t := &Track{ID: id, Age: 1, State: TrackActive}
	t.observe(obs)
	return t
}

func (t *Track) observe(obs Observation) {
	t.Box = obs.Box
	t.Center = obs.Box.Center()
	t.Depth = obs.Depth
	t.HasDepth = obs.HasDepth
}

// hit records a successful match.
func (t *Track) hit(obs Observation) {
	t.observe(obs)
	t.Age++
	t.Misses = 0
	t.State = TrackActive
}

// miss records a frame without a match.
func (t *Track) miss() {
	t.Age++
	t.Misses++
	t.State = TrackStale
}

func (t *Track) String() string {
	return fmt.Sprintf("P.%02d(%.1f,%.1f age=%d misses=%d)", t.ID, t.Center.X, t.Center.Y, t.Age, t.Misses)
}

// Snapshot is the per-frame view of every live track, ordered by ID.
type Snapshot struct {
	Frame  int     `json:"frame"`
	Tracks []Track `json:"tracks"`
}
