// Package report accumulates track trajectories over a run and renders them
// as an interactive HTML chart or a static PNG plot.
package report

import (
	"sort"
	"sync"

	"github.com/socialnavi/pedtrack/internal/detection"
	"github.com/socialnavi/pedtrack/internal/tracking"
)

// Sample is one matched position of a track.
type Sample struct {
	Frame    int
	Center   tracking.Point
	Depth    float64
	HasDepth bool
}

// Trajectories collects track centers frame by frame. Only frames where a
// track was matched are recorded, so stale tracks do not draw flat lines.
type Trajectories struct {
	mu     sync.Mutex
	tracks map[int][]Sample
	frames int
}

// NewTrajectories returns an empty collector.
func NewTrajectories() *Trajectories {
	return &Trajectories{tracks: make(map[int][]Sample)}
}

// Record satisfies pipeline.Sink.
func (t *Trajectories) Record(_ detection.FrameInfo, snap tracking.Snapshot, _ []detection.Detection) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = snap.Frame
	for _, tr := range snap.Tracks {
		if tr.State != tracking.TrackActive {
			continue
		}
		t.tracks[tr.ID] = append(t.tracks[tr.ID], Sample{
			Frame:    snap.Frame,
			Center:   tr.Center,
			Depth:    tr.Depth,
			HasDepth: tr.HasDepth,
		})
	}
	return nil
}

// Frames returns the last frame number seen.
func (t *Trajectories) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// TrackIDs returns the recorded track IDs in ascending order.
func (t *Trajectories) TrackIDs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]int, 0, len(t.tracks))
	for id := range t.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Samples returns a copy of one track's trajectory.
func (t *Trajectories) Samples(id int) []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Sample, len(t.tracks[id]))
	copy(out, t.tracks[id])
	return out
}
