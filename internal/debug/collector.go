// Package debug captures tracker association decisions per frame for
// inspection and tuning.
//
// The Collector is stateful: call BeginFrame, let the tracker call
// RecordAssociation during Update, then Emit at frame completion. Reset
// discards a frame that was abandoned midway.
package debug

import (
	"sync"

	"github.com/socialnavi/pedtrack/internal/monitoring"
)

// Typical street scenes carry a handful of pedestrians; the padded
// assignment produces one pair per row.
const defaultAssociationCapacity = 16

// Frame holds the association records for one processed frame.
type Frame struct {
	FrameID      uint64              `json:"frame_id"`
	Name         string              `json:"name,omitempty"`
	Associations []AssociationRecord `json:"associations"`
}

// AssociationRecord is a single assignment pair as the tracker resolved it.
// TrackID is -1 for padding rows; Detection is -1 for padding columns.
type AssociationRecord struct {
	TrackID   int     `json:"track_id"`
	Detection int     `json:"detection"`
	Cost      float64 `json:"cost"`
	Outcome   string  `json:"outcome"`
}

// Collector accumulates association records. It satisfies
// tracking.DebugCollector.
type Collector struct {
	mu      sync.Mutex
	enabled bool
	current *Frame
}

// NewCollector creates a collector that is initially disabled.
func NewCollector() *Collector {
	return &Collector{}
}

// SetEnabled controls whether the collector records anything. When disabled
// every Record call is a no-op.
func (c *Collector) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// IsEnabled reports whether the collector is recording.
func (c *Collector) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// BeginFrame starts collection for a new frame. Records from an earlier,
// un-emitted frame are discarded.
func (c *Collector) BeginFrame(frameID uint64, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.current = &Frame{
		FrameID:      frameID,
		Name:         name,
		Associations: make([]AssociationRecord, 0, defaultAssociationCapacity),
	}
}

// RecordAssociation appends one pair to the current frame.
func (c *Collector) RecordAssociation(trackID, detection int, cost float64, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || c.current == nil {
		return
	}
	c.current.Associations = append(c.current.Associations, AssociationRecord{
		TrackID:   trackID,
		Detection: detection,
		Cost:      cost,
		Outcome:   outcome,
	})
	monitoring.Debugf("[debug] frame %d: track %d det %d cost %.2f %s",
		c.current.FrameID, trackID, detection, cost, outcome)
}

// Emit returns the current frame and clears it. It returns nil when
// collection is disabled or no frame was begun.
func (c *Collector) Emit() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || c.current == nil {
		return nil
	}
	frame := c.current
	c.current = nil
	return frame
}

// Reset drops pending records without emitting them.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}
