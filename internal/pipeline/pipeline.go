// Package pipeline drives the per-frame run loop: feed the detector, read
// depth-annotated detections, update the tracker and hand the result to
// every registered sink.
package pipeline

import (
	"fmt"

	"github.com/socialnavi/pedtrack/internal/debug"
	"github.com/socialnavi/pedtrack/internal/detection"
	"github.com/socialnavi/pedtrack/internal/monitoring"
	"github.com/socialnavi/pedtrack/internal/tracking"
)

// Sink receives each frame's tracker snapshot together with the detections
// that produced it. Sinks run synchronously in registration order.
type Sink interface {
	Record(frame detection.FrameInfo, snap tracking.Snapshot, dets []detection.Detection) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(frame detection.FrameInfo, snap tracking.Snapshot, dets []detection.Detection) error

func (f SinkFunc) Record(frame detection.FrameInfo, snap tracking.Snapshot, dets []detection.Detection) error {
	return f(frame, snap, dets)
}

// Config holds the pipeline's collaborators.
type Config struct {
	Detector detection.Detector
	Tracker  *tracking.Tracker
	Classes  []int            // Sent once as a ClassFilterCommand by Start
	Debug    *debug.Collector // Optional
	Sinks    []Sink
}

// Pipeline is not safe for concurrent ProcessFrame calls; frames must be
// processed in order.
type Pipeline struct {
	cfg     Config
	frameID uint64
}

// New creates a pipeline. The tracker's debug collector is wired to
// cfg.Debug when one is given.
func New(cfg Config) *Pipeline {
	if cfg.Debug != nil {
		cfg.Tracker.DebugCollector = cfg.Debug
	}
	return &Pipeline{cfg: cfg}
}

// AddSink registers another sink.
func (p *Pipeline) AddSink(s Sink) {
	p.cfg.Sinks = append(p.cfg.Sinks, s)
}

// Start applies the class filter. The detector must already be open.
func (p *Pipeline) Start() error {
	if p.cfg.Classes == nil {
		return nil
	}
	if err := p.cfg.Detector.Control(detection.ClassFilterCommand{Classes: p.cfg.Classes}); err != nil {
		return fmt.Errorf("failed to set class filter: %w", err)
	}
	return nil
}

// ProcessFrame runs one frame through the detector and tracker and returns
// the resulting snapshot. A tracker error (always *tracking.UnknownTrackError)
// is returned unchanged so callers can stop the run with errors.As.
func (p *Pipeline) ProcessFrame(frame detection.FrameInfo) (tracking.Snapshot, error) {
	p.frameID++
	d := p.cfg.Detector
	defer d.Reset()

	if p.cfg.Debug != nil {
		p.cfg.Debug.BeginFrame(p.frameID, frame.Name)
	}

	if err := d.Control(detection.ImageCommand{Name: frame.Name, Width: frame.ImageWidth, Height: frame.ImageHeight}); err != nil {
		return tracking.Snapshot{}, fmt.Errorf("frame %s: %w", frame.Name, err)
	}
	if frame.Scan != nil {
		if err := d.Control(detection.RangeScanCommand{Scan: frame.Scan}); err != nil {
			return tracking.Snapshot{}, fmt.Errorf("frame %s: %w", frame.Name, err)
		}
	}
	dets, err := d.Read()
	if err != nil {
		return tracking.Snapshot{}, fmt.Errorf("frame %s: failed to read detections: %w", frame.Name, err)
	}

	if err := p.cfg.Tracker.Update(detection.Observations(dets)); err != nil {
		if p.cfg.Debug != nil {
			p.cfg.Debug.Reset()
		}
		return tracking.Snapshot{}, err
	}
	snap := p.cfg.Tracker.Snapshot()

	if p.cfg.Debug != nil {
		if df := p.cfg.Debug.Emit(); df != nil {
			monitoring.Debugf("[pipeline] frame %s: %d association records", frame.Name, len(df.Associations))
		}
	}
	monitoring.Debugf("[pipeline] frame %s: %d detections, %d tracks", frame.Name, len(dets), len(snap.Tracks))

	for _, s := range p.cfg.Sinks {
		if err := s.Record(frame, snap, dets); err != nil {
			return snap, fmt.Errorf("frame %s: sink: %w", frame.Name, err)
		}
	}
	return snap, nil
}

// Run processes frames in order, stopping at the first error.
func (p *Pipeline) Run(frames []detection.FrameInfo) error {
	if err := p.Start(); err != nil {
		return err
	}
	for _, f := range frames {
		if _, err := p.ProcessFrame(f); err != nil {
			return err
		}
	}
	stats := p.cfg.Tracker.Stats()
	monitoring.Logf("[pipeline] processed %d frames: %d tracks created, %d removed, %d hand-offs",
		stats.Frames, stats.Created, stats.Removed, stats.Handoffs)
	return nil
}
