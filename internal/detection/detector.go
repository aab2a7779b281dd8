// Package detection defines the object detector capability interface and
// the adapters the tracking pipeline talks to.
//
// The neural network itself is outside this module. ReplayDetector plays
// back recorded detector output, and DepthDetector decorates any Detector
// with LiDAR depth fusion.
package detection

import (
	"errors"
	"image"

	"github.com/socialnavi/pedtrack/internal/fusion"
	"github.com/socialnavi/pedtrack/internal/tracking"
)

// ErrNotSupported is returned by capability methods an adapter does not
// implement.
var ErrNotSupported = errors.New("operation not supported")

// ErrNotOpen is returned when a detector is used before Open or after Close.
var ErrNotOpen = errors.New("detector not open")

// Detection is one bounding box reported for a single frame.
type Detection struct {
	Class      int           `json:"class"`
	Confidence float64       `json:"confidence"`
	Box        tracking.BBox `json:"box"`

	// Depth is only meaningful when HasDepth is set.
	Depth       float64       `json:"depth,omitempty"`
	Monocular   float64       `json:"monocular,omitempty"`
	HasDepth    bool          `json:"has_depth"`
	DepthSource fusion.Source `json:"depth_source,omitempty"`
}

// Observation converts the detection into the tracker's input type.
func (d Detection) Observation() tracking.Observation {
	return tracking.Observation{Box: d.Box, Depth: d.Depth, HasDepth: d.HasDepth}
}

// Observations converts a frame's detections for the tracker.
func Observations(dets []Detection) []tracking.Observation {
	out := make([]tracking.Observation, len(dets))
	for i, d := range dets {
		out[i] = d.Observation()
	}
	return out
}

// Detector is the capability interface every detector adapter exposes.
// Frame inputs and settings arrive through Control; Read returns the
// detections for the current frame; Reset drops per-frame state.
type Detector interface {
	Open() error
	Close() error
	Read() ([]Detection, error)
	Write() error
	Control(cmd Command) error
	Reset()
}

// Command is a closed set of settings a Detector accepts through Control:
// ImageCommand, ClassFilterCommand or RangeScanCommand.
type Command interface {
	isCommand()
}

// ImageCommand selects the frame to run detection on. Pixels are optional;
// replay adapters only use the name and dimensions.
type ImageCommand struct {
	Name   string
	Width  int
	Height int
	Image  image.Image
}

// ClassFilterCommand restricts detections to the given class IDs.
type ClassFilterCommand struct {
	Classes []int
}

// RangeScanCommand supplies the LiDAR sweep captured with the current frame.
type RangeScanCommand struct {
	Scan fusion.RangeScan
}

func (ImageCommand) isCommand()       {}
func (ClassFilterCommand) isCommand() {}
func (RangeScanCommand) isCommand()   {}

// classSet is a class-ID filter. An empty set admits nothing.
type classSet map[int]struct{}

func newClassSet(classes []int) classSet {
	s := make(classSet, len(classes))
	for _, c := range classes {
		s[c] = struct{}{}
	}
	return s
}

func (s classSet) allows(class int) bool {
	_, ok := s[class]
	return ok
}
