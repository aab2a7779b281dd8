package fusion

import (
	"errors"
	"fmt"
	"math"

	"github.com/socialnavi/pedtrack/internal/config"
	"github.com/socialnavi/pedtrack/internal/monitoring"
	"gonum.org/v1/gonum/stat"
)

// ErrUndefinedMonocularDepth is returned for a bounding box or image without
// positive height.
var ErrUndefinedMonocularDepth = errors.New("undefined monocular depth")

// Source records where a depth value came from.
type Source string

const (
	SourceNone      Source = "none"
	SourceMonocular Source = "monocular"
	SourceFused     Source = "fused"
)

// FusionConfig holds the run-matching parameters for FindDepth.
type FusionConfig struct {
	Offset float64 // Half-width of the tolerance band around the estimate (metres)
	MinRun int     // A run is accepted once it holds more than MinRun candidates
}

// CameraConfig is the pinhole model used for the monocular estimate.
type CameraConfig struct {
	PersonHeightM float64 // Assumed pedestrian height
	FovY          float64 // Vertical field of view (radians)
}

// Config bundles everything the Fuser needs.
type Config struct {
	Scan   ScanConfig
	Fusion FusionConfig
	Camera CameraConfig
}

// DefaultConfig returns the reference sensor and camera parameters.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning derives the fusion configuration from a TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Scan: ScanConfigFromTuning(cfg),
		Fusion: FusionConfig{
			Offset: cfg.GetDepthOffset(),
			MinRun: cfg.GetDepthMinRun(),
		},
		Camera: CameraConfig{
			PersonHeightM: cfg.GetPersonHeightM(),
			FovY:          cfg.GetFovYDeg() * math.Pi / 180,
		},
	}
}

// MonocularDepth estimates distance from bounding box height alone, assuming
// every pedestrian is PersonHeightM tall.
func MonocularDepth(boxHeight float64, imageHeight int, cam CameraConfig) (float64, error) {
	if boxHeight <= 0 {
		return 0, fmt.Errorf("%w: box height %.3f", ErrUndefinedMonocularDepth, boxHeight)
	}
	if imageHeight <= 0 {
		return 0, fmt.Errorf("%w: image height %d", ErrUndefinedMonocularDepth, imageHeight)
	}
	return cam.PersonHeightM / boxHeight * float64(imageHeight) / math.Tan(cam.FovY), nil
}

// FindDepth scans candidates in order, keeping a run of consecutive values
// within Offset of estimate. Out-of-band and Unusable values reset the run.
// The scan stops as soon as the run holds more than MinRun values and the
// run's mean is returned. ok is false when no run ever got that long, in
// which case the caller keeps its own estimate.
func FindDepth(estimate float64, candidates []float64, cfg FusionConfig) (depth float64, ok bool) {
	lo, hi := estimate-cfg.Offset, estimate+cfg.Offset
	run := make([]float64, 0, cfg.MinRun+1)

	for _, d := range candidates {
		if d == Unusable || d < lo || d > hi {
			run = run[:0]
			continue
		}
		run = append(run, d)
		if len(run) > cfg.MinRun {
			return stat.Mean(run, nil), true
		}
	}
	return 0, false
}

// Estimate is the depth result for one detection.
type Estimate struct {
	Depth     float64
	Monocular float64
	Source    Source
}

// Fuser combines the monocular estimate with a pre-computed candidate slice.
// It holds no mutable state and is safe to share across goroutines.
type Fuser struct {
	cfg Config
}

// NewFuser creates a Fuser with the given configuration.
func NewFuser(cfg Config) *Fuser {
	return &Fuser{cfg: cfg}
}

// Config returns the fuser's configuration.
func (f *Fuser) Config() Config {
	return f.cfg
}

// Candidates projects scan into forward-axis depths. A nil scan yields nil
// candidates without error. A malformed scan is logged and also yields nil,
// so the frame falls back to monocular estimates.
func (f *Fuser) Candidates(scan RangeScan) []float64 {
	if scan == nil {
		return nil
	}
	candidates, err := CandidateDepths(scan, f.cfg.Scan)
	if err != nil {
		monitoring.Logf("[fusion] skipping range scan: %v", err)
		return nil
	}
	return candidates
}

// Estimate returns the refined depth for a box of the given pixel height.
// ErrUndefinedMonocularDepth is returned unchanged so the caller can mark the
// detection's depth as unavailable.
func (f *Fuser) Estimate(boxHeight float64, imageHeight int, candidates []float64) (Estimate, error) {
	mono, err := MonocularDepth(boxHeight, imageHeight, f.cfg.Camera)
	if err != nil {
		return Estimate{Source: SourceNone}, err
	}

	est := Estimate{Depth: mono, Monocular: mono, Source: SourceMonocular}
	if len(candidates) == 0 {
		return est, nil
	}
	if fused, ok := FindDepth(mono, candidates, f.cfg.Fusion); ok {
		est.Depth = fused
		est.Source = SourceFused
	}
	return est, nil
}
