// Package fusion refines monocular pedestrian distance estimates using a 2D
// LiDAR range scan.
//
// The scan is projected onto the camera's forward axis inside a fixed
// angular window; FindDepth then looks for a short run of consecutive
// projected readings that agree with the monocular estimate.
package fusion

import (
	"errors"
	"fmt"
	"math"

	"github.com/socialnavi/pedtrack/internal/config"
)

// Unusable marks a scan sample that is infinite, NaN or closer than the
// minimum valid range. Samples are marked rather than dropped so candidate
// indices stay aligned with the scan's angular axis.
const Unusable = -1.0

// ErrInvalidRangeScan is returned when a scan does not have the configured
// number of samples.
var ErrInvalidRangeScan = errors.New("invalid range scan")

// RangeScan is one sweep of range readings ordered by scan angle.
type RangeScan []float64

// ScanConfig describes the range sensor layout and which part of the sweep
// overlaps the camera's field of view.
type ScanConfig struct {
	Samples       int     // Expected samples per sweep (1081 for the reference sensor)
	WindowStart   int     // First index inside the camera FOV
	WindowEnd     int     // One past the last index inside the camera FOV
	ResolutionDeg float64 // Angular step between samples
	MinRange      float64 // Readings below this are unusable (metres)
}

// DefaultScanConfig returns the reference sensor layout.
func DefaultScanConfig() ScanConfig {
	return ScanConfigFromTuning(config.EmptyTuningConfig())
}

// ScanConfigFromTuning builds a ScanConfig from a loaded TuningConfig.
func ScanConfigFromTuning(cfg *config.TuningConfig) ScanConfig {
	return ScanConfig{
		Samples:       cfg.GetScanSamples(),
		WindowStart:   cfg.GetScanWindowStart(),
		WindowEnd:     cfg.GetScanWindowEnd(),
		ResolutionDeg: cfg.GetScanResolutionDeg(),
		MinRange:      cfg.GetScanMinRange(),
	}
}

// ScanAngle returns the projection angle in radians used for scan index i.
//
// The angle is measured from WindowStart+1, not WindowStart, so the sample at
// WindowStart projects with a small negative angle. Depth readings recorded
// against the reference sensor depend on this convention.
func (c ScanConfig) ScanAngle(i int) float64 {
	return float64(i-c.WindowStart-1) * c.ResolutionDeg * math.Pi / 180
}

func (c ScanConfig) usable(r float64) bool {
	return !math.IsInf(r, 0) && !math.IsNaN(r) && r >= c.MinRange
}

// CandidateDepths projects every sample in the window onto the camera's
// forward axis. The result has WindowEnd-WindowStart entries; unusable
// samples are reported as Unusable.
func CandidateDepths(scan RangeScan, cfg ScanConfig) ([]float64, error) {
	if len(scan) != cfg.Samples {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrInvalidRangeScan, len(scan), cfg.Samples)
	}

	out := make([]float64, 0, cfg.WindowEnd-cfg.WindowStart)
	for i := cfg.WindowStart; i < cfg.WindowEnd; i++ {
		r := scan[i]
		if !cfg.usable(r) {
			out = append(out, Unusable)
			continue
		}
		out = append(out, r*math.Sin(cfg.ScanAngle(i)))
	}
	return out, nil
}
