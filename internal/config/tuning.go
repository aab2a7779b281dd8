package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// MinNoMatchCost is the smallest accepted no_match_cost. It is above the
// pixel diagonal of an 8K frame (about 8810), so no real distance reaches it.
const MinNoMatchCost = 1e4

// TuningConfig represents the root configuration for tracking and depth
// fusion parameters. Every field is optional; the Get* accessors fall back
// to the reference sensor/camera values when a field is unset.
type TuningConfig struct {
	// Tracker params
	DistThreshold *float64 `json:"dist_threshold,omitempty"` // pixels
	MissThreshold *int     `json:"miss_threshold,omitempty"` // consecutive frames
	NoMatchCost   *float64 `json:"no_match_cost,omitempty"`

	// Depth fusion params
	DepthOffset *float64 `json:"depth_offset,omitempty"` // metres
	DepthMinRun *int     `json:"depth_min_run,omitempty"`

	// Range scan layout
	ScanSamples       *int     `json:"scan_samples,omitempty"`
	ScanWindowStart   *int     `json:"scan_window_start,omitempty"`
	ScanWindowEnd     *int     `json:"scan_window_end,omitempty"` // exclusive
	ScanResolutionDeg *float64 `json:"scan_resolution_deg,omitempty"`
	ScanMinRange      *float64 `json:"scan_min_range,omitempty"` // metres

	// Camera model for monocular depth
	PersonHeightM *float64 `json:"person_height_m,omitempty"`
	FovYDeg       *float64 `json:"fov_y_deg,omitempty"`

	// Detector / pipeline
	ClassFilter   []int `json:"class_filter,omitempty"`
	FusionWorkers *int  `json:"fusion_workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// Fields omitted from the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.DistThreshold != nil && *c.DistThreshold <= 0 {
		return fmt.Errorf("dist_threshold must be positive, got %f", *c.DistThreshold)
	}
	if c.MissThreshold != nil && *c.MissThreshold < 0 {
		return fmt.Errorf("miss_threshold must be non-negative, got %d", *c.MissThreshold)
	}
	// The sentinel has to stay out of reach of any real pixel distance.
	if c.NoMatchCost != nil && *c.NoMatchCost <= c.GetDistThreshold() {
		return fmt.Errorf("no_match_cost must exceed dist_threshold (%f), got %f", c.GetDistThreshold(), *c.NoMatchCost)
	}
	if c.NoMatchCost != nil && *c.NoMatchCost < MinNoMatchCost {
		return fmt.Errorf("no_match_cost must be at least %g, got %f", float64(MinNoMatchCost), *c.NoMatchCost)
	}
	if c.DepthOffset != nil && *c.DepthOffset <= 0 {
		return fmt.Errorf("depth_offset must be positive, got %f", *c.DepthOffset)
	}
	if c.DepthMinRun != nil && *c.DepthMinRun < 0 {
		return fmt.Errorf("depth_min_run must be non-negative, got %d", *c.DepthMinRun)
	}

	samples := c.GetScanSamples()
	start, end := c.GetScanWindowStart(), c.GetScanWindowEnd()
	if samples <= 0 {
		return fmt.Errorf("scan_samples must be positive, got %d", samples)
	}
	if start < 0 || end > samples || start >= end {
		return fmt.Errorf("scan window [%d, %d) must lie within [0, %d)", start, end, samples)
	}
	if c.ScanResolutionDeg != nil && *c.ScanResolutionDeg <= 0 {
		return fmt.Errorf("scan_resolution_deg must be positive, got %f", *c.ScanResolutionDeg)
	}
	if c.ScanMinRange != nil && *c.ScanMinRange < 0 {
		return fmt.Errorf("scan_min_range must be non-negative, got %f", *c.ScanMinRange)
	}

	if c.PersonHeightM != nil && *c.PersonHeightM <= 0 {
		return fmt.Errorf("person_height_m must be positive, got %f", *c.PersonHeightM)
	}
	if c.FovYDeg != nil && (*c.FovYDeg <= 0 || *c.FovYDeg >= 180) {
		return fmt.Errorf("fov_y_deg must be in (0, 180), got %f", *c.FovYDeg)
	}
	if c.FusionWorkers != nil && *c.FusionWorkers < 1 {
		return fmt.Errorf("fusion_workers must be at least 1, got %d", *c.FusionWorkers)
	}
	for _, class := range c.ClassFilter {
		if class < 0 {
			return fmt.Errorf("class_filter entries must be non-negative, got %d", class)
		}
	}

	return nil
}

// GetDistThreshold returns the dist_threshold value or the default.
func (c *TuningConfig) GetDistThreshold() float64 {
	if c.DistThreshold == nil {
		return 200.0
	}
	return *c.DistThreshold
}

// GetMissThreshold returns the miss_threshold value or the default.
func (c *TuningConfig) GetMissThreshold() int {
	if c.MissThreshold == nil {
		return 3
	}
	return *c.MissThreshold
}

// GetNoMatchCost returns the no_match_cost value or the default.
func (c *TuningConfig) GetNoMatchCost() float64 {
	if c.NoMatchCost == nil {
		return 1e6
	}
	return *c.NoMatchCost
}

// GetDepthOffset returns the depth_offset value or the default.
func (c *TuningConfig) GetDepthOffset() float64 {
	if c.DepthOffset == nil {
		return 1.0
	}
	return *c.DepthOffset
}

// GetDepthMinRun returns the depth_min_run value or the default.
func (c *TuningConfig) GetDepthMinRun() int {
	if c.DepthMinRun == nil {
		return 5
	}
	return *c.DepthMinRun
}

// GetScanSamples returns the scan_samples value or the default.
func (c *TuningConfig) GetScanSamples() int {
	if c.ScanSamples == nil {
		return 1081
	}
	return *c.ScanSamples
}

// GetScanWindowStart returns the scan_window_start value or the default.
func (c *TuningConfig) GetScanWindowStart() int {
	if c.ScanWindowStart == nil {
		return 182
	}
	return *c.ScanWindowStart
}

// GetScanWindowEnd returns the scan_window_end value or the default.
func (c *TuningConfig) GetScanWindowEnd() int {
	if c.ScanWindowEnd == nil {
		return 901
	}
	return *c.ScanWindowEnd
}

// GetScanResolutionDeg returns the scan_resolution_deg value or the default.
func (c *TuningConfig) GetScanResolutionDeg() float64 {
	if c.ScanResolutionDeg == nil {
		return 0.25
	}
	return *c.ScanResolutionDeg
}

// GetScanMinRange returns the scan_min_range value or the default.
func (c *TuningConfig) GetScanMinRange() float64 {
	if c.ScanMinRange == nil {
		return 0.1
	}
	return *c.ScanMinRange
}

// GetPersonHeightM returns the person_height_m value or the default.
func (c *TuningConfig) GetPersonHeightM() float64 {
	if c.PersonHeightM == nil {
		return 1.735
	}
	return *c.PersonHeightM
}

// GetFovYDeg returns the fov_y_deg value or the default.
func (c *TuningConfig) GetFovYDeg() float64 {
	if c.FovYDeg == nil {
		return 60.0
	}
	return *c.FovYDeg
}

// GetClassFilter returns a copy of class_filter, or [0] (person) when unset.
func (c *TuningConfig) GetClassFilter() []int {
	if len(c.ClassFilter) == 0 {
		return []int{0}
	}
	out := make([]int, len(c.ClassFilter))
	copy(out, c.ClassFilter)
	return out
}

// GetFusionWorkers returns the fusion_workers value or the default.
func (c *TuningConfig) GetFusionWorkers() int {
	if c.FusionWorkers == nil {
		return 4
	}
	return *c.FusionWorkers
}
