package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/socialnavi/pedtrack/internal/fusion"
	"github.com/socialnavi/pedtrack/internal/tracking"
)

// FrameRecord is the on-disk form of one frame of recorded detector output.
// Scan samples are nullable because JSON has no infinity; null means the
// sensor saw no return.
type FrameRecord struct {
	Name        string         `json:"name"`
	ImageWidth  int            `json:"image_width"`
	ImageHeight int            `json:"image_height"`
	Detections  []RawDetection `json:"detections"`
	Scan        []*float64     `json:"scan,omitempty"`
}

// RawDetection is one detector output row.
type RawDetection struct {
	Class      int     `json:"class"`
	Confidence float64 `json:"confidence"`
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
}

// Detection converts the row into a Detection without depth.
func (r RawDetection) Detection() Detection {
	return Detection{
		Class:      r.Class,
		Confidence: r.Confidence,
		Box:        tracking.BBox{XMin: r.XMin, YMin: r.YMin, XMax: r.XMax, YMax: r.YMax},
	}
}

// RangeScan returns the record's scan with nulls mapped to +Inf, or nil
// when the frame has no scan.
func (f *FrameRecord) RangeScan() fusion.RangeScan {
	if len(f.Scan) == 0 {
		return nil
	}
	scan := make(fusion.RangeScan, len(f.Scan))
	for i, v := range f.Scan {
		if v == nil {
			scan[i] = math.Inf(1)
			continue
		}
		scan[i] = *v
	}
	return scan
}

// Validate checks the record's detections and image size.
func (f *FrameRecord) Validate() error {
	if f.ImageHeight <= 0 {
		return fmt.Errorf("frame %q: image_height must be positive, got %d", f.Name, f.ImageHeight)
	}
	for i, d := range f.Detections {
		if d.Confidence < 0 || d.Confidence > 1 {
			return fmt.Errorf("frame %q detection %d: confidence %f out of [0,1]", f.Name, i, d.Confidence)
		}
		if d.XMax < d.XMin || d.YMax < d.YMin {
			return fmt.Errorf("frame %q detection %d: inverted box", f.Name, i)
		}
	}
	return nil
}

// LoadFrame reads and validates a single frame file. When the file omits a
// name the file's base name (without extension) is used.
func LoadFrame(path string) (*FrameRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	var rec FrameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse frame %s: %w", path, err)
	}
	if rec.Name == "" {
		rec.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListFrames returns the frame files in dir sorted by name, mirroring a
// sorted image directory listing.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
