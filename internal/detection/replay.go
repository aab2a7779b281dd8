package detection

import (
	"fmt"
	"sync"

	"github.com/socialnavi/pedtrack/internal/fusion"
	"github.com/socialnavi/pedtrack/internal/monitoring"
)

// FrameInfo is what the pipeline needs to drive one replayed frame.
type FrameInfo struct {
	Name        string
	ImageWidth  int
	ImageHeight int
	Scan        fusion.RangeScan
}

// ReplayDetector plays back recorded detector output from a directory of
// FrameRecord JSON files, one per frame.
type ReplayDetector struct {
	dir string

	mu      sync.Mutex
	open    bool
	order   []string
	frames  map[string]*FrameRecord
	classes classSet
	current string
}

// NewReplayDetector creates a detector over dir that reports only the
// given classes.
func NewReplayDetector(dir string, classes []int) *ReplayDetector {
	return &ReplayDetector{dir: dir, classes: newClassSet(classes)}
}

// Open loads every frame file in the directory.
func (r *ReplayDetector) Open() error {
	paths, err := ListFrames(r.dir)
	if err != nil {
		return err
	}

	frames := make(map[string]*FrameRecord, len(paths))
	order := make([]string, 0, len(paths))
	for _, p := range paths {
		rec, err := LoadFrame(p)
		if err != nil {
			return err
		}
		if _, dup := frames[rec.Name]; dup {
			return fmt.Errorf("duplicate frame name %q in %s", rec.Name, r.dir)
		}
		frames[rec.Name] = rec
		order = append(order, rec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = frames
	r.order = order
	r.open = true
	monitoring.Logf("[detector] replaying %d frames from %s", len(order), r.dir)
	return nil
}

// Close releases the loaded frames.
func (r *ReplayDetector) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.frames = nil
	r.order = nil
	r.current = ""
	return nil
}

// Frames returns the loaded frames in file-name order.
func (r *ReplayDetector) Frames() []FrameInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FrameInfo, 0, len(r.order))
	for _, name := range r.order {
		rec := r.frames[name]
		out = append(out, FrameInfo{
			Name:        rec.Name,
			ImageWidth:  rec.ImageWidth,
			ImageHeight: rec.ImageHeight,
			Scan:        rec.RangeScan(),
		})
	}
	return out
}

// Control applies a command. Range scans are accepted and ignored: the
// recorded output has no use for them, DepthDetector consumes them instead.
func (r *ReplayDetector) Control(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return ErrNotOpen
	}

	switch c := cmd.(type) {
	case ImageCommand:
		if _, ok := r.frames[c.Name]; !ok {
			return fmt.Errorf("no recorded frame named %q", c.Name)
		}
		r.current = c.Name
	case ClassFilterCommand:
		r.classes = newClassSet(c.Classes)
	case RangeScanCommand:
	default:
		return fmt.Errorf("%w: command %T", ErrNotSupported, cmd)
	}
	return nil
}

// Read returns the recorded detections for the selected frame, filtered by
// class. Reading with no frame selected yields no detections.
func (r *ReplayDetector) Read() ([]Detection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return nil, ErrNotOpen
	}
	if r.current == "" {
		return nil, nil
	}

	rec := r.frames[r.current]
	out := make([]Detection, 0, len(rec.Detections))
	for _, raw := range rec.Detections {
		if !r.classes.allows(raw.Class) {
			continue
		}
		out = append(out, raw.Detection())
	}
	return out, nil
}

// Write is not supported for recorded output.
func (r *ReplayDetector) Write() error {
	return ErrNotSupported
}

// Reset clears the selected frame.
func (r *ReplayDetector) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = ""
}
