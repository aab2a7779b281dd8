package detection

import (
	"errors"
	"sync"

	"github.com/socialnavi/pedtrack/internal/fusion"
	"github.com/socialnavi/pedtrack/internal/monitoring"
	"golang.org/x/sync/errgroup"
)

// DepthDetector wraps another Detector and attaches a fused depth estimate
// to every detection it reads. Image and range-scan commands are captured on
// the way through; everything else is forwarded unchanged.
type DepthDetector struct {
	inner   Detector
	fuser   *fusion.Fuser
	workers int

	mu          sync.Mutex
	imageHeight int
	candidates  []float64
}

// NewDepthDetector decorates inner. workers bounds the number of detections
// fused concurrently; values below 1 mean one.
func NewDepthDetector(inner Detector, fuser *fusion.Fuser, workers int) *DepthDetector {
	if workers < 1 {
		workers = 1
	}
	return &DepthDetector{inner: inner, fuser: fuser, workers: workers}
}

func (d *DepthDetector) Open() error  { return d.inner.Open() }
func (d *DepthDetector) Close() error { return d.inner.Close() }
func (d *DepthDetector) Write() error { return d.inner.Write() }

// Control records the image height and projected scan, then forwards the
// command. Range scans stop here unless the inner detector also wants them.
func (d *DepthDetector) Control(cmd Command) error {
	switch c := cmd.(type) {
	case ImageCommand:
		d.mu.Lock()
		d.imageHeight = c.Height
		d.mu.Unlock()
	case RangeScanCommand:
		candidates := d.fuser.Candidates(c.Scan)
		d.mu.Lock()
		d.candidates = candidates
		d.mu.Unlock()
	}
	return d.inner.Control(cmd)
}

// Read reads the inner detector and estimates depth for each detection in
// parallel. Detections whose monocular depth is undefined are returned
// without depth rather than dropped.
func (d *DepthDetector) Read() ([]Detection, error) {
	dets, err := d.inner.Read()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	imageHeight, candidates := d.imageHeight, d.candidates
	d.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i := range dets {
		det := &dets[i]
		g.Go(func() error {
			est, err := d.fuser.Estimate(det.Box.Height(), imageHeight, candidates)
			if errors.Is(err, fusion.ErrUndefinedMonocularDepth) {
				monitoring.Logf("[fusion] detection %d: %v; tracking by position only", i, err)
				det.HasDepth = false
				det.DepthSource = fusion.SourceNone
				return nil
			}
			if err != nil {
				return err
			}
			det.Depth = est.Depth
			det.Monocular = est.Monocular
			det.HasDepth = true
			det.DepthSource = est.Source
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dets, nil
}

// Reset clears per-frame inputs here and in the inner detector.
func (d *DepthDetector) Reset() {
	d.mu.Lock()
	d.imageHeight = 0
	d.candidates = nil
	d.mu.Unlock()
	d.inner.Reset()
}
