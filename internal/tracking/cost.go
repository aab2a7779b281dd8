package tracking

// CostMatrix is the square track × detection distance matrix fed to the
// assignment solver. Rows are tracks and columns are detections; when one
// side is shorter its padded rows or columns hold the no-match sentinel.
type CostMatrix struct {
	size       int
	tracks     int
	detections int
	noMatch    float64
	data       []float64 // row-major, size×size
}

// BuildCostMatrix computes pairwise center distances between tracks and
// detections. The result has size max(len(tracks), len(detections)); every
// entry touching a padded index is noMatch.
func BuildCostMatrix(tracks, detections []Point, noMatch float64) *CostMatrix {
	n := len(tracks)
	if len(detections) > n {
		n = len(detections)
	}

	m := &CostMatrix{
		size:       n,
		tracks:     len(tracks),
		detections: len(detections),
		noMatch:    noMatch,
		data:       make([]float64, n*n),
	}
	for i := range m.data {
		m.data[i] = noMatch
	}
	for r, tc := range tracks {
		for c, dc := range detections {
			m.data[r*n+c] = tc.DistanceTo(dc)
		}
	}
	return m
}

// Size returns the matrix dimension.
func (m *CostMatrix) Size() int { return m.size }

// Tracks returns the number of real (unpadded) rows.
func (m *CostMatrix) Tracks() int { return m.tracks }

// Detections returns the number of real (unpadded) columns.
func (m *CostMatrix) Detections() int { return m.detections }

// NoMatch returns the sentinel cost.
func (m *CostMatrix) NoMatch() float64 { return m.noMatch }

// At returns entry (r, c).
func (m *CostMatrix) At(r, c int) float64 {
	return m.data[r*m.size+c]
}

// IsNoMatch reports whether entry (r, c) carries the sentinel rather than a
// real distance.
func (m *CostMatrix) IsNoMatch(r, c int) bool {
	return r >= m.tracks || c >= m.detections || m.At(r, c) >= m.noMatch
}
