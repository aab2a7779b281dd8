package tracking

import "math"

// Pair is one row → column decision from the assignment solver.
type Pair struct {
	Row int
	Col int
}

// Assign returns the minimum-total-cost one-to-one assignment for m, one
// pair per row ordered by row. The matrix is square, so padded rows and
// columns are assigned too; callers use CostMatrix.IsNoMatch to tell real
// pairings apart. Costs must be finite.
//
// The solver is the shortest augmenting path form of Kuhn–Munkres: rows are
// inserted one at a time and row/column potentials keep every reduced cost
// non-negative, giving O(n³) overall. Columns are scanned in index order and
// a new minimum must be strictly smaller, so ties go to the lowest column.
func Assign(m *CostMatrix) []Pair {
	n := m.Size()
	if n == 0 {
		return nil
	}

	s := newSolver(m)
	for row := 0; row < n; row++ {
		s.insert(row)
	}

	pairs := make([]Pair, n)
	for col := 0; col < n; col++ {
		row := s.owner[col]
		pairs[row] = Pair{Row: row, Col: col}
	}
	return pairs
}

// solver holds the working state for one Assign call. Column n is a virtual
// root that anchors the augmenting path of the row being inserted.
type solver struct {
	m   *CostMatrix
	n   int
	row []float64 // Row potentials
	col []float64 // Column potentials, n+1 slots

	owner []int // Row matched to each column, -1 when free

	// Per-insert scratch.
	slack []float64 // Smallest reduced cost seen into each column
	via   []int     // Column preceding each column on the shortest path
	seen  []bool    // Column already on the alternating tree
}

func newSolver(m *CostMatrix) *solver {
	n := m.Size()
	s := &solver{
		m:     m,
		n:     n,
		row:   make([]float64, n),
		col:   make([]float64, n+1),
		owner: make([]int, n+1),
		slack: make([]float64, n+1),
		via:   make([]int, n+1),
		seen:  make([]bool, n+1),
	}
	for j := range s.owner {
		s.owner[j] = -1
	}
	return s
}

// insert grows an alternating tree from row until it reaches a free column,
// then flips the path so row becomes matched.
func (s *solver) insert(row int) {
	root := s.n
	s.owner[root] = row
	for j := 0; j <= s.n; j++ {
		s.slack[j] = math.Inf(1)
		s.seen[j] = false
	}

	cur := root
	for {
		s.seen[cur] = true
		r := s.owner[cur]
		base := r * s.n

		next, delta := -1, math.Inf(1)
		for j := 0; j < s.n; j++ {
			if s.seen[j] {
				continue
			}
			reduced := s.m.data[base+j] - s.row[r] - s.col[j]
			if reduced < s.slack[j] {
				s.slack[j] = reduced
				s.via[j] = cur
			}
			if s.slack[j] < delta {
				next, delta = j, s.slack[j]
			}
		}

		// Tighten: tree columns absorb delta, the rest lose it from slack.
		for j := 0; j <= s.n; j++ {
			if s.seen[j] {
				s.row[s.owner[j]] += delta
				s.col[j] -= delta
			} else {
				s.slack[j] -= delta
			}
		}

		cur = next
		if s.owner[cur] < 0 {
			break
		}
	}

	for cur != root {
		prev := s.via[cur]
		s.owner[cur] = s.owner[prev]
		cur = prev
	}
}
