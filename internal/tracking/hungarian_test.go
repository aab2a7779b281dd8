package tracking

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func columns(pairs []Pair) []int {
	out := make([]int, len(pairs))
	for i, p := range pairs {
		if p.Row != i {
			panic("pairs not ordered by row")
		}
		out[i] = p.Col
	}
	return out
}

func totalCost(cost [][]float64, cols []int) float64 {
	total := 0.0
	for i, j := range cols {
		total += cost[i][j]
	}
	return total
}

// bruteForceMin enumerates every permutation of a small square matrix.
func bruteForceMin(cost [][]float64) float64 {
	n := len(cost)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	best := -1.0
	var permute func(k int)
	permute = func(k int) {
		if k == n {
			if c := totalCost(cost, perm); best < 0 || c < best {
				best = c
			}
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			permute(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	permute(0)
	return best
}

func TestAssign_EmptyMatrix(t *testing.T) {
	if pairs := Assign(BuildCostMatrix(nil, nil, sentinel)); len(pairs) != 0 {
		t.Errorf("expected no pairs, got %v", pairs)
	}
}

func TestAssign_SingleElement(t *testing.T) {
	pairs := Assign(squareMatrix([][]float64{{5.0}}))
	if diff := cmp.Diff([]Pair{{Row: 0, Col: 0}}, pairs); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestAssign_SquareOptimal(t *testing.T) {
	//   [1 2 3]     Optimal: row0→col0 (1), row1→col1 (4), row2→col2 (5) = 10
	//   [4 4 6]
	//   [9 8 5]
	cost := [][]float64{
		{1, 2, 3},
		{4, 4, 6},
		{9, 8, 5},
	}
	cols := columns(Assign(squareMatrix(cost)))
	if got := totalCost(cost, cols); got != 10.0 {
		t.Errorf("expected optimal cost 10, got %v (assignments: %v)", got, cols)
	}
}

func TestAssign_AntiDiagonalOptimum(t *testing.T) {
	// Optimal: (0,3)=1, (1,2)=2, (2,1)=3, (3,0)=4 → total=10
	cost := [][]float64{
		{10, 5, 7, 1},
		{8, 9, 2, 6},
		{7, 3, 11, 5},
		{4, 12, 8, 9},
	}
	if diff := cmp.Diff([]int{3, 2, 1, 0}, columns(Assign(squareMatrix(cost)))); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
}

func TestAssign_TiesGoToLowestColumn(t *testing.T) {
	cost := [][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	}
	first := Assign(squareMatrix(cost))
	if diff := cmp.Diff([]int{0, 1, 2}, columns(first)); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Assign(squareMatrix(cost))); diff != "" {
			t.Fatalf("assignment changed between runs (-first +got):\n%s", diff)
		}
	}
}

func TestAssign_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(6)
		cost := make([][]float64, n)
		for i := range cost {
			cost[i] = make([]float64, n)
			for j := range cost[i] {
				if rng.Intn(4) == 0 {
					cost[i][j] = sentinel
				} else {
					cost[i][j] = float64(rng.Intn(500))
				}
			}
		}

		cols := columns(Assign(squareMatrix(cost)))
		seen := make(map[int]bool, n)
		for _, c := range cols {
			if seen[c] {
				t.Fatalf("trial %d: column %d assigned twice: %v", trial, c, cols)
			}
			seen[c] = true
		}
		if got, want := totalCost(cost, cols), bruteForceMin(cost); got != want {
			t.Fatalf("trial %d: cost %v, optimal %v\nmatrix=%v\nassign=%v", trial, got, want, cost, cols)
		}
	}
}

func TestAssign_CoversEveryRow(t *testing.T) {
	tracks := []Point{{100, 100}, {300, 300}}
	dets := []Point{{302, 299}, {101, 99}, {900, 900}}
	m := BuildCostMatrix(tracks, dets, sentinel)

	pairs := Assign(m)
	want := []Pair{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 2, Col: 2}}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestAssign_PaddedShapes(t *testing.T) {
	tests := []struct {
		name   string
		tracks []Point
		dets   []Point
		want   []Pair
	}{
		{
			name:   "one track, two detections",
			tracks: []Point{{0, 0}},
			dets:   []Point{{1, 0}, {50, 0}},
			want:   []Pair{{Row: 0, Col: 0}, {Row: 1, Col: 1}},
		},
		{
			name:   "two tracks, one detection",
			tracks: []Point{{0, 0}, {50, 0}},
			dets:   []Point{{49, 0}},
			want:   []Pair{{Row: 0, Col: 1}, {Row: 1, Col: 0}},
		},
		{
			name:   "three tracks, no detections",
			tracks: []Point{{0, 0}, {1, 1}, {2, 2}},
			want:   []Pair{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Assign(BuildCostMatrix(tc.tracks, tc.dets, sentinel))); diff != "" {
				t.Errorf("pairs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
