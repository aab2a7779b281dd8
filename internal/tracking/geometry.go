package tracking

import "gonum.org/v1/gonum/floats"

// Point is a 2D image position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return floats.Distance([]float64{p.X, p.Y}, []float64{q.X, q.Y}, 2)
}

// BBox is an axis-aligned bounding box in pixel coordinates.
type BBox struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Center returns the midpoint of the box.
func (b BBox) Center() Point {
	return Point{X: (b.XMin + b.XMax) / 2, Y: (b.YMin + b.YMax) / 2}
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b.XMax - b.XMin }

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b.YMax - b.YMin }

// BoxAround returns a box of the given size centred on c.
func BoxAround(c Point, w, h float64) BBox {
	return BBox{XMin: c.X - w/2, YMin: c.Y - h/2, XMax: c.X + w/2, YMax: c.Y + h/2}
}
