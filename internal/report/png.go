package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WritePNG draws each trajectory as a polyline with point markers. The Y
// axis is flipped so the plot matches image orientation.
func (t *Trajectories) WritePNG(path string, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px, down)"
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())

	for i, id := range t.TrackIDs() {
		samples := t.Samples(id)
		pts := make(plotter.XYs, len(samples))
		for j, s := range samples {
			pts[j] = plotter.XY{X: s.Center.X, Y: -s.Center.Y}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("track %d: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)

		marks, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("track %d: %w", id, err)
		}
		marks.GlyphStyle.Color = plotutil.Color(i)
		marks.GlyphStyle.Shape = plotutil.Shape(i)

		p.Add(line, marks)
		p.Legend.Add(trackLabel(id), line, marks)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}
