package report

import (
	"bytes"
	"fmt"
	"image/color"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot/plotutil"
)

// WriteHTML renders every trajectory as its own scatter series in image
// coordinates. Each point carries its frame number for the tooltip.
func (t *Trajectories) WriteHTML(path string, title string) error {
	ids := t.TrackIDs()

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("frames=%d tracks=%d", t.Frames(), len(ids))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y (px)", NameLocation: "middle", NameGap: 35, Inverse: opts.Bool(true)}),
	)

	for i, id := range ids {
		samples := t.Samples(id)
		data := make([]opts.ScatterData, 0, len(samples))
		for _, s := range samples {
			data = append(data, opts.ScatterData{Value: []interface{}{s.Center.X, s.Center.Y, s.Frame}})
		}
		scatter.AddSeries(trackLabel(id), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(plotutil.Color(i))}),
		)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render trajectories: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func trackLabel(id int) string {
	return fmt.Sprintf("P.%02d", id)
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
