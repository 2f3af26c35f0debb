package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	figureWidth  = 10 * vg.Inch
	figureHeight = 3 * vg.Inch
)

// SavePNG writes one PNG per panel into dir, named <prefix>_<n>.png, and
// returns the file paths.
func SavePNG(dir, prefix string, panels []Panel) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(panels))
	for i, panel := range panels {
		p, err := newPlot(panel)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.png", prefix, i+1))
		if err := p.Save(figureWidth, figureHeight, path); err != nil {
			return paths, fmt.Errorf("save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newPlot(panel Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = panel.Label
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, s := range panel.Series {
		line, err := plotter.NewLine(xys(panel.Times, s.Values))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.ToLower(s.Name), err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		if len(panel.Series) > 1 {
			p.Legend.Add(s.Name, line)
		}
	}

	if len(panel.Series) == 1 && len(panel.Series[0].Values) > 0 {
		lo, hi := paddedRange(panel.Series[0].Values)
		p.Y.Min, p.Y.Max = lo, hi
	}
	if n := len(panel.Times); n > 0 {
		p.X.Min, p.X.Max = panel.Times[0], panel.Times[n-1]
	}
	return p, nil
}

// paddedRange widens [min, max] by 5% on each side; a flat series gets a
// unit band so the axis does not collapse.
func paddedRange(v []float64) (float64, float64) {
	lo, hi := floats.Min(v), floats.Max(v)
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	pad := 0.05 * (hi - lo)
	return lo - pad, hi + pad
}

func xys(times, values []float64) plotter.XYs {
	n := min(len(times), len(values))
	pts := make(plotter.XYs, n)
	for k := 0; k < n; k++ {
		pts[k].X = times[k]
		pts[k].Y = values[k]
	}
	return pts
}
