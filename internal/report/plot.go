package report

import (
	"cmp"
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pgris/sims-maf-contrib/internal/fsutil"
	"github.com/pgris/sims-maf-contrib/internal/lightcurve"
	"github.com/pgris/sims-maf-contrib/internal/survey"
	"github.com/pgris/sims-maf-contrib/internal/tde"
)

var bandColors = map[survey.Band]color.Color{
	"u": color.RGBA{R: 86, G: 180, B: 233, A: 255},
	"g": color.RGBA{R: 0, G: 158, B: 115, A: 255},
	"r": color.RGBA{R: 240, G: 228, B: 66, A: 255},
	"i": color.RGBA{R: 230, G: 159, B: 0, A: 255},
	"z": color.RGBA{R: 213, G: 94, B: 0, A: 255},
	"y": color.RGBA{R: 204, G: 121, B: 167, A: 255},
}

func bandColor(b survey.Band) color.Color {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return color.Gray{Y: 96}
}

// PlotTrial draws the template curves and the folded visits of one trial as
// a PNG. Magnitude increases downward. Visits in detected instances are
// drawn filled, the others as open rings.
func PlotTrial(fsys fsutil.FileSystem, path, title string, tmpl *lightcurve.Template, trial tde.TrialRecord) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Phase (days)"
	p.Y.Label.Text = "Magnitude"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	for _, b := range tmpl.Bands() {
		pts, _ := tmpl.Band(b)
		slices.SortStableFunc(pts, func(x, y lightcurve.Point) int {
			return cmp.Compare(x.Phase, y.Phase)
		})
		xys := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			xys[i] = plotter.XY{X: pt.Phase, Y: pt.Mag}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("template line %s: %w", b, err)
		}
		line.Color = bandColor(b)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(string(b), line)
	}

	detected := make(plotter.XYs, 0, len(trial.Observations))
	missed := make(plotter.XYs, 0, len(trial.Observations))
	var detColors, missColors []color.Color
	for _, o := range trial.Observations {
		xy := plotter.XY{X: o.LCEpoch, Y: o.Mag}
		if o.Detected {
			detected = append(detected, xy)
			detColors = append(detColors, bandColor(o.Filter))
		} else {
			missed = append(missed, xy)
			missColors = append(missColors, bandColor(o.Filter))
		}
	}
	if err := addVisits(p, detected, detColors, draw.CircleGlyph{}, "detected"); err != nil {
		return err
	}
	if err := addVisits(p, missed, missColors, draw.RingGlyph{}, "not detected"); err != nil {
		return err
	}

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func addVisits(p *plot.Plot, xys plotter.XYs, colors []color.Color, shape draw.GlyphDrawer, label string) error {
	if len(xys) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("%s visits: %w", label, err)
	}
	sc.GlyphStyle.Shape = shape
	sc.GlyphStyle.Radius = vg.Points(3)
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		gs := sc.GlyphStyle
		gs.Color = colors[i]
		return gs
	}
	p.Add(sc)
	p.Legend.Add(label, sc)
	return nil
}
