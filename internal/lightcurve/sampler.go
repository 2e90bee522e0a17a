package lightcurve

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/interp"

	"github.com/pgris/sims-maf-contrib/internal/survey"
)

// predictor is satisfied by gonum's interp.PiecewiseLinear.
type predictor interface {
	Predict(x float64) float64
}

// constant stands in for a band sampled at a single phase.
type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// Sampler interpolates template magnitudes per band. Epochs outside a band's
// phase range take the nearest end value.
type Sampler struct {
	curves map[survey.Band]predictor
}

// NewSampler fits one piecewise-linear curve per template band. Points are
// ordered by phase before fitting. When a band repeats a phase, the last row
// in file order gives the magnitude at that phase.
func NewSampler(t *Template) (*Sampler, error) {
	s := &Sampler{curves: make(map[survey.Band]predictor, len(t.bands))}
	for _, b := range t.bands {
		pts := slices.Clone(t.byBand[b])
		slices.SortStableFunc(pts, func(p, q Point) int {
			switch {
			case p.Phase < q.Phase:
				return -1
			case p.Phase > q.Phase:
				return 1
			}
			return 0
		})

		pts = lastPerPhase(pts)
		if len(pts) == 1 {
			s.curves[b] = constant(pts[0].Mag)
			continue
		}

		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i] = p.Phase
			ys[i] = p.Mag
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("band %s: %w", b, err)
		}
		s.curves[b] = &pl
	}
	return s, nil
}

// lastPerPhase collapses runs of equal phase in phase-sorted pts to their
// final point, leaving phases strictly increasing.
func lastPerPhase(pts []Point) []Point {
	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Phase == p.Phase {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// Magnitude returns the template magnitude in band at epoch.
func (s *Sampler) Magnitude(epoch float64, band survey.Band) (float64, error) {
	c, ok := s.curves[band]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownBand, band)
	}
	return c.Predict(epoch), nil
}

// Sample returns the magnitude for each (epoch, band) pair.
func (s *Sampler) Sample(epochs []float64, bands []survey.Band) ([]float64, error) {
	if len(epochs) != len(bands) {
		return nil, fmt.Errorf("sample: %d epochs but %d bands", len(epochs), len(bands))
	}
	mags := make([]float64, len(epochs))
	for i := range epochs {
		m, err := s.Magnitude(epochs[i], bands[i])
		if err != nil {
			return nil, err
		}
		mags[i] = m
	}
	return mags, nil
}
