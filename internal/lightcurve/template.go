package lightcurve

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/pgris/sims-maf-contrib/internal/fsutil"
	"github.com/pgris/sims-maf-contrib/internal/survey"
)

// Point is one template sample: magnitude in a band at a phase (days).
type Point struct {
	Phase float64
	Mag   float64
	Band  survey.Band
}

// Template is a per-band lightcurve shape.
type Template struct {
	points   []Point
	byBand   map[survey.Band][]Point
	bands    []survey.Band
	minPhase float64
	maxPhase float64
}

// NewTemplate builds a Template from sample points. Row order is preserved
// within each band.
func NewTemplate(points []Point) (*Template, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTemplate
	}

	phases := make([]float64, len(points))
	t := &Template{
		points: slices.Clone(points),
		byBand: make(map[survey.Band][]Point),
	}
	for i, p := range points {
		phases[i] = p.Phase
		if _, ok := t.byBand[p.Band]; !ok {
			t.bands = append(t.bands, p.Band)
		}
		t.byBand[p.Band] = append(t.byBand[p.Band], p)
	}
	t.minPhase = floats.Min(phases)
	t.maxPhase = floats.Max(phases)
	return t, nil
}

// Duration is max(phase) - min(phase) in days.
func (t *Template) Duration() float64 { return t.maxPhase - t.minPhase }

// PhaseRange returns the smallest and largest template phases.
func (t *Template) PhaseRange() (float64, float64) { return t.minPhase, t.maxPhase }

// Bands lists the template's bands in first-seen order.
func (t *Template) Bands() []survey.Band { return slices.Clone(t.bands) }

// HasBand reports whether b has a partition.
func (t *Template) HasBand(b survey.Band) bool {
	_, ok := t.byBand[b]
	return ok
}

// Band returns a copy of the sample points for b.
func (t *Template) Band(b survey.Band) ([]Point, bool) {
	pts, ok := t.byBand[b]
	return slices.Clone(pts), ok
}

// Points returns a copy of every sample point in file order.
func (t *Template) Points() []Point { return slices.Clone(t.points) }

// ParseTemplate reads whitespace-delimited rows of phase, magnitude and a
// single-character filter code. Blank lines and lines starting with '#' are
// skipped.
func ParseTemplate(r io.Reader) (*Template, error) {
	var points []Point
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := parseRow(text)
		if err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: err}
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lightcurve template: %w", err)
	}
	return NewTemplate(points)
}

func parseRow(text string) (Point, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return Point{}, fmt.Errorf("want 3 columns, got %d", len(fields))
	}
	phase, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("phase: %w", err)
	}
	mag, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("magnitude: %w", err)
	}
	if math.IsNaN(phase) || math.IsInf(phase, 0) {
		return Point{}, fmt.Errorf("phase %q is not finite", fields[0])
	}
	if math.IsNaN(mag) || math.IsInf(mag, 0) {
		return Point{}, fmt.Errorf("magnitude %q is not finite", fields[1])
	}
	if len(fields[2]) != 1 {
		return Point{}, fmt.Errorf("filter code %q is not a single character", fields[2])
	}
	return Point{Phase: phase, Mag: mag, Band: survey.Band(fields[2])}, nil
}

// LoadTemplate reads and parses the template file at path.
func LoadTemplate(fsys fsutil.FileSystem, path string) (*Template, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrTemplateNotFound, err)
		}
		return nil, fmt.Errorf("open lightcurve template: %w", err)
	}
	defer f.Close()

	t, err := ParseTemplate(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
