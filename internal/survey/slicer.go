package survey

import (
	"fmt"
	"math"
	"sort"
)

// Slicer groups pointed visits into sky locations.
type Slicer interface {
	Slice(visits []PointedVisit) []Location
}

// FieldSlicer treats every distinct field pointing as one location. Pointings
// are matched after rounding RA and Dec to PrecisionDeg; a zero precision
// matches exact coordinates only.
type FieldSlicer struct {
	PrecisionDeg float64
}

type fieldKey struct {
	ra, dec float64
}

// Slice returns one Location per field, ordered by Dec then RA so that the
// output is deterministic.
func (s FieldSlicer) Slice(visits []PointedVisit) []Location {
	groups := make(map[fieldKey]*Location)
	for _, pv := range visits {
		k := fieldKey{ra: s.round(pv.RA), dec: s.round(pv.Dec)}
		loc, ok := groups[k]
		if !ok {
			loc = &Location{RA: k.ra, Dec: k.dec}
			groups[k] = loc
		}
		loc.Visits = append(loc.Visits, pv.Visit)
	}

	out := make([]Location, 0, len(groups))
	for _, loc := range groups {
		out = append(out, *loc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dec != out[j].Dec {
			return out[i].Dec < out[j].Dec
		}
		return out[i].RA < out[j].RA
	})
	for i := range out {
		out[i].ID = fmt.Sprintf("field-%04d", i)
	}
	return out
}

func (s FieldSlicer) round(v float64) float64 {
	if s.PrecisionDeg <= 0 {
		return v
	}
	return math.Round(v/s.PrecisionDeg) * s.PrecisionDeg
}
