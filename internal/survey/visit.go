// Package survey holds the observation-side data model: visits, filter
// bands, sky locations and the readers that turn survey tables into them.
package survey

import (
	"slices"
)

// Band is a single-character photometric filter code (u, g, r, i, z, y).
type Band string

// DefaultBands lists the survey filters in wavelength order.
var DefaultBands = []Band{"u", "g", "r", "i", "z", "y"}

// Visit is one observation of a sky location.
type Visit struct {
	MJD            float64 // observation start, days
	FiveSigmaDepth float64 // limiting magnitude
	Filter         Band
}

// Location is a sky position together with every visit that covers it.
type Location struct {
	ID     string
	RA     float64 // degrees
	Dec    float64 // degrees
	Visits []Visit
}

// SortByMJD returns a copy of visits ordered by MJD. Visits with equal MJD
// keep their input order. The input slice is not modified.
func SortByMJD(visits []Visit) []Visit {
	out := slices.Clone(visits)
	slices.SortStableFunc(out, func(a, b Visit) int {
		switch {
		case a.MJD < b.MJD:
			return -1
		case a.MJD > b.MJD:
			return 1
		}
		return 0
	})
	return out
}

// Bands returns the distinct filters present in visits, in first-seen order.
func Bands(visits []Visit) []Band {
	seen := make(map[Band]bool)
	var out []Band
	for _, v := range visits {
		if !seen[v.Filter] {
			seen[v.Filter] = true
			out = append(out, v.Filter)
		}
	}
	return out
}
