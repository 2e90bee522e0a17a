package survey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PointedVisit is a visit tagged with the field pointing it was taken at.
type PointedVisit struct {
	Visit
	RA  float64
	Dec float64
}

// ReadVisitsCSV reads a header-addressed CSV observation table. The MJD, m5
// and filter columns are required; RA and Dec are optional and default to 0.
func ReadVisitsCSV(r io.Reader, cols Columns) ([]PointedVisit, error) {
	cols = cols.WithDefaults()
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("observation table is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	required := []string{cols.MJD, cols.M5, cols.Filter}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("observation table missing column %q", name)
		}
	}
	raIdx, hasRA := index[cols.RA]
	decIdx, hasDec := index[cols.Dec]

	var out []PointedVisit
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var pv PointedVisit
		if pv.MJD, err = parseField(rec, index[cols.MJD]); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, cols.MJD, err)
		}
		if pv.FiveSigmaDepth, err = parseField(rec, index[cols.M5]); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, cols.M5, err)
		}
		pv.Filter = Band(strings.TrimSpace(rec[index[cols.Filter]]))
		if pv.Filter == "" {
			return nil, fmt.Errorf("line %d: empty filter", line)
		}
		if hasRA {
			if pv.RA, err = parseField(rec, raIdx); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, cols.RA, err)
			}
		}
		if hasDec {
			if pv.Dec, err = parseField(rec, decIdx); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, cols.Dec, err)
			}
		}
		out = append(out, pv)
	}
	return out, nil
}

func parseField(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
}
