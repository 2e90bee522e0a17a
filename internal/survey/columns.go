package survey

import (
	"fmt"
	"regexp"
)

// Default observation-table column names, matching the OpSim schema.
const (
	DefaultMJDColumn    = "observationStartMJD"
	DefaultM5Column     = "fiveSigmaDepth"
	DefaultFilterColumn = "filter"
	DefaultRAColumn     = "fieldRA"
	DefaultDecColumn    = "fieldDec"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Columns names the observation-table fields the metric reads.
type Columns struct {
	MJD    string `json:"mjd" yaml:"mjd"`
	M5     string `json:"m5" yaml:"m5"`
	Filter string `json:"filter" yaml:"filter"`
	RA     string `json:"ra" yaml:"ra"`
	Dec    string `json:"dec" yaml:"dec"`
}

// DefaultColumns returns the OpSim column names.
func DefaultColumns() Columns {
	return Columns{
		MJD:    DefaultMJDColumn,
		M5:     DefaultM5Column,
		Filter: DefaultFilterColumn,
		RA:     DefaultRAColumn,
		Dec:    DefaultDecColumn,
	}
}

// WithDefaults fills empty names with the OpSim defaults.
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	if c.MJD == "" {
		c.MJD = d.MJD
	}
	if c.M5 == "" {
		c.M5 = d.M5
	}
	if c.Filter == "" {
		c.Filter = d.Filter
	}
	if c.RA == "" {
		c.RA = d.RA
	}
	if c.Dec == "" {
		c.Dec = d.Dec
	}
	return c
}

// Validate checks that every column name is a plain identifier. The names are
// interpolated into SQL by the OpSim reader, so anything else is rejected.
func (c Columns) Validate() error {
	for field, name := range map[string]string{
		"mjd": c.MJD, "m5": c.M5, "filter": c.Filter, "ra": c.RA, "dec": c.Dec,
	} {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("column %s: invalid identifier %q", field, name)
		}
	}
	return nil
}

// ValidIdentifier reports whether name is safe to use as a SQL identifier.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
