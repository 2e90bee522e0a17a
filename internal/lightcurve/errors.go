package lightcurve

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound is returned when the template file does not exist.
	ErrTemplateNotFound = errors.New("lightcurve template not found")

	// ErrEmptyTemplate is returned when a template has no sample points.
	ErrEmptyTemplate = errors.New("lightcurve template has no rows")

	// ErrZeroDuration is returned when every template row has the same phase.
	ErrZeroDuration = errors.New("lightcurve template spans zero days")

	// ErrUnknownBand is returned when a band has no template partition.
	ErrUnknownBand = errors.New("no lightcurve template for band")
)

// ParseError describes a malformed template row.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lightcurve template line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
