package tde

import (
	"errors"
	"fmt"
	"maps"

	"github.com/pgris/sims-maf-contrib/internal/photometry"
	"github.com/pgris/sims-maf-contrib/internal/survey"
)

// ErrMissingThreshold is returned when a per-band threshold map lacks a band
// that appears in the template.
var ErrMissingThreshold = errors.New("missing per-band threshold")

// Output selects the shape of a Result.
type Output int

const (
	// OutputFraction returns only the detected fraction and its counts.
	OutputFraction Output = iota
	// OutputDiagnostics additionally returns one TrialRecord per phase shift.
	OutputDiagnostics
)

func (o Output) String() string {
	switch o {
	case OutputFraction:
		return "fraction"
	case OutputDiagnostics:
		return "diagnostics"
	}
	return fmt.Sprintf("Output(%d)", int(o))
}

// Config holds the detection thresholds and lightcurve anchors.
type Config struct {
	// DetectSNR is the per-band SNR a visit must reach to count.
	DetectSNR map[survey.Band]float64

	// EpochStart is the template phase that the first visit folds onto.
	EpochStart float64
	// PeakEpoch is the template phase of maximum light.
	PeakEpoch float64
	// NearPeakT is the width of the window centred on PeakEpoch, days.
	NearPeakT float64
	// PostPeakT is the width of the window following the near-peak window.
	PostPeakT float64
	// NPhaseCheck is the number of phase shifts evaluated.
	NPhaseCheck int

	NObsTotal        map[survey.Band]int
	NObsPrePeak      int
	NObsNearPeak     map[survey.Band]int
	NFiltersNearPeak int
	NObsPostPeak     int
	NFiltersPostPeak int

	Output Output

	// SNR converts magnitude and limiting depth to SNR. Nil means
	// photometry.M5ToSNR.
	SNR photometry.SNRFunc
}

// DefaultConfig returns SNR 5 in every survey band, zero count thresholds,
// a -20 day start epoch, peak at 0, a 5 day near-peak window, a 10 day
// post-peak window and a single phase check.
func DefaultConfig() Config {
	cfg := Config{
		DetectSNR:    make(map[survey.Band]float64),
		EpochStart:   -20,
		PeakEpoch:    0,
		NearPeakT:    5,
		PostPeakT:    10,
		NPhaseCheck:  1,
		NObsTotal:    make(map[survey.Band]int),
		NObsNearPeak: make(map[survey.Band]int),
		Output:       OutputFraction,
	}
	for _, b := range survey.DefaultBands {
		cfg.DetectSNR[b] = 5
		cfg.NObsTotal[b] = 0
		cfg.NObsNearPeak[b] = 0
	}
	return cfg
}

// Validate checks scalar ranges and that every band in bands has an entry in
// each per-band threshold map.
func (c Config) Validate(bands []survey.Band) error {
	if c.NPhaseCheck < 1 {
		return fmt.Errorf("n_phase_check must be at least 1, got %d", c.NPhaseCheck)
	}
	if c.NearPeakT < 0 {
		return fmt.Errorf("near_peak_t must be non-negative, got %g", c.NearPeakT)
	}
	if c.PostPeakT < 0 {
		return fmt.Errorf("post_peak_t must be non-negative, got %g", c.PostPeakT)
	}
	for name, v := range map[string]int{
		"n_obs_pre_peak":      c.NObsPrePeak,
		"n_filters_near_peak": c.NFiltersNearPeak,
		"n_obs_post_peak":     c.NObsPostPeak,
		"n_filters_post_peak": c.NFiltersPostPeak,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}
	if c.Output != OutputFraction && c.Output != OutputDiagnostics {
		return fmt.Errorf("unknown output mode %d", int(c.Output))
	}

	for _, b := range bands {
		if _, ok := c.DetectSNR[b]; !ok {
			return fmt.Errorf("detect_snr band %q: %w", b, ErrMissingThreshold)
		}
		n, ok := c.NObsTotal[b]
		if !ok {
			return fmt.Errorf("n_obs_total band %q: %w", b, ErrMissingThreshold)
		}
		if n < 0 {
			return fmt.Errorf("n_obs_total band %q must be non-negative, got %d", b, n)
		}
		n, ok = c.NObsNearPeak[b]
		if !ok {
			return fmt.Errorf("n_obs_near_peak band %q: %w", b, ErrMissingThreshold)
		}
		if n < 0 {
			return fmt.Errorf("n_obs_near_peak band %q must be non-negative, got %d", b, n)
		}
	}
	return nil
}

func (c Config) clone() Config {
	c.DetectSNR = maps.Clone(c.DetectSNR)
	c.NObsTotal = maps.Clone(c.NObsTotal)
	c.NObsNearPeak = maps.Clone(c.NObsNearPeak)
	return c
}
