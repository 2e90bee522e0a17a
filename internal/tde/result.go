package tde

import "github.com/pgris/sims-maf-contrib/internal/survey"

// Kind discriminates the two Result shapes.
type Kind int

const (
	KindFraction Kind = iota
	KindDiagnostics
)

// Result is the outcome of evaluating one sky location.
//
// Fraction, NDetected and NTransMax are always set. Trials is populated only
// when Kind is KindDiagnostics.
type Result struct {
	Kind      Kind
	Fraction  float64
	NDetected int
	NTransMax int
	Trials    []TrialRecord
}

// TrialRecord holds the per-visit diagnostics of one phase shift, in MJD order.
type TrialRecord struct {
	TShift       float64                 `json:"tshift"`
	Observations []ObservationDiagnostic `json:"observations"`
}

// ObservationDiagnostic describes one visit folded onto the template.
type ObservationDiagnostic struct {
	TShift      float64     `json:"tshift"`
	MJD         float64     `json:"timeMJD"`
	M5          float64     `json:"m5"`
	Filter      survey.Band `json:"filters"`
	LCNumber    int         `json:"lcNumber"`
	LCEpoch     float64     `json:"lcEpoch"`
	PrePeak     bool        `json:"prePeakCheck"`
	NearPeak    bool        `json:"nearPeakCheck"`
	PostPeak    bool        `json:"postPeakCheck"`
	Mag         float64     `json:"lcMags"`
	SNR         float64     `json:"lcSNR"`
	MagErr      float64     `json:"lcMagsStd"`
	AboveThresh bool        `json:"lcAboveThresh"`
	Detected    bool        `json:"detected"`
}
