package tde

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pgris/sims-maf-contrib/internal/lightcurve"
	"github.com/pgris/sims-maf-contrib/internal/photometry"
	"github.com/pgris/sims-maf-contrib/internal/survey"
)

// Evaluator computes TDE detectability for one location at a time.
type Evaluator struct {
	tmpl     *lightcurve.Template
	sampler  *lightcurve.Sampler
	cfg      Config
	duration float64
	tshifts  []float64
	win      windows
	snr      photometry.SNRFunc
}

// NewEvaluator prepares the template and validates cfg against its bands.
func NewEvaluator(tmpl *lightcurve.Template, cfg Config) (*Evaluator, error) {
	if tmpl == nil {
		return nil, lightcurve.ErrEmptyTemplate
	}
	duration := tmpl.Duration()
	if duration <= 0 {
		return nil, lightcurve.ErrZeroDuration
	}
	if err := cfg.Validate(tmpl.Bands()); err != nil {
		return nil, fmt.Errorf("invalid metric config: %w", err)
	}
	sampler, err := lightcurve.NewSampler(tmpl)
	if err != nil {
		return nil, err
	}

	cfg = cfg.clone()
	snr := cfg.SNR
	if snr == nil {
		snr = photometry.M5ToSNR
	}

	tshifts := make([]float64, cfg.NPhaseCheck)
	for i := range tshifts {
		tshifts[i] = float64(i) * duration / float64(cfg.NPhaseCheck)
	}

	return &Evaluator{
		tmpl:     tmpl,
		sampler:  sampler,
		cfg:      cfg,
		duration: duration,
		tshifts:  tshifts,
		win:      newWindows(cfg),
		snr:      snr,
	}, nil
}

// Duration is the template duration in days.
func (e *Evaluator) Duration() float64 { return e.duration }

// TShifts returns the phase shifts evaluated for each location.
func (e *Evaluator) TShifts() []float64 { return append([]float64(nil), e.tshifts...) }

// instance is the set of visit indices belonging to one lightcurve
// repetition.
type instance struct {
	number  int
	indices []int
}

// Evaluate folds visits onto the template for every phase shift and applies
// the detection conditions. visits is not modified.
func (e *Evaluator) Evaluate(visits []survey.Visit) (Result, error) {
	res := Result{Kind: KindFraction}
	if e.cfg.Output == OutputDiagnostics {
		res.Kind = KindDiagnostics
	}

	sorted := survey.SortByMJD(visits)
	for _, b := range survey.Bands(sorted) {
		if !e.tmpl.HasBand(b) {
			return Result{}, fmt.Errorf("%w %q", lightcurve.ErrUnknownBand, b)
		}
	}
	if len(sorted) == 0 {
		if res.Kind == KindDiagnostics {
			for _, ts := range e.tshifts {
				res.Trials = append(res.Trials, TrialRecord{TShift: ts})
			}
		}
		return res, nil
	}

	n := len(sorted)
	mjd := make([]float64, n)
	bands := make([]survey.Band, n)
	for i, v := range sorted {
		mjd[i] = v.MJD
		bands[i] = v.Filter
	}
	tMin := floats.Min(mjd)
	tSpan := floats.Max(mjd) - tMin

	// Instance membership is computed once, without shift, and reused by
	// every trial.
	lcNumber := make([]int, n)
	for i := range mjd {
		lcNumber[i] = int(math.Floor((mjd[i] - tMin) / e.duration))
	}
	instances := groupInstances(lcNumber)
	perTrialMax := int(math.Ceil(tSpan / e.duration))

	lcEpoch := make([]float64, n)
	snr := make([]float64, n)
	above := make([]bool, n)
	for _, tshift := range e.tshifts {
		for i := range mjd {
			lcEpoch[i] = math.Mod(mjd[i]-tMin+tshift, e.duration) + e.cfg.EpochStart
		}
		res.NTransMax += perTrialMax

		mags, err := e.sampler.Sample(lcEpoch, bands)
		if err != nil {
			return Result{}, err
		}
		for i := range mags {
			snr[i] = e.snr(mags[i], sorted[i].FiveSigmaDepth)
			above[i] = snr[i] >= e.cfg.DetectSNR[bands[i]]
		}

		detected := make([]bool, n)
		for _, inst := range instances {
			if !e.instanceDetected(inst.indices, lcEpoch, bands, above) {
				continue
			}
			res.NDetected++
			for _, i := range inst.indices {
				detected[i] = true
			}
		}

		if res.Kind == KindDiagnostics {
			res.Trials = append(res.Trials, e.trialRecord(tshift, sorted, lcNumber, lcEpoch, mags, snr, above, detected))
		}
	}

	if res.NTransMax != 0 {
		res.Fraction = float64(res.NDetected) / float64(res.NTransMax)
	}
	return res, nil
}

// groupInstances splits visit indices by lightcurve number. lcNumber is
// non-decreasing because visits are in MJD order, so groups are contiguous.
func groupInstances(lcNumber []int) []instance {
	var out []instance
	for i, num := range lcNumber {
		if len(out) == 0 || out[len(out)-1].number != num {
			out = append(out, instance{number: num})
		}
		last := &out[len(out)-1]
		last.indices = append(last.indices, i)
	}
	return out
}

// instanceDetected applies every detection condition to one lightcurve
// instance. Only above-threshold visits are counted. The per-band total and
// near-peak minimums apply to the bands observed in the instance.
func (e *Evaluator) instanceDetected(indices []int, lcEpoch []float64, bands []survey.Band, above []bool) bool {
	var present []survey.Band
	total := make(map[survey.Band]int)
	near := make(map[survey.Band]int)
	post := make(map[survey.Band]int)
	var nPre, nNear, nPost int

	for _, i := range indices {
		b := bands[i]
		if _, ok := total[b]; !ok {
			present = append(present, b)
			total[b] = 0
		}
		if !above[i] {
			continue
		}
		total[b]++
		ep := lcEpoch[i]
		if e.win.prePeak(ep) {
			nPre++
		}
		if e.win.nearPeak(ep) {
			near[b]++
			nNear++
		}
		if e.win.postPeak(ep) {
			post[b]++
			nPost++
		}
	}

	for _, b := range present {
		if total[b] < e.cfg.NObsTotal[b] {
			return false
		}
		if near[b] < e.cfg.NObsNearPeak[b] {
			return false
		}
	}
	if nPre < e.cfg.NObsPrePeak {
		return false
	}
	if len(near) < e.cfg.NFiltersNearPeak {
		return false
	}
	if nPost < e.cfg.NObsPostPeak {
		return false
	}
	if len(post) < e.cfg.NFiltersPostPeak {
		return false
	}
	return true
}

func (e *Evaluator) trialRecord(tshift float64, sorted []survey.Visit, lcNumber []int, lcEpoch, mags, snr []float64, above, detected []bool) TrialRecord {
	rec := TrialRecord{
		TShift:       tshift,
		Observations: make([]ObservationDiagnostic, len(sorted)),
	}
	for i, v := range sorted {
		ep := lcEpoch[i]
		rec.Observations[i] = ObservationDiagnostic{
			TShift:      tshift,
			MJD:         v.MJD,
			M5:          v.FiveSigmaDepth,
			Filter:      v.Filter,
			LCNumber:    lcNumber[i],
			LCEpoch:     ep,
			PrePeak:     e.win.prePeakFlag(ep),
			NearPeak:    e.win.nearPeak(ep),
			PostPeak:    e.win.postPeak(ep),
			Mag:         mags[i],
			SNR:         snr[i],
			MagErr:      photometry.SNRToMagErr(snr[i]),
			AboveThresh: above[i],
			Detected:    detected[i],
		}
	}
	return rec
}
