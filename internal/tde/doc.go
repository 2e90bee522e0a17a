// Package tde evaluates whether a tidal disruption event, described by a
// template lightcurve, would be detected by a sky location's visits.
//
// For each of NPhaseCheck phase shifts the visits are folded onto the
// template, partitioned into lightcurve instances (one per template duration
// since the first visit), and every instance is tested against per-band and
// per-window observation count thresholds. The result is either the detected
// fraction of possible transients or per-visit diagnostics for each shift.
//
// An Evaluator is immutable after construction and safe for concurrent use.
package tde
