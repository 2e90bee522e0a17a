// Package lightcurve owns the transient template: loading the ascii
// phase/magnitude/filter table, partitioning it per filter band, and sampling
// magnitudes at arbitrary epochs by linear interpolation.
//
// A Template and the Sampler built from it are read-only after construction
// and may be shared by concurrent evaluations.
package lightcurve
