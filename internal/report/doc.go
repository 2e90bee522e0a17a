// Package report writes metric outputs: per-visit diagnostic tables,
// lightcurve plots for individual trials and an HTML sky map of detected
// fractions.
package report
