package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pgris/sims-maf-contrib/internal/tde"
)

// DiagnosticsHeader is the column order written by WriteDiagnosticsCSV.
var DiagnosticsHeader = []string{
	"location", "tshift", "timeMJD", "m5", "filters", "lcNumber", "lcEpoch",
	"prePeakCheck", "nearPeakCheck", "postPeakCheck",
	"lcMags", "lcSNR", "lcMagsStd", "lcAboveThresh", "detected",
}

// WriteDiagnosticsCSV writes one row per visit per trial. The header is
// written only when header is true so several locations can share a file.
func WriteDiagnosticsCSV(w io.Writer, locationID string, trials []tde.TrialRecord, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(DiagnosticsHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, tr := range trials {
		for _, o := range tr.Observations {
			rec := []string{
				locationID,
				formatFloat(o.TShift),
				formatFloat(o.MJD),
				formatFloat(o.M5),
				string(o.Filter),
				strconv.Itoa(o.LCNumber),
				formatFloat(o.LCEpoch),
				strconv.FormatBool(o.PrePeak),
				strconv.FormatBool(o.NearPeak),
				strconv.FormatBool(o.PostPeak),
				formatFloat(o.Mag),
				formatFloat(o.SNR),
				formatFloat(o.MagErr),
				strconv.FormatBool(o.AboveThresh),
				strconv.FormatBool(o.Detected),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
