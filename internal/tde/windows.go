package tde

// windows classifies folded epochs relative to the peak.
type windows struct {
	nearLo float64 // PeakEpoch - NearPeakT/2
	nearHi float64 // PeakEpoch + NearPeakT/2
	postHi float64 // nearHi + PostPeakT
}

func newWindows(cfg Config) windows {
	half := cfg.NearPeakT / 2
	return windows{
		nearLo: cfg.PeakEpoch - half,
		nearHi: cfg.PeakEpoch + half,
		postHi: cfg.PeakEpoch + half + cfg.PostPeakT,
	}
}

// prePeak is the detection-condition test; the near-peak boundary itself
// is excluded.
func (w windows) prePeak(epoch float64) bool { return epoch < w.nearLo }

// prePeakFlag is the diagnostic-output test; unlike prePeak it includes the
// near-peak boundary. The two must stay distinct.
func (w windows) prePeakFlag(epoch float64) bool { return epoch <= w.nearLo }

func (w windows) nearPeak(epoch float64) bool {
	return epoch >= w.nearLo && epoch <= w.nearHi
}

func (w windows) postPeak(epoch float64) bool {
	return epoch >= w.nearHi && epoch <= w.postHi
}
