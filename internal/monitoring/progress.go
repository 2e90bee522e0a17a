package monitoring

import "sync/atomic"

// Progress counts outcomes of a run as they arrive. The zero value is ready
// to use and all methods are safe on a nil receiver.
type Progress struct {
	total     atomic.Int64
	evaluated atomic.Int64
	failed    atomic.Int64
}

// ProgressSnapshot is the JSON form of Progress.
type ProgressSnapshot struct {
	Total     int64 `json:"total"`
	Evaluated int64 `json:"evaluated"`
	Failed    int64 `json:"failed"`
	Pending   int64 `json:"pending"`
}

// SetTotal records how many locations the run will evaluate.
func (p *Progress) SetTotal(n int) {
	if p == nil {
		return
	}
	p.total.Store(int64(n))
}

// Done records one finished location.
func (p *Progress) Done(failed bool) {
	if p == nil {
		return
	}
	if failed {
		p.failed.Add(1)
		return
	}
	p.evaluated.Add(1)
}

// Snapshot returns the current counts.
func (p *Progress) Snapshot() ProgressSnapshot {
	if p == nil {
		return ProgressSnapshot{}
	}
	s := ProgressSnapshot{
		Total:     p.total.Load(),
		Evaluated: p.evaluated.Load(),
		Failed:    p.failed.Load(),
	}
	s.Pending = max(s.Total-s.Evaluated-s.Failed, 0)
	return s
}
