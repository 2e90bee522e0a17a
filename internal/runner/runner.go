// Package runner evaluates the TDE metric over many sky locations with a
// bounded pool of workers.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pgris/sims-maf-contrib/internal/lightcurve"
	"github.com/pgris/sims-maf-contrib/internal/monitoring"
	"github.com/pgris/sims-maf-contrib/internal/survey"
	"github.com/pgris/sims-maf-contrib/internal/tde"
	"github.com/pgris/sims-maf-contrib/internal/timeutil"
)

// DefaultWorkers is used when no positive worker count is configured.
const DefaultWorkers = 4

// Evaluator is the per-location metric. *tde.Evaluator satisfies it.
type Evaluator interface {
	Evaluate(visits []survey.Visit) (tde.Result, error)
}

// Outcome is the result of evaluating one location. Err is set when the
// evaluation failed; Result is then the zero value.
type Outcome struct {
	Location survey.Location
	Result   tde.Result
	Err      error
	Elapsed  time.Duration
}

// Sink receives outcomes as workers finish. Put may be called concurrently.
// An error from Put aborts the run.
type Sink interface {
	Put(ctx context.Context, o Outcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, o Outcome) error

// Put calls f.
func (f SinkFunc) Put(ctx context.Context, o Outcome) error { return f(ctx, o) }

// Summary aggregates a run.
type Summary struct {
	Locations      int
	Evaluated      int
	Failed         int
	MeanFraction   float64
	MedianFraction float64
	Elapsed        time.Duration
}

// Runner fans locations out to workers.
type Runner struct {
	eval     Evaluator
	workers  int
	recorder *monitoring.Recorder
	clock    timeutil.Clock
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of concurrent evaluations.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRecorder exports per-location metrics.
func WithRecorder(rec *monitoring.Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithClock overrides the clock used for latencies.
func WithClock(c timeutil.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// New creates a Runner for eval.
func New(eval Evaluator, opts ...Option) *Runner {
	r := &Runner{
		eval:    eval,
		workers: DefaultWorkers,
		clock:   timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every location and hands each outcome to sink. A failing
// location is logged and counted but does not stop the others. Cancelling
// ctx stops scheduling new locations; Run then returns ctx's error along
// with the partial summary.
func (r *Runner) Run(ctx context.Context, locations []survey.Location, sink Sink) (Summary, error) {
	start := r.clock.Now()
	sum := Summary{Locations: len(locations)}

	var (
		mu        sync.Mutex
		fractions []float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, loc := range locations {
		if gctx.Err() != nil {
			break
		}
		loc := loc
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out := r.evaluate(loc)

			mu.Lock()
			if out.Err != nil {
				sum.Failed++
			} else {
				sum.Evaluated++
				fractions = append(fractions, out.Result.Fraction)
			}
			mu.Unlock()

			if sink == nil {
				return nil
			}
			if err := sink.Put(gctx, out); err != nil {
				return fmt.Errorf("sink %s: %w", loc.ID, err)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if len(fractions) > 0 {
		sort.Float64s(fractions)
		sum.MeanFraction = stat.Mean(fractions, nil)
		sum.MedianFraction = stat.Quantile(0.5, stat.Empirical, fractions, nil)
	}
	sum.Elapsed = r.clock.Since(start)
	if r.recorder != nil {
		r.recorder.RecordLatency("run", sum.Elapsed.Seconds())
	}
	return sum, err
}

func (r *Runner) evaluate(loc survey.Location) Outcome {
	start := r.clock.Now()
	res, err := r.eval.Evaluate(loc.Visits)
	out := Outcome{Location: loc, Elapsed: r.clock.Since(start)}

	if err != nil {
		out.Err = err
		monitoring.Logf("error evaluating location %s (%d visits): %v", loc.ID, len(loc.Visits), err)
		if r.recorder != nil {
			r.recorder.RecordFailure(failureReason(err))
		}
		return out
	}
	out.Result = res
	if r.recorder != nil {
		output := tde.OutputFraction
		if res.Kind == tde.KindDiagnostics {
			output = tde.OutputDiagnostics
		}
		r.recorder.RecordEvaluated(output.String(), res.Fraction)
		r.recorder.RecordLatency("evaluate", out.Elapsed.Seconds())
	}
	return out
}

func failureReason(err error) string {
	if errors.Is(err, lightcurve.ErrUnknownBand) {
		return "unknown_band"
	}
	return "evaluate"
}
