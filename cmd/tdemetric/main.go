// Command tdemetric evaluates TDE detectability over an observation schedule.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pgris/sims-maf-contrib/internal/config"
	"github.com/pgris/sims-maf-contrib/internal/fsutil"
	"github.com/pgris/sims-maf-contrib/internal/httputil"
	"github.com/pgris/sims-maf-contrib/internal/lightcurve"
	"github.com/pgris/sims-maf-contrib/internal/monitoring"
	"github.com/pgris/sims-maf-contrib/internal/opsim"
	"github.com/pgris/sims-maf-contrib/internal/report"
	"github.com/pgris/sims-maf-contrib/internal/runner"
	"github.com/pgris/sims-maf-contrib/internal/security"
	"github.com/pgris/sims-maf-contrib/internal/storage/sqlite"
	"github.com/pgris/sims-maf-contrib/internal/survey"
	"github.com/pgris/sims-maf-contrib/internal/tde"
	"github.com/pgris/sims-maf-contrib/internal/version"
)

var (
	configPath   = flag.String("config", "", "Metric config file (.json, .yaml or .yml)")
	templatePath = flag.String("template", "", "Template lightcurve file; overrides the config")
	opsimPath    = flag.String("opsim", "", "OpSim sqlite database to read visits from")
	table        = flag.String("table", opsim.DefaultTable, "OpSim visit table")
	obsCSV       = flag.String("obs-csv", "", "CSV observation table to read visits from")
	resultsDB    = flag.String("results-db", "", "sqlite file to store run results in")
	dataoutDir   = flag.String("dataout-dir", "", "Write per-visit diagnostics (and plots with -plot) to this directory")
	plotTrials   = flag.Bool("plot", false, "Write a lightcurve PNG per location and trial (requires -dataout-dir)")
	skymapPath   = flag.String("skymap", "", "Write an HTML sky map of detected fractions")
	workers      = flag.Int("workers", 0, "Concurrent evaluations; overrides the config")
	metricsAddr  = flag.String("metrics-addr", "", "Serve /metrics, /healthz and /status on this address (e.g. :9090)")
	logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat    = flag.String("log-format", "console", "Log format: console or json")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// options is the resolved command line.
type options struct {
	ConfigPath   string
	TemplatePath string
	OpsimPath    string
	Table        string
	ObsCSV       string
	ResultsDB    string
	DataoutDir   string
	Plot         bool
	SkymapPath   string
	Workers      int

	// Progress receives per-location outcomes; nil disables tracking.
	Progress *monitoring.Progress
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("tdemetric"))
		return
	}
	if err := monitoring.UseZerolog(monitoring.LogConfig{Level: *logLevel, Format: *logFormat}); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := &monitoring.Progress{}
	if *metricsAddr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		mux := httputil.NewMonitorMux(prometheus.DefaultGatherer, func() any { return progress.Snapshot() })
		go func() {
			if err := httputil.Serve(srvCtx, *metricsAddr, mux); err != nil {
				log.Fatalf("failed to start monitoring server: %v", err)
			}
		}()
	}

	opts := options{
		ConfigPath:   *configPath,
		TemplatePath: *templatePath,
		OpsimPath:    *opsimPath,
		Table:        *table,
		ObsCSV:       *obsCSV,
		ResultsDB:    *resultsDB,
		DataoutDir:   *dataoutDir,
		Plot:         *plotTrials,
		SkymapPath:   *skymapPath,
		Workers:      *workers,
		Progress:     progress,
	}
	rec := monitoring.NewRecorder(prometheus.DefaultRegisterer)
	if err := run(ctx, opts, rec, os.Stdout); err != nil {
		log.Fatalf("tdemetric: %v", err)
	}
}

// run executes one metric run and prints the summary to out.
func run(ctx context.Context, opts options, rec *monitoring.Recorder, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if opts.Plot && opts.DataoutDir == "" {
		return errors.New("-plot requires -dataout-dir")
	}

	fsys := fsutil.OSFileSystem{}
	provider, err := cfg.TemplateProvider()
	if err != nil {
		return err
	}
	tmplPath, err := provider.TemplatePath()
	if err != nil {
		return err
	}
	tmpl, err := lightcurve.Load(fsys, provider)
	if err != nil {
		return err
	}

	evalCfg := cfg.ToEvaluatorConfig()
	if opts.DataoutDir != "" {
		evalCfg.Output = tde.OutputDiagnostics
	}
	ev, err := tde.NewEvaluator(tmpl, evalCfg)
	if err != nil {
		return err
	}
	monitoring.Logf("loaded template %s: bands=%v duration=%gd phase checks=%d",
		tmplPath, tmpl.Bands(), ev.Duration(), evalCfg.NPhaseCheck)

	visits, source, err := loadVisits(ctx, opts, cfg.Columns)
	if err != nil {
		return err
	}
	locations := survey.FieldSlicer{PrecisionDeg: cfg.FieldPrecisionDeg}.Slice(visits)
	monitoring.Logf("sliced %d visits from %s into %d locations", len(visits), source, len(locations))
	opts.Progress.SetTotal(len(locations))

	sink, err := newOutputSink(ctx, opts, fsys, tmpl)
	if err != nil {
		return err
	}
	defer sink.close()

	if opts.ResultsDB != "" {
		cfgJSON, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		rn := &sqlite.Run{TemplatePath: tmplPath, Source: source, ConfigJSON: cfgJSON}
		if err := sink.store.InsertRun(ctx, rn); err != nil {
			return err
		}
		sink.runID = rn.RunID
	}

	r := runner.New(ev, runner.WithWorkers(cfg.Workers), runner.WithRecorder(rec))
	sum, runErr := r.Run(ctx, locations, sink)

	if sink.store != nil {
		if err := sink.store.CompleteRun(context.WithoutCancel(ctx), sink.runID, sum.Evaluated, sum.Failed, sum.MeanFraction); err != nil {
			monitoring.Logf("error completing run %s: %v", sink.runID, err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if err := sink.finish(opts, source); err != nil {
		return err
	}

	fmt.Fprintf(out, "locations=%d evaluated=%d failed=%d mean_fraction=%.4f median_fraction=%.4f elapsed=%s\n",
		sum.Locations, sum.Evaluated, sum.Failed, sum.MeanFraction, sum.MedianFraction, sum.Elapsed.Round(time.Millisecond))
	if sink.runID != "" {
		fmt.Fprintf(out, "run_id=%s\n", sink.runID)
	}
	return nil
}

func loadConfig(opts options) (*config.MetricConfig, error) {
	cfg := config.DefaultMetricConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadMetricConfig(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if opts.TemplatePath != "" {
		cfg.TemplatePath = opts.TemplatePath
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	return cfg, nil
}

// loadVisits reads the observation table from exactly one of -opsim or
// -obs-csv and returns the visits plus a source label.
func loadVisits(ctx context.Context, opts options, cols survey.Columns) ([]survey.PointedVisit, string, error) {
	switch {
	case opts.OpsimPath != "" && opts.ObsCSV != "":
		return nil, "", errors.New("use only one of -opsim and -obs-csv")
	case opts.OpsimPath != "":
		db, err := opsim.Open(opts.OpsimPath)
		if err != nil {
			return nil, "", err
		}
		defer db.Close()
		tbl := opts.Table
		if tbl == "" {
			tbl = opsim.DefaultTable
		}
		visits, err := db.LoadVisits(ctx, tbl, cols)
		return visits, opts.OpsimPath + ":" + tbl, err
	case opts.ObsCSV != "":
		f, err := os.Open(opts.ObsCSV)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		visits, err := survey.ReadVisitsCSV(f, cols)
		return visits, opts.ObsCSV, err
	}
	return nil, "", errors.New("one of -opsim or -obs-csv is required")
}

// outputSink fans runner outcomes out to the results store, the diagnostics
// table, trial plots and the sky map.
type outputSink struct {
	fsys  fsutil.FileSystem
	tmpl  *lightcurve.Template
	store *sqlite.ResultStore
	runID string
	plot  bool
	dir   string

	progress *monitoring.Progress

	mu      sync.Mutex
	diag    io.WriteCloser
	wroteHd bool
	points  []report.SkyPoint
}

func newOutputSink(ctx context.Context, opts options, fsys fsutil.FileSystem, tmpl *lightcurve.Template) (*outputSink, error) {
	s := &outputSink{fsys: fsys, tmpl: tmpl, plot: opts.Plot, dir: opts.DataoutDir, progress: opts.Progress}
	if opts.ResultsDB != "" {
		store, err := sqlite.Open(opts.ResultsDB, nil)
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	if opts.DataoutDir != "" {
		if err := fsys.MkdirAll(filepath.Join(opts.DataoutDir, "plots"), 0o755); err != nil {
			s.close()
			return nil, err
		}
		f, err := fsys.Create(filepath.Join(opts.DataoutDir, "diagnostics.csv"))
		if err != nil {
			s.close()
			return nil, err
		}
		s.diag = f
	}
	return s, nil
}

// Put implements runner.Sink.
func (s *outputSink) Put(ctx context.Context, o runner.Outcome) error {
	loc := o.Location
	s.progress.Done(o.Err != nil)
	if s.store != nil {
		res := &sqlite.LocationResult{
			RunID:      s.runID,
			LocationID: loc.ID,
			RA:         loc.RA,
			Dec:        loc.Dec,
			NVisits:    len(loc.Visits),
			Fraction:   o.Result.Fraction,
			NDetected:  o.Result.NDetected,
			NTransMax:  o.Result.NTransMax,
		}
		if o.Err != nil {
			res.Error = o.Err.Error()
		}
		if err := s.store.InsertResult(ctx, res); err != nil {
			return err
		}
	}
	if o.Err != nil {
		return nil
	}

	if s.plot {
		for i, tr := range o.Result.Trials {
			name := fmt.Sprintf("%s_trial%02d.png", security.SanitizeFilename(loc.ID), i)
			path := filepath.Join(s.dir, "plots", name)
			if err := security.ValidatePathWithinDirectory(path, s.dir); err != nil {
				return err
			}
			title := fmt.Sprintf("%s tshift=%.1fd", loc.ID, tr.TShift)
			if err := report.PlotTrial(s.fsys, path, title, s.tmpl, tr); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, report.SkyPoint{ID: loc.ID, RA: loc.RA, Dec: loc.Dec, Fraction: o.Result.Fraction})
	if s.diag != nil {
		if err := report.WriteDiagnosticsCSV(s.diag, loc.ID, o.Result.Trials, !s.wroteHd); err != nil {
			return err
		}
		s.wroteHd = true
	}
	return nil
}

// finish writes the sky map once all outcomes are in.
func (s *outputSink) finish(opts options, source string) error {
	if opts.SkymapPath == "" {
		return nil
	}
	f, err := s.fsys.Create(opts.SkymapPath)
	if err != nil {
		return err
	}
	if err := report.RenderSkyMap(f, source, s.points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *outputSink) close() {
	if s.diag != nil {
		if err := s.diag.Close(); err != nil {
			monitoring.Logf("error closing diagnostics: %v", err)
		}
	}
	if s.store != nil {
		s.store.Close()
	}
}
