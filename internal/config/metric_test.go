package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgris/sims-maf-contrib/internal/lightcurve"
	"github.com/pgris/sims-maf-contrib/internal/survey"
	"github.com/pgris/sims-maf-contrib/internal/tde"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultMetricConfig(t *testing.T) {
	cfg := DefaultMetricConfig()

	assert.Equal(t, lightcurve.DefaultTemplateName, cfg.TemplateName)
	assert.Equal(t, -20.0, cfg.EpochStart)
	assert.Equal(t, 0.0, cfg.PeakEpoch)
	assert.Equal(t, 5.0, cfg.NearPeakT)
	assert.Equal(t, 10.0, cfg.PostPeakT)
	assert.Equal(t, 1, cfg.NPhaseCheck)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 0.01, cfg.FieldPrecisionDeg)
	assert.Equal(t, survey.DefaultColumns(), cfg.Columns)
	assert.Len(t, cfg.DetectSNR, 6)
	assert.Equal(t, 5.0, cfg.DetectSNR["y"])
	assert.Equal(t, 0, cfg.NObsTotal["u"])
	require.NoError(t, cfg.Validate())

	// Matches the evaluator's own defaults.
	assert.Equal(t, tde.DefaultConfig().DetectSNR, cfg.ToEvaluatorConfig().DetectSNR)
}

func TestLoadMetricConfig_YAML(t *testing.T) {
	path := writeConfig(t, "metric.yaml", `
template_path: /data/tde/TDEbrightslow_z0.1.dat
detect_snr: {g: 7.5}
epoch_start: 0
n_phase_check: 4
n_obs_near_peak: {r: 2}
n_filters_post_peak: 2
dataout: true
columns:
  mjd: expMJD
workers: 8
`)
	cfg, err := LoadMetricConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/tde/TDEbrightslow_z0.1.dat", cfg.TemplatePath)
	assert.Equal(t, 7.5, cfg.DetectSNR["g"])
	assert.Equal(t, 5.0, cfg.DetectSNR["r"], "unlisted bands keep defaults")
	assert.Equal(t, 0.0, cfg.EpochStart, "explicit zero overrides default")
	assert.Equal(t, 4, cfg.NPhaseCheck)
	assert.Equal(t, 2, cfg.NObsNearPeak["r"])
	assert.Equal(t, "expMJD", cfg.Columns.MJD)
	assert.Equal(t, survey.DefaultM5Column, cfg.Columns.M5)
	assert.Equal(t, 8, cfg.Workers)

	ev := cfg.ToEvaluatorConfig()
	assert.Equal(t, tde.OutputDiagnostics, ev.Output)
	assert.Equal(t, 7.5, ev.DetectSNR["g"])
	assert.Equal(t, 2, ev.NObsNearPeak["r"])
	assert.Equal(t, 2, ev.NFiltersPostPeak)
	assert.Equal(t, 4, ev.NPhaseCheck)
}

func TestLoadMetricConfig_JSON(t *testing.T) {
	path := writeConfig(t, "metric.json", `{
  "data_dir": "/data",
  "n_obs_total": {"g": 3},
  "near_peak_t": 8,
  "post_peak_t": 12
}`)
	cfg, err := LoadMetricConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.NObsTotal["g"])
	assert.Equal(t, 8.0, cfg.NearPeakT)
	assert.Equal(t, tde.OutputFraction, cfg.ToEvaluatorConfig().Output)

	p, err := cfg.TemplateProvider()
	require.NoError(t, err)
	path, err = p.TemplatePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "tde", "TDEfaintfast_z0.1.dat"), path)
}

func TestLoadMetricConfig_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"bad extension", "metric.toml", "x = 1", "extension"},
		{"bad json", "metric.json", "{", "failed to parse config json"},
		{"bad yaml", "metric.yaml", "detect_snr: [1, 2", "failed to parse config yaml"},
		{"zero phase checks", "metric.yaml", "n_phase_check: 0", "n_phase_check must be at least 1"},
		{"negative window", "metric.yaml", "near_peak_t: -1", "near_peak_t must be at least 0"},
		{"negative snr", "metric.yaml", "detect_snr: {g: -1}", "detect_snr[g] must be at least 0"},
		{"long band code", "metric.yaml", "detect_snr: {gg: 1}", "single-character"},
		{"zero precision", "metric.yaml", "field_precision_deg: 0", "field_precision_deg must be greater than 0"},
		{"unsafe column", "metric.yaml", "columns: {mjd: \"a;drop\"}", "invalid identifier"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.file, tc.body)
			_, err := LoadMetricConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMetricConfig(filepath.Join(t.TempDir(), "none.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("too large", func(t *testing.T) {
		body := "# " + strings.Repeat("x", maxFileSize) + "\n"
		path := writeConfig(t, "big.yaml", body)
		_, err := LoadMetricConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestTemplateProvider(t *testing.T) {
	cfg := DefaultMetricConfig()
	_, err := cfg.TemplateProvider()
	assert.Error(t, err)

	cfg.DataDir = "/data"
	cfg.TemplatePath = "/explicit.dat"
	p, err := cfg.TemplateProvider()
	require.NoError(t, err)
	assert.Equal(t, lightcurve.FileProvider{Path: "/explicit.dat"}, p)
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	def := DefaultMetricConfig()
	assert.Equal(t, def, cfg)
}
