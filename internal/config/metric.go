package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pgris/sims-maf-contrib/internal/lightcurve"
	"github.com/pgris/sims-maf-contrib/internal/survey"
	"github.com/pgris/sims-maf-contrib/internal/tde"
)

// DefaultConfigPath is the path to the canonical metric defaults file.
const DefaultConfigPath = "config/tdemetric.defaults.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// MetricConfig is the on-disk metric configuration. The schema mirrors the
// evaluator thresholds plus the run-level settings used by cmd/tdemetric.
type MetricConfig struct {
	// Template resolution: TemplatePath wins over DataDir/TemplateName.
	TemplatePath string `json:"template_path" yaml:"template_path"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	TemplateName string `json:"template_name" yaml:"template_name" default:"tde/TDEfaintfast_z0.1.dat"`

	DetectSNR map[string]float64 `json:"detect_snr" yaml:"detect_snr" default:"{\"u\":5,\"g\":5,\"r\":5,\"i\":5,\"z\":5,\"y\":5}" validate:"required,dive,keys,len=1,endkeys,gte=0"`

	EpochStart  float64 `json:"epoch_start" yaml:"epoch_start" default:"-20"`
	PeakEpoch   float64 `json:"peak_epoch" yaml:"peak_epoch"`
	NearPeakT   float64 `json:"near_peak_t" yaml:"near_peak_t" default:"5" validate:"gte=0"`
	PostPeakT   float64 `json:"post_peak_t" yaml:"post_peak_t" default:"10" validate:"gte=0"`
	NPhaseCheck int     `json:"n_phase_check" yaml:"n_phase_check" default:"1" validate:"min=1,max=1000"`

	NObsTotal        map[string]int `json:"n_obs_total" yaml:"n_obs_total" default:"{\"u\":0,\"g\":0,\"r\":0,\"i\":0,\"z\":0,\"y\":0}" validate:"required,dive,keys,len=1,endkeys,gte=0"`
	NObsPrePeak      int            `json:"n_obs_pre_peak" yaml:"n_obs_pre_peak" validate:"gte=0"`
	NObsNearPeak     map[string]int `json:"n_obs_near_peak" yaml:"n_obs_near_peak" default:"{\"u\":0,\"g\":0,\"r\":0,\"i\":0,\"z\":0,\"y\":0}" validate:"required,dive,keys,len=1,endkeys,gte=0"`
	NFiltersNearPeak int            `json:"n_filters_near_peak" yaml:"n_filters_near_peak" validate:"gte=0"`
	NObsPostPeak     int            `json:"n_obs_post_peak" yaml:"n_obs_post_peak" validate:"gte=0"`
	NFiltersPostPeak int            `json:"n_filters_post_peak" yaml:"n_filters_post_peak" validate:"gte=0"`

	// DataOut switches the evaluator to per-visit diagnostic output.
	DataOut bool `json:"dataout" yaml:"dataout"`

	Columns           survey.Columns `json:"columns" yaml:"columns"`
	Workers           int            `json:"workers" yaml:"workers" default:"4" validate:"min=1,max=256"`
	FieldPrecisionDeg float64        `json:"field_precision_deg" yaml:"field_precision_deg" default:"0.01" validate:"gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// DefaultMetricConfig returns a config with every default applied.
func DefaultMetricConfig() *MetricConfig {
	cfg := &MetricConfig{}
	if err := defaults.Set(cfg); err != nil {
		// Only reachable if a default tag above is malformed.
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	cfg.Columns = survey.DefaultColumns()
	return cfg
}

// LoadMetricConfig loads a MetricConfig from a JSON or YAML file.
// The file is validated to ensure it has a known extension and is under the
// max file size. Fields omitted from the file keep their defaults; per-band
// maps are merged key by key over the defaults.
func LoadMetricConfig(path string) (*MetricConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultMetricConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	cfg.Columns = cfg.Columns.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upward from the
// current directory. Panics if the file cannot be loaded, intended for test
// setup.
func MustLoadDefaultConfig() *MetricConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadMetricConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks struct rules and column names.
func (c *MetricConfig) Validate() error {
	return c.ValidateCtx(context.Background())
}

// ValidateCtx is Validate with a caller-supplied context.
func (c *MetricConfig) ValidateCtx(ctx context.Context) error {
	if err := validate.StructCtx(ctx, c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return c.Columns.WithDefaults().Validate()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be a single-character filter code", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// ToEvaluatorConfig converts the file schema into evaluator settings.
func (c *MetricConfig) ToEvaluatorConfig() tde.Config {
	cfg := tde.Config{
		DetectSNR:        make(map[survey.Band]float64, len(c.DetectSNR)),
		EpochStart:       c.EpochStart,
		PeakEpoch:        c.PeakEpoch,
		NearPeakT:        c.NearPeakT,
		PostPeakT:        c.PostPeakT,
		NPhaseCheck:      c.NPhaseCheck,
		NObsTotal:        make(map[survey.Band]int, len(c.NObsTotal)),
		NObsPrePeak:      c.NObsPrePeak,
		NObsNearPeak:     make(map[survey.Band]int, len(c.NObsNearPeak)),
		NFiltersNearPeak: c.NFiltersNearPeak,
		NObsPostPeak:     c.NObsPostPeak,
		NFiltersPostPeak: c.NFiltersPostPeak,
		Output:           tde.OutputFraction,
	}
	for b, v := range c.DetectSNR {
		cfg.DetectSNR[survey.Band(b)] = v
	}
	for b, v := range c.NObsTotal {
		cfg.NObsTotal[survey.Band(b)] = v
	}
	for b, v := range c.NObsNearPeak {
		cfg.NObsNearPeak[survey.Band(b)] = v
	}
	if c.DataOut {
		cfg.Output = tde.OutputDiagnostics
	}
	return cfg
}

// TemplateProvider picks an explicit template path if one is set, otherwise
// the named template inside DataDir.
func (c *MetricConfig) TemplateProvider() (lightcurve.TemplateProvider, error) {
	switch {
	case c.TemplatePath != "":
		return lightcurve.FileProvider{Path: c.TemplatePath}, nil
	case c.DataDir != "":
		return lightcurve.DataDirProvider{DataDir: c.DataDir, Name: c.TemplateName}, nil
	}
	return nil, errors.New("neither template_path nor data_dir is set")
}
