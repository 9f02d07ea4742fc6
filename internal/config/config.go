package config

import (
	"bytes"
	"crypto/sha256"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"wdiviz/domain/core"
	"wdiviz/internal/aggregate"
	"wdiviz/internal/charts"
	"wdiviz/internal/errors"
	"wdiviz/internal/reshape"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Figure formats accepted by WDI_FIGURE_FORMAT
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig   `validate:"required"`
	Pipeline PipelineConfig `validate:"required"`
	Output   OutputConfig
	LogLevel string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// SourceConfig holds the input location
type SourceConfig struct {
	Path         string `validate:"required"`
	PipelineFile string
}

// PipelineConfig holds the selections of a run. It is what a pipeline file
// overrides.
type PipelineConfig struct {
	Indicators []string      `yaml:"indicators" validate:"required,min=1,dive,required"`
	Years      []string      `yaml:"years" validate:"required,min=1,dive,len=4,numeric"`
	Reshape    ReshapeConfig `yaml:"reshape"`
	Charts     charts.Config `yaml:"charts"`
}

// ReshapeConfig holds the loader contract
type ReshapeConfig struct {
	FooterRows       int  `yaml:"footer_rows" validate:"gte=0"`
	FirstDroppedYear int  `yaml:"first_dropped_year" validate:"gte=0"`
	LastDroppedYear  int  `yaml:"last_dropped_year" validate:"gtefield=FirstDroppedYear"`
	DetectFooter     bool `yaml:"detect_footer"`
}

// OutputConfig holds display and export settings. Nothing is exported when
// Dir is empty.
type OutputConfig struct {
	Dir          string
	FigureFormat string `validate:"oneof=png svg"`
	Display      bool
	ReportHTML   bool
	Workbook     bool
}

// Default returns the configuration of the reference run, without a source
func Default() *Config {
	options := reshape.DefaultOptions()
	return &Config{
		Pipeline: PipelineConfig{
			Indicators: append([]string(nil), aggregate.DefaultIndicators...),
			Years:      append([]string(nil), aggregate.DefaultYears...),
			Reshape: ReshapeConfig{
				FooterRows:       options.FooterRows,
				FirstDroppedYear: options.FirstDroppedYear,
				LastDroppedYear:  options.LastDroppedYear,
			},
			Charts: charts.DefaultConfig(),
		},
		Output: OutputConfig{
			FigureFormat: FormatPNG,
			Display:      true,
			ReportHTML:   true,
			Workbook:     true,
		},
		LogLevel: "INFO",
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromEnv reads configuration from environment variables without validating
// it, so callers can fill in values from flags first
func FromEnv() (*Config, error) {
	return FromEnvWithPipeline("")
}

// FromEnvWithPipeline is FromEnv with pipelineFile replacing
// WDI_PIPELINE_FILE when non-empty. Only one pipeline file is ever applied.
func FromEnvWithPipeline(pipelineFile string) (*Config, error) {
	if pipelineFile == "" {
		pipelineFile = getEnvOrDefault("WDI_PIPELINE_FILE", "")
	}
	config := Default()
	config.Source = SourceConfig{
		Path:         getEnvOrDefault("WDI_SOURCE", ""),
		PipelineFile: pipelineFile,
	}

	if config.Source.PipelineFile != "" {
		if err := config.Pipeline.LoadFile(config.Source.PipelineFile); err != nil {
			return nil, errors.Wrapf(err, "failed to load pipeline file %s", config.Source.PipelineFile)
		}
	}
	config.Pipeline.Reshape.DetectFooter = getEnvBoolOrDefault("WDI_DETECT_FOOTER", config.Pipeline.Reshape.DetectFooter)

	config.Output = OutputConfig{
		Dir:          getEnvOrDefault("WDI_OUTPUT_DIR", ""),
		FigureFormat: strings.ToLower(getEnvOrDefault("WDI_FIGURE_FORMAT", FormatPNG)),
		Display:      getEnvBoolOrDefault("WDI_DISPLAY", true),
		ReportHTML:   getEnvBoolOrDefault("WDI_REPORT_HTML", true),
		Workbook:     getEnvBoolOrDefault("WDI_WORKBOOK", true),
	}
	config.LogLevel = strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO"))
	return config, nil
}

// LoadFile overlays a YAML pipeline file. Keys absent from the file keep their
// current value; unknown keys are rejected.
func (p *PipelineConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("cannot read pipeline file %s: %v", path, err))
	}
	return p.Decode(data)
}

// Decode overlays a YAML document onto p
func (p *PipelineConfig) Decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.ConfigInvalid(fmt.Sprintf("invalid pipeline file: %v", err))
	}
	return nil
}

// Hash fingerprints the pipeline selections
func (p *PipelineConfig) Hash() core.Hash {
	data, err := yaml.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return core.Hash(fmt.Sprintf("%x", sum))
}

// ReshapeOptions converts the loader section into reshape options
func (p *PipelineConfig) ReshapeOptions() reshape.Options {
	return reshape.Options{
		FooterRows:       p.Reshape.FooterRows,
		FirstDroppedYear: p.Reshape.FirstDroppedYear,
		LastDroppedYear:  p.Reshape.LastDroppedYear,
		DetectFooter:     p.Reshape.DetectFooter,
	}
}

var validate = validator.New()

// Validate checks required fields and ranges
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return errors.ConfigInvalid("WDI_SOURCE is required")
	}
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if stderrors.As(err, &fieldErrors) {
			messages := make([]string, len(fieldErrors))
			for i, fe := range fieldErrors {
				messages[i] = formatFieldError(fe)
			}
			return errors.ConfigInvalid("configuration validation failed: " + strings.Join(messages, "; "))
		}
		return errors.Wrap(err, "configuration validation failed")
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Namespace(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
