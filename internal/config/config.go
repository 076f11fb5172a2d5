package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete run configuration. Environment variables
// are named SHEETETL_<SECTION>_<FIELD>, e.g. SHEETETL_STORAGE_IF_EXISTS.
type Config struct {
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Dates     DatesConfig     `yaml:"dates" envconfig:"DATES"`
	Reshape   ReshapeConfig   `yaml:"reshape" envconfig:"RESHAPE"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SourceConfig selects the workbook to read
type SourceConfig struct {
	Path  string `yaml:"path" split_words:"true" validate:"required"`
	Sheet string `yaml:"sheet" split_words:"true"`
}

// DatesConfig bounds the synthetic dates. Seed 0 draws a fresh seed per run.
type DatesConfig struct {
	Min  string `yaml:"min" split_words:"true" validate:"required,datetime=2006-01-02"`
	Max  string `yaml:"max" split_words:"true" validate:"required,datetime=2006-01-02"`
	Seed uint64 `yaml:"seed" split_words:"true"`
}

// ReshapeConfig describes the export's column naming and grouping
type ReshapeConfig struct {
	GroupPolicy   string   `yaml:"group_policy" split_words:"true" validate:"oneof=first strict sum"`
	Separator     string   `yaml:"separator" split_words:"true" validate:"required"`
	Metrics       []string `yaml:"metrics" split_words:"true" validate:"required,min=1,dive,required"`
	ResourceTypes []string `yaml:"resource_types" split_words:"true" validate:"dive,required"`
	DataTypes     []string `yaml:"data_types" split_words:"true" validate:"dive,required"`
}

// StorageConfig contains database configuration
type StorageConfig struct {
	Target   string `yaml:"target" split_words:"true" validate:"required"`
	Table    string `yaml:"table" split_words:"true" validate:"required"`
	IfExists string `yaml:"if_exists" split_words:"true" validate:"oneof=replace append fail"`
}

// ExportConfig contains optional file outputs; empty values disable them
type ExportConfig struct {
	CSVDir       string `yaml:"csv_dir" split_words:"true"`
	XLSXPath     string `yaml:"xlsx_path" split_words:"true"`
	PrintConsole bool   `yaml:"print_console" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Output     string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath   string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
	MaxSizeMB  int    `yaml:"max_size_mb" split_words:"true" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" split_words:"true" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" split_words:"true" validate:"gte=0"`
	Compress   bool   `yaml:"compress" split_words:"true"`
}

// TelemetryConfig contains tracing and run metrics configuration
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" split_words:"true" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" split_words:"true" validate:"oneof=none stdout"`
	// TraceFile receives stdout spans; empty writes them to stderr.
	TraceFile string `yaml:"trace_file" split_words:"true"`
	// MetricsFile is a Prometheus textfile written at the end of a run.
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Path: DefaultSourceFile,
		},
		Dates: DatesConfig{
			Min: DefaultMinDate,
			Max: DefaultMaxDate,
		},
		Reshape: ReshapeConfig{
			GroupPolicy: DefaultGroupPolicy,
			Separator:   DefaultSeparator,
			Metrics:     []string{"fact", "forecast"},
		},
		Storage: StorageConfig{
			Target:   DefaultDatabase,
			Table:    DefaultTable,
			IfExists: DefaultIfExists,
		},
		Export: ExportConfig{
			PrintConsole: true,
		},
		Logging: LoggingConfig{
			Level:      DefaultLogLevel,
			Output:     DefaultLogOutput,
			FilePath:   DefaultLogFile,
			MaxSizeMB:  MaxLogFileSizeMB,
			MaxBackups: MaxLogFileBackups,
			MaxAgeDays: MaxLogFileAgeDays,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   DefaultServiceName,
			TraceExporter: DefaultTraceExporter,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and SHEETETL_* environment variables, in increasing
// order of precedence. An empty configFile searches the usual locations.
// The result is not validated; callers apply flag overrides first and then
// call Validate.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	} else if !FileExists(configFile) {
		return nil, fmt.Errorf("config file %s not found", configFile)
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Existing environment variables win over .env entries.
	if FileExists(DefaultDotEnvFile) {
		if err := godotenv.Load(DefaultDotEnvFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", DefaultDotEnvFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the first config file found in the usual
// locations, or "" when there is none.
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		"configs/" + DefaultConfigFile,
	}
	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateDateRange, DatesConfig{})
	return v
}

// validateDateRange rejects a minimum date after the maximum date.
func validateDateRange(sl validator.StructLevel) {
	d := sl.Current().Interface().(DatesConfig)
	start, err1 := time.Parse(DateLayout, d.Min)
	end, err2 := time.Parse(DateLayout, d.Max)
	if err1 != nil || err2 != nil {
		return
	}
	if start.After(end) {
		sl.ReportError(d.Min, "Min", "Min", "ltefield_max", d.Max)
	}
}

// Validate checks the configuration and returns one error listing every
// invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s: %s", fe.Namespace(), formatValidationError(fe)))
	}
	return fmt.Errorf("config validation failed: %w", errors.Join(msgs...))
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_unless":
		return "is required unless " + fe.Param()
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", fe.Value(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%q must be a date in %s format", fe.Value(), fe.Param())
	case "ltefield_max":
		return fmt.Sprintf("%v is after max date %s", fe.Value(), fe.Param())
	case "min":
		return "needs at least " + fe.Param() + " entries"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
