package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/user/oi_visualizer_go/internal/parser"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "OIVIZ"

// Config represents the complete application configuration
type Config struct {
	Columns  ColumnsConfig  `yaml:"columns" envconfig:"COLUMNS"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// ColumnsConfig holds the zero-based CSV column of each measurement.
type ColumnsConfig struct {
	FiO2 int `yaml:"fio2" envconfig:"FIO2" validate:"gte=0"`
	MAP  int `yaml:"map" envconfig:"MAP" validate:"gte=0"`
	PaO2 int `yaml:"pao2" envconfig:"PAO2" validate:"gte=0"`
	OI   int `yaml:"oi" envconfig:"OI" validate:"gte=0"`
}

// AnalysisConfig tunes the summary computed from processed data.
type AnalysisConfig struct {
	OITolerance float64 `yaml:"oi_tolerance" envconfig:"OI_TOLERANCE" validate:"gte=0"`
	TopN        int     `yaml:"top_n" envconfig:"TOP_N" validate:"gte=0,lte=1000"`
}

// ReportConfig contains report rendering settings
type ReportConfig struct {
	DomeBins int `yaml:"dome_bins" envconfig:"DOME_BINS" validate:"gte=2,lte=200"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Columns: ColumnsConfig{FiO2: 0, MAP: 1, PaO2: 2, OI: 3},
		Analysis: AnalysisConfig{
			OITolerance: 1.0,
			TopN:        10,
		},
		Report: ReportConfig{DomeBins: 24},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    32 << 20,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then OIVIZ_*
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFromFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; absent keys keep their value.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field ranges and that no two measurements share a column.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	seen := make(map[int]string)
	cols := []struct {
		name string
		idx  int
	}{
		{"fio2", c.Columns.FiO2},
		{"map", c.Columns.MAP},
		{"pao2", c.Columns.PaO2},
		{"oi", c.Columns.OI},
	}
	for _, col := range cols {
		if other, dup := seen[col.idx]; dup {
			return fmt.Errorf("columns %s and %s both use index %d", other, col.name, col.idx)
		}
		seen[col.idx] = col.name
	}
	return nil
}

// ColumnMap converts the column settings for the parser.
func (c *Config) ColumnMap() parser.ColumnMap {
	return parser.ColumnMap{
		FiO2: c.Columns.FiO2,
		MAP:  c.Columns.MAP,
		PaO2: c.Columns.PaO2,
		OI:   c.Columns.OI,
	}
}
