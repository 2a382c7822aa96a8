package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "CLC"

// Config represents the complete application configuration
type Config struct {
	Conversion ConversionConfig `yaml:"conversion" envconfig:"CONVERSION"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ConversionConfig controls how input tables are read and how CLC files are written
type ConversionConfig struct {
	// Quote is the quote character of delimited-text inputs. Must be a single character.
	Quote       string `yaml:"quote" envconfig:"QUOTE"`
	Banner      string `yaml:"banner" envconfig:"BANNER"`
	Attribution string `yaml:"attribution" envconfig:"ATTRIBUTION"`
	// LineEnding is "crlf" or "lf".
	LineEnding string `yaml:"line_ending" envconfig:"LINE_ENDING"`
	// OutputDir overrides the input file's directory as destination when set.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
}

// QuoteRune returns the configured quote character
func (c ConversionConfig) QuoteRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Quote)
	return r
}

// UseCRLF reports whether output lines end with CR LF
func (c ConversionConfig) UseCRLF() bool {
	return strings.EqualFold(c.LineEnding, LineEndingCRLF)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	// Host is the listen address; loopback unless set explicitly.
	Host            string          `yaml:"host" envconfig:"HOST"`
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxBatchSize    int             `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// RootDir confines request paths and output directories when set.
	// Must be absolute.
	RootDir         string          `yaml:"root_dir" envconfig:"ROOT_DIR"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, then the YAML file (if any),
// then CLC_* environment variables. An empty filePath searches the usual locations.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields carry no default tags, so unset variables leave file values alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML configuration onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if utf8.RuneCountInString(c.Conversion.Quote) != 1 {
		return fmt.Errorf("conversion quote must be a single character, got %q", c.Conversion.Quote)
	}
	if c.Conversion.QuoteRune() == ',' || c.Conversion.QuoteRune() == '\n' || c.Conversion.QuoteRune() == '\r' {
		return fmt.Errorf("conversion quote %q collides with the field or record separator", c.Conversion.Quote)
	}

	switch strings.ToLower(c.Conversion.LineEnding) {
	case LineEndingCRLF, LineEndingLF:
	default:
		return fmt.Errorf("invalid line ending: %q", c.Conversion.LineEnding)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RootDir != "" {
		if !filepath.IsAbs(c.Server.RootDir) {
			return fmt.Errorf("server root dir must be absolute, got %q", c.Server.RootDir)
		}
		c.Server.RootDir = filepath.Clean(c.Server.RootDir)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("server max batch size must be positive")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0,1], got %v", c.Telemetry.SampleRatio)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"clcconvert.yaml",
		"configs/clcconvert.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			Quote:       DefaultQuote,
			Banner:      DefaultBanner,
			Attribution: DefaultAttribution,
			LineEnding:  LineEndingCRLF,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Server: ServerConfig{
			Host:            DefaultServerHost,
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBatchSize:    100,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
