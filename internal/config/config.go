package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// ConfigFileLocations are searched in order; the first file found is loaded.
var ConfigFileLocations = []string{
	"licensegate.yaml",
	"configs/licensegate.yaml",
}

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	License   LicenseConfig   `yaml:"license" envconfig:"LICENSE"`
	Hardware  HardwareConfig  `yaml:"hardware" envconfig:"HARDWARE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	// AllowLAN permits binding to a non-loopback host.
	AllowLAN  bool            `yaml:"allow_lan" envconfig:"ALLOW_LAN"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// LicenseConfig holds the trusted issuer key and request limits.
type LicenseConfig struct {
	// PublicKey is the standard base64 encoding of the 32-byte Ed25519 key.
	PublicKey string `yaml:"public_key" envconfig:"PUBLIC_KEY"`
	// MaxTokenBytes caps the size of a license string accepted by the API.
	MaxTokenBytes int `yaml:"max_token_bytes" envconfig:"MAX_TOKEN_BYTES"`
}

// HardwareConfig selects how the local device identifier is obtained.
type HardwareConfig struct {
	Source string `yaml:"source" envconfig:"SOURCE"`
	// AppID, when set, switches the machine-id source to an app-specific
	// HMAC of the OS machine id.
	AppID            string        `yaml:"app_id" envconfig:"APP_ID"`
	FingerprintCache time.Duration `yaml:"fingerprint_cache" envconfig:"FINGERPRINT_CACHE"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
}

// Load builds the configuration from defaults, then the first config file
// found in ConfigFileLocations, then LICENSEGATE_* environment variables.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file at path onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks the configuration and normalizes enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server read timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server write timeout must be positive"))
	}
	if !c.Security.AllowLAN && !isLoopback(c.Server.Host) {
		errs = append(errs, fmt.Errorf("server host %q is not a loopback address; set security.allow_lan to expose it", c.Server.Host))
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}

	if strings.TrimSpace(c.License.PublicKey) == "" {
		errs = append(errs, errors.New("license public key must be set"))
	}
	if c.License.MaxTokenBytes <= 0 {
		errs = append(errs, errors.New("license max token bytes must be positive"))
	}

	c.Hardware.Source = strings.ToLower(strings.TrimSpace(c.Hardware.Source))
	switch c.Hardware.Source {
	case HardwareSourceMachineID, HardwareSourceFingerprint:
	default:
		errs = append(errs, fmt.Errorf("unknown hardware source %q", c.Hardware.Source))
	}

	switch c.Telemetry.TraceExporter {
	case TraceExporterStdout, TraceExporterNone:
	default:
		errs = append(errs, fmt.Errorf("unknown trace exporter %q", c.Telemetry.TraceExporter))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("sample ratio %v out of range [0,1]", c.Telemetry.SampleRatio))
	}

	// Logs are always JSON.
	c.Logging.Format = "json"
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/licensegate.log"
	}

	return errors.Join(errs...)
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// findConfigFile returns the first existing file in ConfigFileLocations.
func findConfigFile() string {
	for _, location := range ConfigFileLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8765,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  5 * time.Second,
			MaxHeaderBytes:  1 << 16,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		License: LicenseConfig{
			PublicKey:     DefaultPublicKey,
			MaxTokenBytes: 16 << 10,
		},
		Hardware: HardwareConfig{
			Source:           HardwareSourceMachineID,
			FingerprintCache: time.Hour,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			Environment:   "production",
			EnableTracing: false,
			TraceExporter: TraceExporterNone,
			SampleRatio:   1.0,
			EnableMetrics: true,
		},
	}
}
