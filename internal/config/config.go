package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the verifier console configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Service    ServiceConfig    `yaml:"service"`
	Validation ValidationConfig `yaml:"validation"`
	Preview    PreviewConfig    `yaml:"preview"`
	Progress   ProgressConfig   `yaml:"progress"`
	Console    ConsoleConfig    `yaml:"console"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig controls the local console listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ServiceConfig points at the remote analysis service.
type ServiceConfig struct {
	Endpoint       string        `yaml:"endpoint"`        // POST target for video analysis
	StatusEndpoint string        `yaml:"status_endpoint"` // GET liveness target
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
}

// ValidationConfig sets the accepted types and the advisory size gate.
type ValidationConfig struct {
	SizeWarningThresholdBytes int64         `yaml:"size_warning_threshold_bytes"`
	SizeAckTimeout            time.Duration `yaml:"size_ack_timeout"`
	SupportedTypes            []string      `yaml:"supported_types"`
}

// PreviewConfig bounds how long a preview handle stays live.
type PreviewConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// ProgressConfig sets when each cosmetic marker appears after submission.
type ProgressConfig struct {
	DetectingFacesAfter time.Duration `yaml:"detecting_faces_after"`
	AnalyzingAfter      time.Duration `yaml:"analyzing_after"`
}

// ConsoleConfig holds console auth and upload limits. An empty JWTSecret disables auth.
type ConsoleConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	JWTAudience       string `yaml:"jwt_audience"`
	MaxSelectionBytes int64  `yaml:"max_selection_bytes"`
}

// LoggingConfig selects the zap level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

const (
	DefaultEndpoint       = "http://localhost:7860/predict"
	DefaultStatusEndpoint = "http://localhost:7860/health"
)

// DefaultSupportedTypes lists the video containers accepted by the validator.
var DefaultSupportedTypes = []string{
	"video/mp4",
	"video/mov",
	"video/avi",
	"video/webm",
	"video/mkv",
	"video/quicktime",
	"video/x-msvideo",
	"video/x-matroska",
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	applyDefaults(cfg)
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Service.Endpoint == "" {
		cfg.Service.Endpoint = DefaultEndpoint
	}
	if cfg.Service.StatusEndpoint == "" {
		cfg.Service.StatusEndpoint = DefaultStatusEndpoint
	}
	if cfg.Service.RequestTimeout == 0 {
		cfg.Service.RequestTimeout = 5 * time.Minute
	}
	if cfg.Service.ProbeTimeout == 0 {
		cfg.Service.ProbeTimeout = 10 * time.Second
	}

	if cfg.Validation.SizeWarningThresholdBytes == 0 {
		cfg.Validation.SizeWarningThresholdBytes = 50 << 20
	}
	if cfg.Validation.SizeAckTimeout == 0 {
		cfg.Validation.SizeAckTimeout = 3 * time.Second
	}
	if len(cfg.Validation.SupportedTypes) == 0 {
		cfg.Validation.SupportedTypes = append([]string(nil), DefaultSupportedTypes...)
	}

	if cfg.Preview.TTL == 0 {
		cfg.Preview.TTL = 60 * time.Second
	}

	if cfg.Progress.DetectingFacesAfter == 0 {
		cfg.Progress.DetectingFacesAfter = 2 * time.Second
	}
	if cfg.Progress.AnalyzingAfter == 0 {
		cfg.Progress.AnalyzingAfter = 4 * time.Second
	}

	if cfg.Console.MaxSelectionBytes == 0 {
		cfg.Console.MaxSelectionBytes = 1 << 30
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	if v, ok := lookupNonEmpty(lookup, "LISTEN_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := lookupNonEmpty(lookup, "PREDICT_ENDPOINT"); ok {
		cfg.Service.Endpoint = v
	}
	if v, ok := lookupNonEmpty(lookup, "STATUS_ENDPOINT"); ok {
		cfg.Service.StatusEndpoint = v
	}
	if v, ok := lookupNonEmpty(lookup, "JWT_SECRET"); ok {
		cfg.Console.JWTSecret = v
	}
	if v, ok := lookupNonEmpty(lookup, "JWT_AUDIENCE"); ok {
		cfg.Console.JWTAudience = v
	}
	if v, ok := lookupNonEmpty(lookup, "LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookupNonEmpty(lookup, "SIZE_WARNING_THRESHOLD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &FieldError{Field: "SIZE_WARNING_THRESHOLD_BYTES", Reason: "must be an integer"}
		}
		cfg.Validation.SizeWarningThresholdBytes = n
	}
	return nil
}

func lookupNonEmpty(lookup lookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
