package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for every environment override.
const EnvPrefix = "SMARTMARKET"

// Config holds client configuration.
type Config struct {
	AnalysisBaseURL    string        `envconfig:"ANALYSIS_URL"`
	PersistenceBaseURL string        `envconfig:"PERSISTENCE_URL"`
	WithAnalysis       bool          `envconfig:"WITH_ANALYSIS"`
	SendPacing         bool          `envconfig:"SEND_PACING"`
	MaxPages           int           `envconfig:"MAX_PAGES"`
	PerPageDelay       float64       `envconfig:"PER_PAGE_DELAY"`
	DetailDelay        float64       `envconfig:"DETAIL_DELAY"`
	Timeout            time.Duration `envconfig:"TIMEOUT"`

	LockoutThreshold int           `envconfig:"LOCKOUT_THRESHOLD"`
	LockoutWindow    time.Duration `envconfig:"LOCKOUT_WINDOW"`
	LoginMinPassword int           `envconfig:"LOGIN_MIN_PASSWORD"`

	PasswordMinLength int  `envconfig:"PW_MIN"`
	PasswordUpper     bool `envconfig:"PW_UPPER"`
	PasswordLower     bool `envconfig:"PW_LOWER"`
	PasswordNumber    bool `envconfig:"PW_NUMBER"`
	PasswordSymbol    bool `envconfig:"PW_SYMBOL"`

	TokenDir string `envconfig:"TOKEN_DIR"`

	PipelineBufferSize int    `envconfig:"EXPORT_BUFFER"`
	BatchSize          int    `envconfig:"EXPORT_BATCH"`
	DedupeMaxSize      int    `envconfig:"EXPORT_DEDUPE"`
	OutputFormat       string `envconfig:"EXPORT_FORMAT"` // csv, json, or dual
	HistogramBuckets   int    `envconfig:"HISTOGRAM_BUCKETS"`

	MetricsAddr string `envconfig:"METRICS_ADDR"`
	HistoryFile string `envconfig:"HISTORY_FILE"`
	Verbose     bool   `envconfig:"VERBOSE"`
}

// DefaultConfig returns defaults matching a local two-service deployment.
func DefaultConfig() *Config {
	return &Config{
		AnalysisBaseURL:    "http://127.0.0.1:8000",
		PersistenceBaseURL: "http://localhost:8080",
		WithAnalysis:       true,
		SendPacing:         false,
		MaxPages:           5,
		PerPageDelay:       1.5,
		DetailDelay:        1.0,
		Timeout:            30 * time.Second,
		LockoutThreshold:   5,
		LockoutWindow:      60 * time.Second,
		LoginMinPassword:   6,
		PasswordMinLength:  8,
		PasswordUpper:      true,
		PasswordLower:      true,
		PasswordNumber:     true,
		PasswordSymbol:     true,
		TokenDir:           StateDir(),
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      10000,
		OutputFormat:       "csv",
		HistogramBuckets:   10,
		MetricsAddr:        "",
		HistoryFile:        filepath.Join(StateDir(), "history"),
		Verbose:            false,
	}
}

// Load returns DefaultConfig overlaid with SMARTMARKET_* environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	return cfg, nil
}

// StateDir returns the per-user state directory, honouring XDG_STATE_HOME.
func StateDir() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "state")
	}
	return filepath.Join(base, "smartmarket")
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := validateBaseURL("analysis", c.AnalysisBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("persistence", c.PersistenceBaseURL); err != nil {
		return err
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.PerPageDelay < 0 {
		return fmt.Errorf("per page delay cannot be negative")
	}
	if c.DetailDelay < 0 {
		return fmt.Errorf("detail delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.LockoutThreshold <= 0 {
		return fmt.Errorf("lockout threshold must be positive")
	}
	if c.LockoutWindow <= 0 {
		return fmt.Errorf("lockout window must be positive")
	}
	if c.LoginMinPassword < 0 {
		return fmt.Errorf("login minimum password length cannot be negative")
	}
	if c.PasswordMinLength <= 0 {
		return fmt.Errorf("password minimum length must be positive")
	}
	if c.TokenDir == "" {
		return fmt.Errorf("token dir cannot be empty")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("export buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("export batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("export dedupe size must be positive")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.HistogramBuckets <= 0 {
		return fmt.Errorf("histogram buckets must be positive")
	}

	return nil
}

func validateBaseURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s base URL cannot be empty", name)
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s base URL: %w", name, err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s base URL must include a host", name)
	}
	return nil
}
