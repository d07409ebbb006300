package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty analysis url",
			mutate: func(cfg *Config) {
				cfg.AnalysisBaseURL = ""
			},
			wantErr: "analysis base URL",
		},
		{
			name: "persistence url without host",
			mutate: func(cfg *Config) {
				cfg.PersistenceBaseURL = "http://"
			},
			wantErr: "persistence base URL",
		},
		{
			name: "zero max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "zero lockout window",
			mutate: func(cfg *Config) {
				cfg.LockoutWindow = 0
			},
			wantErr: "lockout window",
		},
		{
			name: "unknown export format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "negative detail delay",
			mutate: func(cfg *Config) {
				cfg.DetailDelay = -0.5
			},
			wantErr: "detail delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	t.Setenv("SMARTMARKET_ANALYSIS_URL", "http://scraper.internal:9000")
	t.Setenv("SMARTMARKET_TIMEOUT", "5s")
	t.Setenv("SMARTMARKET_PW_SYMBOL", "false")
	t.Setenv("SMARTMARKET_LOCKOUT_THRESHOLD", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnalysisBaseURL != "http://scraper.internal:9000" {
		t.Fatalf("analysis url = %q", cfg.AnalysisBaseURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.PasswordSymbol {
		t.Fatalf("symbol requirement should be disabled")
	}
	if cfg.LockoutThreshold != 3 {
		t.Fatalf("lockout threshold = %d, want 3", cfg.LockoutThreshold)
	}
	if cfg.PersistenceBaseURL != DefaultConfig().PersistenceBaseURL {
		t.Fatalf("unset variables must keep defaults, got %q", cfg.PersistenceBaseURL)
	}
}

func TestLoadRejectsMalformedEnvironment(t *testing.T) {
	t.Setenv("SMARTMARKET_MAX_PAGES", "many")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error for SMARTMARKET_MAX_PAGES")
	}
}

func TestStateDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
	if got := StateDir(); got != "/tmp/xdg-state/smartmarket" {
		t.Fatalf("state dir = %q", got)
	}
}
