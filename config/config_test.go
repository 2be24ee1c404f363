package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.CategoryURL = "https://www.example.com/women/dresses"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty site",
			mutate: func(cfg *Config) {
				cfg.Site = ""
			},
			wantErr: "site",
		},
		{
			name: "empty category url",
			mutate: func(cfg *Config) {
				cfg.CategoryURL = ""
			},
			wantErr: "category URL",
		},
		{
			name: "category url without host",
			mutate: func(cfg *Config) {
				cfg.CategoryURL = "http://"
			},
			wantErr: "category URL",
		},
		{
			name: "category url wrong scheme",
			mutate: func(cfg *Config) {
				cfg.CategoryURL = "ftp://example.com/dresses"
			},
			wantErr: "http or https",
		},
		{
			name: "zero max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "zero max products",
			mutate: func(cfg *Config) {
				cfg.MaxProducts = 0
			},
			wantErr: "max products",
		},
		{
			name: "negative parallelism",
			mutate: func(cfg *Config) {
				cfg.Parallelism = -1
			},
			wantErr: "parallelism",
		},
		{
			name: "negative delay",
			mutate: func(cfg *Config) {
				cfg.Delay = -time.Second
			},
			wantErr: "delay",
		},
		{
			name: "zero timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = 0
			},
			wantErr: "timeout",
		},
		{
			name: "backoff above cap",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = time.Minute
				cfg.RetryBackoffMax = time.Second
			},
			wantErr: "retry backoff",
		},
		{
			name: "no user agents",
			mutate: func(cfg *Config) {
				cfg.UserAgents = nil
			},
			wantErr: "user agent",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValidWithCategory(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should validate, got %v", err)
	}
}
