package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	if cfg.Cache.MaxFileSize != "1MB" {
		t.Errorf("expected default max_file_size 1MB, got %s", cfg.Cache.MaxFileSize)
	}
	if cfg.Cache.MaxTotalSize != "64MB" {
		t.Errorf("expected default max_total_size 64MB, got %s", cfg.Cache.MaxTotalSize)
	}
	if cfg.Cache.TTL != 60*time.Second {
		t.Errorf("expected default TTL 60s, got %v", cfg.Cache.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration should validate, got: %v", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"1MB", 1 << 20, false},
		{"64MB", 64 << 20, false},
		{"2GB", 2 << 30, false},
		{"512KB", 512 << 10, false},
		{"128B", 128, false},
		{"0.5MB", 512 << 10, false},
		{"1024", 1024, false},
		{" 16 MB ", 16 << 20, false},
		{"", 0, true},
		{"invalid-size", 0, true},
		{"MB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			size, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && size != tt.expected {
				t.Errorf("ParseSize(%q) = %d, expected %d", tt.input, size, tt.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Configuration) {},
			wantErr: false,
		},
		{
			name:    "bad max_file_size",
			mutate:  func(c *Configuration) { c.Cache.MaxFileSize = "huge" },
			wantErr: true,
		},
		{
			name:    "ceiling above capacity",
			mutate:  func(c *Configuration) { c.Cache.MaxFileSize = "128MB" },
			wantErr: true,
		},
		{
			name:    "negative ttl",
			mutate:  func(c *Configuration) { c.Cache.TTL = -time.Second },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Configuration) { c.Global.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name:    "lowercase log level accepted",
			mutate:  func(c *Configuration) { c.Global.LogLevel = "debug" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
global:
  log_level: DEBUG
cache:
  max_file_size: 256KB
  max_total_size: 16MB
  ttl: 30s
metrics:
  enabled: true
  addr: ":9090"
`
	path := filepath.Join(t.TempDir(), "archivefs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefault()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Global.LogLevel != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %s", cfg.Global.LogLevel)
	}
	if cfg.Cache.MaxFileSize != "256KB" {
		t.Errorf("expected max_file_size 256KB, got %s", cfg.Cache.MaxFileSize)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("expected ttl 30s, got %v", cfg.Cache.TTL)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9090" {
		t.Errorf("metrics settings not applied: %+v", cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded configuration should validate, got: %v", err)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := NewDefault()
	if err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARCHIVEFS_CACHE_MAX_FILE_SIZE", "2MB")
	t.Setenv("ARCHIVEFS_CACHE_TTL", "90s")
	t.Setenv("ARCHIVEFS_METRICS_ENABLED", "true")

	cfg := NewDefault()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Cache.MaxFileSize != "2MB" {
		t.Errorf("expected max_file_size 2MB, got %s", cfg.Cache.MaxFileSize)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("expected ttl 90s, got %v", cfg.Cache.TTL)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
}

func TestByteAccessors(t *testing.T) {
	cfg := NewDefault()
	if got := cfg.MaxFileBytes(); got != 1<<20 {
		t.Errorf("MaxFileBytes() = %d, expected %d", got, 1<<20)
	}
	if got := cfg.MaxTotalBytes(); got != 64<<20 {
		t.Errorf("MaxTotalBytes() = %d, expected %d", got, 64<<20)
	}
}
