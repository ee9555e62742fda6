package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "this-is-a-very-long-secret-key-with-more-than-32-bytes"

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*testing.T)
		wantError bool
		validate  func(*testing.T, *Config)
	}{
		{
			name:      "all defaults",
			setup:     func(t *testing.T) {},
			wantError: false,
			validate: func(t *testing.T, c *Config) {
				if c.Env != EnvDev {
					t.Errorf("expected Env %q, got %q", EnvDev, c.Env)
				}
				if c.LogLevel.Level() != slog.LevelDebug {
					t.Errorf("expected LogLevel DEBUG, got %q", c.LogLevel)
				}
				if c.Server.Port != 8080 {
					t.Errorf("expected Server.Port 8080, got %d", c.Server.Port)
				}
				if c.Backend.URL != "http://localhost:8000" {
					t.Errorf("expected Backend.URL %q, got %q", "http://localhost:8000", c.Backend.URL)
				}
				if c.Backend.RetryMax != 2 {
					t.Errorf("expected Backend.RetryMax 2, got %d", c.Backend.RetryMax)
				}
				if c.Backend.Timeout.Value() != 10*time.Second {
					t.Errorf("expected Backend.Timeout 10s, got %q", c.Backend.Timeout)
				}
				if c.Drafts.TTL.Value() != 30*time.Minute {
					t.Errorf("expected Drafts.TTL 30m, got %q", c.Drafts.TTL)
				}
				if c.AppSecret.Version != "1" {
					t.Errorf("expected AppSecret.Version %q, got %q", "1", c.AppSecret.Version)
				}
				// AppSecret.Value should be generated by loadAppSecret
				if c.AppSecret.Value == nil {
					t.Fatal("expected AppSecret.Value to be set, got nil")
				}
				data, err := os.ReadFile(c.AppSecret.Path)
				if err != nil {
					t.Fatalf("expected secret to be persisted: %v", err)
				}
				if string(data) != string(*c.AppSecret.Value) {
					t.Error("persisted secret does not match loaded secret")
				}
			},
		},
		{
			name: "custom environment values",
			setup: func(t *testing.T) {
				t.Setenv("ENV", "PROD")
				t.Setenv("PORT", "9090")
				t.Setenv("BACKEND_URL", "https://api.example.com")
				t.Setenv("BACKEND_RETRY_MAX", "0")
				t.Setenv("BACKEND_TIMEOUT", "3s")
				t.Setenv("DRAFT_TTL", "5m")
				t.Setenv("APP_SECRET", testSecret)
				t.Setenv("APP_SECRET_VERSION", "2")
			},
			wantError: false,
			validate: func(t *testing.T, c *Config) {
				if c.Env != EnvProd {
					t.Errorf("expected Env %q, got %q", EnvProd, c.Env)
				}
				if c.LogLevel.Level() != slog.LevelInfo {
					t.Errorf("expected PROD default LogLevel INFO, got %q", c.LogLevel)
				}
				if c.Server.Port != 9090 {
					t.Errorf("expected Server.Port 9090, got %d", c.Server.Port)
				}
				if c.Backend.URL != "https://api.example.com" {
					t.Errorf("expected Backend.URL %q, got %q", "https://api.example.com", c.Backend.URL)
				}
				if c.Backend.RetryMax != 0 {
					t.Errorf("expected Backend.RetryMax 0, got %d", c.Backend.RetryMax)
				}
				if c.Backend.Timeout.Value() != 3*time.Second {
					t.Errorf("expected Backend.Timeout 3s, got %q", c.Backend.Timeout)
				}
				if c.Drafts.TTL.Value() != 5*time.Minute {
					t.Errorf("expected Drafts.TTL 5m, got %q", c.Drafts.TTL)
				}
				if string(c.Secret()) != testSecret {
					t.Errorf("expected secret from APP_SECRET, got %q", c.Secret())
				}
				if c.AppSecret.Version != "2" {
					t.Errorf("expected AppSecret.Version %q, got %q", "2", c.AppSecret.Version)
				}
			},
		},
		{
			name: "explicit log level",
			setup: func(t *testing.T) {
				t.Setenv("LOG_LEVEL", "warn")
			},
			validate: func(t *testing.T, c *Config) {
				if c.LogLevel.Level() != slog.LevelWarn {
					t.Errorf("expected LogLevel WARN, got %q", c.LogLevel)
				}
			},
		},
		{
			name: "invalid env",
			setup: func(t *testing.T) {
				t.Setenv("ENV", "STAGING")
			},
			wantError: true,
		},
		{
			name: "invalid log level",
			setup: func(t *testing.T) {
				t.Setenv("LOG_LEVEL", "LOUD")
			},
			wantError: true,
		},
		{
			name: "invalid port",
			setup: func(t *testing.T) {
				t.Setenv("PORT", "99999")
			},
			wantError: true,
		},
		{
			name: "invalid backend url",
			setup: func(t *testing.T) {
				t.Setenv("BACKEND_URL", "not a url")
			},
			wantError: true,
		},
		{
			name: "invalid retry max",
			setup: func(t *testing.T) {
				t.Setenv("BACKEND_RETRY_MAX", "many")
			},
			wantError: true,
		},
		{
			name: "retry max out of range",
			setup: func(t *testing.T) {
				t.Setenv("BACKEND_RETRY_MAX", "50")
			},
			wantError: true,
		},
		{
			name: "invalid timeout",
			setup: func(t *testing.T) {
				t.Setenv("BACKEND_TIMEOUT", "soon")
			},
			wantError: true,
		},
		{
			name: "non-positive draft ttl",
			setup: func(t *testing.T) {
				t.Setenv("DRAFT_TTL", "0s")
			},
			wantError: true,
		},
		{
			name: "short app secret",
			setup: func(t *testing.T) {
				t.Setenv("APP_SECRET", "short")
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Use temp directory for app secret
			tempDir := t.TempDir()
			secretPath := filepath.Join(tempDir, "secret")
			t.Setenv("APP_SECRET_PATH", secretPath)

			tt.setup(t)

			config, err := loadConfigFromEnv()

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, &config)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tests := []struct {
		name      string
		yaml      func(*testing.T) string
		wantError bool
		validate  func(*testing.T, *Config)
	}{
		{
			name: "complete config",
			yaml: func(*testing.T) string {
				return fmt.Sprintf(`
env: PROD
log_level: ERROR
server:
  port: 3000
backend:
  url: https://api.example.com
  retry_max: 4
  timeout: 2s
drafts:
  ttl: 1h
app_secret:
  value: %s
  path: /custom/secret
  version: "2"
`, testSecret)
			},
			wantError: false,
			validate: func(t *testing.T, c *Config) {
				if c.Env != EnvProd {
					t.Errorf("expected Env %q, got %q", EnvProd, c.Env)
				}
				if c.LogLevel.Level() != slog.LevelError {
					t.Errorf("expected LogLevel ERROR, got %q", c.LogLevel)
				}
				if c.Server.Port != 3000 {
					t.Errorf("expected Server.Port 3000, got %d", c.Server.Port)
				}
				if c.Backend.RetryMax != 4 {
					t.Errorf("expected Backend.RetryMax 4, got %d", c.Backend.RetryMax)
				}
				if c.Backend.Timeout.Value() != 2*time.Second {
					t.Errorf("expected Backend.Timeout 2s, got %q", c.Backend.Timeout)
				}
				if c.Drafts.TTL.Value() != time.Hour {
					t.Errorf("expected Drafts.TTL 1h, got %q", c.Drafts.TTL)
				}
				if c.AppSecret.Version != "2" {
					t.Errorf("expected AppSecret.Version %q, got %q", "2", c.AppSecret.Version)
				}
				if string(c.Secret()) != testSecret {
					t.Errorf("expected inline secret, got %q", c.Secret())
				}
			},
		},
		{
			name: "minimal config with defaults",
			yaml: func(t *testing.T) string {
				tempDir := t.TempDir()
				return fmt.Sprintf(`
app_secret:
  path: %s
`, filepath.Join(tempDir, "secret"))
			},
			wantError: false,
			validate: func(t *testing.T, c *Config) {
				if c.Env != EnvDev {
					t.Errorf("expected default Env %q, got %q", EnvDev, c.Env)
				}
				if c.LogLevel.Level() != slog.LevelDebug {
					t.Errorf("expected default LogLevel DEBUG, got %q", c.LogLevel)
				}
				if c.Server.Port != 8080 {
					t.Errorf("expected default Server.Port 8080, got %d", c.Server.Port)
				}
				if c.Backend.URL != "http://localhost:8000" {
					t.Errorf("expected default Backend.URL, got %q", c.Backend.URL)
				}
				if c.Backend.RetryMax != 2 {
					t.Errorf("expected default Backend.RetryMax 2, got %d", c.Backend.RetryMax)
				}
				if c.Drafts.TTL.Value() != 30*time.Minute {
					t.Errorf("expected default Drafts.TTL 30m, got %q", c.Drafts.TTL)
				}
				if c.AppSecret.Version != "1" {
					t.Errorf("expected default AppSecret.Version %q, got %q", "1", c.AppSecret.Version)
				}
				if c.AppSecret.Value == nil {
					t.Error("expected AppSecret.Value to be generated")
				}
			},
		},
		{
			name: "existing secret file is reused",
			yaml: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "secret")
				if err := os.WriteFile(path, []byte(testSecret), 0o600); err != nil {
					t.Fatalf("failed to write secret: %v", err)
				}
				return fmt.Sprintf("app_secret:\n  path: %s\n", path)
			},
			validate: func(t *testing.T, c *Config) {
				if string(c.Secret()) != testSecret {
					t.Errorf("expected secret from file, got %q", c.Secret())
				}
			},
		},
		{
			name: "secret path is a directory",
			yaml: func(t *testing.T) string {
				return fmt.Sprintf("app_secret:\n  path: %s\n", t.TempDir())
			},
			wantError: true,
		},
		{
			name: "invalid env",
			yaml: func(*testing.T) string {
				return fmt.Sprintf("env: STAGING\napp_secret:\n  value: %s\n", testSecret)
			},
			wantError: true,
		},
		{
			name: "invalid backend url",
			yaml: func(*testing.T) string {
				return fmt.Sprintf("backend:\n  url: ftp://files\napp_secret:\n  value: %s\n", testSecret)
			},
			wantError: true,
		},
		{
			name: "invalid timeout",
			yaml: func(*testing.T) string {
				return fmt.Sprintf("backend:\n  timeout: -1s\napp_secret:\n  value: %s\n", testSecret)
			},
			wantError: true,
		},
		{
			name: "malformed yaml",
			yaml: func(*testing.T) string {
				return "server: [port"
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "recipebox.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml(t)), 0o600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := loadConfigFromFile(configPath)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, &config)
			}
		})
	}
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	if _, err := loadConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestDurationValidate(t *testing.T) {
	tests := []struct {
		in      Duration
		wantErr bool
	}{
		{"1s", false},
		{"1h30m", false},
		{"", true},
		{"0s", true},
		{"-5m", true},
		{"ten", true},
	}
	for _, tt := range tests {
		err := tt.in.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Duration(%q).Validate() error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
