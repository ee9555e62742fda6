// Package config contains utilities for loading configs
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/matt-dz/recipebox/internal/log"
)

const (
	configFilePath     = "/data/recipebox.yaml"
	appSecretBytes     = 32
	appSecretFilePerms = 0o600
)

const (
	EnvProd = "PROD"
	EnvDev  = "DEV"
)

const (
	defaultPort            = 8080
	defaultBackendURL      = "http://localhost:8000"
	defaultBackendRetryMax = 2
	defaultBackendTimeout  = "10s"
	defaultDraftTTL        = "30m"
	defaultSecretPath      = "/data/secret"
	defaultSecretVersion   = "1"
)

// Duration is a duration written the way time.ParseDuration reads it,
// e.g. "1m30s".
type Duration string

func (d Duration) Validate() error {
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", d, err)
	}
	if v <= 0 {
		return fmt.Errorf("duration %q must be positive", d)
	}
	return nil
}

// Value returns the parsed duration. It must only be called on a
// validated config.
func (d Duration) Value() time.Duration {
	v, _ := time.ParseDuration(string(d))
	return v
}

type LogLevel string

func (l LogLevel) Validate() error {
	_, err := log.ParseLevel(string(l))
	return err
}

func (l LogLevel) Level() slog.Level {
	level, _ := log.ParseLevel(string(l))
	return level
}

type AppSecretValue string

func (a *AppSecretValue) Validate() error {
	if a == nil {
		return errors.New("secret should not be nil")
	}
	if len([]byte(*a)) < appSecretBytes {
		return errors.New("secret should be at least 32 bytes")
	}
	return nil
}

type AppSecret struct {
	Value   *AppSecretValue `yaml:"value" validate:"omitempty,validateFn"`
	Path    string          `yaml:"path" validate:"omitempty,filepath"`
	Version string          `yaml:"version"`
}

type Server struct {
	Port uint16 `yaml:"port" validate:"required"`
}

type Backend struct {
	URL      string   `yaml:"url" validate:"required,http_url"`
	RetryMax int      `yaml:"retry_max" validate:"gte=0,lte=10"`
	Timeout  Duration `yaml:"timeout" validate:"validateFn"`
}

type Drafts struct {
	TTL Duration `yaml:"ttl" validate:"validateFn"`
}

type Config struct {
	AppSecret AppSecret `yaml:"app_secret"`
	Server    Server    `yaml:"server"`
	Backend   Backend   `yaml:"backend"`
	Drafts    Drafts    `yaml:"drafts"`
	Env       string    `yaml:"env" validate:"omitempty,oneof=DEV PROD"`
	LogLevel  LogLevel  `yaml:"log_level" validate:"validateFn"`
}

// Secret returns the key used to sign session cookies.
func (c Config) Secret() []byte {
	if c.AppSecret.Value == nil {
		return nil
	}
	return []byte(*c.AppSecret.Value)
}

func defaultLogLevel(environment string) LogLevel {
	if environment == EnvProd {
		return LogLevel(slog.LevelInfo.String())
	}
	return LogLevel(slog.LevelDebug.String())
}

func newAppSecret() (string, error) {
	token := make([]byte, appSecretBytes)
	if _, err := rand.Reader.Read(token); err != nil {
		return "", fmt.Errorf("creating app secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(token), nil
}

func loadAppSecret(config *Config) error {
	if config.AppSecret.Value != nil {
		return nil
	}

	var secret string
	if f1, err := os.Lstat(config.AppSecret.Path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking secret path: %w", err)
		}

		file, err := os.OpenFile(config.AppSecret.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, appSecretFilePerms)
		if err != nil {
			return fmt.Errorf("creating secret file: %w", err)
		}
		defer func() { _ = file.Close() }()

		secret, err = newAppSecret()
		if err != nil {
			return fmt.Errorf("generating new app secret: %w", err)
		}

		if _, err := file.WriteString(secret); err != nil {
			return fmt.Errorf("writing secret file: %w", err)
		}
	} else {
		if f1.IsDir() {
			return fmt.Errorf("expected file, got directory at %q", config.AppSecret.Path)
		}
		data, err := os.ReadFile(config.AppSecret.Path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		secret = string(data)
	}
	val := AppSecretValue(secret)
	if err := val.Validate(); err != nil {
		return fmt.Errorf("secret at %q: %w", config.AppSecret.Path, err)
	}
	config.AppSecret.Value = &val
	return nil
}

func loadWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func validateConfig(config Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loadConfigFromEnv() (Config, error) {
	environment := loadWithDefault("ENV", EnvDev)
	logLevel := LogLevel(loadWithDefault("LOG_LEVEL", string(defaultLogLevel(environment))))

	// AppSecret
	appSecretValue := AppSecretValue(loadWithDefault("APP_SECRET", ""))
	appSecretPath := loadWithDefault("APP_SECRET_PATH", defaultSecretPath)
	appSecretVersion := loadWithDefault("APP_SECRET_VERSION", defaultSecretVersion)

	// Server
	port := loadWithDefault("PORT", strconv.Itoa(defaultPort))

	// Backend
	backendURL := loadWithDefault("BACKEND_URL", defaultBackendURL)
	backendRetryMax := loadWithDefault("BACKEND_RETRY_MAX", strconv.Itoa(defaultBackendRetryMax))
	backendTimeout := Duration(loadWithDefault("BACKEND_TIMEOUT", defaultBackendTimeout))

	// Drafts
	draftTTL := Duration(loadWithDefault("DRAFT_TTL", defaultDraftTTL))

	conf := Config{
		Env:      environment,
		LogLevel: logLevel,
		Backend: Backend{
			URL:     backendURL,
			Timeout: backendTimeout,
		},
		Drafts: Drafts{TTL: draftTTL},
	}

	// Load App Secret
	conf.AppSecret = AppSecret{
		Path:    appSecretPath,
		Version: appSecretVersion,
	}
	if appSecretValue != "" {
		conf.AppSecret.Value = &appSecretValue
	}

	if p, err := strconv.ParseUint(port, 10, 16); err != nil {
		return conf, fmt.Errorf("invalid PORT (%q): %w", port, err)
	} else {
		conf.Server.Port = uint16(p)
	}

	if n, err := strconv.Atoi(backendRetryMax); err != nil {
		return conf, fmt.Errorf("invalid BACKEND_RETRY_MAX (%q): %w", backendRetryMax, err)
	} else {
		conf.Backend.RetryMax = n
	}

	if err := validateConfig(conf); err != nil {
		return conf, err
	}

	if err := loadAppSecret(&conf); err != nil {
		return conf, fmt.Errorf("loading app secret: %w", err)
	}

	return conf, nil
}

func loadConfigFromFile(path string) (Config, error) {
	// Read file
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	// Unmarshal into config
	config := Config{
		Backend: Backend{RetryMax: defaultBackendRetryMax},
	}
	if err := yaml.Unmarshal(contents, &config); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Set defaults
	if config.AppSecret.Path == "" {
		config.AppSecret.Path = defaultSecretPath
	}
	if config.AppSecret.Version == "" {
		config.AppSecret.Version = defaultSecretVersion
	}
	if config.Env == "" {
		config.Env = EnvDev
	}
	if config.LogLevel == "" {
		config.LogLevel = defaultLogLevel(config.Env)
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaultPort
	}
	if config.Backend.URL == "" {
		config.Backend.URL = defaultBackendURL
	}
	if config.Backend.Timeout == "" {
		config.Backend.Timeout = defaultBackendTimeout
	}
	if config.Drafts.TTL == "" {
		config.Drafts.TTL = defaultDraftTTL
	}

	// Validate config
	if err := validateConfig(config); err != nil {
		return Config{}, err
	}

	if err := loadAppSecret(&config); err != nil {
		return Config{}, fmt.Errorf("loading app secret: %w", err)
	}

	return config, nil
}

func configFileExists(path string) bool {
	f, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return !f.IsDir()
}

// LoadConfig reads the config file when it exists and falls back to the
// environment otherwise.
func LoadConfig() (Config, error) {
	if configFileExists(configFilePath) {
		return loadConfigFromFile(configFilePath)
	}

	return loadConfigFromEnv()
}
