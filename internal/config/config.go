package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Narrative providers.
const (
	NarrativeTemplate = "template"
	NarrativeGemini   = "gemini"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	BillPay   BillPayConfig   `yaml:"billpay"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Otel      OtelConfig      `yaml:"otel"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"GRANTFLOW_SERVER_HOST"`
	Port int    `yaml:"port" env:"GRANTFLOW_SERVER_PORT"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"GRANTFLOW_DB_PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"GRANTFLOW_LOG_LEVEL"`
	// File, when set, receives logs instead of the console.
	File string `yaml:"file" env:"GRANTFLOW_LOG_FILE"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" env:"GRANTFLOW_TRANSPORT_MODE"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled" env:"GRANTFLOW_AUTH_ENABLED"`
	// DefaultClientID scopes requests when auth is disabled.
	DefaultClientID string `yaml:"default_client_id" env:"GRANTFLOW_DEFAULT_CLIENT_ID"`
}

// BillPayConfig points at the payments system. An empty URL leaves payout linking manual.
type BillPayConfig struct {
	URL        string        `yaml:"url" env:"GRANTFLOW_BILLPAY_URL"`
	Token      string        `yaml:"token" env:"GRANTFLOW_BILLPAY_TOKEN"`
	Timeout    time.Duration `yaml:"timeout" env:"GRANTFLOW_BILLPAY_TIMEOUT"`
	MaxRetries uint          `yaml:"max_retries" env:"GRANTFLOW_BILLPAY_MAX_RETRIES"`
}

type NarrativeConfig struct {
	Provider string `yaml:"provider" env:"GRANTFLOW_NARRATIVE_PROVIDER"`
	Model    string `yaml:"model" env:"GRANTFLOW_NARRATIVE_MODEL"`
}

type OtelConfig struct {
	Endpoint string `yaml:"endpoint" env:"GRANTFLOW_OTEL_ENDPOINT"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "grantflow.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Auth: AuthConfig{
			Enabled:         true,
			DefaultClientID: "default",
		},
		BillPay: BillPayConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Narrative: NarrativeConfig{
			Provider: NarrativeTemplate,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables win over the file, the file wins over defaults.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("GRANTFLOW_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Transport.Mode = strings.ToLower(strings.TrimSpace(cfg.Transport.Mode))
	cfg.Narrative.Provider = strings.ToLower(strings.TrimSpace(cfg.Narrative.Provider))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port))
	}
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("unknown transport mode %q (want %s or %s)", c.Transport.Mode, TransportHTTP, TransportStdio))
	}
	switch c.Narrative.Provider {
	case NarrativeTemplate, NarrativeGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown narrative provider %q", c.Narrative.Provider))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.BillPay.Timeout < 0 {
		errs = append(errs, errors.New("billpay timeout must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
