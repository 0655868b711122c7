// Package config loads the server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Images   ImagesConfig   `yaml:"images"`
	SMS      SMSConfig      `yaml:"sms"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            int      `yaml:"port"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	SessionExpiry string `yaml:"session_expiry"`
	ResetExpiry   string `yaml:"reset_expiry"`
	CodeExpiry    string `yaml:"code_expiry"`
	BCryptCost    int    `yaml:"bcrypt_cost"`
}

type ImagesConfig struct {
	// Backend is "sqlite" or "gcs".
	Backend         string `yaml:"backend"`
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
	MaxBytes        int64  `yaml:"max_bytes"`
}

type SMSConfig struct {
	// Provider is "log" or "twilio".
	Provider   string `yaml:"provider"`
	TwilioSID  string `yaml:"twilio_sid"`
	TwilioAuth string `yaml:"twilio_auth"`
	From       string `yaml:"from"`
}

type LedgerConfig struct {
	// DebtRule is "literal" or "own-share".
	DebtRule string `yaml:"debt_rule"`
	// Places is the number of decimals in reported figures. Nil means 2;
	// 0 rounds to whole units.
	Places *int32 `yaml:"places"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads path (if non-empty), applies environment overrides and fills
// defaults for anything left unset.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	envString("DB_PATH", &cfg.Database.Path)
	envString("JWT_SECRET", &cfg.Auth.JWTSecret)
	envString("IMAGES_BACKEND", &cfg.Images.Backend)
	envString("GCS_BUCKET", &cfg.Images.Bucket)
	envString("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Images.CredentialsFile)
	envString("SMS_PROVIDER", &cfg.SMS.Provider)
	envString("TWILIO_ACCOUNT_SID", &cfg.SMS.TwilioSID)
	envString("TWILIO_AUTH_TOKEN", &cfg.SMS.TwilioAuth)
	envString("TWILIO_FROM", &cfg.SMS.From)
	envString("DEBT_RULE", &cfg.Ledger.DebtRule)
	if v := os.Getenv("LEDGER_PLACES"); v != "" {
		places, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_PLACES %q: %w", v, err)
		}
		p := int32(places)
		cfg.Ledger.Places = &p
	}
	envString("LOG_LEVEL", &cfg.Log.Level)
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = "10s"
	}

	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/godutch.db"
	}

	// Auth defaults
	if cfg.Auth.SessionExpiry == "" {
		cfg.Auth.SessionExpiry = "1440h" // 60 days
	}
	if cfg.Auth.ResetExpiry == "" {
		cfg.Auth.ResetExpiry = "30m"
	}
	if cfg.Auth.CodeExpiry == "" {
		cfg.Auth.CodeExpiry = "5m"
	}
	if cfg.Auth.BCryptCost == 0 {
		cfg.Auth.BCryptCost = 10
	}

	// Images defaults
	if cfg.Images.Backend == "" {
		cfg.Images.Backend = "sqlite"
	}
	if cfg.Images.MaxBytes == 0 {
		cfg.Images.MaxBytes = 5 << 20
	}

	if cfg.SMS.Provider == "" {
		cfg.SMS.Provider = "log"
	}

	if cfg.Ledger.DebtRule == "" {
		cfg.Ledger.DebtRule = "literal"
	}
	if cfg.Ledger.Places == nil {
		places := int32(2)
		cfg.Ledger.Places = &places
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required")
	}
	for name, value := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"auth.session_expiry":     c.Auth.SessionExpiry,
		"auth.reset_expiry":       c.Auth.ResetExpiry,
		"auth.code_expiry":        c.Auth.CodeExpiry,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	switch c.Images.Backend {
	case "sqlite":
	case "gcs":
		if c.Images.Bucket == "" {
			return fmt.Errorf("images.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown images.backend %q", c.Images.Backend)
	}
	if p := c.Ledger.Precision(); p < 0 || p > 10 {
		return fmt.Errorf("ledger.places must be between 0 and 10, got %d", p)
	}
	switch c.SMS.Provider {
	case "log":
	case "twilio":
		if c.SMS.TwilioSID == "" || c.SMS.TwilioAuth == "" || c.SMS.From == "" {
			return fmt.Errorf("sms.twilio_sid, sms.twilio_auth and sms.from are required for twilio")
		}
	default:
		return fmt.Errorf("unknown sms.provider %q", c.SMS.Provider)
	}
	return nil
}

// Durations already passed Validate, so parse errors are impossible here.

func (c ServerConfig) Shutdown() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

func (c AuthConfig) Session() time.Duration {
	d, _ := time.ParseDuration(c.SessionExpiry)
	return d
}

func (c AuthConfig) Reset() time.Duration {
	d, _ := time.ParseDuration(c.ResetExpiry)
	return d
}

func (c AuthConfig) Code() time.Duration {
	d, _ := time.ParseDuration(c.CodeExpiry)
	return d
}

// Precision returns Places, or 2 when unset.
func (c LedgerConfig) Precision() int32 {
	if c.Places == nil {
		return 2
	}
	return *c.Places
}
