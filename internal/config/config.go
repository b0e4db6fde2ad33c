// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pdfsign.
//
// go-pdfsign is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the pdfsign YAML configuration and applies
// PDFSIGN_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jeremyhahn/go-pdfsign/pkg/keygen"
	"github.com/jeremyhahn/go-pdfsign/pkg/keyguard"
	"github.com/jeremyhahn/go-pdfsign/pkg/signing"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PDFSIGN_"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Keys    KeysConfig    `yaml:"keys"`
	Guard   GuardConfig   `yaml:"guard"`
	Signing SigningConfig `yaml:"signing"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Warnings collects problems found while applying environment
	// overrides. They are reported once a logger exists.
	Warnings []string `yaml:"-"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Dir and File name the log file, truncated on each start. An empty
	// Dir disables the file.
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// KeysConfig locates key files.
type KeysConfig struct {
	// Dir holds public keys. Created on demand.
	Dir string `yaml:"dir"`
	// RemovablePath, when set, is used instead of removable drive
	// detection.
	RemovablePath string `yaml:"removable_path"`
	KeySize       int    `yaml:"key_size"`
}

// GuardConfig controls private key protection and PIN entry.
type GuardConfig struct {
	KDF            string        `yaml:"kdf"`
	Argon2Time     uint32        `yaml:"argon2_time"`
	Argon2MemoryKB uint32        `yaml:"argon2_memory_kb"`
	Argon2Threads  uint8         `yaml:"argon2_threads"`
	PINMinLength   int           `yaml:"pin_min_length"`
	PINMaxLength   int           `yaml:"pin_max_length"`
	PINDigitsOnly  bool          `yaml:"pin_digits_only"`
	PINAttempts    int           `yaml:"pin_attempts"`
	PINRetryDelay  time.Duration `yaml:"pin_retry_delay"`
}

// SigningConfig controls how signatures are embedded.
type SigningConfig struct {
	PropertyName string `yaml:"property_name"`
	Scheme       string `yaml:"scheme"`
	SignedPrefix string `yaml:"signed_prefix"`
}

// ServerConfig controls the verification server.
type ServerConfig struct {
	Host            string          `yaml:"host"`
	Port            int             `yaml:"port"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"ratelimit"`
	TLS             TLSConfig       `yaml:"tls"`
}

// RateLimitConfig controls per-client request limiting.
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min"`
	Burst          int  `yaml:"burst"`
}

// MetricsConfig controls metrics exposure.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Textfile, when set, receives a Prometheus text dump after each CLI
	// command.
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
			File:   "app_logs.log",
		},
		Keys: KeysConfig{
			Dir:     "keys",
			KeySize: keygen.RSAKeySize,
		},
		Guard: GuardConfig{
			KDF:            keyguard.KDFSHA256.String(),
			Argon2Time:     keyguard.DefaultArgon2Params().Time,
			Argon2MemoryKB: keyguard.DefaultArgon2Params().MemoryKB,
			Argon2Threads:  keyguard.DefaultArgon2Params().Threads,
			PINMinLength:   keyguard.DefaultPINMinLength,
			PINMaxLength:   keyguard.DefaultPINMaxLength,
			PINDigitsOnly:  true,
			PINAttempts:    3,
			PINRetryDelay:  time.Second,
		},
		Signing: SigningConfig{
			PropertyName: signing.DefaultPropertyName,
			Scheme:       string(signing.SchemePKCS1v15),
			SignedPrefix: signing.SignedPrefix,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8443,
			MaxBodyBytes:    32 << 20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:        true,
				RequestsPerMin: 120,
				Burst:          20,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads path on top of the defaults, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 - config file path is provided by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies PDFSIGN_* variables. Unparseable values are
// ignored and recorded in cfg.Warnings.
func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int, lo, hi int) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < lo || n > hi {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("invalid %s%s value %q (want %d-%d), keeping %d", EnvPrefix, name, v, lo, hi, *dst))
			return
		}
		*dst = n
	}

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("LOG_DIR", &cfg.Logging.Dir)
	str("KEYS_DIR", &cfg.Keys.Dir)
	str("USB_PATH", &cfg.Keys.RemovablePath)
	num("KEY_SIZE", &cfg.Keys.KeySize, keygen.MinRSAKeySize, 16384)
	str("KDF", &cfg.Guard.KDF)
	str("SCHEME", &cfg.Signing.Scheme)
	str("HOST", &cfg.Server.Host)
	num("PORT", &cfg.Server.Port, 1, 65535)
	str("METRICS_TEXTFILE", &cfg.Metrics.Textfile)
}

// Validate checks the configuration. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log level %q (must be debug, info, warn or error)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return invalid("log format %q (must be text or json)", c.Logging.Format)
	}
	if c.Logging.Dir != "" && c.Logging.File == "" {
		return invalid("logging.file is required when logging.dir is set")
	}

	if c.Keys.Dir == "" {
		return invalid("keys.dir must be specified")
	}
	if c.Keys.KeySize < keygen.MinRSAKeySize {
		return invalid("keys.key_size %d is below %d", c.Keys.KeySize, keygen.MinRSAKeySize)
	}

	if _, err := c.KDF(); err != nil {
		return invalid("guard.kdf: %v", err)
	}
	if c.Guard.PINMinLength < 1 {
		return invalid("guard.pin_min_length must be at least 1")
	}
	if c.Guard.PINMaxLength < c.Guard.PINMinLength {
		return invalid("guard.pin_max_length %d is below pin_min_length %d", c.Guard.PINMaxLength, c.Guard.PINMinLength)
	}
	if c.Guard.PINAttempts < 1 {
		return invalid("guard.pin_attempts must be at least 1")
	}

	if c.Signing.PropertyName == "" {
		return invalid("signing.property_name must be specified")
	}
	if _, err := signing.ParseScheme(c.Signing.Scheme); err != nil {
		return invalid("signing.scheme: %v", err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes must be positive")
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMin < 1 {
		return invalid("server.ratelimit.requests_per_min must be positive when enabled")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			return invalid("server.tls cert_file and key_file are required when TLS is enabled")
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path %q must start with /", c.Metrics.Path)
	}
	return nil
}

// KDF returns the configured key derivation function.
func (c *Config) KDF() (keyguard.KDF, error) {
	return keyguard.ParseKDF(c.Guard.KDF)
}

// Argon2Params returns the configured Argon2id cost parameters.
func (c *Config) Argon2Params() keyguard.Argon2Params {
	return keyguard.Argon2Params{
		Time:     c.Guard.Argon2Time,
		MemoryKB: c.Guard.Argon2MemoryKB,
		Threads:  c.Guard.Argon2Threads,
	}
}

// PINPolicy returns the configured PIN policy.
func (c *Config) PINPolicy() keyguard.PINPolicy {
	return keyguard.PINPolicy{
		MinLength:  c.Guard.PINMinLength,
		MaxLength:  c.Guard.PINMaxLength,
		DigitsOnly: c.Guard.PINDigitsOnly,
	}
}

// Scheme returns the configured RSA padding scheme.
func (c *Config) Scheme() signing.Scheme {
	s, err := signing.ParseScheme(c.Signing.Scheme)
	if err != nil {
		return signing.SchemePKCS1v15
	}
	return s
}

// Addr returns host:port of the verification server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
