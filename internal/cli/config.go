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

package cli

import (
	"strings"

	"github.com/jeremyhahn/go-pdfsign/internal/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Viper keys for the persistent flags. Each one can also be set through
// the environment as PDFSIGN_<KEY> with dashes replaced by underscores.
const (
	keyConfig          = "config"
	keyOutput          = "output"
	keyVerbose         = "verbose"
	keyKeysDir         = "keys-dir"
	keyUSBPath         = "usb-path"
	keyLogLevel        = "log-level"
	keyLogDir          = "log-dir"
	keyMetricsTextfile = "metrics-textfile"
)

// Config holds global CLI options.
type Config struct {
	// ConfigFile is the path to the YAML configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose prints progress steps to stderr
	Verbose bool

	// KeysDir overrides keys.dir
	KeysDir string

	// USBPath overrides keys.removable_path
	USBPath string

	// LogLevel overrides logging.level
	LogLevel string

	// LogDir overrides logging.dir
	LogDir string

	// MetricsTextfile overrides metrics.textfile
	MetricsTextfile string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
	}
}

// newViper binds the persistent flags and PDFSIGN_* environment
// variables. Flags win over the environment.
func newViper(flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PDFSIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		keyConfig, keyOutput, keyVerbose, keyKeysDir, keyUSBPath,
		keyLogLevel, keyLogDir, keyMetricsTextfile,
	} {
		if f := flags.Lookup(key); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
	return v
}

// resolve copies bound values from v back into c.
func (c *Config) resolve(v *viper.Viper) {
	c.ConfigFile = v.GetString(keyConfig)
	c.OutputFormat = v.GetString(keyOutput)
	c.Verbose = v.GetBool(keyVerbose)
	c.KeysDir = v.GetString(keyKeysDir)
	c.USBPath = v.GetString(keyUSBPath)
	c.LogLevel = v.GetString(keyLogLevel)
	c.LogDir = v.GetString(keyLogDir)
	c.MetricsTextfile = v.GetString(keyMetricsTextfile)
}

// Load reads the application configuration and applies CLI overrides.
func (c *Config) Load() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	if c.KeysDir != "" {
		cfg.Keys.Dir = c.KeysDir
	}
	if c.USBPath != "" {
		cfg.Keys.RemovablePath = c.USBPath
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogDir != "" {
		cfg.Logging.Dir = c.LogDir
	}
	if c.MetricsTextfile != "" {
		cfg.Metrics.Textfile = c.MetricsTextfile
	}
	if c.Verbose && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
