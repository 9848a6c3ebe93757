// Package config loads formstate CLI settings from defaults, an optional
// config file, FORMSTATE_* environment variables and command flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides (FORMSTATE_SUBMIT_ENDPOINT).
const EnvPrefix = "FORMSTATE"

// Config holds CLI settings.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Submit SubmitConfig `mapstructure:"submit"`
}

// LogConfig selects the logger level and sink.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	Development bool   `mapstructure:"development"`
}

// SubmitConfig selects the submission collaborator. An empty Endpoint
// submits to stdout.
type SubmitConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Method   string        `mapstructure:"method"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Sanitize bool          `mapstructure:"sanitize"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"log-file":  "log.file",
	"log-dev":   "log.development",
	"endpoint":  "submit.endpoint",
	"method":    "submit.method",
	"timeout":   "submit.timeout",
	"sanitize":  "submit.sanitize",
}

// Load resolves the configuration. file may be empty; flags may be nil. Only
// flags present in both flags and the known key set are bound.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.development", false)
	v.SetDefault("submit.endpoint", "")
	v.SetDefault("submit.method", "POST")
	v.SetDefault("submit.timeout", 30*time.Second)
	v.SetDefault("submit.sanitize", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, fmt.Errorf("config: bind %s: %w", name, err)
				}
			}
		}
	}

	if file = strings.TrimSpace(file); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Submit.Timeout < 0 {
		return Config{}, errors.New("config: submit.timeout must not be negative")
	}
	cfg.Submit.Method = strings.ToUpper(strings.TrimSpace(cfg.Submit.Method))
	return cfg, nil
}
