package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. EGR_DB_PATH.
const EnvPrefix = "EGR_"

// Load builds a Config by layering defaults, an optional file, env vars and
// explicit overrides.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML, or JSON which YAML accepts) if path is not empty
//  3. env (prefix EGR_)
//  4. overrides, keyed like the koanf tags (usually flags the user set)
func Load(path string, overrides map[string]any) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// EGR_TABLE_NAME -> table_name (flat keys, underscores kept).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}
	if c.Table == "" {
		errs = append(errs, errors.New("table_name must not be empty"))
	}
	if c.HistorySize < 0 {
		errs = append(errs, errors.New("history_size must not be negative"))
	}
	if c.AssistantMaxTokens <= 0 {
		errs = append(errs, errors.New("assistant_max_tokens must be positive"))
	}
	return errors.Join(errs...)
}
