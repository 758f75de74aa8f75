package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every perfstats environment variable. The bare names
// (LOG_FILE, LOG_FORMAT, ...) are accepted when the prefixed one is unset.
const EnvPrefix = "PERFSTATS"

// Env holds the environment variables perfstats reads.
type Env struct {
	LogFile     string `envconfig:"LOG_FILE"`
	LogFormat   string `envconfig:"LOG_FORMAT"`
	OutputDir   string `envconfig:"OUTPUT_DIR"`
	Concurrency int    `envconfig:"CONCURRENCY"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// ignored unless required is true. It reports whether a file was read.
func LoadEnvFile(path string, required bool) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return false, nil
		}
		return false, err
	}
	if err := godotenv.Load(path); err != nil {
		return false, err
	}
	return true, nil
}

// ReadEnv binds the perfstats environment variables.
func ReadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, err
	}
	return env, nil
}

// ApplyEnv overlays non-empty environment values onto the config.
func (c *Config) ApplyEnv(env Env) {
	if v := strings.TrimSpace(env.LogFile); v != "" {
		c.Input.Path = v
	}
	if v := strings.TrimSpace(env.LogFormat); v != "" {
		c.Input.Format = v
	}
	if v := strings.TrimSpace(env.OutputDir); v != "" {
		c.Output.Dir = v
	}
	if env.Concurrency > 0 {
		c.Defaults.Concurrency = env.Concurrency
	}
}
