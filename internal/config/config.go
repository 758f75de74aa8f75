// Package config handles loading, saving, and resolving the perfstats
// configuration file and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/perfstats/internal/model"
)

const (
	// LocalConfigFilename is the per-directory perfstats config file.
	LocalConfigFilename = ".perfstats.yaml"
	// ConfigAPIVersion is the current config schema apiVersion.
	ConfigAPIVersion = "skaphos.io/perfstats/v1beta1"
	// ConfigKind is the current config schema kind.
	ConfigKind = "PerfStatsConfig"
	// ConfigEnvVar points at a config file or directory.
	ConfigEnvVar = "PERFSTATS_CONFIG"
)

// Input describes where logs come from.
type Input struct {
	// Path is the default input when none is given on the command line.
	Path string `yaml:"path,omitempty"`
	// Format is json, txt or auto.
	Format  string   `yaml:"format,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	// RequiredFields lists the fields a record must carry to be kept.
	RequiredFields []string `yaml:"required_fields,omitempty"`
}

// Filters preselect records before grouping.
type Filters struct {
	Routes        []string `yaml:"routes,omitempty"`
	ExcludeRoutes []string `yaml:"exclude_routes,omitempty"`
	TestTypes     []string `yaml:"test_types,omitempty"`
	Methods       []string `yaml:"methods,omitempty"`
}

// Output controls which artifacts are written and where.
type Output struct {
	Dir         string `yaml:"dir"`
	Charts      bool   `yaml:"charts"`
	CSV         bool   `yaml:"csv"`
	HTML        bool   `yaml:"html"`
	RecordsCSV  bool   `yaml:"records_csv"`
	ChartWidth  int    `yaml:"chart_width"`
	ChartHeight int    `yaml:"chart_height"`
}

// ScatterPair plots Y against X.
type ScatterPair struct {
	X string `yaml:"x"`
	Y string `yaml:"y"`
}

// Defaults holds default values for operations.
type Defaults struct {
	Concurrency int `yaml:"concurrency"`
	// MaxWarnings caps the warnings printed without -v.
	MaxWarnings int `yaml:"max_warnings"`
}

// Config represents the perfstats configuration.
type Config struct {
	APIVersion string        `yaml:"apiVersion"`
	Kind       string        `yaml:"kind"`
	EnvFile    string        `yaml:"env_file,omitempty"`
	Input      Input         `yaml:"input"`
	GroupBy    []string      `yaml:"group_by"`
	Metrics    []string      `yaml:"metrics"`
	Filters    Filters       `yaml:"filters,omitempty"`
	Output     Output        `yaml:"output"`
	Scatter    []ScatterPair `yaml:"scatter,omitempty"`
	Defaults   Defaults      `yaml:"defaults"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() Config {
	metrics := make([]string, 0, len(model.DefaultMetrics))
	for _, m := range model.DefaultMetrics {
		metrics = append(metrics, string(m))
	}
	return Config{
		APIVersion: ConfigAPIVersion,
		Kind:       ConfigKind,
		EnvFile:    ".env",
		Input: Input{
			Format:         "auto",
			RequiredFields: []string{string(model.FieldTime), string(model.FieldRoute), string(model.FieldDuration)},
		},
		GroupBy: []string{string(model.DimRoute), string(model.DimTestType)},
		Metrics: metrics,
		Output: Output{
			Dir:         ".",
			Charts:      true,
			CSV:         true,
			ChartWidth:  1024,
			ChartHeight: 512,
		},
		Scatter: []ScatterPair{
			{X: string(model.MetricCPUStart), Y: string(model.MetricDuration)},
			{X: string(model.MetricRAMStart), Y: string(model.MetricDuration)},
			{X: string(model.MetricRefTime), Y: string(model.MetricDuration)},
		},
		Defaults: Defaults{
			Concurrency: 4,
			MaxWarnings: 20,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory path.
// It checks, in order: the override parameter, PERFSTATS_CONFIG env var,
// and finally os.UserConfigDir()/perfstats.
func ConfigDir(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return filepath.Dir(override), nil
		}
		return override, nil
	}

	if env := os.Getenv(ConfigEnvVar); env != "" {
		if isConfigFilePath(env) {
			return filepath.Dir(env), nil
		}
		return env, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "perfstats"), nil
}

// ConfigPath resolves the config file path from override/env/defaults.
func ConfigPath(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return override, nil
		}
		return filepath.Join(override, "config.yaml"), nil
	}

	if env := os.Getenv(ConfigEnvVar); env != "" {
		if isConfigFilePath(env) {
			return env, nil
		}
		return filepath.Join(env, "config.yaml"), nil
	}

	dir, err := ConfigDir("")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// InitConfigPath resolves where "perfstats init" should write config.
// Order: explicit override, PERFSTATS_CONFIG, then local dotfile in cwd.
func InitConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(ConfigEnvVar) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(cwd, LocalConfigFilename), nil
}

// ResolveConfigPath resolves config for runtime commands.
// Order: explicit override, PERFSTATS_CONFIG, nearest local dotfile in cwd/parents,
// then global platform config path.
func ResolveConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(ConfigEnvVar) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	localPath, err := FindNearestConfigPath(cwd)
	if err != nil {
		return "", err
	}
	if localPath != "" {
		return localPath, nil
	}

	return ConfigPath("")
}

// FindNearestConfigPath searches cwd and each parent directory for .perfstats.yaml.
// It returns an empty string when no local config file is found.
func FindNearestConfigPath(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, LocalConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads the config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyConfigGVK(&cfg)
	if err := validateConfigGVK(&cfg); err != nil {
		return nil, err
	}
	defaults := DefaultConfig()
	if cfg.Defaults.Concurrency <= 0 {
		cfg.Defaults.Concurrency = defaults.Defaults.Concurrency
	}
	if cfg.Output.ChartWidth <= 0 {
		cfg.Output.ChartWidth = defaults.Output.ChartWidth
	}
	if cfg.Output.ChartHeight <= 0 {
		cfg.Output.ChartHeight = defaults.Output.ChartHeight
	}
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = defaults.Output.Dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault is Load, falling back to DefaultConfig when the file does
// not exist. The boolean reports whether a file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		def := DefaultConfig()
		return &def, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Validate checks metric, dimension and field names.
func (c *Config) Validate() error {
	if _, err := model.ParseMetrics(c.Metrics); err != nil {
		return err
	}
	if _, err := model.ParseDimensions(c.GroupBy); err != nil {
		return err
	}
	for _, f := range c.Input.RequiredFields {
		if _, err := model.ParseField(f); err != nil {
			return fmt.Errorf("required_fields: %w", err)
		}
	}
	for i, pair := range c.Scatter {
		if _, err := model.ParseMetric(pair.X); err != nil {
			return fmt.Errorf("scatter[%d].x: %w", i, err)
		}
		if _, err := model.ParseMetric(pair.Y); err != nil {
			return fmt.Errorf("scatter[%d].y: %w", i, err)
		}
	}
	return nil
}

// ResolvePath resolves a path from the config file against the config file
// location. Absolute paths are returned unchanged; relative paths are joined
// to the directory containing configPath.
func ResolvePath(configPath, p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	if filepath.IsAbs(p) || strings.TrimSpace(configPath) == "" {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(configPath), p))
}

// Save writes the config to the given path.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	applyConfigGVK(cfg)
	if err := validateConfigGVK(cfg); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isConfigFilePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyConfigGVK(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = ConfigAPIVersion
	}
	if strings.TrimSpace(cfg.Kind) == "" {
		cfg.Kind = ConfigKind
	}
}

func validateConfigGVK(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.APIVersion != ConfigAPIVersion {
		return fmt.Errorf("unsupported config apiVersion %q (expected %q)", cfg.APIVersion, ConfigAPIVersion)
	}
	if cfg.Kind != ConfigKind {
		return fmt.Errorf("unsupported config kind %q (expected %q)", cfg.Kind, ConfigKind)
	}
	return nil
}
