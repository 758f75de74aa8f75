package perfstats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skaphos/perfstats/internal/config"
	"github.com/skaphos/perfstats/internal/engine"
	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/parser"
	"github.com/skaphos/perfstats/internal/stats"
	"github.com/skaphos/perfstats/internal/strutil"
)

// Default inputs, tried in order when nothing else names one.
const (
	defaultJSONLog = "performance_log.json"
	defaultTextLog = "performance_log.txt"
)

// runtimeConfig is the effective configuration of one command run:
// flags > environment > config file > defaults.
type runtimeConfig struct {
	cfg      *config.Config
	cfgPath  string
	cfgFound bool
	cwd      string
}

func loadRuntimeConfig(cmd *cobra.Command) (*runtimeConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	envFileSet := cmd.Flags().Changed("env-file")
	if loaded, err := config.LoadEnvFile(flagEnvFile, envFileSet); err != nil {
		return nil, fmt.Errorf("load env file %q: %w", flagEnvFile, err)
	} else if loaded {
		debugf(cmd, "loaded environment from %s", flagEnvFile)
	}

	cfgPath, err := config.ResolveConfigPath(configOverride(cmd), cwd)
	if err != nil {
		return nil, err
	}
	cfg, found, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}
	if found {
		debugf(cmd, "using config %s", cfgPath)
		// Paths in the config file are relative to the file.
		cfg.Input.Path = config.ResolvePath(cfgPath, cfg.Input.Path)
		if !envFileSet && cfg.EnvFile != "" {
			envPath := config.ResolvePath(cfgPath, cfg.EnvFile)
			if loaded, err := config.LoadEnvFile(envPath, false); err != nil {
				return nil, fmt.Errorf("load env file %q: %w", envPath, err)
			} else if loaded {
				debugf(cmd, "loaded environment from %s", envPath)
			}
		}
	} else {
		debugf(cmd, "no config at %s; using defaults", cfgPath)
	}

	applyNoColorEnv()

	env, err := config.ReadEnv()
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.ApplyEnv(env)

	if strings.TrimSpace(flagFormatHint) != "" {
		cfg.Input.Format = flagFormatHint
	}
	if _, err := parser.ParseFormat(cfg.Input.Format); err != nil {
		return nil, err
	}
	return &runtimeConfig{cfg: cfg, cfgPath: cfgPath, cfgFound: found, cwd: cwd}, nil
}

// resolveInputs picks the inputs: arguments, then LOG_FILE (already folded
// into the config), then input.path, then the default log for the format.
func (rt *runtimeConfig) resolveInputs(args []string) []string {
	if len(args) > 0 {
		return args
	}
	if p := strings.TrimSpace(rt.cfg.Input.Path); p != "" {
		return []string{p}
	}
	format, _ := parser.ParseFormat(rt.cfg.Input.Format)
	switch format {
	case parser.FormatText:
		return []string{defaultTextLog}
	case parser.FormatJSON:
		return []string{defaultJSONLog}
	}
	for _, candidate := range []string{defaultJSONLog, defaultTextLog} {
		if _, err := os.Stat(filepath.Join(rt.cwd, candidate)); err == nil {
			return []string{candidate}
		}
	}
	return []string{defaultJSONLog}
}

// analyzeOptions builds engine options from flags, falling back to the
// config for anything not given on the command line.
func (rt *runtimeConfig) analyzeOptions(cmd *cobra.Command, args []string) (engine.Options, error) {
	opts := engine.Options{Inputs: rt.resolveInputs(args)}
	var err error

	exclude, _ := cmd.Flags().GetString("exclude")
	opts.Exclude = strutil.MergeCSV(append(append([]string(nil), rt.cfg.Input.Exclude...), exclude))
	opts.FollowSymlinks, _ = cmd.Flags().GetBool("follow-symlinks")
	if opts.Format, err = parser.ParseFormat(rt.cfg.Input.Format); err != nil {
		return opts, err
	}

	if raw, _ := cmd.Flags().GetString("group-by"); strings.TrimSpace(raw) != "" {
		if opts.GroupBy, err = model.ParseDimensions(strutil.SplitCSV(raw)); err != nil {
			return opts, err
		}
	}
	if raw, _ := cmd.Flags().GetString("metrics"); strings.TrimSpace(raw) != "" {
		if opts.Metrics, err = model.ParseMetrics(strutil.SplitCSV(raw)); err != nil {
			return opts, err
		}
	}

	opts.Filter, err = rt.filter(cmd)
	return opts, err
}

func (rt *runtimeConfig) filter(cmd *cobra.Command) (stats.Filter, error) {
	f := stats.Filter{
		Routes:        patternFlagOrConfig(cmd, "route", rt.cfg.Filters.Routes),
		ExcludeRoutes: patternFlagOrConfig(cmd, "exclude-route", rt.cfg.Filters.ExcludeRoutes),
		TestTypes:     flagOrConfigList(cmd, "test-type", rt.cfg.Filters.TestTypes),
		Methods:       flagOrConfigList(cmd, "method", rt.cfg.Filters.Methods),
	}
	f.SuccessOnly, _ = cmd.Flags().GetBool("success-only")
	f.FailedOnly, _ = cmd.Flags().GetBool("failed-only")
	var err error
	if f.Since, err = timeFlag(cmd, "since"); err != nil {
		return f, err
	}
	if f.Until, err = timeFlag(cmd, "until"); err != nil {
		return f, err
	}
	return f, f.Validate()
}

func flagOrConfigList(cmd *cobra.Command, name string, fallback []string) []string {
	raw, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) {
		return strutil.SplitCSV(raw)
	}
	return fallback
}

// patternFlagOrConfig reads a repeatable pattern flag. Patterns are not
// split on commas, so doublestar braces like "/users/{create,delete}" survive.
func patternFlagOrConfig(cmd *cobra.Command, name string, fallback []string) []string {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	raw, _ := cmd.Flags().GetStringArray(name)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func timeFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	var value any = raw
	if n, err := parser.ParseNumber(raw); err == nil {
		value = n
	}
	t, err := parser.ParseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return t, nil
}

// outputDir resolves the artifact directory: --output-dir, then
// PERFSTATS_OUTPUT_DIR or output.dir (already merged), then the working directory.
func (rt *runtimeConfig) outputDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("output-dir"); strings.TrimSpace(dir) != "" {
		return dir
	}
	if dir := strings.TrimSpace(rt.cfg.Output.Dir); dir != "" {
		return dir
	}
	return "."
}

// handleAnalyzeError prints the warnings of a partial report and turns
// ErrNoRecords into exit code 2. Other errors are returned as fatal.
func handleAnalyzeError(cmd *cobra.Command, rt *runtimeConfig, report *engine.Report, err error) error {
	if !errors.Is(err, engine.ErrNoRecords) {
		return err
	}
	if report != nil {
		reportWarnings(cmd, report.Warnings, rt.cfg.Defaults.MaxWarnings)
	}
	errorf(cmd, "%v", err)
	return nil
}
