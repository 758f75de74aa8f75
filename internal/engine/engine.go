// SPDX-License-Identifier: MIT
// Package engine orchestrates the core operations: analyze and render.
// It coordinates between discovery, parser, stats, chart, export and
// manifest packages.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skaphos/perfstats/internal/chart"
	"github.com/skaphos/perfstats/internal/config"
	"github.com/skaphos/perfstats/internal/discovery"
	"github.com/skaphos/perfstats/internal/export"
	"github.com/skaphos/perfstats/internal/manifest"
	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/parser"
	"github.com/skaphos/perfstats/internal/sortutil"
	"github.com/skaphos/perfstats/internal/stats"
)

// ErrNoRecords is returned when no record survives parsing and filtering.
var ErrNoRecords = errors.New("no usable records")

const defaultConcurrency = 4

// Engine is the core orchestrator for perfstats operations.
type Engine struct {
	cfg *config.Config
	now func() time.Time
}

// New creates a new Engine with the given configuration. A nil config
// means defaults.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// Config returns the engine configuration reference.
func (e *Engine) Config() *config.Config { return e.cfg }

// Options configures an analyze operation. Empty fields fall back to the
// engine configuration.
type Options struct {
	Inputs         []string
	Exclude        []string
	FollowSymlinks bool
	Format         parser.Format
	Required       []model.Field
	Filter         stats.Filter
	GroupBy        []model.Dimension
	Metrics        []model.Metric
}

// Report is the outcome of an analyze run.
type Report struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Inputs      []string             `json:"inputs"`
	Dimensions  []model.Dimension    `json:"group_by"`
	Metrics     []model.Metric       `json:"metrics"`
	Records     []model.Record       `json:"-"`
	Groups      []model.Group        `json:"-"`
	Summaries   []model.GroupSummary `json:"groups"`
	Warnings    []model.Warning      `json:"warnings,omitempty"`
	// Parsed counts records read before filtering.
	Parsed int `json:"parsed"`
	// Filtered counts records dropped by the filter.
	Filtered int `json:"filtered"`
	// Skipped counts records and blocks dropped while parsing.
	Skipped int `json:"skipped"`
}

// Analyze discovers, loads, filters, groups and summarizes the inputs.
// When nothing usable remains the partial report is returned together
// with ErrNoRecords so its warnings can still be shown.
func (e *Engine) Analyze(ctx context.Context, opts Options) (*Report, error) {
	opts, err := e.resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}

	files, err := discovery.Expand(ctx, discovery.Options{
		Inputs:         opts.Inputs,
		Exclude:        opts.Exclude,
		FollowSymlinks: opts.FollowSymlinks,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt: e.now(),
		Inputs:      files,
		Dimensions:  opts.GroupBy,
		Metrics:     opts.Metrics,
	}
	var parsed parser.Result
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := parser.Load(file, parser.Options{Format: opts.Format, Required: opts.Required})
		if err != nil {
			if !errors.Is(err, parser.ErrUnknownFormat) {
				return nil, fmt.Errorf("load %s: %w", file, err)
			}
			// Unclassifiable content is a bad input, not a failed run.
			parsed.Warnings = append(parsed.Warnings, model.Warning{Source: file, Message: "unrecognized content; file skipped"})
			continue
		}
		parsed.Merge(res)
	}

	report.Parsed = len(parsed.Records)
	report.Skipped = parsed.Skipped
	report.Warnings = parsed.Warnings
	report.Records = opts.Filter.Apply(parsed.Records)
	report.Filtered = report.Parsed - len(report.Records)
	if len(report.Records) == 0 {
		return report, fmt.Errorf("%w: %d parsed, %d filtered out, %d skipped", ErrNoRecords, report.Parsed, report.Filtered, report.Skipped)
	}

	report.Groups = stats.GroupBy(report.Records, opts.GroupBy)
	report.Summaries = stats.Summarize(report.Groups, opts.Metrics)
	sortutil.SortGroupSummaries(report.Summaries)
	return report, nil
}

func (e *Engine) resolveOptions(opts Options) (Options, error) {
	var err error
	if len(opts.Exclude) == 0 {
		opts.Exclude = e.cfg.Input.Exclude
	}
	if opts.Format == "" {
		if opts.Format, err = parser.ParseFormat(e.cfg.Input.Format); err != nil {
			return opts, err
		}
	}
	if opts.Required == nil && len(e.cfg.Input.RequiredFields) > 0 {
		for _, name := range e.cfg.Input.RequiredFields {
			f, err := model.ParseField(name)
			if err != nil {
				return opts, fmt.Errorf("input.required_fields: %w", err)
			}
			opts.Required = append(opts.Required, f)
		}
	}
	if len(opts.GroupBy) == 0 {
		if opts.GroupBy, err = model.ParseDimensions(e.cfg.GroupBy); err != nil {
			return opts, err
		}
	}
	if len(opts.Metrics) == 0 {
		if len(e.cfg.Metrics) == 0 {
			opts.Metrics = append([]model.Metric(nil), model.DefaultMetrics...)
		} else if opts.Metrics, err = model.ParseMetrics(e.cfg.Metrics); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// ScatterPair plots Y against X.
type ScatterPair struct {
	X model.Metric
	Y model.Metric
}

// RenderOptions configures which artifacts Render writes.
type RenderOptions struct {
	Dir         string
	Charts      bool
	CSV         bool
	HTML        bool
	RecordsCSV  bool
	Scatter     []ScatterPair
	Width       int
	Height      int
	Concurrency int
	// Title heads the HTML report.
	Title string
}

// DefaultRenderOptions derives render options from the engine configuration.
func (e *Engine) DefaultRenderOptions() (RenderOptions, error) {
	out := e.cfg.Output
	opts := RenderOptions{
		Dir:         out.Dir,
		Charts:      out.Charts,
		CSV:         out.CSV,
		HTML:        out.HTML,
		RecordsCSV:  out.RecordsCSV,
		Width:       out.ChartWidth,
		Height:      out.ChartHeight,
		Concurrency: e.cfg.Defaults.Concurrency,
		Title:       "perfstats report",
	}
	for _, pair := range e.cfg.Scatter {
		x, err := model.ParseMetric(pair.X)
		if err != nil {
			return opts, fmt.Errorf("scatter: %w", err)
		}
		y, err := model.ParseMetric(pair.Y)
		if err != nil {
			return opts, fmt.Errorf("scatter: %w", err)
		}
		opts.Scatter = append(opts.Scatter, ScatterPair{X: x, Y: y})
	}
	return opts, nil
}

// RenderResult lists what Render produced.
type RenderResult struct {
	Dir          string           `json:"dir"`
	ManifestPath string           `json:"manifest"`
	Artifacts    []manifest.Entry `json:"artifacts"`
	// Warnings holds per-artifact failures and skipped charts.
	Warnings []model.Warning `json:"warnings,omitempty"`
}

type job struct {
	entry manifest.Entry
	write func(io.Writer) error
}

type jobResult struct {
	entry manifest.Entry
	err   error
}

// Render writes the artifacts of report into opts.Dir, concurrently and
// bounded by opts.Concurrency, then records them in the directory manifest.
// Per-artifact failures become warnings. Cancelling ctx stops scheduling
// new artifacts.
func (e *Engine) Render(ctx context.Context, report *Report, opts RenderOptions) (*RenderResult, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}
	dir := opts.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	jobs := e.planJobs(report, opts)
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = e.cfg.Defaults.Concurrency
		if concurrency <= 0 {
			concurrency = defaultConcurrency
		}
	}

	sem := make(chan struct{}, concurrency)
	out := make(chan jobResult, len(jobs))
	spawned := 0
	var schedErr error
	for _, j := range jobs {
		if schedErr = ctx.Err(); schedErr != nil {
			break
		}
		select {
		case <-ctx.Done():
			schedErr = ctx.Err()
		case sem <- struct{}{}:
		}
		if schedErr != nil {
			break
		}
		spawned++
		go func(j job) {
			defer func() { <-sem }()
			out <- jobResult{entry: j.entry, err: writeArtifact(filepath.Join(dir, j.entry.Path), j.write)}
		}(j)
	}

	result := &RenderResult{Dir: dir, ManifestPath: manifest.PathIn(dir)}
	for i := 0; i < spawned; i++ {
		res := <-out
		if res.err != nil {
			result.Warnings = append(result.Warnings, artifactWarning(res.entry.Path, res.err))
			continue
		}
		result.Artifacts = append(result.Artifacts, res.entry)
	}
	sortutil.SortManifestEntries(result.Artifacts)
	sortutil.SortWarnings(result.Warnings)

	if err := e.updateManifest(result, report.Inputs); err != nil {
		return result, err
	}
	if schedErr != nil {
		return result, schedErr
	}
	return result, nil
}

func (e *Engine) planJobs(report *Report, opts RenderOptions) []job {
	now := e.now()
	chartOpts := chart.Options{Width: opts.Width, Height: opts.Height}
	var jobs []job
	used := map[string]int{}
	add := func(name string, kind manifest.ArtifactType, metric, group string, write func(io.Writer) error) {
		name = uniqueName(used, name)
		jobs = append(jobs, job{
			entry: manifest.Entry{Path: name, Type: kind, Metric: metric, Group: group, GeneratedAt: now},
			write: write,
		})
	}

	if opts.Charts {
		for _, g := range report.Groups {
			summary := summaryFor(report.Summaries, g.Key)
			for _, m := range report.Metrics {
				if _, ok := summary.Metric(m); !ok {
					continue
				}
				title := m.Label() + " over time: " + g.Key.String()
				add(chart.TimeSeriesFile(m, g.Key), manifest.TypeChart, string(m), g.Key.String(), func(w io.Writer) error {
					return chart.TimeSeries(w, title, m, g.Records, chartOpts)
				})
			}
			for _, pair := range opts.Scatter {
				_, okX := summary.Metric(pair.X)
				_, okY := summary.Metric(pair.Y)
				if !okX || !okY {
					continue
				}
				title := pair.Y.Label() + " vs " + pair.X.Label() + ": " + g.Key.String()
				add(chart.ScatterFile(pair.X, pair.Y, g.Key), manifest.TypeChart, string(pair.Y), g.Key.String(), func(w io.Writer) error {
					return chart.Scatter(w, title, pair.X, pair.Y, g.Records, chartOpts)
				})
			}
		}
		for _, m := range report.Metrics {
			if !anySummaryHas(report.Summaries, m) {
				continue
			}
			add(chart.MeanFile(m), manifest.TypeChart, string(m), "", func(w io.Writer) error {
				return chart.MeanBars(w, m, report.Summaries, chartOpts)
			})
		}
	}

	if opts.CSV {
		add(export.SummaryFile, manifest.TypeCSV, "", "", func(w io.Writer) error {
			return export.WriteSummary(w, report.Summaries, report.Dimensions)
		})
		for _, m := range report.Metrics {
			if !anySummaryHas(report.Summaries, m) {
				continue
			}
			add(export.MetricFile(m), manifest.TypeCSV, string(m), "", func(w io.Writer) error {
				return export.WriteMetric(w, report.Summaries, m, report.Dimensions)
			})
		}
	}
	if opts.RecordsCSV {
		add(export.RecordsFile, manifest.TypeCSV, "", "", func(w io.Writer) error {
			return export.WriteRecords(w, report.Records)
		})
	}
	if opts.HTML {
		title := opts.Title
		if title == "" {
			title = "perfstats report"
		}
		add(chart.ReportFile, manifest.TypeHTML, "", "", func(w io.Writer) error {
			return chart.HTMLReport(w, title, report.Groups, report.Summaries, report.Metrics)
		})
	}
	return jobs
}

// writeArtifact writes one file. A failed write leaves no partial file behind.
func writeArtifact(path string, write func(io.Writer) error) error {
	if err := export.WriteFile(path, write); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func artifactWarning(path string, err error) model.Warning {
	if errors.Is(err, chart.ErrTooFewPoints) {
		return model.Warning{Source: path, Message: "fewer than two distinct x values; chart skipped"}
	}
	return model.Warning{Source: path, Message: err.Error()}
}

// updateManifest records the rendered artifacts, dropping entries whose
// files no longer exist.
func (e *Engine) updateManifest(result *RenderResult, inputs []string) error {
	m, err := manifest.LoadOrEmpty(result.ManifestPath)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	for _, entry := range result.Artifacts {
		m.Upsert(entry)
	}
	if err := m.ValidatePaths(result.Dir); err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}
	m.Prune()
	sortutil.SortManifestEntries(m.Entries)
	m.Inputs = inputs
	m.UpdatedAt = e.now()
	if err := manifest.Save(m, result.ManifestPath); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

func summaryFor(summaries []model.GroupSummary, key model.GroupKey) model.GroupSummary {
	for _, gs := range summaries {
		if gs.Key == key {
			return gs
		}
	}
	return model.GroupSummary{Key: key}
}

func anySummaryHas(summaries []model.GroupSummary, m model.Metric) bool {
	for _, gs := range summaries {
		if _, ok := gs.Metric(m); ok {
			return true
		}
	}
	return false
}

// uniqueName returns name, or name with a "-N" suffix before the extension
// when an earlier job already claimed it. Group keys that differ only in
// case or punctuation slug to the same file name.
func uniqueName(used map[string]int, name string) string {
	used[name]++
	if used[name] == 1 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := used[name]; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
		if _, taken := used[candidate]; !taken {
			used[name] = n
			used[candidate] = 1
			return candidate
		}
	}
}
