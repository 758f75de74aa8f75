// SPDX-License-Identifier: MIT

// Command perf runs the perfstats benchmarks and appends the results to a
// JSON lines history so regressions show up between commits.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/skaphos/perfstats/internal/cliio"
	"github.com/skaphos/perfstats/internal/strutil"
	"github.com/skaphos/perfstats/internal/tableutil"
)

// benchmarkMetric is the median of every -count sample of one benchmark.
type benchmarkMetric struct {
	NsPerOp     float64 `json:"ns_per_op"`
	NsSpread    float64 `json:"ns_stddev,omitempty"`
	BPerOp      float64 `json:"b_per_op,omitempty"`
	AllocsPerOp float64 `json:"allocs_per_op,omitempty"`
	Samples     int     `json:"samples"`
}

type benchmarkRunRecord struct {
	Timestamp  string                     `json:"timestamp"`
	Commit     string                     `json:"commit"`
	GoVersion  string                     `json:"go_version"`
	Packages   []string                   `json:"packages"`
	Bench      string                     `json:"bench"`
	Benchtime  string                     `json:"benchtime"`
	Count      int                        `json:"count"`
	Benchmarks map[string]benchmarkMetric `json:"benchmarks"`
}

type benchmarkSamples struct {
	ns     stats.Float64Data
	bytes  stats.Float64Data
	allocs stats.Float64Data
}

var benchmarkLinePattern = regexp.MustCompile(`^(Benchmark\S+)\s+\d+\s+([0-9.]+)\s+ns/op(?:\s+([0-9.]+)\s+B/op\s+([0-9.]+)\s+allocs/op)?`)

func main() {
	historyPath := flag.String("history", "perf/history.jsonl", "path to benchmark history jsonl")
	rawDir := flag.String("raw-dir", "perf/runs", "directory for raw benchmark logs")
	packageCSV := flag.String("packages", "./internal/engine,./internal/parser,./internal/stats", "comma-separated benchmark packages")
	benchPattern := flag.String("bench", ".", "go test -bench pattern")
	benchtime := flag.String("benchtime", "1x", "go test benchmark time (for example: 1x, 500ms, 2s)")
	count := flag.Int("count", 5, "go test benchmark count")
	flag.Parse()

	packages := strutil.SplitCSV(*packageCSV)
	if len(packages) == 0 {
		fmt.Fprintln(os.Stderr, "no benchmark packages provided")
		os.Exit(2)
	}

	rawOutput, err := runBenchmarks(packages, *benchPattern, *benchtime, *count)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	metrics, err := parseBenchmarkMetrics(rawOutput)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	record := benchmarkRunRecord{
		Timestamp:  now.Format(time.RFC3339),
		Commit:     commandOutput("git", "rev-parse", "--short", "HEAD"),
		GoVersion:  commandOutput("go", "version"),
		Packages:   packages,
		Bench:      *benchPattern,
		Benchtime:  *benchtime,
		Count:      *count,
		Benchmarks: metrics,
	}

	if err := os.MkdirAll(*rawDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create raw dir: %v\n", err)
		os.Exit(1)
	}
	rawFile := filepath.Join(*rawDir, now.Format("20060102T150405Z")+".txt")
	if err := os.WriteFile(rawFile, []byte(rawOutput), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write raw log: %v\n", err)
		os.Exit(1)
	}

	previous, _ := loadLastNsPerOp(*historyPath)
	if err := appendRecord(*historyPath, record); err != nil {
		fmt.Fprintf(os.Stderr, "append history: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("saved raw benchmark log: %s\n", rawFile)
	fmt.Printf("updated benchmark history: %s\n", *historyPath)
	if err := printSummary(os.Stdout, record, previous); err != nil {
		fmt.Fprintf(os.Stderr, "print summary: %v\n", err)
		os.Exit(1)
	}
}

func runBenchmarks(packages []string, bench, benchtime string, count int) (string, error) {
	args := []string{
		"test",
		"-run=^$",
		"-bench=" + bench,
		"-benchmem",
		"-benchtime=" + benchtime,
		fmt.Sprintf("-count=%d", count),
	}
	args = append(args, packages...)
	cmd := exec.Command("go", args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("benchmark run failed: %w\n%s", err, output.String())
	}
	return output.String(), nil
}

// parseBenchmarkMetrics collects every sample line and reduces repeated
// runs of the same benchmark to their median.
func parseBenchmarkMetrics(raw string) (map[string]benchmarkMetric, error) {
	samples := make(map[string]*benchmarkSamples)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		match := benchmarkLinePattern.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if len(match) == 0 {
			continue
		}
		s, ok := samples[match[1]]
		if !ok {
			s = &benchmarkSamples{}
			samples[match[1]] = s
		}
		s.ns = append(s.ns, cast.ToFloat64(match[2]))
		if match[3] != "" {
			s.bytes = append(s.bytes, cast.ToFloat64(match[3]))
			s.allocs = append(s.allocs, cast.ToFloat64(match[4]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no benchmark metrics found in output")
	}

	metrics := make(map[string]benchmarkMetric, len(samples))
	for name, s := range samples {
		entry := benchmarkMetric{Samples: len(s.ns)}
		entry.NsPerOp, _ = s.ns.Median()
		if len(s.ns) > 1 {
			entry.NsSpread, _ = s.ns.StandardDeviationSample()
		}
		if len(s.bytes) > 0 {
			entry.BPerOp, _ = s.bytes.Median()
			entry.AllocsPerOp, _ = s.allocs.Median()
		}
		metrics[name] = entry
	}
	return metrics, nil
}

func commandOutput(name string, args ...string) string {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func appendRecord(path string, record benchmarkRunRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

// loadLastNsPerOp returns the ns/op of every benchmark in the last history line.
func loadLastNsPerOp(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var last string
	gjson.ForEachLine(string(data), func(line gjson.Result) bool {
		if line.Raw != "" && line.IsObject() {
			last = line.Raw
		}
		return true
	})
	if last == "" {
		return nil, fmt.Errorf("history file is empty")
	}
	out := make(map[string]float64)
	gjson.Get(last, "benchmarks").ForEach(func(name, metric gjson.Result) bool {
		out[name.String()] = metric.Get("ns_per_op").Float()
		return true
	})
	return out, nil
}

func printSummary(w io.Writer, current benchmarkRunRecord, previous map[string]float64) error {
	names := make([]string, 0, len(current.Benchmarks))
	for name := range current.Benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		metric := current.Benchmarks[name]
		delta := "-"
		if prev := previous[name]; prev > 0 {
			delta = fmt.Sprintf("%+.2f%%", (metric.NsPerOp-prev)/prev*100)
		}
		rows = append(rows, []string{
			name,
			tableutil.FormatFloat(metric.NsPerOp, 2),
			tableutil.FormatFloat(metric.NsSpread, 2),
			tableutil.FormatFloat(metric.AllocsPerOp, 0),
			delta,
		})
	}
	return cliio.WriteTable(w, false, false, []string{"BENCHMARK", "NS/OP", "STDDEV", "ALLOCS/OP", "VS PREVIOUS"}, rows)
}
