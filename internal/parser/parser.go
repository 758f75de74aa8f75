// SPDX-License-Identifier: MIT
// Package parser reads performance logs in JSON or block text form and
// normalizes them into model.Record values.
//
// Parsing is best effort: malformed blocks, elements and fields are reported
// as warnings and skipped. Only I/O failures and unusable formats are errors.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skaphos/perfstats/internal/model"
)

// ErrUnknownFormat is returned for format names or documents that cannot be classified.
var ErrUnknownFormat = errors.New("unknown log format")

// Format identifies an input encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// DefaultRequired are the fields a record must carry to be kept.
var DefaultRequired = []model.Field{model.FieldTime, model.FieldRoute, model.FieldDuration}

// ParseFormat resolves a user-supplied format name. Empty means auto-detect.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return FormatAuto, nil
	case "json", "ndjson", "jsonl":
		return FormatJSON, nil
	case "txt", "text", "log":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w %q (expected json, txt or auto)", ErrUnknownFormat, raw)
	}
}

// Options configures a parse.
type Options struct {
	// Format forces a format. FormatAuto (or empty) detects it per file.
	Format Format
	// Required lists fields a record must carry. Nil means DefaultRequired.
	Required []model.Field
}

func (o Options) required() []model.Field {
	if o.Required == nil {
		return DefaultRequired
	}
	return o.Required
}

// Result is the outcome of parsing one or more inputs.
type Result struct {
	Records  []model.Record  `json:"records"`
	Warnings []model.Warning `json:"warnings,omitempty"`
	// Skipped counts records and blocks that were dropped.
	Skipped int `json:"skipped"`
}

// Merge appends other into r.
func (r *Result) Merge(other Result) {
	r.Records = append(r.Records, other.Records...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Skipped += other.Skipped
}

func (r *Result) warn(source, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, model.Warning{Source: source, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Load reads and parses one file.
func Load(path string, opts Options) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return Parse(data, path, opts)
}

// Parse parses data read from source.
func Parse(data []byte, source string, opts Options) (Result, error) {
	format := DetectFormat(source, data, opts.Format)
	switch format {
	case FormatJSON:
		return ParseJSON(data, source, opts.required())
	case FormatText:
		return ParseText(bytes.NewReader(data), source, opts.required())
	default:
		return Result{}, fmt.Errorf("%s: %w", source, ErrUnknownFormat)
	}
}

// DetectFormat picks the format for an input. An explicit hint wins, then the
// file extension, then the first non-space byte of the content.
func DetectFormat(path string, data []byte, hint Format) Format {
	if hint == FormatJSON || hint == FormatText {
		return hint
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON
	case ".txt", ".log":
		return FormatText
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatText
}
