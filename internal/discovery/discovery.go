// SPDX-License-Identifier: MIT
// Package discovery expands input paths, directories and globs into log files.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoInputs is returned when expansion yields no files.
var ErrNoInputs = errors.New("no input files found")

// DefaultExtensions are the file extensions collected when walking directories.
var DefaultExtensions = []string{".json", ".ndjson", ".jsonl", ".txt", ".log"}

// Options configures input expansion.
type Options struct {
	// Inputs are files, directories or doublestar globs ("logs/**/*.json").
	Inputs []string
	// Exclude holds glob patterns for files and directories to skip.
	Exclude        []string
	FollowSymlinks bool
	// Extensions overrides DefaultExtensions for directory walks.
	Extensions []string
}

// Expand resolves every input into a sorted, de-duplicated file list.
// Files named explicitly are kept whatever their extension; directories
// contribute only files with a known extension.
func Expand(ctx context.Context, opts Options) ([]string, error) {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	c := &collector{opts: opts, seen: map[string]struct{}{}, visited: map[string]struct{}{}}
	for _, input := range opts.Inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isGlob(input) {
			matches, err := doublestar.FilepathGlob(input)
			if err != nil {
				return nil, fmt.Errorf("input pattern %q: %w", input, err)
			}
			for _, m := range matches {
				if err := c.add(ctx, m, false); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := c.add(ctx, input, true); err != nil {
			return nil, err
		}
	}
	if len(c.files) == 0 {
		return nil, ErrNoInputs
	}
	sort.Strings(c.files)
	return c.files, nil
}

// MatchesExclude checks whether a path matches any of the given exclude
// glob patterns.
func MatchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		match, err := doublestar.Match(pattern, slashPath)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

// HasLogExtension reports whether path ends in one of exts, case-insensitively.
func HasLogExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func isGlob(input string) bool {
	return strings.ContainsAny(input, "*?[{")
}

type collector struct {
	opts    Options
	files   []string
	seen    map[string]struct{}
	visited map[string]struct{}
}

func (c *collector) add(ctx context.Context, path string, explicit bool) error {
	path = filepath.Clean(path)
	if MatchesExclude(path, c.opts.Exclude) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input %s: %w", path, err)
	}
	if info.IsDir() {
		return c.walk(ctx, path)
	}
	if !explicit && !HasLogExtension(path, c.opts.Extensions) {
		return nil
	}
	c.keep(path)
	return nil
}

func (c *collector) keep(path string) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.files = append(c.files, path)
}

func (c *collector) walk(ctx context.Context, root string) error {
	realRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		realRoot = resolved
	}
	if _, ok := c.visited[realRoot]; ok {
		return nil
	}
	c.visited[realRoot] = struct{}{}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if MatchesExclude(path, c.opts.Exclude) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			if !c.opts.FollowSymlinks {
				return nil
			}
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			info, err := os.Stat(target)
			if err != nil {
				return nil
			}
			if info.IsDir() {
				return c.walk(ctx, target)
			}
		}
		if HasLogExtension(path, c.opts.Extensions) {
			c.keep(path)
		}
		return nil
	})
}
