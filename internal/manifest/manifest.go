// SPDX-License-Identifier: MIT
// Package manifest tracks the artifacts generated into an output directory
// so they can be listed and cleaned up later.
package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// FileName is the manifest file name inside an output directory.
const FileName = ".perfstats-manifest.yaml"

// ArtifactType classifies a generated file.
type ArtifactType string

const (
	TypeChart ArtifactType = "chart"
	TypeCSV   ArtifactType = "csv"
	TypeHTML  ArtifactType = "html"
)

// EntryStatus represents whether an artifact is still on disk.
type EntryStatus string

const (
	StatusPresent EntryStatus = "present"
	StatusMissing EntryStatus = "missing"
)

// Entry is one generated artifact.
type Entry struct {
	// Path is relative to the output directory.
	Path        string       `yaml:"path"`
	Type        ArtifactType `yaml:"type"`
	Metric      string       `yaml:"metric,omitempty"`
	Group       string       `yaml:"group,omitempty"`
	GeneratedAt time.Time    `yaml:"generated_at,omitempty"`
	Status      EntryStatus  `yaml:"status"`
}

// Manifest lists the artifacts of one output directory.
type Manifest struct {
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
	Inputs    []string  `yaml:"inputs,omitempty"`
	Entries   []Entry   `yaml:"artifacts"`
}

// PathIn returns the manifest path for an output directory.
func PathIn(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads a manifest file from the given path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadOrEmpty is Load, returning an empty manifest when the file does not exist.
func LoadOrEmpty(path string) (*Manifest, error) {
	m, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	return m, err
}

// Save writes the manifest to the given path.
func Save(m *Manifest, path string) error {
	if m == nil {
		return errors.New("manifest is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Upsert adds or replaces an entry by path.
func (m *Manifest) Upsert(entry Entry) {
	entry.Path = filepath.ToSlash(entry.Path)
	if entry.Status == "" {
		entry.Status = StatusPresent
	}
	for i := range m.Entries {
		if m.Entries[i].Path == entry.Path {
			m.Entries[i] = entry
			return
		}
	}
	m.Entries = append(m.Entries, entry)
}

// ValidatePaths checks all entries against dir and marks missing ones.
func (m *Manifest) ValidatePaths(dir string) error {
	for i := range m.Entries {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(m.Entries[i].Path)))
		if err != nil {
			if os.IsNotExist(err) {
				m.Entries[i].Status = StatusMissing
				continue
			}
			return err
		}
		m.Entries[i].Status = StatusPresent
	}
	return nil
}

// Prune removes entries marked missing and returns how many were removed.
func (m *Manifest) Prune() int {
	var kept []Entry
	pruned := 0
	for _, entry := range m.Entries {
		if entry.Status == StatusMissing {
			pruned++
			continue
		}
		kept = append(kept, entry)
	}
	m.Entries = kept
	return pruned
}

// Paths returns every artifact path joined onto dir.
func (m *Manifest) Paths(dir string) []string {
	out := make([]string, 0, len(m.Entries))
	for _, entry := range m.Entries {
		out = append(out, filepath.Join(dir, filepath.FromSlash(entry.Path)))
	}
	return out
}

// Find returns the entry with the given path, or nil.
func (m *Manifest) Find(path string) *Entry {
	path = filepath.ToSlash(path)
	for i := range m.Entries {
		if m.Entries[i].Path == path {
			return &m.Entries[i]
		}
	}
	return nil
}
