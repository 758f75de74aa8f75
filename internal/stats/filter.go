package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/skaphos/perfstats/internal/model"
)

// Filter selects records. Empty criteria match everything.
type Filter struct {
	// Routes and ExcludeRoutes are doublestar patterns matched against the
	// route path ("/users/*") and the full route ("POST /users/*").
	Routes        []string
	ExcludeRoutes []string
	// TestTypes and Methods match case-insensitively.
	TestTypes   []string
	Methods     []string
	SuccessOnly bool
	FailedOnly  bool
	// Since and Until bound the record time, inclusive. Zero means open.
	Since time.Time
	Until time.Time
}

// Validate rejects contradictory or malformed criteria.
func (f Filter) Validate() error {
	if f.SuccessOnly && f.FailedOnly {
		return errors.New("success-only and failed-only are mutually exclusive")
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return fmt.Errorf("until (%s) is before since (%s)", f.Until.Format(time.RFC3339), f.Since.Format(time.RFC3339))
	}
	for _, p := range append(append([]string(nil), f.Routes...), f.ExcludeRoutes...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid route pattern %q", p)
		}
	}
	return nil
}

// Empty reports whether the filter has no criteria.
func (f Filter) Empty() bool {
	return len(f.Routes) == 0 && len(f.ExcludeRoutes) == 0 && len(f.TestTypes) == 0 &&
		len(f.Methods) == 0 && !f.SuccessOnly && !f.FailedOnly && f.Since.IsZero() && f.Until.IsZero()
}

// Match reports whether r satisfies every criterion.
func (f Filter) Match(r model.Record) bool {
	if len(f.Routes) > 0 && !matchesRoute(r, f.Routes) {
		return false
	}
	if matchesRoute(r, f.ExcludeRoutes) {
		return false
	}
	if len(f.TestTypes) > 0 && !containsFold(f.TestTypes, r.TestType) {
		return false
	}
	if len(f.Methods) > 0 && !containsFold(f.Methods, r.Method) {
		return false
	}
	if f.SuccessOnly && !r.Succeeded() {
		return false
	}
	if f.FailedOnly && !r.Failed() {
		return false
	}
	if !f.Since.IsZero() && (r.Time.IsZero() || r.Time.Before(f.Since)) {
		return false
	}
	if !f.Until.IsZero() && (r.Time.IsZero() || r.Time.After(f.Until)) {
		return false
	}
	return true
}

// Apply returns the matching records in input order.
func (f Filter) Apply(records []model.Record) []model.Record {
	if f.Empty() {
		return records
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchesRoute(r model.Record, patterns []string) bool {
	path := r.Path()
	for _, p := range patterns {
		for _, candidate := range []string{path, strings.TrimPrefix(path, "/"), r.Route} {
			if ok, _ := doublestar.Match(p, candidate); ok {
				return true
			}
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}
