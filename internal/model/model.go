// SPDX-License-Identifier: MIT
// Package model defines the core data types used throughout perfstats.
package model

import (
	"fmt"
	"strings"
	"time"
)

// NotAvailable is the placeholder written by log producers for missing values.
// It is also used as the group value for a missing grouping dimension.
const NotAvailable = "N/A"

// Field names a canonical record field.
type Field string

const (
	FieldTime              Field = "time"
	FieldRequestNumber     Field = "request_number"
	FieldGroupID           Field = "group_id"
	FieldTotalTransactions Field = "total_transactions"
	FieldRoute             Field = "route"
	FieldMethod            Field = "method"
	FieldRefTime           Field = "ref_time"
	FieldProofSize         Field = "proof_size"
	FieldTip               Field = "tip"
	FieldDuration          Field = "duration"
	FieldCPUStart          Field = "cpu_start"
	FieldCPUEnd            Field = "cpu_end"
	FieldRAMStart          Field = "ram_start"
	FieldRAMEnd            Field = "ram_end"
	FieldSuccess           Field = "success"
	FieldParamsLength      Field = "params_length"
	FieldTestType          Field = "test_type"
)

// AllFields lists every canonical field in log order.
var AllFields = []Field{
	FieldTime,
	FieldRequestNumber,
	FieldGroupID,
	FieldTotalTransactions,
	FieldRoute,
	FieldMethod,
	FieldRefTime,
	FieldProofSize,
	FieldTip,
	FieldDuration,
	FieldCPUStart,
	FieldCPUEnd,
	FieldRAMStart,
	FieldRAMEnd,
	FieldSuccess,
	FieldParamsLength,
	FieldTestType,
}

// ParseField resolves a canonical field name. Dashes are accepted in place of underscores.
func ParseField(raw string) (Field, error) {
	name := Field(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	for _, f := range AllFields {
		if f == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", raw)
}

// Record is one measured API request or transaction.
// Optional numeric fields are nil when the producer did not record them.
type Record struct {
	// Time is when the request finished. Zero when absent.
	Time time.Time `json:"time"`
	// RequestNumber is the producer-side sequence number of the request.
	RequestNumber *int64 `json:"request_number,omitempty"`
	// GroupID identifies a batch of requests sent together.
	GroupID string `json:"group_id,omitempty"`
	// TotalTransactions is the size of the test run the request belongs to.
	TotalTransactions *int64 `json:"total_transactions,omitempty"`
	// Route is "METHOD /path" without the query string.
	Route string `json:"route"`
	// Method is the HTTP method.
	Method string `json:"method,omitempty"`
	// RefTime is the computational weight (gas) charged for the transaction.
	RefTime *float64 `json:"ref_time,omitempty"`
	// ProofSize is the proof-size weight charged for the transaction.
	ProofSize *float64 `json:"proof_size,omitempty"`
	// Tip is the priority tip attached to the transaction.
	Tip *float64 `json:"tip,omitempty"`
	// Duration is the request duration in milliseconds.
	Duration *float64 `json:"duration_ms,omitempty"`
	// CPUStart and CPUEnd are CPU usage percentages before and after the request.
	CPUStart *float64 `json:"cpu_start,omitempty"`
	CPUEnd   *float64 `json:"cpu_end,omitempty"`
	// RAMStart and RAMEnd are memory usage percentages before and after the request.
	RAMStart *float64 `json:"ram_start,omitempty"`
	RAMEnd   *float64 `json:"ram_end,omitempty"`
	// Success reports whether the transaction succeeded.
	Success *bool `json:"success,omitempty"`
	// ParamsLength is the serialized request body length.
	ParamsLength *int64 `json:"params_length,omitempty"`
	// TestType is the load pattern label (sequential, concurrent, batch, ...).
	TestType string `json:"test_type,omitempty"`
	// Source locates the record in its input file for diagnostics.
	Source string `json:"source"`
	// Extra holds keys the normalizer did not recognize.
	Extra map[string]string `json:"extra,omitempty"`
}

// Has reports whether the record carries a value for field.
func (r Record) Has(field Field) bool {
	switch field {
	case FieldTime:
		return !r.Time.IsZero()
	case FieldRequestNumber:
		return r.RequestNumber != nil
	case FieldGroupID:
		return r.GroupID != ""
	case FieldTotalTransactions:
		return r.TotalTransactions != nil
	case FieldRoute:
		return r.Route != ""
	case FieldMethod:
		return r.Method != ""
	case FieldRefTime:
		return r.RefTime != nil
	case FieldProofSize:
		return r.ProofSize != nil
	case FieldTip:
		return r.Tip != nil
	case FieldDuration:
		return r.Duration != nil
	case FieldCPUStart:
		return r.CPUStart != nil
	case FieldCPUEnd:
		return r.CPUEnd != nil
	case FieldRAMStart:
		return r.RAMStart != nil
	case FieldRAMEnd:
		return r.RAMEnd != nil
	case FieldSuccess:
		return r.Success != nil
	case FieldParamsLength:
		return r.ParamsLength != nil
	case FieldTestType:
		return r.TestType != ""
	default:
		return false
	}
}

// Missing returns the subset of fields the record does not carry, in the given order.
func (r Record) Missing(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if !r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Succeeded reports a recorded success. Records without the flag are not successes.
func (r Record) Succeeded() bool {
	return r.Success != nil && *r.Success
}

// Failed reports a recorded failure. Records without the flag are not failures.
func (r Record) Failed() bool {
	return r.Success != nil && !*r.Success
}

// Path returns the route without its method prefix.
func (r Record) Path() string {
	route := strings.TrimSpace(r.Route)
	if i := strings.IndexByte(route, ' '); i > 0 && IsHTTPMethod(route[:i]) {
		return strings.TrimSpace(route[i+1:])
	}
	return route
}

var httpMethods = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "HEAD": {}, "OPTIONS": {}, "CONNECT": {}, "TRACE": {},
}

// IsHTTPMethod reports whether s is an upper-case HTTP verb.
func IsHTTPMethod(s string) bool {
	_, ok := httpMethods[s]
	return ok
}

// Warning describes an input problem that was skipped instead of aborting the run.
type Warning struct {
	// Source locates the problem (file, block or element index).
	Source string `json:"source"`
	// Field is the canonical or raw field involved, when applicable.
	Field string `json:"field,omitempty"`
	// Message explains what was skipped and why.
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("%s: %s", w.Source, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Source, w.Field, w.Message)
}
