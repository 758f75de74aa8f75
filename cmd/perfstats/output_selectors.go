package perfstats

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/skaphos/perfstats/internal/cliio"
)

type outputKind string

const (
	outputKindTable         outputKind = "table"
	outputKindWide          outputKind = "wide"
	outputKindJSON          outputKind = "json"
	outputKindCustomColumns outputKind = "custom-columns"
)

type outputMode struct {
	kind outputKind
	expr string
}

func (m outputMode) wide() bool { return m.kind == outputKindWide }

type customColumnSpec struct {
	header string
	path   string
}

func parseOutputMode(format string) (outputMode, error) {
	trimmed := strings.TrimSpace(format)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "custom-columns="):
		expr := strings.TrimSpace(trimmed[len("custom-columns="):])
		if expr == "" {
			return outputMode{}, fmt.Errorf("custom-columns output requires column definitions")
		}
		return outputMode{kind: outputKindCustomColumns, expr: expr}, nil
	case lower == string(outputKindTable), lower == "":
		return outputMode{kind: outputKindTable}, nil
	case lower == string(outputKindWide):
		return outputMode{kind: outputKindWide}, nil
	case lower == string(outputKindJSON):
		return outputMode{kind: outputKindJSON}, nil
	default:
		return outputMode{}, fmt.Errorf("unsupported format %q", format)
	}
}

// writeCustomColumnsOutput renders output as a table whose columns are gjson
// paths evaluated against each row, e.g. ROUTE:.key.route or
// MEAN:.metrics.#(metric=="duration").mean.
func writeCustomColumnsOutput(cmd *cobra.Command, output any, spec string, noHeaders bool) error {
	data, err := json.Marshal(output)
	if err != nil {
		return err
	}
	columns, err := parseCustomColumnsSpec(spec)
	if err != nil {
		return err
	}
	rows := rowsForCustomColumns(gjson.ParseBytes(data))
	headers := make([]string, 0, len(columns))
	for _, col := range columns {
		headers = append(headers, col.header)
	}

	renderRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		values := make([]string, 0, len(columns))
		for _, col := range columns {
			values = append(values, resolveCustomColumnValue(row, col.path))
		}
		renderRows = append(renderRows, values)
	}
	return cliio.WriteTable(cmd.OutOrStdout(), false, noHeaders, headers, renderRows)
}

func parseCustomColumnsSpec(raw string) ([]customColumnSpec, error) {
	parts := strings.Split(raw, ",")
	columns := make([]customColumnSpec, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		header, path, ok := strings.Cut(trimmed, ":")
		header = strings.TrimSpace(header)
		path = strings.TrimPrefix(strings.TrimSpace(path), ".")
		if !ok || header == "" || path == "" {
			return nil, fmt.Errorf("invalid custom-columns segment %q (expected NAME:PATH)", trimmed)
		}
		columns = append(columns, customColumnSpec{header: header, path: path})
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("custom-columns output requires at least one NAME:PATH pair")
	}
	return columns, nil
}

// rowsForCustomColumns picks the row list: a top-level array, or the first
// of the well-known list fields of an object.
func rowsForCustomColumns(doc gjson.Result) []gjson.Result {
	if doc.IsArray() {
		return doc.Array()
	}
	if doc.IsObject() {
		for _, key := range []string{"rows", "groups", "records", "artifacts"} {
			if list := doc.Get(key); list.IsArray() {
				return list.Array()
			}
		}
	}
	return []gjson.Result{doc}
}

func resolveCustomColumnValue(row gjson.Result, path string) string {
	value := row.Get(path)
	switch value.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return value.Str
	case gjson.JSON:
		return value.Raw
	default:
		return value.String()
	}
}
