// Package cliio holds console input and output helpers shared by commands.
package cliio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/tableutil"
)

// PromptYesNo writes prompt and reads a yes/no response from input.
func PromptYesNo(out io.Writer, in io.Reader, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	return choice == "y" || choice == "yes", nil
}

// WriteTable renders a tab-separated table with optional headers.
func WriteTable(out io.Writer, stripEscape bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, stripEscape)
	if err := tableutil.PrintHeaders(w, noHeaders, headers...); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// WriteWarnings prints up to limit warnings as "warning: ..." lines and a
// trailer counting the rest. A limit of zero or less prints all of them.
func WriteWarnings(out io.Writer, warnings []model.Warning, limit int) error {
	shown := warnings
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, w := range shown {
		if _, err := fmt.Fprintf(out, "warning: %s\n", w); err != nil {
			return err
		}
	}
	if rest := len(warnings) - len(shown); rest > 0 {
		if _, err := fmt.Fprintf(out, "warning: %d more warning(s) not shown (use -v to list all)\n", rest); err != nil {
			return err
		}
	}
	return nil
}
