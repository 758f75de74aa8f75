package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/perfstats/internal/model"
)

// BlockSeparator ends one record block in the text format.
const BlockSeparator = "---"

const maxLineBytes = 1 << 20

type pair struct {
	key   string
	value string
}

type textBlock struct {
	line  int
	pairs []pair
	bad   []int
}

// ParseText reads blocks of "Key: Value" lines separated by "---" lines.
// A line may carry several pairs joined by ", ".
func ParseText(r io.Reader, source string, required []model.Field) (Result, error) {
	var res Result
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var block *textBlock
	flush := func() {
		if block == nil {
			return
		}
		res.addBlock(*block, source, required)
		block = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == BlockSeparator {
			flush()
			continue
		}
		if block == nil {
			block = &textBlock{line: lineNo}
		}
		pairs, ok := splitPairs(line)
		if !ok {
			block.bad = append(block.bad, lineNo)
			continue
		}
		block.pairs = append(block.pairs, pairs...)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read %s: %w", source, err)
	}
	flush()
	return res, nil
}

func (r *Result) addBlock(block textBlock, source string, required []model.Field) {
	src := fmt.Sprintf("%s:%d", source, block.line)
	for _, n := range block.bad {
		r.warn(fmt.Sprintf("%s:%d", source, n), "", "line is not a key/value pair; ignored")
	}
	if len(block.pairs) == 0 {
		r.warn(src, "", "block has no key/value pairs; skipped")
		r.Skipped++
		return
	}
	b := newRecordBuilder(src)
	for _, p := range block.pairs {
		b.set(p.key, p.value)
	}
	rec, ok := b.finish(required)
	r.Warnings = append(r.Warnings, b.warnings...)
	if !ok {
		r.Skipped++
		return
	}
	r.Records = append(r.Records, rec)
}

// splitPairs splits a line into pairs. A ", " segment without its own
// "Key: " belongs to the value before it.
func splitPairs(line string) ([]pair, bool) {
	var out []pair
	for _, seg := range strings.Split(line, ", ") {
		key, value, ok := strings.Cut(seg, ": ")
		if !ok && strings.HasSuffix(seg, ":") {
			key, value, ok = strings.TrimSuffix(seg, ":"), "", true
		}
		if ok && strings.TrimSpace(key) != "" {
			out = append(out, pair{key: strings.TrimSpace(key), value: strings.TrimSpace(value)})
			continue
		}
		if len(out) == 0 {
			return nil, false
		}
		out[len(out)-1].value += ", " + seg
	}
	return out, len(out) > 0
}
