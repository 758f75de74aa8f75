package parser

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/skaphos/perfstats/internal/model"
)

// ParseJSON reads a JSON array of objects or JSON lines. A truncated array,
// as left by an interrupted producer, yields its complete elements.
func ParseJSON(data []byte, source string, required []model.Field) (Result, error) {
	var res Result
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return res, nil
	}
	switch trimmed[0] {
	case '[':
		if !gjson.ValidBytes(trimmed) {
			res.warn(source, "", "document is not valid JSON; reading complete elements only")
		}
		idx := 0
		gjson.ParseBytes(trimmed).ForEach(func(_, value gjson.Result) bool {
			res.addElement(value, fmt.Sprintf("%s[%d]", source, idx), required)
			idx++
			return true
		})
		return res, nil
	case '{':
		return parseJSONLines(data, source, required)
	default:
		return res, fmt.Errorf("%s: %w: expected a JSON array or JSON lines", source, ErrUnknownFormat)
	}
}

func parseJSONLines(data []byte, source string, required []model.Field) (Result, error) {
	var res Result
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		src := fmt.Sprintf("%s:%d", source, lineNo)
		if !gjson.ValidBytes(line) {
			res.warn(src, "", "line is not valid JSON; skipped")
			res.Skipped++
			continue
		}
		res.addElement(gjson.ParseBytes(line), src, required)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read %s: %w", source, err)
	}
	return res, nil
}

func (r *Result) addElement(value gjson.Result, src string, required []model.Field) {
	if !value.IsObject() || !gjson.Valid(value.Raw) {
		r.warn(src, "", "element is not a JSON object; skipped")
		r.Skipped++
		return
	}
	b := newRecordBuilder(src)
	value.ForEach(func(key, v gjson.Result) bool {
		b.set(key.String(), jsonValue(v))
		return true
	})
	rec, ok := b.finish(required)
	r.Warnings = append(r.Warnings, b.warnings...)
	if !ok {
		r.Skipped++
		return
	}
	r.Records = append(r.Records, rec)
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return v.Raw
	}
}
