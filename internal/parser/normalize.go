package parser

import (
	"fmt"
	"strings"

	"github.com/skaphos/perfstats/internal/model"
)

// aliases maps canonical keys (see CanonicalKey) to record fields. Producers
// have written the same field under several names over time.
var aliases = map[string]model.Field{
	"time":                      model.FieldTime,
	"timestamp":                 model.FieldTime,
	"date":                      model.FieldTime,
	"requestnumber":             model.FieldRequestNumber,
	"requestno":                 model.FieldRequestNumber,
	"requestid":                 model.FieldRequestNumber,
	"groupid":                   model.FieldGroupID,
	"batchid":                   model.FieldGroupID,
	"totaltransactions":         model.FieldTotalTransactions,
	"totalrequests":             model.FieldTotalTransactions,
	"route":                     model.FieldRoute,
	"endpoint":                  model.FieldRoute,
	"method":                    model.FieldMethod,
	"httpmethod":                model.FieldMethod,
	"reftime":                   model.FieldRefTime,
	"reftime(gascomputacional)": model.FieldRefTime,
	"reftime(gas)":              model.FieldRefTime,
	"gas":                       model.FieldRefTime,
	"gasused":                   model.FieldRefTime,
	"proofsize":                 model.FieldProofSize,
	"tip":                       model.FieldTip,
	"duration":                  model.FieldDuration,
	"duration(ms)":              model.FieldDuration,
	"durationms":                model.FieldDuration,
	"elapsed":                   model.FieldDuration,
	"cpuusage(start)":           model.FieldCPUStart,
	"cpuusagestart":             model.FieldCPUStart,
	"cpustart":                  model.FieldCPUStart,
	"cpuusage":                  model.FieldCPUStart,
	"cpuusage(end)":             model.FieldCPUEnd,
	"cpuusageend":               model.FieldCPUEnd,
	"cpuend":                    model.FieldCPUEnd,
	"ramusage(start)":           model.FieldRAMStart,
	"ramusagestart":             model.FieldRAMStart,
	"ramstart":                  model.FieldRAMStart,
	"ramusage":                  model.FieldRAMStart,
	"memusage":                  model.FieldRAMStart,
	"memusagestart":             model.FieldRAMStart,
	"memoryusage":               model.FieldRAMStart,
	"ramusage(end)":             model.FieldRAMEnd,
	"ramusageend":               model.FieldRAMEnd,
	"ramend":                    model.FieldRAMEnd,
	"memusageend":               model.FieldRAMEnd,
	"transactionsuccess":        model.FieldSuccess,
	"success":                   model.FieldSuccess,
	"txsuccess":                 model.FieldSuccess,
	"parameterslength":          model.FieldParamsLength,
	"paramslength":              model.FieldParamsLength,
	"paramlength":               model.FieldParamsLength,
	"testtype":                  model.FieldTestType,
	"testmode":                  model.FieldTestType,
}

// CanonicalKey lower-cases a raw key and drops spaces, underscores and dashes,
// so "CPU Usage (start)", "cpuUsageStart" and "cpu_usage_start" compare equal.
func CanonicalKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FieldFor resolves a raw key to its field.
func FieldFor(raw string) (model.Field, bool) {
	f, ok := aliases[CanonicalKey(raw)]
	return f, ok
}

// recordBuilder accumulates key/value pairs of one block or element.
type recordBuilder struct {
	rec      model.Record
	known    int
	warnings []model.Warning
}

func newRecordBuilder(source string) *recordBuilder {
	return &recordBuilder{rec: model.Record{Source: source}}
}

func (b *recordBuilder) warn(field, format string, args ...any) {
	b.warnings = append(b.warnings, model.Warning{Source: b.rec.Source, Field: field, Message: fmt.Sprintf(format, args...)})
}

// set assigns one raw pair. Unknown keys land in Extra; bad values are warned
// about and leave the field absent.
func (b *recordBuilder) set(rawKey string, value any) {
	field, ok := FieldFor(rawKey)
	if !ok {
		if b.rec.Extra == nil {
			b.rec.Extra = map[string]string{}
		}
		b.rec.Extra[strings.TrimSpace(rawKey)] = fmt.Sprint(value)
		return
	}
	b.known++
	if IsAbsent(value) {
		return
	}
	if err := b.assign(field, value); err != nil {
		b.warn(string(field), "%v; field ignored", err)
	}
}

func (b *recordBuilder) assign(field model.Field, value any) error {
	r := &b.rec
	switch field {
	case model.FieldTime:
		t, err := ParseTime(value)
		if err != nil {
			return fmt.Errorf("invalid time %q", fmt.Sprint(value))
		}
		r.Time = t
	case model.FieldRequestNumber:
		return setInt(&r.RequestNumber, value)
	case model.FieldTotalTransactions:
		return setInt(&r.TotalTransactions, value)
	case model.FieldParamsLength:
		return setInt(&r.ParamsLength, value)
	case model.FieldGroupID:
		r.GroupID = strings.TrimSpace(fmt.Sprint(value))
	case model.FieldRoute:
		r.Route = strings.TrimSpace(fmt.Sprint(value))
	case model.FieldMethod:
		r.Method = strings.ToUpper(strings.TrimSpace(fmt.Sprint(value)))
	case model.FieldTestType:
		r.TestType = strings.TrimSpace(fmt.Sprint(value))
	case model.FieldRefTime:
		return setFloat(&r.RefTime, value, ParseNumber)
	case model.FieldProofSize:
		return setFloat(&r.ProofSize, value, ParseNumber)
	case model.FieldTip:
		return setFloat(&r.Tip, value, ParseNumber)
	case model.FieldDuration:
		return setFloat(&r.Duration, value, ParseDuration)
	case model.FieldCPUStart:
		return setFloat(&r.CPUStart, value, ParsePercent)
	case model.FieldCPUEnd:
		return setFloat(&r.CPUEnd, value, ParsePercent)
	case model.FieldRAMStart:
		return setFloat(&r.RAMStart, value, ParsePercent)
	case model.FieldRAMEnd:
		return setFloat(&r.RAMEnd, value, ParsePercent)
	case model.FieldSuccess:
		ok, err := ParseBool(value)
		if err != nil {
			return err
		}
		r.Success = &ok
	}
	return nil
}

func setFloat(dst **float64, value any, parse func(any) (float64, error)) error {
	v, err := parse(value)
	if err != nil {
		return fmt.Errorf("invalid number %q", fmt.Sprint(value))
	}
	*dst = &v
	return nil
}

func setInt(dst **int64, value any) error {
	v, err := ParseInt(value)
	if err != nil {
		return fmt.Errorf("invalid integer %q", fmt.Sprint(value))
	}
	*dst = &v
	return nil
}

// finish validates the accumulated record. It returns false, with a warning
// explaining why, when the record must be skipped.
func (b *recordBuilder) finish(required []model.Field) (model.Record, bool) {
	if b.known == 0 {
		b.warn("", "no recognizable fields; skipped")
		return model.Record{}, false
	}
	normalizeRoute(&b.rec)
	if missing := b.rec.Missing(required); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, f := range missing {
			names = append(names, string(f))
		}
		b.warn("", "missing required %s; skipped", strings.Join(names, ", "))
		return model.Record{}, false
	}
	return b.rec, true
}

// normalizeRoute strips query strings, derives Method from a "METHOD /path"
// route and prefixes a bare path with a known method.
func normalizeRoute(r *model.Record) {
	route := strings.TrimSpace(r.Route)
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = strings.TrimSpace(route[:i])
	}
	if verb, _, ok := strings.Cut(route, " "); ok && model.IsHTTPMethod(strings.ToUpper(verb)) {
		verb = strings.ToUpper(verb)
		route = verb + " " + strings.TrimSpace(route[len(verb):])
		if r.Method == "" {
			r.Method = verb
		}
	} else if strings.HasPrefix(route, "/") && model.IsHTTPMethod(r.Method) {
		route = r.Method + " " + route
	}
	r.Route = route
}
