package parser_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/perfstats/internal/model"
	"github.com/skaphos/perfstats/internal/parser"
)

func messages(ws []model.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}

var _ = Describe("Load", func() {
	It("reads text blocks and skips what it cannot use", func() {
		res, err := parser.Load(filepath.Join("testdata", "performance_log.txt"), parser.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(3))
		Expect(res.Skipped).To(Equal(2))

		first := res.Records[0]
		Expect(first.Time).To(Equal(time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)))
		Expect(*first.RequestNumber).To(Equal(int64(1)))
		Expect(first.GroupID).To(Equal("g-1"))
		Expect(first.Route).To(Equal("POST /create_user"))
		Expect(first.Method).To(Equal("POST"))
		Expect(*first.RefTime).To(Equal(1234567.0))
		Expect(*first.ProofSize).To(Equal(3593.0))
		Expect(*first.Tip).To(Equal(0.0))
		Expect(*first.Duration).To(Equal(120.0))
		Expect(*first.CPUStart).To(Equal(3.0))
		Expect(*first.CPUEnd).To(Equal(5.5))
		Expect(*first.Success).To(BeTrue())
		Expect(*first.ParamsLength).To(Equal(int64(56)))
		Expect(first.TestType).To(Equal("sequential"))
		Expect(first.Source).To(HaveSuffix("performance_log.txt:1"))
	})

	It("splits several pairs written on one line", func() {
		res, err := parser.Load(filepath.Join("testdata", "performance_log.txt"), parser.Options{})
		Expect(err).NotTo(HaveOccurred())
		second := res.Records[1]
		Expect(*second.CPUStart).To(Equal(4.0))
		Expect(*second.CPUEnd).To(Equal(6.0))
		Expect(*second.RAMStart).To(Equal(40.5))
		Expect(*second.RAMEnd).To(Equal(40.75))
		Expect(second.RefTime).To(BeNil())
		Expect(second.Tip).To(BeNil())
		Expect(*second.Success).To(BeFalse())
		Expect(second.Method).To(Equal("POST"))
	})

	It("strips query strings and derives the method", func() {
		res, err := parser.Load(filepath.Join("testdata", "performance_log.txt"), parser.Options{})
		Expect(err).NotTo(HaveOccurred())
		third := res.Records[2]
		Expect(third.Route).To(Equal("GET /balance"))
		Expect(third.Method).To(Equal("GET"))
		Expect(third.Success).To(BeNil())
	})

	It("warns about malformed blocks and missing required fields", func() {
		res, err := parser.Load(filepath.Join("testdata", "performance_log.txt"), parser.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(messages(res.Warnings)).To(ContainElement(ContainSubstring("not a key/value pair")))
		Expect(messages(res.Warnings)).To(ContainElement(ContainSubstring("block has no key/value pairs")))
		Expect(messages(res.Warnings)).To(ContainElement(ContainSubstring("missing required duration")))
	})

	It("reads JSON arrays with camelCase and legacy keys", func() {
		res, err := parser.Load(filepath.Join("testdata", "performance_log.json"), parser.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(2))
		Expect(res.Skipped).To(Equal(2))

		first := res.Records[0]
		Expect(*first.RefTime).To(Equal(1234567.0))
		Expect(first.Tip).To(BeNil())
		Expect(*first.Duration).To(Equal(120.0))
		Expect(first.TestType).To(Equal("batch"))
		Expect(first.Source).To(HaveSuffix("performance_log.json[0]"))

		legacy := res.Records[1]
		Expect(*legacy.Duration).To(Equal(95.0))
		Expect(*legacy.CPUStart).To(Equal(2.5))
		Expect(*legacy.RAMStart).To(Equal(39.0))
		Expect(*legacy.Success).To(BeFalse())
		Expect(legacy.Method).To(Equal("POST"))

		Expect(messages(res.Warnings)).To(ContainElement(ContainSubstring("not a JSON object")))
		Expect(messages(res.Warnings)).To(ContainElement(ContainSubstring("missing required time")))
	})

	It("returns I/O errors", func() {
		_, err := parser.Load(filepath.Join(GinkgoT().TempDir(), "missing.json"), parser.Options{})
		Expect(err).To(HaveOccurred())
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("honours a custom required set", func() {
		data := "Route: GET /x\n---\n"
		res, err := parser.Parse([]byte(data), "mem.txt", parser.Options{Required: []model.Field{model.FieldRoute}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(1))
	})
})

var _ = Describe("ParseText", func() {
	It("never panics on malformed input", func() {
		inputs := []string{
			"",
			"---\n---\n---",
			":\n: :\n---",
			"Duration: \n---",
			"Time: yesterday\nRoute: GET /\nDuration: fast\n---",
			strings.Repeat("x", 4096),
			"Time: 2024-10-01T12:00:00Z, , ,\n",
		}
		for _, in := range inputs {
			Expect(func() {
				_, _ = parser.ParseText(strings.NewReader(in), "fuzz.txt", parser.DefaultRequired)
			}).NotTo(Panic(), in)
		}
	})

	It("processes a final block without a terminator", func() {
		in := "Time: 2024-10-01T12:00:00Z\nRoute: GET /x\nDuration: 1 s"
		res, err := parser.ParseText(strings.NewReader(in), "tail.txt", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(1))
		Expect(*res.Records[0].Duration).To(Equal(1000.0))
	})

	It("keeps unknown keys and comma-bearing values", func() {
		in := "Time: 2024-10-01T12:00:00Z\nRoute: GET /x\nDuration: 5\nNote: slow, retried\n---\n"
		res, err := parser.ParseText(strings.NewReader(in), "extra.txt", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(1))
		Expect(res.Records[0].Extra).To(HaveKeyWithValue("Note", "slow, retried"))
	})

	It("skips blocks with no recognizable keys", func() {
		in := "Color: blue\nShape: round\n---\n"
		res, err := parser.ParseText(strings.NewReader(in), "odd.txt", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(BeEmpty())
		Expect(res.Skipped).To(Equal(1))
		Expect(messages(res.Warnings)).To(ConsistOf(ContainSubstring("no recognizable fields")))
	})

	It("drops optional fields that fail to convert", func() {
		in := "Time: 2024-10-01T12:00:00Z\nRoute: GET /x\nDuration: 5\nTip: lots\n---\n"
		res, err := parser.ParseText(strings.NewReader(in), "bad.txt", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(1))
		Expect(res.Records[0].Tip).To(BeNil())
		Expect(res.Warnings).To(HaveLen(1))
		Expect(res.Warnings[0].Field).To(Equal("tip"))
	})

	It("keeps records whose usage fields are NaN or infinite, without those fields", func() {
		in := "Time: 2024-10-01T12:00:00Z\nRoute: GET /x\nDuration: 5\nCPU Usage (start): NaN%, RAM Usage (end): Infinity%\n---\n" +
			"Time: 2024-10-01T12:00:01Z\nRoute: GET /x\nDuration: 7\nCPU Usage (start): 4.00%\n---\n"
		res, err := parser.ParseText(strings.NewReader(in), "usage.txt", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Skipped).To(BeZero())
		Expect(res.Records).To(HaveLen(2))
		Expect(res.Records[0].CPUStart).To(BeNil())
		Expect(res.Records[0].RAMEnd).To(BeNil())
		Expect(*res.Records[0].Duration).To(Equal(5.0))
		Expect(*res.Records[1].CPUStart).To(Equal(4.0))
		fields := []string{}
		for _, w := range res.Warnings {
			fields = append(fields, w.Field)
		}
		Expect(fields).To(ConsistOf("cpu_start", "ram_end"))
	})
})

var _ = Describe("ParseJSON", func() {
	It("reads JSON lines and skips invalid lines", func() {
		in := `{"time":"2024-10-01T12:00:00Z","route":"GET /a","duration":3}
not json
{"time":"2024-10-01T12:00:01Z","route":"GET /b","duration":"4 ms"}
`
		res, err := parser.ParseJSON([]byte(in), "log.ndjson", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(2))
		Expect(res.Skipped).To(Equal(1))
		Expect(res.Records[1].Source).To(Equal("log.ndjson:3"))
	})

	It("salvages complete elements of a truncated array", func() {
		in := `[{"time":"2024-10-01T12:00:00Z","route":"GET /a","duration":3},
{"time":"2024-10-01T12:00:01Z","route":"GET /a","duration":4},`
		res, err := parser.ParseJSON([]byte(in), "cut.json", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(2))
		Expect(messages(res.Warnings)).To(ContainElement(ContainSubstring("not valid JSON")))
	})

	It("accepts unix millisecond timestamps", func() {
		in := `[{"time":1727784000000,"route":"GET /a","duration":3}]`
		res, err := parser.ParseJSON([]byte(in), "ms.json", parser.DefaultRequired)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Records).To(HaveLen(1))
		Expect(res.Records[0].Time).To(Equal(time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)))
	})

	It("rejects documents that are not JSON", func() {
		_, err := parser.ParseJSON([]byte("Time: now"), "x.json", parser.DefaultRequired)
		Expect(err).To(MatchError(parser.ErrUnknownFormat))
	})
})

var _ = Describe("Format", func() {
	It("prefers the hint, then the extension, then the content", func() {
		Expect(parser.DetectFormat("a.json", []byte("Time: x"), parser.FormatText)).To(Equal(parser.FormatText))
		Expect(parser.DetectFormat("a.json", []byte("Time: x"), parser.FormatAuto)).To(Equal(parser.FormatJSON))
		Expect(parser.DetectFormat("a.log", []byte("[]"), "")).To(Equal(parser.FormatText))
		Expect(parser.DetectFormat("stdin", []byte("  [{}]"), "")).To(Equal(parser.FormatJSON))
		Expect(parser.DetectFormat("stdin", []byte("Time: x"), "")).To(Equal(parser.FormatText))
	})

	It("parses format names", func() {
		f, err := parser.ParseFormat("TEXT")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(parser.FormatText))

		f, err = parser.ParseFormat("")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(parser.FormatAuto))

		_, err = parser.ParseFormat("xml")
		Expect(err).To(MatchError(parser.ErrUnknownFormat))
	})

	It("normalizes keys across spellings", func() {
		for _, key := range []string{"CPU Usage (start)", "cpuUsageStart", "cpu_usage_start", "cpuUsage"} {
			f, ok := parser.FieldFor(key)
			Expect(ok).To(BeTrue(), key)
			Expect(f).To(Equal(model.FieldCPUStart), key)
		}
		_, ok := parser.FieldFor("colour")
		Expect(ok).To(BeFalse())
	})
})
