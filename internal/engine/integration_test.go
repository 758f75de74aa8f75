//go:build integration

package engine_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/perfstats/internal/config"
	"github.com/skaphos/perfstats/internal/engine"
	"github.com/skaphos/perfstats/internal/manifest"
)

func generatedTextLog(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		route := "POST /create_user"
		if i%3 == 0 {
			route = "GET /balance"
		}
		fmt.Fprintf(&sb, "Time: 2024-10-01T12:%02d:%02dZ\n", i/60, i%60)
		fmt.Fprintf(&sb, "Route: %s\n", route)
		fmt.Fprintf(&sb, "RefTime (Gas Computacional): %d,%03d\n", 1+i%5, i%1000)
		fmt.Fprintf(&sb, "Duration: %d ms\n", 40+(i*7)%90)
		fmt.Fprintf(&sb, "CPU Usage (start): %d.00%%, CPU Usage (end): %d.50%%\n", i%50, i%50+1)
		fmt.Fprintf(&sb, "RAM Usage (start): %d.00%%, RAM Usage (end): %d.25%%\n", 30+i%20, 30+i%20)
		sb.WriteString("Transaction Success: Yes\nTest Type: sequential\n---\n")
	}
	return sb.String()
}

var _ = Describe("Engine integration", func() {
	It("renders every artifact kind for a realistic log", func() {
		base := GinkgoT().TempDir()
		input := filepath.Join(base, "performance_log.txt")
		Expect(os.WriteFile(input, []byte(generatedTextLog(120)), 0o644)).To(Succeed())
		out := filepath.Join(base, "out")

		cfg := config.DefaultConfig()
		cfg.Output.HTML = true
		cfg.Output.RecordsCSV = true
		eng := engine.New(&cfg)
		report, err := eng.Analyze(context.Background(), engine.Options{Inputs: []string{input}})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Records).To(HaveLen(120))

		opts, err := eng.DefaultRenderOptions()
		Expect(err).NotTo(HaveOccurred())
		opts.Dir = out
		result, err := eng.Render(context.Background(), report, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Warnings).To(BeEmpty())

		pngs := 0
		for _, a := range result.Artifacts {
			path := filepath.Join(out, a.Path)
			if a.Type == manifest.TypeChart {
				data, err := os.ReadFile(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(bytes.HasPrefix(data, []byte("\x89PNG"))).To(BeTrue(), a.Path)
				pngs++
			}
		}
		Expect(pngs).To(BeNumerically(">", 10))
		Expect(filepath.Join(out, "report.html")).To(BeAnExistingFile())
		Expect(filepath.Join(out, "scatter_duration_vs_ref-time_get-balance_sequential.png")).To(BeAnExistingFile())

		m, err := manifest.Load(manifest.PathIn(out))
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Entries).To(HaveLen(len(result.Artifacts)))
	})
})
