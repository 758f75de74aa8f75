package discovery_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/perfstats/internal/discovery"
)

func touch(path string) {
	GinkgoHelper()
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, []byte("[]"), 0o644)).To(Succeed())
}

var _ = Describe("Discovery", func() {
	It("matches exclude patterns", func() {
		Expect(discovery.MatchesExclude("C:/logs/old/run.json", []string{"**/old/**"})).To(BeTrue())
		Expect(discovery.MatchesExclude("C:/logs/run.json", []string{"**/old/**"})).To(BeFalse())
		Expect(discovery.MatchesExclude("/tmp/x", nil)).To(BeFalse())
	})

	It("walks directories for log files", func() {
		root := GinkgoT().TempDir()
		touch(filepath.Join(root, "a.json"))
		touch(filepath.Join(root, "nested", "b.txt"))
		touch(filepath.Join(root, "nested", "notes.md"))
		touch(filepath.Join(root, ".cache", "c.json"))

		files, err := discovery.Expand(context.Background(), discovery.Options{Inputs: []string{root}})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{
			filepath.Join(root, "a.json"),
			filepath.Join(root, "nested", "b.txt"),
		}))
	})

	It("expands doublestar globs and de-duplicates", func() {
		root := GinkgoT().TempDir()
		touch(filepath.Join(root, "run1", "performance_log.json"))
		touch(filepath.Join(root, "run2", "deep", "performance_log.json"))

		files, err := discovery.Expand(context.Background(), discovery.Options{Inputs: []string{
			filepath.Join(root, "**", "*.json"),
			filepath.Join(root, "run1", "performance_log.json"),
		}})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(2))
	})

	It("respects exclude patterns", func() {
		root := GinkgoT().TempDir()
		touch(filepath.Join(root, "keep", "a.json"))
		touch(filepath.Join(root, "archive", "b.json"))

		files, err := discovery.Expand(context.Background(), discovery.Options{
			Inputs:  []string{root},
			Exclude: []string{"**/archive/**", "**/archive"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{filepath.Join(root, "keep", "a.json")}))
	})

	It("keeps explicit files regardless of extension", func() {
		root := GinkgoT().TempDir()
		path := filepath.Join(root, "capture.out")
		touch(path)
		files, err := discovery.Expand(context.Background(), discovery.Options{Inputs: []string{path}})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{path}))
	})

	It("reports missing inputs and empty results", func() {
		root := GinkgoT().TempDir()
		_, err := discovery.Expand(context.Background(), discovery.Options{Inputs: []string{filepath.Join(root, "nope.json")}})
		Expect(err).To(MatchError(fs.ErrNotExist))

		_, err = discovery.Expand(context.Background(), discovery.Options{Inputs: []string{filepath.Join(root, "*.json")}})
		Expect(err).To(MatchError(discovery.ErrNoInputs))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := discovery.Expand(ctx, discovery.Options{Inputs: []string{GinkgoT().TempDir()}})
		Expect(err).To(MatchError(context.Canceled))
	})
})
