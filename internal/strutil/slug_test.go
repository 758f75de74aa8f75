package strutil_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/perfstats/internal/strutil"
)

var _ = Describe("Slug", func() {
	DescribeTable("builds file-name safe components",
		func(in, want string) {
			Expect(strutil.Slug(in)).To(Equal(want))
		},
		Entry("route", "POST /create_user", "post-create-user"),
		Entry("placeholder", "N/A", "n-a"),
		Entry("already clean", "sequential", "sequential"),
		Entry("edges", "  --GET /a--  ", "get-a"),
		Entry("empty", "///", "na"),
	)
})

var _ = Describe("Truncate", func() {
	It("keeps short values and marks cuts", func() {
		Expect(strutil.Truncate("abc", 10)).To(Equal("abc"))
		Expect(strutil.Truncate("abcdefghij", 6)).To(Equal("abc..."))
		Expect(strutil.Truncate("abcdef", 2)).To(Equal("ab"))
		Expect(strutil.Truncate("abcdef", 0)).To(Equal("abcdef"))
	})
})
