package logger_test

import (
	"bytes"
	"path/filepath"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolrelay/pkg/logger"
)

var _ = Describe("Truncate", func() {
	It("leaves short strings alone", func() {
		Expect(logger.Truncate("hello", 10)).To(Equal("hello"))
	})

	It("flattens newlines", func() {
		Expect(logger.Truncate("a\nb", 10)).To(Equal("a b"))
	})

	It("cuts long strings and marks the cut", func() {
		Expect(logger.Truncate("abcdefghij", 4)).To(Equal("abcd..."))
	})

	DescribeTable("never splits a multi-byte rune",
		func(s string, maxLen int, want string) {
			got := logger.Truncate(s, maxLen)
			Expect(utf8.ValidString(got)).To(BeTrue())
			Expect(got).To(Equal(want))
		},
		Entry("cross mark", "❌ backend down", 2, "..."),
		Entry("after the emoji", "❌ backend down", 4, "❌ ..."),
		Entry("warning sign with variation selector", "⚠️ No response.", 4, "⚠..."),
		Entry("page emoji", "📄 PDF downloaded", 3, "..."),
	)
})

var _ = Describe("New", func() {
	It("writes console lines and honours the debug level", func() {
		var buf bytes.Buffer

		logger.New(&buf, false, false).Debug("hidden")
		Expect(buf.String()).To(BeEmpty())

		logger.New(&buf, true, false).Debug("shown")
		Expect(buf.String()).To(ContainSubstring("DEBUG"))
		Expect(buf.String()).To(ContainSubstring("shown"))
	})
})

var _ = Describe("NewFileLogger", func() {
	It("returns a no-op logger for an empty path", func() {
		log, closeLog, err := logger.NewFileLogger("", true)
		Expect(err).NotTo(HaveOccurred())
		log.Info("dropped")
		Expect(closeLog()).To(Succeed())
	})

	It("creates the log directory", func() {
		path := filepath.Join(GinkgoT().TempDir(), "nested", "toolrelay.log")
		log, closeLog, err := logger.NewFileLogger(path, false)
		Expect(err).NotTo(HaveOccurred())
		log.Info("written")
		Expect(log.Sync()).To(Succeed())
		Expect(closeLog()).To(Succeed())
		Expect(path).To(BeAnExistingFile())
	})
})
