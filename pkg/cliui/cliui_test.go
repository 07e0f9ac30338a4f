package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tutorloop/tutorstream/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("runs the step and reports success", func() {
		var buf bytes.Buffer
		ran := false

		err := cliui.Step(&buf, "opening database", func() error {
			ran = true
			return nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(ran).To(BeTrue())
		Expect(buf.String()).To(ContainSubstring("opening database"))
		Expect(buf.String()).To(ContainSubstring("✓"))
	})

	It("returns the step's error and marks it failed", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")

		err := cliui.Step(&buf, "opening database", func() error { return boom })

		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("✗"))
	})
})

var _ = Describe("Mark", func() {
	It("renders a check for nil and a cross for errors", func() {
		Expect(cliui.Mark(nil)).To(ContainSubstring("✓"))
		Expect(cliui.Mark(errors.New("boom"))).To(ContainSubstring("✗"))
	})
})

var _ = Describe("FormatDuration", func() {
	It("formats sub-second durations in milliseconds", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("formats longer durations in seconds", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("RenderMarkdown", func() {
	It("renders markdown content for the terminal", func() {
		out, err := cliui.RenderMarkdown("# Solution\n\nx = 4")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Solution"))
		Expect(out).To(ContainSubstring("x = 4"))
	})
})
