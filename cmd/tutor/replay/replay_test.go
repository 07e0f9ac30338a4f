package replaycmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	replaycmder "github.com/tutorloop/tutorstream/cmd/tutor/replay"
)

var _ = Describe("NewReplayCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := replaycmder.NewReplayCmd()
		Expect(cmd.Use).To(Equal("replay"))
	})

	It("has --listen flag with default value", func() {
		cmd := replaycmder.NewReplayCmd()
		flag := cmd.Flags().Lookup("listen")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("l"))
		Expect(flag.DefValue).To(Equal(":8085"))
	})

	It("has --script flag", func() {
		cmd := replaycmder.NewReplayCmd()
		Expect(cmd.Flags().Lookup("script")).NotTo(BeNil())
	})

	It("has --shuffle flag defaulting to false", func() {
		cmd := replaycmder.NewReplayCmd()
		flag := cmd.Flags().Lookup("shuffle")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("false"))
	})
})
