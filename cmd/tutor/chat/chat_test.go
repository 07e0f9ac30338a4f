package chatcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/tutorloop/tutorstream/cmd/tutor/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --target flag with default value", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("t"))
		Expect(flag.DefValue).To(Equal("http://localhost:8085"))
	})

	It("has --stream-timeout flag with default value", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("stream-timeout")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("2m"))
	})

	It("has --sqlite flag", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("sqlite")).NotTo(BeNil())
	})
})
