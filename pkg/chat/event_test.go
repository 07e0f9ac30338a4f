package chat

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseEvent", func() {
	It("parses a streaming chunk frame", func() {
		data := []byte(`{"type":"streaming_chunk","chunk_index":3,"content":"x = 4","is_final":true,"request_id":"req-1","session_id":"sess-1"}`)

		ev, err := ParseEvent(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Type).To(Equal(EventStreamingChunk))
		Expect(ev.ChunkIndex).To(Equal(3))
		Expect(ev.Content).To(Equal("x = 4"))
		Expect(ev.IsFinal).To(BeTrue())
		Expect(ev.RequestID).To(Equal("req-1"))
		Expect(ev.SessionID).To(Equal("sess-1"))
	})

	It("parses a complete frame with a full response override", func() {
		data := []byte(`{"type":"answer_complete","full_response":"x = 4, because 2+2"}`)

		ev, err := ParseEvent(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Complete()).To(BeTrue())
		Expect(ev.Terminal()).To(BeTrue())
		Expect(ev.FullResponse).To(Equal("x = 4, because 2+2"))
	})

	It("treats all three complete names identically", func() {
		for _, name := range []string{"answer_complete", "streaming_complete", "complete"} {
			ev, err := ParseEvent([]byte(`{"type":"` + name + `"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Complete()).To(BeTrue(), "type %q", name)
		}
	})

	It("classifies error frames as terminal but not complete", func() {
		ev, err := ParseEvent([]byte(`{"type":"error","message":"model unavailable"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Terminal()).To(BeTrue())
		Expect(ev.Complete()).To(BeFalse())
		Expect(ev.Message).To(Equal("model unavailable"))
	})

	It("rejects unparseable JSON", func() {
		_, err := ParseEvent([]byte(`{"type":`))
		Expect(err).To(MatchError(ErrBadEvent))
	})

	It("rejects wrong field types", func() {
		_, err := ParseEvent([]byte(`{"type":"streaming_chunk","chunk_index":"zero"}`))
		Expect(err).To(MatchError(ErrBadEvent))
	})

	It("rejects a missing type discriminator", func() {
		_, err := ParseEvent([]byte(`{"content":"orphan"}`))
		Expect(err).To(MatchError(ErrBadEvent))
	})

	It("rejects a negative chunk index", func() {
		_, err := ParseEvent([]byte(`{"type":"streaming_chunk","chunk_index":-1,"content":"x"}`))
		Expect(err).To(MatchError(ErrBadEvent))
	})

	It("accepts unknown event types for the dispatcher to skip", func() {
		ev, err := ParseEvent([]byte(`{"type":"telemetry_ping"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Terminal()).To(BeFalse())
	})
})
