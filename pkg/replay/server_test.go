package replay_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tutorloop/tutorstream/pkg/chat"
	"github.com/tutorloop/tutorstream/pkg/replay"
	"github.com/tutorloop/tutorstream/pkg/sse"
)

// ask posts a question to the server's in-process fiber app and returns the
// parsed events from the SSE response body.
func ask(server *replay.Server, question string) []*chat.Event {
	body, err := json.Marshal(map[string]string{"question": question})
	Expect(err).NotTo(HaveOccurred())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

	var events []*chat.Event
	reader := sse.NewReader(resp.Body)
	for {
		frame, err := reader.Next()
		Expect(err).NotTo(HaveOccurred())
		if frame == nil {
			break
		}
		ev, err := chat.ParseEvent([]byte(frame.Data))
		Expect(err).NotTo(HaveOccurred())
		events = append(events, ev)
	}
	return events
}

var _ = Describe("Server", func() {
	var script *replay.Script

	BeforeEach(func() {
		script = &replay.Script{
			Answers: []string{
				"first scripted answer with enough words to split",
				"second answer",
			},
		}
	})

	It("serves a complete transcript for a question", func() {
		server := replay.NewServer(replay.Config{}, script, nil)
		events := ask(server, "what is 2+2?")

		Expect(len(events)).To(BeNumerically(">=", 4))
		Expect(events[0].Type).To(Equal(chat.EventSessionCreated))
		Expect(events[0].SessionID).NotTo(BeEmpty())
		Expect(events[1].Type).To(Equal(chat.EventProcessing))

		last := events[len(events)-1]
		Expect(last.Type).To(Equal(chat.EventAnswerComplete))
		Expect(last.FullResponse).To(Equal(script.Answers[0]))
	})

	It("streams chunks that reassemble into the answer", func() {
		server := replay.NewServer(replay.Config{}, script, nil)
		events := ask(server, "what is 2+2?")

		var text string
		sawFinal := false
		for _, ev := range events {
			if ev.Type != chat.EventStreamingChunk {
				continue
			}
			text += ev.Content
			if ev.IsFinal {
				sawFinal = true
			}
		}
		Expect(sawFinal).To(BeTrue())
		Expect(text).To(Equal(script.Answers[0]))
	})

	It("cycles through the script across requests", func() {
		server := replay.NewServer(replay.Config{}, script, nil)

		first := ask(server, "q1")
		second := ask(server, "q2")
		third := ask(server, "q3")

		Expect(first[len(first)-1].FullResponse).To(Equal(script.Answers[0]))
		Expect(second[len(second)-1].FullResponse).To(Equal(script.Answers[1]))
		Expect(third[len(third)-1].FullResponse).To(Equal(script.Answers[0]))
	})

	It("reuses a supplied conversation id as the session id", func() {
		server := replay.NewServer(replay.Config{}, script, nil)

		body, err := json.Marshal(map[string]string{
			"question":        "follow-up",
			"conversation_id": "conv-42",
		})
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := server.App().Test(req)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()

		reader := sse.NewReader(resp.Body)
		frame, err := reader.Next()
		Expect(err).NotTo(HaveOccurred())
		ev, err := chat.ParseEvent([]byte(frame.Data))
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.SessionID).To(Equal("conv-42"))
	})

	It("rejects requests without a question", func() {
		server := replay.NewServer(replay.Config{}, script, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream",
			bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.App().Test(req)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("answers ping", func() {
		server := replay.NewServer(replay.Config{}, script, nil)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		resp, err := server.App().Test(req)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = resp.Body.Close() }()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	Context("with shuffle enabled", func() {
		It("still reassembles cleanly through the reorder buffer", func() {
			server := replay.NewServer(replay.Config{Shuffle: true}, script, nil)

			manager := chat.NewManager()
			dispatcher := chat.NewDispatcher(manager, nil)

			var final string
			done := false
			for _, ev := range ask(server, "shuffled?") {
				update := dispatcher.Dispatch("practice", ev)
				if update.HasText {
					final = update.Text
				}
				if update.Done {
					done = true
				}
			}

			Expect(done).To(BeTrue())
			Expect(final).To(Equal(script.Answers[0]))
			Expect(manager.Active()).To(BeZero())
		})

		It("emits every chunk exactly once", func() {
			server := replay.NewServer(replay.Config{Shuffle: true}, script, nil)

			seen := map[int]int{}
			for _, ev := range ask(server, "coverage") {
				if ev.Type == chat.EventStreamingChunk {
					seen[ev.ChunkIndex]++
				}
			}
			for i := range len(seen) {
				Expect(seen[i]).To(Equal(1), "chunk %d", i)
			}
		})
	})
})

var _ = Describe("Script", func() {
	It("loads a script from a JSON file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "script.json")
		content := `{"answers": ["one", "two"]}`
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		script, err := replay.LoadScript(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(script.Answers).To(Equal([]string{"one", "two"}))
	})

	It("rejects a script with no answers", func() {
		path := filepath.Join(GinkgoT().TempDir(), "script.json")
		Expect(os.WriteFile(path, []byte(`{"answers": []}`), 0o644)).To(Succeed())

		_, err := replay.LoadScript(path)
		Expect(err).To(MatchError(ContainSubstring("no answers")))
	})

	It("errors on a missing file", func() {
		_, err := replay.LoadScript(filepath.Join(GinkgoT().TempDir(), "absent.json"))
		Expect(err).To(HaveOccurred())
	})

	It("ships a usable demo script", func() {
		demo := replay.DemoScript()
		Expect(demo.Answers).NotTo(BeEmpty())
	})
})
