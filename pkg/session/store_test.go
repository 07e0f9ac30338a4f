package session

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var store *Store

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		var err error
		store, err = NewStore(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Dir).To(Equal(dir))
	})

	Describe("Load", func() {
		It("returns nil when no state has been saved", func() {
			state, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips saved state", func() {
			err := store.Save(&State{
				AuthToken:      "tok-123",
				ConversationID: "conv-9",
			})
			Expect(err).NotTo(HaveOccurred())

			state, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(state.AuthToken).To(Equal("tok-123"))
			Expect(state.ConversationID).To(Equal("conv-9"))
			Expect(state.Version).To(Equal(stateVersion))
			Expect(state.UpdatedAt).NotTo(BeZero())
		})

		It("errors on corrupt state", func() {
			err := os.WriteFile(store.StatePath, []byte("not json"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			_, err = store.Load()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Save", func() {
		It("rejects nil state", func() {
			Expect(store.Save(nil)).To(HaveOccurred())
		})

		It("writes the state file with restrictive permissions", func() {
			Expect(store.Save(&State{AuthToken: "secret"})).To(Succeed())

			info, err := os.Stat(store.StatePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("leaves no temp files behind", func() {
			Expect(store.Save(&State{})).To(Succeed())

			matches, err := filepath.Glob(filepath.Join(store.Dir, "session-state-*"))
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(BeEmpty())
		})

		It("cleans up the temp file when the rename fails", func() {
			store.StatePath = filepath.Join(store.Dir, "no-such-dir", "state.json")
			Expect(store.Save(&State{})).To(HaveOccurred())

			matches, err := filepath.Glob(filepath.Join(store.Dir, "session-state-*"))
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(BeEmpty())
		})
	})

	Describe("SetConversation", func() {
		It("updates the conversation id and preserves the token", func() {
			Expect(store.Save(&State{AuthToken: "tok"})).To(Succeed())
			Expect(store.SetConversation("conv-42")).To(Succeed())

			state, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(state.ConversationID).To(Equal("conv-42"))
			Expect(state.AuthToken).To(Equal("tok"))
		})

		It("creates state when none exists", func() {
			Expect(store.SetConversation("conv-1")).To(Succeed())

			state, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(state.ConversationID).To(Equal("conv-1"))
		})
	})

	Describe("Token", func() {
		It("returns empty when not logged in", func() {
			token, err := store.Token()
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(BeEmpty())
		})
	})

	Describe("Clear", func() {
		It("removes state and is a no-op when already cleared", func() {
			Expect(store.Save(&State{AuthToken: "tok"})).To(Succeed())
			Expect(store.Clear()).To(Succeed())
			Expect(store.Clear()).To(Succeed())

			state, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("Lock", func() {
		It("acquires and releases", func() {
			lock, err := store.Lock()
			Expect(err).NotTo(HaveOccurred())
			Expect(lock.Release()).To(Succeed())
		})

		It("releases a nil lock safely", func() {
			var lock *Lock
			Expect(lock.Release()).To(Succeed())
		})
	})
})
