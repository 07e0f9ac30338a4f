// Package chat implements the client side of the tutor backend's streaming
// chat protocol: a chunk reordering buffer that turns out-of-order streamed
// fragments into render-safe text, a conversation-keyed buffer manager, and
// an event dispatcher that routes parsed wire events between them.
package chat

import (
	"strings"
	"time"
)

// pendingChunk is a fragment held in the buffer until all earlier-indexed
// fragments have arrived.
type pendingChunk struct {
	text       string
	observedAt time.Time
}

// StreamBuffer accumulates out-of-order text fragments for one in-flight
// response and exposes the longest safely-orderable prefix.
//
// Fragments are totally ordered by index. The buffer only ever extends its
// output with a contiguous run starting at the next expected index, so the
// returned text is always a prefix of the true final text — chunk 5 is never
// shown while chunk 3 is still missing.
//
// A StreamBuffer is owned by a single transport read loop and is not safe
// for concurrent use. The Manager serializes access per conversation key.
type StreamBuffer struct {
	pending map[int]pendingChunk
	next    int
	out     strings.Builder

	// finalIndex is the index that arrived marked final, or -1 if none has.
	finalIndex int
}

// NewStreamBuffer creates an empty buffer expecting index 0 first.
func NewStreamBuffer() *StreamBuffer {
	return &StreamBuffer{
		pending:    make(map[int]pendingChunk),
		finalIndex: -1,
	}
}

// AddChunk records the fragment at index and returns the full accumulated
// output after this call.
//
//   - index == next expected: the longest contiguous run of held fragments
//     starting there is consumed onto the output and discarded.
//   - index > next expected: the fragment is held; output is unchanged.
//   - index < next expected: stale retransmission of an already-consumed
//     fragment; ignored.
//
// Empty text is a valid fragment and is recorded, not treated as absence.
// Re-delivery of a still-pending index overwrites it (last write wins).
// The isFinal flag only records which index closes the stream; it does not
// change output computation.
func (b *StreamBuffer) AddChunk(index int, text string, isFinal bool, at time.Time) string {
	if isFinal {
		b.finalIndex = index
	}

	if index < b.next {
		return b.out.String()
	}

	b.pending[index] = pendingChunk{text: text, observedAt: at}

	if index == b.next {
		b.consume()
	}

	return b.out.String()
}

// consume appends the contiguous run of held fragments starting at the next
// expected index onto the output, discarding consumed entries to bound
// memory. Correctness only needs the advancing index; the deletes keep the
// pending map from growing with the stream.
func (b *StreamBuffer) consume() {
	for {
		c, ok := b.pending[b.next]
		if !ok {
			return
		}
		b.out.WriteString(c.text)
		delete(b.pending, b.next)
		b.next++
	}
}

// Text returns the accumulated output without modifying the buffer.
func (b *StreamBuffer) Text() string {
	return b.out.String()
}

// Override replaces the accumulated output outright with an authoritative
// full-response text from a terminal complete event. Held fragments are
// dropped; this is last-write-wins, not a merge.
func (b *StreamBuffer) Override(text string) string {
	b.pending = make(map[int]pendingChunk)
	b.out.Reset()
	b.out.WriteString(text)
	b.next = 0
	return text
}

// FinalIndex returns the index that arrived marked final and whether one has
// been seen. It is a hint for the caller to decide whether to await more
// chunks or close the stream.
func (b *StreamBuffer) FinalIndex() (int, bool) {
	return b.finalIndex, b.finalIndex >= 0
}

// Finalized reports whether a final-marked fragment has been seen and every
// fragment up to and including it has been consumed onto the output.
func (b *StreamBuffer) Finalized() bool {
	return b.finalIndex >= 0 && b.next > b.finalIndex
}

// Pending returns the number of held, not-yet-consumed fragments.
func (b *StreamBuffer) Pending() int {
	return len(b.pending)
}

// Reset clears all state. A reset buffer behaves identically to a brand-new
// one; it is used when a new question supersedes an in-flight response.
func (b *StreamBuffer) Reset() {
	b.pending = make(map[int]pendingChunk)
	b.out.Reset()
	b.next = 0
	b.finalIndex = -1
}
