package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartroots/agribot/internal/core"
)

// Transcript is the append-only chat history for one mounted dashboard.
// Entries are never removed or reordered; an optimistic entry is marked
// pending until its backend call settles.
type Transcript struct {
	mu       sync.Mutex
	messages []core.ChatMessage
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a settled message and returns it.
func (t *Transcript) Append(role core.MessageRole, text string) core.ChatMessage {
	return t.append(role, text, false)
}

// AppendPending adds an optimistic message and returns its id so the
// caller can settle it later.
func (t *Transcript) AppendPending(role core.MessageRole, text string) string {
	return t.append(role, text, true).ID
}

func (t *Transcript) append(role core.MessageRole, text string, pending bool) core.ChatMessage {
	msg := core.ChatMessage{
		ID:      uuid.NewString(),
		Role:    role,
		Text:    text,
		Pending: pending,
		SentAt:  time.Now().UTC(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return msg
}

// Settle clears the pending mark on a message. The text is never changed:
// the optimistic entry stays in the transcript even when the call failed.
func (t *Transcript) Settle(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.messages {
		if t.messages[i].ID == id {
			t.messages[i].Pending = false
			return
		}
	}
}

// Messages returns a copy of the transcript in append order.
func (t *Transcript) Messages() []core.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
