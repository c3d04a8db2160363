// Package types defines the data model shared by every conversation surface:
// messages, personas, and the roleplay world/character/story records.
package types

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// MessageStatus tracks a message through the turn lifecycle.
type MessageStatus string

const (
	// StatusFinal is a settled message. Only final messages are persisted.
	StatusFinal MessageStatus = "final"
	// StatusPending is the assistant placeholder while a turn is in flight.
	StatusPending MessageStatus = "pending"
	// StatusPendingSideEffect is the placeholder for optional follow-up work
	// (e.g. a spontaneous image) that must not block the primary turn.
	StatusPendingSideEffect MessageStatus = "pending_side_effect"
)

// Source is a grounding citation attached to an assistant message.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Attachment carries inline binary input (an image or an audio clip) sent with
// a user message.
type Attachment struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Message is a single entry in a conversation log.
type Message struct {
	ID      string        `json:"id"`
	Text    string        `json:"text"`
	Sender  Sender        `json:"sender"`
	Sources []Source      `json:"sources,omitempty"`
	// Attachment is the inline payload the user sent with this message.
	Attachment *Attachment `json:"attachment,omitempty"`
	// ImageData holds generated image bytes for assistant image messages.
	ImageData []byte        `json:"image_data,omitempty"`
	Status    MessageStatus `json:"status"`
}

// Final reports whether the message has settled.
func (m Message) Final() bool {
	return m.Status == StatusFinal
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewMessageID returns a lexically sortable unique message ID. IDs produced by
// one process are monotonic, which is all the ordering the log needs.
func NewMessageID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// DedupSources removes duplicate sources by URI, preserving first-seen order.
func DedupSources(sources []Source) []Source {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.URI]; ok {
			continue
		}
		seen[s.URI] = struct{}{}
		out = append(out, s)
	}
	return out
}
