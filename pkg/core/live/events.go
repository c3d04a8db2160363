package live

import "github.com/kanojo-ai/kanojo/pkg/core/types"

// Event is the interface for all live session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// StateChangedEvent is emitted on every state transition.
type StateChangedEvent struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// TranscriptEvent carries transcript text for one side of the conversation.
// Partial events accumulate; a settled event replaces the partials of that
// turn.
type TranscriptEvent struct {
	Sender  types.Sender `json:"sender"`
	Text    string       `json:"text"`
	Settled bool         `json:"settled"`
}

func (e *TranscriptEvent) EventType() string { return "transcript" }

// InterruptedEvent is emitted when the user barges in over synthesized
// speech. Queued playback has already been discarded when this fires.
type InterruptedEvent struct{}

func (e *InterruptedEvent) EventType() string { return "interrupted" }

// ClosedEvent is emitted once, when the session ends for any reason.
type ClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *ClosedEvent) EventType() string { return "closed" }

// ErrorEvent is emitted when the session fails. The session is already torn
// down when this fires.
type ErrorEvent struct {
	Err error `json:"-"`
}

func (e *ErrorEvent) EventType() string { return "error" }
