// Package gateway is the remote inference boundary. The rest of the engine
// only sees the Gateway port; the Gemini adapter in this package is the one
// concrete backend.
package gateway

import (
	"context"

	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

// GroundedKind selects which grounding tool backs a grounded turn.
type GroundedKind string

const (
	GroundedWeb  GroundedKind = "web"
	GroundedMaps GroundedKind = "maps"
)

// LatLng is a geographic fix for maps-grounded turns.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ConverseRequest is a plain text turn, optionally with an inline attachment.
type ConverseRequest struct {
	Prompt      string
	Instruction string
	Attachment  *types.Attachment
}

// ConverseResult is the reply to a plain turn.
type ConverseResult struct {
	Text string
}

// GroundedRequest is a turn answered with tool grounding. Location must be set
// when Kind is GroundedMaps.
type GroundedRequest struct {
	Kind        GroundedKind
	Prompt      string
	Instruction string
	Attachment  *types.Attachment
	Location    *LatLng
}

// GroundedResult is the reply to a grounded turn. Sources are deduplicated by
// URI, first occurrence wins.
type GroundedResult struct {
	Text    string
	Sources []types.Source
}

// LiveConfig configures a duplex audio channel.
type LiveConfig struct {
	Instruction string
	Voice       string
}

// LiveServerEvent is one message from the remote end of a live channel. Fields
// are sparse; consumers check what is set.
type LiveServerEvent struct {
	// UserTranscript is a partial transcript of captured user speech.
	UserTranscript string
	// AssistantTranscript is a partial transcript of synthesized speech.
	AssistantTranscript string
	// Audio is a PCM frame to schedule for playback.
	Audio []byte
	// TurnComplete signals the end of a logical turn.
	TurnComplete bool
	// Interrupted signals barge-in: discard queued playback immediately.
	Interrupted bool
}

// LiveCallbacks receive channel lifecycle and traffic events. OnMessage may be
// called from the channel's reader goroutine; callbacks must not block.
type LiveCallbacks struct {
	OnOpen    func()
	OnMessage func(LiveServerEvent)
	OnClose   func()
	OnError   func(error)
}

// LiveChannel is an open duplex audio stream.
type LiveChannel interface {
	// SendAudio streams one captured audio frame to the remote end.
	SendAudio(data []byte, mimeType string) error
	// Close tears the channel down. Safe to call more than once.
	Close() error
}

// Gateway is the remote inference port. Every method returns a typed engine
// error (core.Error) on failure; nothing is swallowed at this boundary.
type Gateway interface {
	Converse(ctx context.Context, req ConverseRequest) (*ConverseResult, error)
	ConverseGrounded(ctx context.Context, req GroundedRequest) (*GroundedResult, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	OpenLiveChannel(ctx context.Context, cfg LiveConfig, cb LiveCallbacks) (LiveChannel, error)
}
