// Package live runs a full-duplex voice conversation: microphone capture
// streams up over the gateway's live channel while synthesized speech streams
// back down through a gapless playback scheduler. The session is a small state
// machine (disconnected, connecting, connected, error) with an event stream
// for transcripts and lifecycle changes.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

// Capture is the microphone port. Start begins delivering raw PCM frames in
// the input format to frames and returns a function that releases the device.
type Capture interface {
	Start(ctx context.Context, frames func(pcm []byte)) (stop func(), err error)
}

// SessionConfig configures a live session.
type SessionConfig struct {
	// Instruction is the persona's system instruction for the voice turn.
	Instruction string
	// Voice selects the prebuilt synthesis voice.
	Voice string
	// Logger receives session diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Session is one live voice conversation.
type Session struct {
	gw       gateway.Gateway
	cfg      SessionConfig
	capture  Capture
	playback *Scheduler
	log      *slog.Logger

	mu          sync.Mutex
	state       State
	channel     gateway.LiveChannel
	stopCapture func()

	userPartial      strings.Builder
	assistantPartial strings.Builder
	turns            []Turn

	eventsMu     sync.Mutex
	eventsClosed bool
	events       chan Event
	done         chan struct{}
	closed       atomic.Bool
}

// Turn is one settled utterance in a live conversation.
type Turn struct {
	Sender types.Sender `json:"sender"`
	Text   string       `json:"text"`
}

// NewSession creates a live session over the gateway. Nothing connects until
// Connect.
func NewSession(gw gateway.Gateway, capture Capture, sink Sink, cfg SessionConfig) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		gw:       gw,
		cfg:      cfg,
		capture:  capture,
		playback: NewScheduler(sink),
		log:      log,
		state:    StateDisconnected,
		events:   make(chan Event, 100),
		done:     make(chan struct{}),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns the channel for receiving session events.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Turns returns the settled transcript so far.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.turns...)
}

// Connect opens the live channel and starts capture once the remote end
// acknowledges setup. Cancelling ctx while still connecting tears the session
// down.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	channel, err := s.gw.OpenLiveChannel(ctx, gateway.LiveConfig{
		Instruction: s.cfg.Instruction,
		Voice:       s.cfg.Voice,
	}, gateway.LiveCallbacks{
		OnOpen:    func() { s.onOpen(ctx) },
		OnMessage: s.onMessage,
		OnClose:   func() { s.teardown(StateDisconnected, "remote closed", nil) },
		OnError:   func(err error) { s.teardown(StateError, "channel error", err) },
	})
	if err != nil {
		s.teardown(StateError, "connect failed", err)
		return err
	}

	// The gateway may dispatch callbacks before returning the handle. If one
	// of them already tore the session down, teardown could not see the
	// channel, so it must be released here.
	s.mu.Lock()
	s.channel = channel
	dead := s.closed.Load()
	if dead {
		s.channel = nil
	}
	s.mu.Unlock()
	if dead {
		channel.Close()
		return fmt.Errorf("live channel failed during setup")
	}

	// A cancel during setup must release the channel and the microphone.
	go func() {
		select {
		case <-ctx.Done():
			if s.State() == StateConnecting {
				s.Close()
			}
		case <-s.done:
		}
	}()
	return nil
}

// onOpen runs when the remote acknowledges setup: the microphone starts and
// the session goes full duplex.
func (s *Session) onOpen(ctx context.Context) {
	stop, err := s.capture.Start(ctx, s.sendFrame)
	if err != nil {
		s.teardown(StateError, "capture failed", err)
		return
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		stop()
		return
	}
	s.stopCapture = stop
	s.setStateLocked(StateConnected)
	s.mu.Unlock()
}

// sendFrame streams one captured frame up. Mute does not gate this leg; only
// playback is silenced.
func (s *Session) sendFrame(pcm []byte) {
	s.mu.Lock()
	channel := s.channel
	connected := s.state == StateConnected
	s.mu.Unlock()
	if !connected || channel == nil {
		return
	}
	if err := channel.SendAudio(pcm, InputMimeType); err != nil && !s.closed.Load() {
		s.log.Warn("live send failed", "error", err)
	}
}

func (s *Session) onMessage(ev gateway.LiveServerEvent) {
	if ev.Interrupted {
		s.playback.Flush()
		s.mu.Lock()
		s.assistantPartial.Reset()
		s.mu.Unlock()
		s.emit(&InterruptedEvent{})
	}

	if len(ev.Audio) > 0 {
		s.playback.Schedule(ev.Audio)
	}

	if ev.UserTranscript != "" {
		s.mu.Lock()
		s.userPartial.WriteString(ev.UserTranscript)
		text := s.userPartial.String()
		s.mu.Unlock()
		s.emit(&TranscriptEvent{Sender: types.SenderUser, Text: text})
	}
	if ev.AssistantTranscript != "" {
		s.mu.Lock()
		s.assistantPartial.WriteString(ev.AssistantTranscript)
		text := s.assistantPartial.String()
		s.mu.Unlock()
		s.emit(&TranscriptEvent{Sender: types.SenderAssistant, Text: text})
	}

	if ev.TurnComplete {
		s.settleTurn()
	}
}

// settleTurn moves both partial transcripts into the settled log.
func (s *Session) settleTurn() {
	s.mu.Lock()
	user := strings.TrimSpace(s.userPartial.String())
	assistant := strings.TrimSpace(s.assistantPartial.String())
	s.userPartial.Reset()
	s.assistantPartial.Reset()
	if user != "" {
		s.turns = append(s.turns, Turn{Sender: types.SenderUser, Text: user})
	}
	if assistant != "" {
		s.turns = append(s.turns, Turn{Sender: types.SenderAssistant, Text: assistant})
	}
	s.mu.Unlock()

	if user != "" {
		s.emit(&TranscriptEvent{Sender: types.SenderUser, Text: user, Settled: true})
	}
	if assistant != "" {
		s.emit(&TranscriptEvent{Sender: types.SenderAssistant, Text: assistant, Settled: true})
	}
}

// SetMuted silences playback. Capture keeps streaming so the remote end still
// hears the user.
func (s *Session) SetMuted(muted bool) {
	s.playback.SetMuted(muted)
}

// Close ends the session and releases the channel and the microphone. Safe to
// call more than once.
func (s *Session) Close() error {
	s.teardown(StateDisconnected, "closed", nil)
	return nil
}

// teardown releases every resource exactly once and settles the final state.
func (s *Session) teardown(final State, reason string, err error) {
	if s.closed.Swap(true) {
		return
	}

	s.mu.Lock()
	channel := s.channel
	stopCapture := s.stopCapture
	s.channel = nil
	s.stopCapture = nil
	s.setStateLocked(final)
	s.mu.Unlock()

	if stopCapture != nil {
		stopCapture()
	}
	if channel != nil {
		channel.Close()
	}
	s.playback.Flush()

	if err != nil {
		s.log.Warn("live session failed", "reason", reason, "error", err)
		s.emit(&ErrorEvent{Err: err})
	}
	s.emit(&ClosedEvent{Reason: reason})

	close(s.done)

	s.eventsMu.Lock()
	s.eventsClosed = true
	close(s.events)
	s.eventsMu.Unlock()
}

// setStateLocked transitions the state and emits the change. Callers hold mu.
func (s *Session) setStateLocked(next State) {
	prev := s.state
	s.state = next
	if prev != next {
		s.emit(&StateChangedEvent{From: prev, To: next})
	}
}

// emit sends an event to the events channel, dropping it when the consumer
// has fallen behind.
func (s *Session) emit(event Event) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- event:
	default:
	}
}
