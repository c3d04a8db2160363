// Package session owns the conversation turn lifecycle: the in-memory message
// log, the pending-placeholder dance around each remote call, persistence of
// settled messages, and the optional follow-up effects that ride on a turn.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/kanojo-ai/kanojo/pkg/core"
	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/store"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

// DefaultTurnTimeout bounds one remote turn. Zero in Config disables the bound.
const DefaultTurnTimeout = 60 * time.Second

// Fallback texts shown in place of a reply when a turn fails. The failure
// itself is logged; the log only ever gains a final message.
const (
	DefaultFallbackText  = "Something went wrong... I'm sorry Senpai."
	LocationFallbackText = "I can't find you, Senpai! Please enable location permissions."
	TutorFallbackText    = "I'm sorry, Seito... I couldn't find any information on that. Can we try something else?"
)

// updateBuffer is the capacity of a session's updates channel. Slow consumers
// lose intermediate snapshots, never the log itself.
const updateBuffer = 16

// Config tunes a Manager.
type Config struct {
	// TurnTimeout bounds each remote turn. Zero disables the bound.
	TurnTimeout time.Duration
	// FallbackText replaces the reply when a turn fails.
	FallbackText string
	// AutoSpeak synthesizes each successful reply and hands the audio to
	// OnSpeech. Synthesis failures are logged and dropped.
	AutoSpeak bool
	// Voice is the prebuilt voice used by AutoSpeak.
	Voice string
	// OnSpeech receives synthesized reply audio when AutoSpeak is on.
	OnSpeech func(audio []byte)
	// Effect, when set, may append a follow-up message after a successful
	// turn. See ImageEffect.
	Effect *ImageEffect
	// Logger receives turn diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the standard manager configuration.
func DefaultConfig() Config {
	return Config{
		TurnTimeout:  DefaultTurnTimeout,
		FallbackText: DefaultFallbackText,
	}
}

// Manager drives conversation sessions against a store and a gateway.
type Manager struct {
	store store.Store
	gw    gateway.Gateway
	cfg   Config
	log   *slog.Logger
}

// NewManager creates a session manager.
func NewManager(st store.Store, gw gateway.Gateway, cfg Config) *Manager {
	if cfg.FallbackText == "" {
		cfg.FallbackText = DefaultFallbackText
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: st, gw: gw, cfg: cfg, log: log}
}

// Session is one conversation: a persona, an ordered message log, and an
// update stream. All mutation goes through the owning Manager.
type Session struct {
	key     string
	persona types.Persona

	mu       sync.Mutex
	messages []types.Message

	updates chan []types.Message
	turns   sync.WaitGroup
}

// Key returns the session's storage key.
func (s *Session) Key() string { return s.key }

// Persona returns the companion this session speaks as.
func (s *Session) Persona() types.Persona { return s.persona }

// Messages returns a snapshot of the log.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Message(nil), s.messages...)
}

// Updates returns the stream of log snapshots. The channel is buffered; when
// the consumer falls behind, intermediate snapshots are dropped.
func (s *Session) Updates() <-chan []types.Message {
	return s.updates
}

// Wait blocks until every in-flight turn has settled.
func (s *Session) Wait() {
	s.turns.Wait()
}

func (s *Session) emitLocked() {
	snap := append([]types.Message(nil), s.messages...)
	select {
	case s.updates <- snap:
	default:
	}
}

// Load opens the session for key, restoring its persisted log. A missing or
// unreadable log is reseeded with the persona's greeting; Load never fails.
func (m *Manager) Load(ctx context.Context, key string, persona types.Persona) *Session {
	s := &Session{
		key:     key,
		persona: persona,
		updates: make(chan []types.Message, updateBuffer),
	}

	raw, ok, err := m.store.Get(ctx, store.HistoryKey(key))
	if err != nil {
		m.log.Warn("history load failed, reseeding", "session", key, "error", err)
	}
	if err == nil && ok {
		var msgs []types.Message
		if uerr := json.Unmarshal(raw, &msgs); uerr != nil {
			m.log.Warn("history reset", "session", key,
				"error", core.NewStoreCorruptError(store.HistoryKey(key), uerr))
		} else if len(msgs) > 0 {
			s.messages = msgs
			return s
		}
	}

	s.messages = []types.Message{{
		ID:     types.NewMessageID(),
		Text:   persona.Greeting,
		Sender: types.SenderAssistant,
		Status: types.StatusFinal,
	}}
	m.persist(ctx, s)
	return s
}

// Send runs one turn: the user message and a pending assistant placeholder are
// appended immediately, then the strategy resolves asynchronously. A failed
// turn resolves the placeholder to the fallback text; the error never
// surfaces past the log. Empty input is rejected without touching the log.
func (m *Manager) Send(ctx context.Context, s *Session, in Input, strat Strategy) error {
	if in.Empty() {
		return core.NewInputRejectedError("nothing to send")
	}

	pendingID := types.NewMessageID()
	s.mu.Lock()
	s.messages = append(s.messages,
		types.Message{
			ID:         types.NewMessageID(),
			Text:       in.Text,
			Sender:     types.SenderUser,
			Attachment: in.Attachment,
			Status:     types.StatusFinal,
		},
		types.Message{
			ID:     pendingID,
			Sender: types.SenderAssistant,
			Status: types.StatusPending,
		})
	s.emitLocked()
	s.mu.Unlock()
	m.persist(ctx, s)

	s.turns.Add(1)
	go func() {
		defer s.turns.Done()
		m.runTurn(context.WithoutCancel(ctx), s, in, strat, pendingID)
	}()
	return nil
}

// SendVoice transcribes a recorded clip and sends the transcript as a turn.
// Unlike Send, a transcription failure is returned to the caller: the log has
// not been touched yet and the user can simply re-record.
func (m *Manager) SendVoice(ctx context.Context, s *Session, audio []byte, mimeType string, strat Strategy) error {
	text, err := m.gw.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return err
	}
	return m.Send(ctx, s, Input{Text: text}, strat)
}

func (m *Manager) runTurn(ctx context.Context, s *Session, in Input, strat Strategy, pendingID string) {
	if m.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.TurnTimeout)
		defer cancel()
	}

	reply, err := strat.Respond(ctx, in, s.persona)
	if err != nil {
		m.log.Warn("turn failed", "session", s.key, "error", err)
		text := m.cfg.FallbackText
		if core.IsType(err, core.ErrLocationUnavailable) {
			text = LocationFallbackText
		}
		m.resolve(s, pendingID, func(msg *types.Message) {
			msg.Text = text
			msg.Status = types.StatusFinal
		})
		m.persist(ctx, s)
		return
	}

	m.resolve(s, pendingID, func(msg *types.Message) {
		msg.Text = reply.Text
		msg.Sources = reply.Sources
		msg.Status = types.StatusFinal
	})
	m.persist(ctx, s)

	if m.cfg.AutoSpeak && m.cfg.OnSpeech != nil && reply.Text != "" {
		if audio, serr := m.gw.SynthesizeSpeech(ctx, reply.Text, m.cfg.Voice); serr != nil {
			m.log.Warn("auto speech failed", "session", s.key, "error", serr)
		} else {
			m.cfg.OnSpeech(audio)
		}
	}

	if m.cfg.Effect != nil {
		m.cfg.Effect.run(ctx, m, s, in)
	}
}

// resolve applies fn to the message with the given ID and emits an update.
// A missing ID (removed by a concurrent reset) is a no-op.
func (m *Manager) resolve(s *Session, id string, fn func(*types.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			fn(&s.messages[i])
			s.emitLocked()
			return
		}
	}
}

func (m *Manager) appendMessage(s *Session, msg types.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.emitLocked()
	s.mu.Unlock()
}

func (m *Manager) removeMessage(s *Session, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			s.emitLocked()
			return
		}
	}
}

// persist writes the settled portion of the log. Pending placeholders are
// transient state and never hit the store.
func (m *Manager) persist(ctx context.Context, s *Session) {
	s.mu.Lock()
	finals := make([]types.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if msg.Final() {
			finals = append(finals, msg)
		}
	}
	s.mu.Unlock()

	raw, err := json.Marshal(finals)
	if err != nil {
		m.log.Error("history encode failed", "session", s.key, "error", err)
		return
	}
	if err := m.store.Set(ctx, store.HistoryKey(s.key), raw); err != nil {
		m.log.Warn("history save failed", "session", s.key, "error", err)
	}
}

// ClearHistories wipes every conversation and story log, keeping saved worlds,
// stories, and preferences. Sessions already loaded keep their in-memory log.
func (m *Manager) ClearHistories(ctx context.Context) error {
	return store.ClearHistories(ctx, m.store)
}
