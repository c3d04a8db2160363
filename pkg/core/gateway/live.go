package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/kanojo-ai/kanojo/pkg/core"
)

// liveEndpoint is the bidirectional streaming endpoint of the Gemini API.
const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/" +
	"google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Wire shapes for the BidiGenerateContent websocket protocol. Only the fields
// this engine uses are modeled.

type liveClientMessage struct {
	Setup         *liveSetup         `json:"setup,omitempty"`
	RealtimeInput *liveRealtimeInput `json:"realtimeInput,omitempty"`
}

type liveSetup struct {
	Model                    string           `json:"model"`
	GenerationConfig         liveGenConfig    `json:"generationConfig"`
	SystemInstruction        *liveInstruction `json:"systemInstruction,omitempty"`
	InputAudioTranscription  struct{}         `json:"inputAudioTranscription"`
	OutputAudioTranscription struct{}         `json:"outputAudioTranscription"`
}

type liveGenConfig struct {
	ResponseModalities []string         `json:"responseModalities"`
	SpeechConfig       *liveSpeechConf  `json:"speechConfig,omitempty"`
}

type liveSpeechConf struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type liveInstruction struct {
	Parts []livePart `json:"parts"`
}

type livePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *liveInlineData `json:"inlineData,omitempty"`
}

type liveInlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type liveRealtimeInput struct {
	Audio *liveInlineData `json:"audio,omitempty"`
}

type liveServerMessage struct {
	SetupComplete *struct{}          `json:"setupComplete,omitempty"`
	ServerContent *liveServerContent `json:"serverContent,omitempty"`
}

type liveServerContent struct {
	ModelTurn *struct {
		Parts []livePart `json:"parts"`
	} `json:"modelTurn,omitempty"`
	InputTranscription *struct {
		Text string `json:"text"`
	} `json:"inputTranscription,omitempty"`
	OutputTranscription *struct {
		Text string `json:"text"`
	} `json:"outputTranscription,omitempty"`
	TurnComplete bool `json:"turnComplete,omitempty"`
	Interrupted  bool `json:"interrupted,omitempty"`
}

// liveChannel is the websocket-backed LiveChannel.
type liveChannel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
	cb      LiveCallbacks
}

// OpenLiveChannel dials the streaming endpoint, sends the session setup, and
// starts dispatching server traffic to the callbacks. OnOpen fires once the
// remote confirms setup.
func (g *Gemini) OpenLiveChannel(ctx context.Context, cfg LiveConfig, cb LiveCallbacks) (LiveChannel, error) {
	url := fmt.Sprintf("%s?key=%s", liveEndpoint, g.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, core.NewGatewayError("dial live endpoint", err)
	}

	ch := &liveChannel{conn: conn, cb: cb}

	voice := cfg.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	setup := liveSetup{
		Model: "models/" + liveModel,
		GenerationConfig: liveGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig:       &liveSpeechConf{},
		},
	}
	setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = voice
	if cfg.Instruction != "" {
		setup.SystemInstruction = &liveInstruction{Parts: []livePart{{Text: cfg.Instruction}}}
	}
	if err := ch.write(liveClientMessage{Setup: &setup}); err != nil {
		conn.Close()
		return nil, core.NewGatewayError("send live setup", err)
	}

	go ch.readLoop()
	return ch, nil
}

// SendAudio streams one captured frame to the remote end.
func (c *liveChannel) SendAudio(data []byte, mimeType string) error {
	if c.closed.Load() {
		return core.NewGatewayError("live channel closed", nil)
	}
	return c.write(liveClientMessage{
		RealtimeInput: &liveRealtimeInput{
			Audio: &liveInlineData{
				Data:     base64.StdEncoding.EncodeToString(data),
				MimeType: mimeType,
			},
		},
	})
}

// Close tears the channel down. Safe to call more than once.
func (c *liveChannel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *liveChannel) write(msg liveClientMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// readLoop decodes server messages and dispatches callbacks until the channel
// closes or errors.
func (c *liveChannel) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Swap(true) {
				return // local close already in progress
			}
			c.conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if c.cb.OnClose != nil {
					c.cb.OnClose()
				}
			} else if c.cb.OnError != nil {
				c.cb.OnError(core.NewGatewayError("live channel read", err))
			}
			return
		}

		var msg liveServerMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue // tolerate unknown frames
		}

		if msg.SetupComplete != nil {
			if c.cb.OnOpen != nil {
				c.cb.OnOpen()
			}
			continue
		}
		if msg.ServerContent == nil {
			continue
		}

		event := LiveServerEvent{
			TurnComplete: msg.ServerContent.TurnComplete,
			Interrupted:  msg.ServerContent.Interrupted,
		}
		if tr := msg.ServerContent.InputTranscription; tr != nil {
			event.UserTranscript = tr.Text
		}
		if tr := msg.ServerContent.OutputTranscription; tr != nil {
			event.AssistantTranscript = tr.Text
		}
		if mt := msg.ServerContent.ModelTurn; mt != nil {
			for _, part := range mt.Parts {
				if part.InlineData == nil {
					continue
				}
				if audio, err := base64.StdEncoding.DecodeString(part.InlineData.Data); err == nil {
					event.Audio = append(event.Audio, audio...)
				}
			}
		}
		if c.cb.OnMessage != nil {
			c.cb.OnMessage(event)
		}
	}
}
