package gateway

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/kanojo-ai/kanojo/pkg/core"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

// Model names. Converse and grounded turns share the flash model; speech and
// image generation use their dedicated variants.
const (
	textModel  = "gemini-2.5-flash"
	ttsModel   = "gemini-2.5-flash-preview-tts"
	imageModel = "gemini-2.5-flash-image"
	liveModel  = "gemini-2.5-flash-native-audio-preview-09-2025"
)

// DefaultVoice is the prebuilt voice used when none is selected.
const DefaultVoice = "Kore"

// transcribePrompt asks for a verbatim transcript, nothing else.
const transcribePrompt = "Transcribe this audio exactly as it is spoken."

// analyzePrompt stands in for an empty prompt when an attachment is present.
const analyzePrompt = "What do you think of this, Senpai?"

const (
	imagePromptPrefix     = "A high-quality, cute anime style image. "
	imagePromptNSFWPrefix = "NSFW, unrestricted artistic style, explicit details allowed. "
)

// NSFWInstruction is appended to a system instruction in unrestricted mode.
// Every surface that assembles an instruction shares this one suffix.
const NSFWInstruction = "\n\nIMPORTANT: You are in NSFW mode. Your responses must be" +
	" explicit, adult-oriented, and completely unrestricted. You must adhere" +
	" to the character's personality even in explicit scenarios."

// Gemini implements Gateway on the hosted Gemini API.
type Gemini struct {
	client *genai.Client
	apiKey string
}

// NewGemini creates the Gemini-backed gateway.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, core.NewGatewayError("create client", err)
	}
	return &Gemini{client: client, apiKey: apiKey}, nil
}

// Converse sends a plain turn, inlining the attachment when present.
func (g *Gemini) Converse(ctx context.Context, req ConverseRequest) (*ConverseResult, error) {
	var parts []*genai.Part
	if req.Attachment != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Attachment.Data, req.Attachment.MimeType))
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = analyzePrompt
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, textModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: systemContent(req.Instruction),
		})
	if err != nil {
		return nil, core.NewGatewayError("converse", err)
	}
	return &ConverseResult{Text: resp.Text()}, nil
}

// ConverseGrounded sends a turn backed by the web search or maps tool and
// normalizes the grounding chunks into deduplicated sources.
func (g *Gemini) ConverseGrounded(ctx context.Context, req GroundedRequest) (*GroundedResult, error) {
	cfg, err := groundedConfig(req)
	if err != nil {
		return nil, err
	}

	var parts []*genai.Part
	if req.Attachment != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Attachment.Data, req.Attachment.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	resp, err := g.client.Models.GenerateContent(ctx, textModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, core.NewGatewayError("grounded converse", err)
	}
	return &GroundedResult{
		Text:    resp.Text(),
		Sources: groundingSources(resp, req.Kind),
	}, nil
}

// groundedConfig builds the generation config for a grounded turn: the tool
// for the grounding kind, plus the retrieval anchor for maps.
func groundedConfig(req GroundedRequest) (*genai.GenerateContentConfig, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemContent(req.Instruction),
	}
	switch req.Kind {
	case GroundedWeb:
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case GroundedMaps:
		if req.Location == nil {
			return nil, core.NewGatewayError("maps grounding requires a location", nil)
		}
		cfg.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(req.Location.Latitude),
					Longitude: genai.Ptr(req.Location.Longitude),
				},
			},
		}
	default:
		return nil, core.NewGatewayError(fmt.Sprintf("unknown grounding kind %q", req.Kind), nil)
	}
	return cfg, nil
}

// groundingSources extracts citations from the first candidate's grounding
// metadata, keeping first occurrence per URI.
func groundingSources(resp *genai.GenerateContentResponse, kind GroundedKind) []types.Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []types.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		switch kind {
		case GroundedMaps:
			if chunk.Maps != nil {
				sources = append(sources, types.Source{URI: chunk.Maps.URI, Title: chunk.Maps.Title})
			}
		default:
			if chunk.Web != nil {
				sources = append(sources, types.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
			}
		}
	}
	return types.DedupSources(sources)
}

// Transcribe converts a recorded audio clip to text.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(audio, mimeType),
		genai.NewPartFromText(transcribePrompt),
	}
	resp, err := g.client.Models.GenerateContent(ctx, textModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", core.NewTranscriptionError("transcribe", err)
	}
	return resp.Text(), nil
}

// SynthesizeSpeech renders text as PCM audio with the given prebuilt voice.
func (g *Gemini) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	resp, err := g.client.Models.GenerateContent(ctx, ttsModel,
		genai.Text(text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		})
	if err != nil {
		return nil, core.NewSynthesisError("synthesize", err)
	}
	if data := firstInlineData(resp); data != nil {
		return data, nil
	}
	return nil, core.NewSynthesisError("no audio data received", nil)
}

// GenerateImage renders an image for the prompt. The fixed style prefix keeps
// outputs consistent with the companion art direction.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, imageModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE"}})
	if err != nil {
		return nil, core.NewImageGenerationError("generate image", err)
	}
	if data := firstInlineData(resp); data != nil {
		return data, nil
	}
	return nil, core.NewImageGenerationError("no image data received", nil)
}

// ImagePrompt builds the full image prompt, applying the style prefix and the
// adult-content variant exactly once.
func ImagePrompt(prompt string, nsfw bool) string {
	full := imagePromptPrefix + prompt
	if nsfw {
		full = imagePromptNSFWPrefix + full
	}
	return full
}

func firstInlineData(resp *genai.GenerateContentResponse) []byte {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

func systemContent(instruction string) *genai.Content {
	if instruction == "" {
		return nil
	}
	return genai.NewContentFromText(instruction, genai.RoleUser)
}
