package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

// DefaultImageChance is the per-turn probability of a spontaneous image.
const DefaultImageChance = 0.20

// effectHistoryWindow is how many trailing messages feed the context analysis.
const effectHistoryWindow = 4

const contextAnalystInstruction = "You are an expert at analyzing conversation" +
	" context for creative prompts."

// ImageEffect occasionally follows a successful turn with a generated image of
// the companion, posed from the mood of the recent conversation. The effect is
// best-effort: a placeholder appears while it runs and is silently removed if
// any step fails. Turns that carried an attachment never trigger it.
type ImageEffect struct {
	Gateway gateway.Gateway
	// Chance is the per-turn trigger probability. Zero means DefaultImageChance.
	Chance float64
	NSFW   bool
	// Rand overrides the trigger roll, for tests. Defaults to rand.Float64.
	Rand func() float64
}

func (e *ImageEffect) run(ctx context.Context, m *Manager, s *Session, in Input) {
	if in.Attachment != nil {
		return
	}
	chance := e.Chance
	if chance == 0 {
		chance = DefaultImageChance
	}
	roll := e.Rand
	if roll == nil {
		roll = rand.Float64
	}
	if roll() >= chance {
		return
	}

	placeholder := types.Message{
		ID:     types.NewMessageID(),
		Sender: types.SenderAssistant,
		Status: types.StatusPendingSideEffect,
	}
	m.appendMessage(s, placeholder)

	image, err := e.generate(ctx, s.Messages(), s.persona)
	if err != nil {
		m.log.Warn("spontaneous image skipped", "session", s.key, "error", err)
		m.removeMessage(s, placeholder.ID)
		return
	}

	m.resolve(s, placeholder.ID, func(msg *types.Message) {
		msg.ImageData = image
		msg.Status = types.StatusFinal
	})
	m.persist(ctx, s)
}

// generate runs the two-step pipeline: distill the companion's current mood
// from the trailing conversation, then render it against her avatar prompt.
func (e *ImageEffect) generate(ctx context.Context, log []types.Message, persona types.Persona) ([]byte, error) {
	res, err := e.Gateway.Converse(ctx, gateway.ConverseRequest{
		Prompt:      contextPrompt(log, persona.Name),
		Instruction: contextAnalystInstruction,
	})
	if err != nil {
		return nil, err
	}
	mood := strings.TrimSpace(res.Text)

	base := persona.AvatarPrompt
	if base == "" {
		base = fmt.Sprintf("A cute anime girl named %s", persona.Name)
	}
	prompt := gateway.ImagePrompt(fmt.Sprintf("%s, %s", base, mood), e.NSFW)
	return e.Gateway.GenerateImage(ctx, prompt)
}

func contextPrompt(log []types.Message, name string) string {
	return fmt.Sprintf(`Analyze the last few messages of this conversation. Describe what %s is feeling or doing in a short phrase suitable for an image prompt. The phrase should be an action or emotion. Examples: 'smiling shyly', 'looking angry and blushing', 'giggling happily', 'waving goodbye sadly', 'looking at Senpai with obsessive love'.

    CONVERSATION:
    %s`, name, historySnippet(log, name))
}

// historySnippet renders the last few settled messages as dialogue lines.
func historySnippet(log []types.Message, name string) string {
	finals := make([]types.Message, 0, len(log))
	for _, msg := range log {
		if msg.Final() && msg.Text != "" {
			finals = append(finals, msg)
		}
	}
	if len(finals) > effectHistoryWindow {
		finals = finals[len(finals)-effectHistoryWindow:]
	}
	lines := make([]string, 0, len(finals))
	for _, msg := range finals {
		speaker := name
		if msg.Sender == types.SenderUser {
			speaker = "Senpai"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, msg.Text))
	}
	return strings.Join(lines, "\n")
}
