package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kanojo-ai/kanojo/pkg/core"
	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/store"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

const characterSearchPromptFmt = "Summarize the personality, backstory, key traits," +
	" relationships, and typical behavior of the character: %s. Focus on information" +
	" useful for roleplaying as this character. Provide a comprehensive overview."

const characterSearchSystem = "You are a helpful assistant summarizing a fictional" +
	" character's personality for creating an AI roleplaying bot."

const instructionPromptFmt = `Based on the following character description, write a concise system instruction for an AI to roleplay as this character. The instruction should be in the second person ("You are..."). It must capture their core personality, how they speak, their motivations, and their relationship to the user, whom they should call 'Senpai'.

CHARACTER DESCRIPTION:
%s

SYSTEM INSTRUCTION:`

const instructionSystem = "You are an expert at creating system instructions for" +
	" AI roleplaying bots based on character descriptions."

// Creator builds and persists user-authored companions. The instruction
// generator is a two-step pipeline: a search-grounded character summary, then
// a distilled roleplay instruction.
type Creator struct {
	Gateway gateway.Gateway
	Store   store.Store
}

// GenerateInstruction researches a named character and distills a system
// instruction for roleplaying them.
func (c *Creator) GenerateInstruction(ctx context.Context, character string) (string, error) {
	summary, err := c.Gateway.ConverseGrounded(ctx, gateway.GroundedRequest{
		Kind:        gateway.GroundedWeb,
		Prompt:      fmt.Sprintf(characterSearchPromptFmt, character),
		Instruction: characterSearchSystem,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary.Text) == "" {
		return "", core.NewGatewayError(fmt.Sprintf("no information found for character %q", character), nil)
	}

	res, err := c.Gateway.Converse(ctx, gateway.ConverseRequest{
		Prompt:      fmt.Sprintf(instructionPromptFmt, summary.Text),
		Instruction: instructionSystem,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

// GenerateAvatar renders the companion's portrait from its avatar prompt.
func (c *Creator) GenerateAvatar(ctx context.Context, avatarPrompt string, nsfw bool) ([]byte, error) {
	return c.Gateway.GenerateImage(ctx, gateway.ImagePrompt(avatarPrompt, nsfw))
}

// Save persists the custom companion, assigning an ID on first save. There is
// one custom slot; saving replaces any previous companion.
func (c *Creator) Save(ctx context.Context, p types.Persona) (types.Persona, error) {
	if p.Name == "" || p.Instruction == "" {
		return types.Persona{}, core.NewInputRejectedError("a companion needs a name and an instruction")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return types.Persona{}, err
	}
	if err := c.Store.Set(ctx, store.KeyCustomPersona, raw); err != nil {
		return types.Persona{}, err
	}
	return p, nil
}

// Load returns the saved custom companion, if any. A corrupt record is
// treated as absent.
func (c *Creator) Load(ctx context.Context) (types.Persona, bool, error) {
	raw, ok, err := c.Store.Get(ctx, store.KeyCustomPersona)
	if err != nil || !ok {
		return types.Persona{}, false, err
	}
	var p types.Persona
	if err := json.Unmarshal(raw, &p); err != nil {
		return types.Persona{}, false, nil
	}
	return p, true, nil
}

// Remove deletes the custom companion.
func (c *Creator) Remove(ctx context.Context) error {
	return c.Store.Remove(ctx, store.KeyCustomPersona)
}
