package roleplay

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanojo-ai/kanojo/pkg/core"
	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/store"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

type stubGateway struct {
	gateway.Gateway

	converseText string
	converseErr  error
	lastConverse gateway.ConverseRequest

	groundedText string
	groundedErr  error
	lastGrounded gateway.GroundedRequest
}

func (s *stubGateway) Converse(ctx context.Context, req gateway.ConverseRequest) (*gateway.ConverseResult, error) {
	s.lastConverse = req
	if s.converseErr != nil {
		return nil, s.converseErr
	}
	return &gateway.ConverseResult{Text: s.converseText}, nil
}

func (s *stubGateway) ConverseGrounded(ctx context.Context, req gateway.GroundedRequest) (*gateway.GroundedResult, error) {
	s.lastGrounded = req
	if s.groundedErr != nil {
		return nil, s.groundedErr
	}
	return &gateway.GroundedResult{Text: s.groundedText}, nil
}

func newService(gw *stubGateway) *Service {
	return NewService(gw, store.NewMemory(), nil)
}

var testWorld = types.World{Name: "Aethelgard Kingdom", Instruction: "You are a master storyteller in Aethelgard."}
var testChar = types.Character{Name: "Kai", Personality: "A wandering swordsman with a debt to pay."}

func TestPresetWorlds(t *testing.T) {
	worlds := PresetWorlds()
	require.Len(t, worlds, 3)
	for _, w := range worlds {
		assert.NotEmpty(t, w.Name)
		assert.NotEmpty(t, w.Description)
		assert.Contains(t, w.Instruction, "master storyteller")
	}
}

func TestBuildCustomWorld(t *testing.T) {
	svc := newService(&stubGateway{})

	world, err := svc.BuildCustomWorld("Mars Colony", "A dusty frontier.", "Keep it tense.")
	require.NoError(t, err)
	assert.Equal(t, "Mars Colony", world.Name)
	assert.Contains(t, world.Instruction, `the world of Mars Colony, which is described as: "A dusty frontier."`)
	assert.Contains(t, world.Instruction, `Your specific instructions are: "Keep it tense."`)

	_, err = svc.BuildCustomWorld("Mars Colony", "", "Keep it tense.")
	assert.True(t, core.IsType(err, core.ErrInputRejected))
}

func TestSearchWorld(t *testing.T) {
	t.Run("builds a lore-grounded world", func(t *testing.T) {
		gw := &stubGateway{groundedText: "HISTORY: The Republic fell."}
		svc := newService(gw)

		world, err := svc.SearchWorld(context.Background(), "Star Wars")
		require.NoError(t, err)
		assert.Equal(t, "Star Wars", world.Name)
		assert.Contains(t, world.Instruction, "UNIVERSE LORE:\nHISTORY: The Republic fell.")
		assert.Equal(t, gateway.GroundedWeb, gw.lastGrounded.Kind)
		assert.Contains(t, gw.lastGrounded.Prompt, "the universe: Star Wars.")
	})

	t.Run("empty lore fails", func(t *testing.T) {
		svc := newService(&stubGateway{groundedText: " "})
		_, err := svc.SearchWorld(context.Background(), "Nothingverse")
		assert.True(t, core.IsType(err, core.ErrGateway))
	})

	t.Run("blank query rejected", func(t *testing.T) {
		svc := newService(&stubGateway{})
		_, err := svc.SearchWorld(context.Background(), "   ")
		assert.True(t, core.IsType(err, core.ErrInputRejected))
	})
}

func TestSearchCharacter(t *testing.T) {
	gw := &stubGateway{groundedText: "Stoic, loyal, haunted."}
	svc := newService(gw)

	char, err := svc.SearchCharacter(context.Background(), "Guts")
	require.NoError(t, err)
	assert.Equal(t, "Guts", char.Name)
	assert.Equal(t, "Stoic, loyal, haunted.", char.Personality)
}

func TestWorldLibrary(t *testing.T) {
	svc := newService(&stubGateway{})
	ctx := context.Background()

	id, err := svc.SaveWorld(ctx, testWorld)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Duplicate names are rejected, case-insensitively.
	_, err = svc.SaveWorld(ctx, types.World{Name: "AETHELGARD KINGDOM"})
	assert.True(t, core.IsType(err, core.ErrInputRejected))

	worlds, err := svc.Worlds(ctx)
	require.NoError(t, err)
	require.Len(t, worlds, 1)
	assert.Equal(t, testWorld, worlds[id])

	require.NoError(t, svc.DeleteWorld(ctx, id))
	worlds, err = svc.Worlds(ctx)
	require.NoError(t, err)
	assert.Empty(t, worlds)
}

func TestStoryInstruction(t *testing.T) {
	svc := newService(&stubGateway{})

	got := svc.StoryInstruction(testWorld, testChar)
	assert.Contains(t, got, "WORLD: "+testWorld.Instruction)
	assert.Contains(t, got, "Name: Kai")
	assert.Contains(t, got, `Senpai will play their character, "Kai".`)
	assert.Contains(t, got, "NEVER act as Senpai")
	assert.NotContains(t, got, "NSFW mode")

	svc.NSFW = true
	unrestricted := svc.StoryInstruction(testWorld, testChar)
	assert.True(t, strings.HasSuffix(unrestricted, gateway.NSFWInstruction),
		"unrestricted mode must end with the shared suffix: %q", unrestricted)
}

func TestStartStory(t *testing.T) {
	gw := &stubGateway{converseText: "The gates of Aethelgard creak open..."}
	svc := newService(gw)
	ctx := context.Background()

	story, err := svc.StartStory(ctx, testWorld, testChar)
	require.NoError(t, err)
	assert.NotEmpty(t, story.ID)
	assert.Equal(t, "Start the story.", gw.lastConverse.Prompt)

	history, err := svc.History(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "The gates of Aethelgard creak open...", history[0].Text)
	assert.Equal(t, types.SenderAssistant, history[0].Sender)

	stories, err := svc.Stories(ctx)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, story.ID, stories[0].ID)

	_, err = svc.StartStory(ctx, testWorld, types.Character{Name: "NoPersonality"})
	assert.True(t, core.IsType(err, core.ErrInputRejected))
}

func TestTurn(t *testing.T) {
	gw := &stubGateway{converseText: "The gates open."}
	svc := newService(gw)
	ctx := context.Background()

	story, err := svc.StartStory(ctx, testWorld, testChar)
	require.NoError(t, err)

	t.Run("prompt renders the tale as dialogue", func(t *testing.T) {
		gw.converseText = "A guard eyes you warily."
		reply, err := svc.Turn(ctx, story, "I approach the gate.")
		require.NoError(t, err)
		assert.Equal(t, "A guard eyes you warily.", reply.Text)

		assert.True(t, strings.HasPrefix(gw.lastConverse.Prompt, "Storyteller: The gates open.\n"))
		assert.True(t, strings.HasSuffix(gw.lastConverse.Prompt, "Kai: I approach the gate.\nStoryteller:"))

		history, err := svc.History(ctx, story.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "I approach the gate.", history[1].Text)
		assert.Equal(t, types.SenderUser, history[1].Sender)
	})

	t.Run("failed narration settles to the fallback", func(t *testing.T) {
		gw.converseErr = core.NewGatewayError("boom", nil)
		reply, err := svc.Turn(ctx, story, "I draw my sword.")
		require.NoError(t, err)
		assert.Equal(t, TurnFallbackText, reply.Text)

		history, err := svc.History(ctx, story.ID)
		require.NoError(t, err)
		assert.Equal(t, TurnFallbackText, history[len(history)-1].Text)
		gw.converseErr = nil
	})

	t.Run("blank input rejected", func(t *testing.T) {
		_, err := svc.Turn(ctx, story, "  ")
		assert.True(t, core.IsType(err, core.ErrInputRejected))
	})
}

func TestResetStory(t *testing.T) {
	gw := &stubGateway{converseText: "Opening one."}
	svc := newService(gw)
	ctx := context.Background()

	story, err := svc.StartStory(ctx, testWorld, testChar)
	require.NoError(t, err)
	_, err = svc.Turn(ctx, story, "I walk in.")
	require.NoError(t, err)

	gw.converseText = "Opening two."
	opening, err := svc.ResetStory(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, "Opening two.", opening.Text)

	history, err := svc.History(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Opening two.", history[0].Text)

	_, err = svc.ResetStory(ctx, "missing")
	assert.True(t, core.IsType(err, core.ErrInputRejected))
}

func TestDeleteStory(t *testing.T) {
	gw := &stubGateway{converseText: "Once upon a time."}
	svc := newService(gw)
	ctx := context.Background()

	story, err := svc.StartStory(ctx, testWorld, testChar)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStory(ctx, story.ID))

	stories, err := svc.Stories(ctx)
	require.NoError(t, err)
	assert.Empty(t, stories)

	history, err := svc.History(ctx, story.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
