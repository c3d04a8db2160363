package persona

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

	groundedText string
	groundedErr  error
	lastGrounded gateway.GroundedRequest

	converseText string
	lastConverse gateway.ConverseRequest

	image      []byte
	lastPrompt string
}

func (s *stubGateway) ConverseGrounded(ctx context.Context, req gateway.GroundedRequest) (*gateway.GroundedResult, error) {
	s.lastGrounded = req
	if s.groundedErr != nil {
		return nil, s.groundedErr
	}
	return &gateway.GroundedResult{Text: s.groundedText}, nil
}

func (s *stubGateway) Converse(ctx context.Context, req gateway.ConverseRequest) (*gateway.ConverseResult, error) {
	s.lastConverse = req
	return &gateway.ConverseResult{Text: s.converseText}, nil
}

func (s *stubGateway) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	s.lastPrompt = prompt
	return s.image, nil
}

func TestPresets_Roster(t *testing.T) {
	roster := Presets()
	require.Len(t, roster, 12)

	seen := map[string]bool{}
	for _, p := range roster {
		assert.False(t, seen[p.ID], "duplicate preset ID %s", p.ID)
		seen[p.ID] = true

		assert.NotEmpty(t, p.Name, "%s needs a name", p.ID)
		assert.NotEmpty(t, p.Subtitle, "%s needs a subtitle", p.ID)
		assert.NotEmpty(t, p.Greeting, "%s needs a greeting", p.ID)
		assert.NotEmpty(t, p.AvatarPrompt, "%s needs an avatar prompt", p.ID)
		assert.True(t, strings.HasSuffix(p.Instruction, "Never break character."),
			"%s instruction must lock the character in", p.ID)
	}

	ayano, ok := Preset(Yandere)
	require.True(t, ok)
	assert.Equal(t, "Ayano", ayano.Name)

	_, ok = Preset("nonexistent")
	assert.False(t, ok)
}

func TestCreator_GenerateInstruction(t *testing.T) {
	t.Run("two-step pipeline", func(t *testing.T) {
		gw := &stubGateway{
			groundedText: "A stoic swordswoman with a tragic past.",
			converseText: "You are a stoic swordswoman...",
		}
		c := &Creator{Gateway: gw, Store: store.NewMemory()}

		got, err := c.GenerateInstruction(context.Background(), "Saber")
		require.NoError(t, err)
		assert.Equal(t, "You are a stoic swordswoman...", got)

		assert.Equal(t, gateway.GroundedWeb, gw.lastGrounded.Kind)
		assert.Contains(t, gw.lastGrounded.Prompt, "the character: Saber.")
		assert.Contains(t, gw.lastConverse.Prompt, "A stoic swordswoman with a tragic past.")
		assert.Contains(t, gw.lastConverse.Prompt, "SYSTEM INSTRUCTION:")
	})

	t.Run("empty search result fails", func(t *testing.T) {
		gw := &stubGateway{groundedText: "   "}
		c := &Creator{Gateway: gw, Store: store.NewMemory()}

		_, err := c.GenerateInstruction(context.Background(), "Nobody")
		require.Error(t, err)
		assert.True(t, core.IsType(err, core.ErrGateway))
	})
}

func TestCreator_GenerateAvatar(t *testing.T) {
	gw := &stubGateway{image: []byte{0xff}}
	c := &Creator{Gateway: gw, Store: store.NewMemory()}

	img, err := c.GenerateAvatar(context.Background(), "a knight in silver armor", false)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	assert.True(t, strings.HasPrefix(gw.lastPrompt, "A high-quality, cute anime style image. "))
}

func TestCreator_SaveLoadRemove(t *testing.T) {
	c := &Creator{Gateway: &stubGateway{}, Store: store.NewMemory()}
	ctx := context.Background()

	_, _, err := c.Load(ctx)
	require.NoError(t, err)

	saved, err := c.Save(ctx, types.Persona{Name: "Saber", Instruction: "You are Saber."})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID, "save must assign an ID")

	loaded, ok, err := c.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved, loaded)

	// Saving again replaces the single custom slot, keeping the ID.
	saved2, err := c.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, saved2.ID)

	require.NoError(t, c.Remove(ctx))
	_, ok, err = c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreator_SaveRejectsIncomplete(t *testing.T) {
	c := &Creator{Gateway: &stubGateway{}, Store: store.NewMemory()}

	_, err := c.Save(context.Background(), types.Persona{Name: "NoInstruction"})
	assert.True(t, core.IsType(err, core.ErrInputRejected))
}

func TestCreator_CorruptRecordTreatedAsAbsent(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(context.Background(), store.KeyCustomPersona, []byte("{broken")))

	c := &Creator{Gateway: &stubGateway{}, Store: st}
	_, ok, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
