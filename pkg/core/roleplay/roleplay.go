// Package roleplay is the interactive-fiction engine: worlds (preset,
// hand-written, or researched from a fictional universe), the player's
// character, and the storyteller loop that narrates around the player's
// actions. Stories and their logs live in the store, so a tale can be picked
// up again later.
package roleplay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kanojo-ai/kanojo/pkg/core"
	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/store"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

// StorytellerName labels narrator lines in the per-turn prompt.
const StorytellerName = "Storyteller"

// startStoryPrompt kicks off a fresh narrative.
const startStoryPrompt = "Start the story."

// TurnFallbackText replaces the narration when a story turn fails.
const TurnFallbackText = "The story falters... I'm sorry, Senpai."

const customWorldInstructionFmt = `You are a master storyteller in the world of %s, which is described as: "%s". Your specific instructions are: "%s". I am the protagonist. Craft a rich, descriptive, novel-style narrative. Respond to my actions and words to continue our story.`

const searchWorldPromptFmt = "Provide an extremely detailed summary for a roleplaying" +
	" game of the universe: %s. Structure the response with clear headings. Include its" +
	" history, key factions and their goals, major world-ending threats, important" +
	" locations with descriptions, the magic or technology system, and a list of at" +
	" least 5 key characters with their personalities and roles. The output should be" +
	" very detailed to create an immersive experience."

const searchWorldSystem = "You are a helpful assistant summarizing a fictional" +
	" universe for a roleplaying game."

const searchedWorldInstructionFmt = "You are a master storyteller in the universe" +
	" detailed below. I am the protagonist. Craft a rich, descriptive, novel-style" +
	" narrative based on this lore. Respond to my actions and words to continue our" +
	" story.\n\nUNIVERSE LORE:\n%s"

const searchCharacterPromptFmt = "Summarize the personality, backstory, key traits," +
	" relationships, and typical behavior of the character: %s. Focus on information" +
	" useful for roleplaying as this character. Provide a comprehensive overview."

const searchCharacterSystem = "You are a helpful assistant summarizing a fictional" +
	" character's personality for creating an AI roleplaying bot."

const storyInstructionFmt = `You are the Storyteller. Your role is to guide the narrative based on the world described below and the actions of Senpai's character.
WORLD: %s
---
SENPAI'S CHARACTER:
Name: %s
Personality & Role: %s
---
RULES:
1. You will now begin the story. You are the storyteller. Describe the world and other characters.
2. Senpai will play their character, "%s".
3. NEVER act as Senpai or write actions for their character. Only react to what they do.
4. Keep your responses novel-style, descriptive, and engaging.
5. Begin with a compelling opening paragraph to set the scene for "%s".`

// PresetWorlds returns the built-in settings.
func PresetWorlds() []types.World {
	return []types.World{
		{
			Name:        "Aethelgard Kingdom",
			Description: "A realm of magic, knights, and ancient dragons. Your destiny awaits.",
			Instruction: "You are a master storyteller in the fantasy kingdom of Aethelgard. I am the protagonist. Craft a rich, descriptive, novel-style narrative. Describe the world, the characters you embody, and the events. Respond to my actions and words to continue our epic story.",
		},
		{
			Name:        "Neo-Kyoto 2099",
			Description: "A neon-drenched metropolis of chrome, corruption, and cybernetics.",
			Instruction: "You are a master storyteller in the cyberpunk megacity of Neo-Kyoto in the year 2099. I am the protagonist. Craft a rich, descriptive, novel-style narrative. Describe the world, the characters you embody, and the events. Respond to my actions and words to continue our gritty story.",
		},
		{
			Name:        "Sakura Hills Academy",
			Description: "A prestigious high school where friendships, rivalries, and love blossom.",
			Instruction: "You are a master storyteller at Sakura Hills Academy. I am the protagonist. Craft a rich, descriptive, novel-style narrative in the style of a romance anime. Describe the world, the characters you embody, and the events. Respond to my actions and words to continue our heartfelt story.",
		},
	}
}

// Service runs the roleplay surface.
type Service struct {
	gw  gateway.Gateway
	st  store.Store
	log *slog.Logger

	// NSFW switches the storyteller into unrestricted mode.
	NSFW bool
}

// NewService creates the roleplay service.
func NewService(gw gateway.Gateway, st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, st: st, log: logger}
}

// BuildCustomWorld assembles a world from the user's own name, description,
// and storytelling directions.
func (s *Service) BuildCustomWorld(name, description, directions string) (types.World, error) {
	if name == "" || description == "" || directions == "" {
		return types.World{}, core.NewInputRejectedError("a world needs a name, a description, and directions")
	}
	return types.World{
		Name:        name,
		Description: description,
		Instruction: fmt.Sprintf(customWorldInstructionFmt, name, description, directions),
	}, nil
}

// SearchWorld researches a fictional universe and builds a lore-grounded
// world from it.
func (s *Service) SearchWorld(ctx context.Context, query string) (types.World, error) {
	if strings.TrimSpace(query) == "" {
		return types.World{}, core.NewInputRejectedError("nothing to search for")
	}
	res, err := s.gw.ConverseGrounded(ctx, gateway.GroundedRequest{
		Kind:        gateway.GroundedWeb,
		Prompt:      fmt.Sprintf(searchWorldPromptFmt, query),
		Instruction: searchWorldSystem,
	})
	if err != nil {
		return types.World{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return types.World{}, core.NewGatewayError(fmt.Sprintf("no lore found for %q", query), nil)
	}
	return types.World{
		Name:        query,
		Instruction: fmt.Sprintf(searchedWorldInstructionFmt, res.Text),
	}, nil
}

// SearchCharacter researches a named character for the player to embody.
func (s *Service) SearchCharacter(ctx context.Context, query string) (types.Character, error) {
	if strings.TrimSpace(query) == "" {
		return types.Character{}, core.NewInputRejectedError("nothing to search for")
	}
	res, err := s.gw.ConverseGrounded(ctx, gateway.GroundedRequest{
		Kind:        gateway.GroundedWeb,
		Prompt:      fmt.Sprintf(searchCharacterPromptFmt, query),
		Instruction: searchCharacterSystem,
	})
	if err != nil {
		return types.Character{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return types.Character{}, core.NewGatewayError(fmt.Sprintf("no information found for %q", query), nil)
	}
	return types.Character{Name: query, Personality: res.Text}, nil
}

// SaveWorld adds a world to the library. Names are unique, case-insensitively.
func (s *Service) SaveWorld(ctx context.Context, world types.World) (string, error) {
	if world.Name == "" {
		return "", core.NewInputRejectedError("a world needs a name")
	}
	worlds, err := s.Worlds(ctx)
	if err != nil {
		return "", err
	}
	for _, w := range worlds {
		if strings.EqualFold(w.Name, world.Name) {
			return "", core.NewInputRejectedError(fmt.Sprintf("world %q is already saved", world.Name))
		}
	}
	id := uuid.NewString()
	worlds[id] = world
	if err := s.writeWorlds(ctx, worlds); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteWorld removes a saved world. Stories already started in it keep their
// own copy and are unaffected.
func (s *Service) DeleteWorld(ctx context.Context, id string) error {
	worlds, err := s.Worlds(ctx)
	if err != nil {
		return err
	}
	delete(worlds, id)
	return s.writeWorlds(ctx, worlds)
}

// Worlds returns the saved-worlds library keyed by ID. A corrupt library is
// reset to empty.
func (s *Service) Worlds(ctx context.Context) (map[string]types.World, error) {
	raw, ok, err := s.st.Get(ctx, store.KeyWorlds)
	if err != nil {
		return nil, err
	}
	worlds := map[string]types.World{}
	if ok {
		if uerr := json.Unmarshal(raw, &worlds); uerr != nil {
			s.log.Warn("world library reset",
				"error", core.NewStoreCorruptError(store.KeyWorlds, uerr))
			worlds = map[string]types.World{}
		}
	}
	return worlds, nil
}

func (s *Service) writeWorlds(ctx context.Context, worlds map[string]types.World) error {
	raw, err := json.Marshal(worlds)
	if err != nil {
		return err
	}
	return s.st.Set(ctx, store.KeyWorlds, raw)
}

// StoryInstruction assembles the storyteller's system instruction for a world
// and the player's character.
func (s *Service) StoryInstruction(world types.World, char types.Character) string {
	instruction := fmt.Sprintf(storyInstructionFmt,
		world.Instruction, char.Name, char.Personality, char.Name, char.Name)
	if s.NSFW {
		instruction += gateway.NSFWInstruction
	}
	return instruction
}

// StartStory begins a new tale: the storyteller sets the opening scene, and
// the story joins the library with its log.
func (s *Service) StartStory(ctx context.Context, world types.World, char types.Character) (types.Story, error) {
	if char.Name == "" || char.Personality == "" {
		return types.Story{}, core.NewInputRejectedError("define your character first")
	}

	story := types.Story{ID: uuid.NewString(), World: world, Character: char}
	res, err := s.gw.Converse(ctx, gateway.ConverseRequest{
		Prompt:      startStoryPrompt,
		Instruction: s.StoryInstruction(world, char),
	})
	if err != nil {
		return types.Story{}, err
	}

	opening := types.Message{
		ID:     types.NewMessageID(),
		Text:   res.Text,
		Sender: types.SenderAssistant,
		Status: types.StatusFinal,
	}
	if err := s.writeHistory(ctx, story.ID, []types.Message{opening}); err != nil {
		return types.Story{}, err
	}
	if err := s.addToLibrary(ctx, story); err != nil {
		return types.Story{}, err
	}
	return story, nil
}

// Turn plays one exchange: the player acts, the storyteller narrates. A failed
// narration settles to the fallback line instead of surfacing the error.
func (s *Service) Turn(ctx context.Context, story types.Story, input string) (types.Message, error) {
	if strings.TrimSpace(input) == "" {
		return types.Message{}, core.NewInputRejectedError("nothing to send")
	}

	history, err := s.History(ctx, story.ID)
	if err != nil {
		return types.Message{}, err
	}

	prompt := turnPrompt(history, story.Character.Name, input)
	reply := types.Message{
		ID:     types.NewMessageID(),
		Sender: types.SenderAssistant,
		Status: types.StatusFinal,
	}
	res, gerr := s.gw.Converse(ctx, gateway.ConverseRequest{
		Prompt:      prompt,
		Instruction: s.StoryInstruction(story.World, story.Character),
	})
	if gerr != nil {
		s.log.Warn("story turn failed", "story", story.ID, "error", gerr)
		reply.Text = TurnFallbackText
	} else {
		reply.Text = res.Text
	}

	history = append(history,
		types.Message{
			ID:     types.NewMessageID(),
			Text:   input,
			Sender: types.SenderUser,
			Status: types.StatusFinal,
		},
		reply)
	if err := s.writeHistory(ctx, story.ID, history); err != nil {
		return types.Message{}, err
	}
	return reply, nil
}

// turnPrompt renders the whole tale as dialogue lines and cues the
// storyteller for the next one.
func turnPrompt(history []types.Message, charName, input string) string {
	var b strings.Builder
	for _, msg := range history {
		speaker := StorytellerName
		if msg.Sender == types.SenderUser {
			speaker = charName
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", speaker, msg.Text))
	}
	b.WriteString(fmt.Sprintf("%s: %s\n%s:", charName, input, StorytellerName))
	return b.String()
}

// History returns a story's log. A corrupt log is reset to empty.
func (s *Service) History(ctx context.Context, storyID string) ([]types.Message, error) {
	raw, ok, err := s.st.Get(ctx, store.StoryHistoryKey(storyID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var msgs []types.Message
	if uerr := json.Unmarshal(raw, &msgs); uerr != nil {
		s.log.Warn("story history reset", "story", storyID,
			"error", core.NewStoreCorruptError(store.StoryHistoryKey(storyID), uerr))
		return nil, nil
	}
	return msgs, nil
}

func (s *Service) writeHistory(ctx context.Context, storyID string, msgs []types.Message) error {
	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return s.st.Set(ctx, store.StoryHistoryKey(storyID), raw)
}

// Stories lists the library, ordered by world then character name.
func (s *Service) Stories(ctx context.Context) ([]types.Story, error) {
	stories, err := s.readLibrary(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Story, 0, len(stories))
	for _, story := range stories {
		out = append(out, story)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].World.Name != out[j].World.Name {
			return out[i].World.Name < out[j].World.Name
		}
		return out[i].Character.Name < out[j].Character.Name
	})
	return out, nil
}

// DeleteStory erases a story and its log.
func (s *Service) DeleteStory(ctx context.Context, id string) error {
	stories, err := s.readLibrary(ctx)
	if err != nil {
		return err
	}
	delete(stories, id)
	if err := s.writeLibrary(ctx, stories); err != nil {
		return err
	}
	return s.st.Remove(ctx, store.StoryHistoryKey(id))
}

// ResetStory starts a story over: the log is replaced with a fresh opening
// scene from the same world and character.
func (s *Service) ResetStory(ctx context.Context, id string) (types.Message, error) {
	stories, err := s.readLibrary(ctx)
	if err != nil {
		return types.Message{}, err
	}
	story, ok := stories[id]
	if !ok {
		return types.Message{}, core.NewInputRejectedError(fmt.Sprintf("no story %q", id))
	}

	res, err := s.gw.Converse(ctx, gateway.ConverseRequest{
		Prompt:      startStoryPrompt,
		Instruction: s.StoryInstruction(story.World, story.Character),
	})
	if err != nil {
		return types.Message{}, err
	}
	opening := types.Message{
		ID:     types.NewMessageID(),
		Text:   res.Text,
		Sender: types.SenderAssistant,
		Status: types.StatusFinal,
	}
	if err := s.writeHistory(ctx, id, []types.Message{opening}); err != nil {
		return types.Message{}, err
	}
	return opening, nil
}

func (s *Service) readLibrary(ctx context.Context) (map[string]types.Story, error) {
	raw, ok, err := s.st.Get(ctx, store.KeyStories)
	if err != nil {
		return nil, err
	}
	stories := map[string]types.Story{}
	if ok {
		if uerr := json.Unmarshal(raw, &stories); uerr != nil {
			s.log.Warn("story library reset",
				"error", core.NewStoreCorruptError(store.KeyStories, uerr))
			stories = map[string]types.Story{}
		}
	}
	return stories, nil
}

func (s *Service) addToLibrary(ctx context.Context, story types.Story) error {
	stories, err := s.readLibrary(ctx)
	if err != nil {
		return err
	}
	stories[story.ID] = story
	return s.writeLibrary(ctx, stories)
}

func (s *Service) writeLibrary(ctx context.Context, stories map[string]types.Story) error {
	raw, err := json.Marshal(stories)
	if err != nil {
		return err
	}
	return s.st.Set(ctx, store.KeyStories, raw)
}
