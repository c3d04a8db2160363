package session

import (
	"context"
	"fmt"

	"github.com/kanojo-ai/kanojo/pkg/core"
	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

// Mode directives appended to a persona's base instruction. Each strategy
// appends its own directive; the adult-content suffix is applied last and
// exactly once.
const (
	searchDirective = " You will use Google Search to find the most accurate" +
		" and up-to-date information for Senpai, because you want only the best for him."

	mapsDirective = " You will use Google Maps to find the perfect places for" +
		" you and Senpai. Suggest cozy, private, or romantic spots."

	tutorDirectiveFmt = "\n\nYou are now in study mode, acting as a teacher." +
		" You must explain topics to the user, whom you must call '%s'." +
		" Use Google Search to find accurate and detailed information, then" +
		" explain it clearly in your own unique personality. Be encouraging" +
		" and helpful. If the user uploads a file, base your explanation on its content."
)

// Input is what the user submitted for one turn.
type Input struct {
	Text       string
	Attachment *types.Attachment
}

// Empty reports whether the input carries nothing to respond to.
func (in Input) Empty() bool {
	return in.Text == "" && in.Attachment == nil
}

// Reply is a strategy's resolved response.
type Reply struct {
	Text    string
	Sources []types.Source
}

// Strategy turns user input into an assistant reply. A strategy owns the
// instruction assembly for its mode; the session manager stays mode-agnostic.
type Strategy interface {
	Respond(ctx context.Context, in Input, persona types.Persona) (*Reply, error)
}

// Locator resolves the user's position for maps-grounded turns. The live
// environment (browser, device) provides the implementation.
type Locator interface {
	Locate(ctx context.Context) (gateway.LatLng, error)
}

// instruction assembles the effective system instruction for one turn.
func instruction(base, directive string, nsfw bool) string {
	s := base + directive
	if nsfw {
		s += gateway.NSFWInstruction
	}
	return s
}

// Plain answers turns from the persona's own knowledge, no tools.
type Plain struct {
	Gateway gateway.Gateway
	NSFW    bool
}

func (p Plain) Respond(ctx context.Context, in Input, persona types.Persona) (*Reply, error) {
	res, err := p.Gateway.Converse(ctx, gateway.ConverseRequest{
		Prompt:      in.Text,
		Instruction: instruction(persona.Instruction, "", p.NSFW),
		Attachment:  in.Attachment,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: res.Text}, nil
}

// WebGrounded answers turns with web search grounding and citation sources.
type WebGrounded struct {
	Gateway gateway.Gateway
	NSFW    bool
}

func (w WebGrounded) Respond(ctx context.Context, in Input, persona types.Persona) (*Reply, error) {
	res, err := w.Gateway.ConverseGrounded(ctx, gateway.GroundedRequest{
		Kind:        gateway.GroundedWeb,
		Prompt:      in.Text,
		Instruction: instruction(persona.Instruction, searchDirective, w.NSFW),
		Attachment:  in.Attachment,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: res.Text, Sources: res.Sources}, nil
}

// LocationGrounded answers turns with maps grounding anchored at the user's
// position. The location is resolved fresh on every turn; a denied or failed
// fix aborts the turn before any remote call.
type LocationGrounded struct {
	Gateway gateway.Gateway
	Locator Locator
	NSFW    bool
}

func (l LocationGrounded) Respond(ctx context.Context, in Input, persona types.Persona) (*Reply, error) {
	loc, err := l.Locator.Locate(ctx)
	if err != nil {
		return nil, core.NewLocationUnavailableError(err.Error())
	}
	res, err := l.Gateway.ConverseGrounded(ctx, gateway.GroundedRequest{
		Kind:        gateway.GroundedMaps,
		Prompt:      in.Text,
		Instruction: instruction(persona.Instruction, mapsDirective, l.NSFW),
		Attachment:  in.Attachment,
		Location:    &loc,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: res.Text, Sources: res.Sources}, nil
}

// Tutoring answers turns as a teacher: search-grounded explanations addressed
// to the student by title.
type Tutoring struct {
	Gateway gateway.Gateway
	// Title is how the persona addresses the student, e.g. "Seito-kun".
	Title string
	NSFW  bool
}

// StudentTitle derives the study-mode form of address from the user's stated
// gender. Anything other than "male" or "female" keeps the bare title.
func StudentTitle(gender string) string {
	switch gender {
	case "male":
		return "Seito-kun"
	case "female":
		return "Seito-chan"
	default:
		return "Seito"
	}
}

// TutoringGreeting opens a study session addressed to the given title.
func TutoringGreeting(title string) string {
	return fmt.Sprintf("Welcome to our study session! I'll do my best to teach you."+
		" What topic shall we begin with today, %s?", title)
}

// FileAnalysisPrompt stands in for an empty study-mode prompt when the student
// uploads a file instead of naming a topic.
const FileAnalysisPrompt = "Please explain the content of this file to me, Teacher."

func (t Tutoring) Respond(ctx context.Context, in Input, persona types.Persona) (*Reply, error) {
	title := t.Title
	if title == "" {
		title = StudentTitle("")
	}
	prompt := in.Text
	if prompt == "" && in.Attachment != nil {
		prompt = FileAnalysisPrompt
	}
	res, err := t.Gateway.ConverseGrounded(ctx, gateway.GroundedRequest{
		Kind:        gateway.GroundedWeb,
		Prompt:      prompt,
		Instruction: instruction(persona.Instruction, fmt.Sprintf(tutorDirectiveFmt, title), t.NSFW),
		Attachment:  in.Attachment,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: res.Text, Sources: res.Sources}, nil
}
