package session

import (
	"context"
	"strings"
	"testing"

	"github.com/kanojo-ai/kanojo/pkg/core"
	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

func TestPlain_Instruction(t *testing.T) {
	gw := &fakeGateway{converseText: "ok"}

	if _, err := (Plain{Gateway: gw}).Respond(context.Background(), Input{Text: "hi"}, testPersona); err != nil {
		t.Fatal(err)
	}
	if gw.lastConverse.Instruction != testPersona.Instruction {
		t.Errorf("plain mode must pass the bare instruction, got %q", gw.lastConverse.Instruction)
	}

	if _, err := (Plain{Gateway: gw, NSFW: true}).Respond(context.Background(), Input{Text: "hi"}, testPersona); err != nil {
		t.Fatal(err)
	}
	got := gw.lastConverse.Instruction
	if !strings.HasSuffix(got, gateway.NSFWInstruction) {
		t.Errorf("adult mode must append the suffix, got %q", got)
	}
	if strings.Count(got, "NSFW mode") != 1 {
		t.Errorf("suffix must be applied exactly once, got %q", got)
	}
}

func TestWebGrounded_Instruction(t *testing.T) {
	gw := &fakeGateway{groundedText: "ok", sources: []types.Source{{URI: "u", Title: "t"}}}

	reply, err := (WebGrounded{Gateway: gw}).Respond(context.Background(), Input{Text: "news?"}, testPersona)
	if err != nil {
		t.Fatal(err)
	}
	if gw.lastGrounded.Kind != gateway.GroundedWeb {
		t.Errorf("expected web grounding, got %q", gw.lastGrounded.Kind)
	}
	if !strings.Contains(gw.lastGrounded.Instruction, searchDirective) {
		t.Errorf("search directive missing from %q", gw.lastGrounded.Instruction)
	}
	if len(reply.Sources) != 1 {
		t.Errorf("grounded sources must flow through, got %+v", reply.Sources)
	}
}

func TestLocationGrounded(t *testing.T) {
	t.Run("resolves a fresh fix per turn", func(t *testing.T) {
		gw := &fakeGateway{groundedText: "ok"}
		calls := 0
		strat := LocationGrounded{Gateway: gw, Locator: locatorFunc(func(ctx context.Context) (gateway.LatLng, error) {
			calls++
			return gateway.LatLng{Latitude: 35.68, Longitude: 139.69}, nil
		})}

		for range 2 {
			if _, err := strat.Respond(context.Background(), Input{Text: "cafe?"}, testPersona); err != nil {
				t.Fatal(err)
			}
		}
		if calls != 2 {
			t.Errorf("expected one fix per turn, got %d", calls)
		}
		if gw.lastGrounded.Kind != gateway.GroundedMaps || gw.lastGrounded.Location == nil {
			t.Errorf("expected maps grounding with a location, got %+v", gw.lastGrounded)
		}
		if !strings.Contains(gw.lastGrounded.Instruction, mapsDirective) {
			t.Errorf("maps directive missing from %q", gw.lastGrounded.Instruction)
		}
	})

	t.Run("denied fix aborts before any remote call", func(t *testing.T) {
		gw := &fakeGateway{}
		strat := LocationGrounded{Gateway: gw, Locator: locatorFunc(func(ctx context.Context) (gateway.LatLng, error) {
			return gateway.LatLng{}, context.DeadlineExceeded
		})}

		_, err := strat.Respond(context.Background(), Input{Text: "cafe?"}, testPersona)
		if !core.IsType(err, core.ErrLocationUnavailable) {
			t.Fatalf("expected location error, got %v", err)
		}
		if gw.lastGrounded.Kind != "" {
			t.Error("no remote call may happen without a fix")
		}
	})
}

func TestTutoring(t *testing.T) {
	gw := &fakeGateway{groundedText: "ok"}

	t.Run("addresses the student by title", func(t *testing.T) {
		strat := Tutoring{Gateway: gw, Title: StudentTitle("female")}
		if _, err := strat.Respond(context.Background(), Input{Text: "teach me calculus"}, testPersona); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(gw.lastGrounded.Instruction, "'Seito-chan'") {
			t.Errorf("expected title in instruction, got %q", gw.lastGrounded.Instruction)
		}
		if gw.lastGrounded.Kind != gateway.GroundedWeb {
			t.Errorf("study mode is search grounded, got %q", gw.lastGrounded.Kind)
		}
	})

	t.Run("file upload without a topic asks for an explanation", func(t *testing.T) {
		strat := Tutoring{Gateway: gw}
		in := Input{Attachment: &types.Attachment{MimeType: "application/pdf", Data: []byte{1}}}
		if _, err := strat.Respond(context.Background(), in, testPersona); err != nil {
			t.Fatal(err)
		}
		if gw.lastGrounded.Prompt != FileAnalysisPrompt {
			t.Errorf("expected file analysis prompt, got %q", gw.lastGrounded.Prompt)
		}
		if gw.lastGrounded.Attachment == nil {
			t.Error("attachment must reach the gateway")
		}
	})
}

func TestStudentTitle(t *testing.T) {
	cases := map[string]string{
		"male":   "Seito-kun",
		"female": "Seito-chan",
		"other":  "Seito",
		"":       "Seito",
	}
	for gender, want := range cases {
		if got := StudentTitle(gender); got != want {
			t.Errorf("StudentTitle(%q) = %q, want %q", gender, got, want)
		}
	}
}
