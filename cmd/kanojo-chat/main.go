// Command kanojo-chat is a terminal client for the companion engine: pick a
// persona, chat, optionally with web-grounded turns, against an in-memory or
// Postgres-backed store.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kanojo-ai/kanojo/internal/dotenv"
	"github.com/kanojo-ai/kanojo/pkg/core/gateway"
	"github.com/kanojo-ai/kanojo/pkg/core/persona"
	"github.com/kanojo-ai/kanojo/pkg/core/session"
	"github.com/kanojo-ai/kanojo/pkg/core/store"
	"github.com/kanojo-ai/kanojo/pkg/core/types"
)

type options struct {
	persona string
	dsn     string
	nsfw    bool
	web     bool
	timeout time.Duration
	debug   bool
}

func main() {
	os.Exit(runMain())
}

func runMain() int {
	if err := dotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	var opt options
	flag.StringVar(&opt.persona, "persona", persona.Yandere, "companion archetype (see -list)")
	flag.StringVar(&opt.dsn, "db", strings.TrimSpace(os.Getenv("DATABASE_URL")), "Postgres DSN (optional; also reads DATABASE_URL; empty uses in-memory store)")
	flag.BoolVar(&opt.nsfw, "nsfw", false, "unrestricted mode")
	flag.BoolVar(&opt.web, "web", false, "answer turns with web search grounding")
	flag.DurationVar(&opt.timeout, "timeout", session.DefaultTurnTimeout, "per-turn timeout (0 disables)")
	flag.BoolVar(&opt.debug, "debug", false, "verbose logging")
	list := flag.Bool("list", false, "list personas and exit")
	flag.Parse()
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if *list {
		for _, p := range persona.Presets() {
			fmt.Printf("%-10s %s — %s\n", p.ID, p.Name, p.Subtitle)
		}
		return 0
	}

	level := slog.LevelWarn
	if opt.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY is required")
		return 2
	}

	ctx := context.Background()
	gw, err := gateway.NewGemini(ctx, apiKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		return 1
	}

	var st store.Store
	if opt.dsn != "" {
		pg, err := store.NewPostgres(ctx, opt.dsn)
		if err != nil {
			fmt.Fprintln(os.Stderr, "store:", err)
			return 1
		}
		defer pg.Close()
		st = pg
	} else {
		st = store.NewMemory()
	}

	p, ok := resolvePersona(ctx, st, opt.persona, explicit["persona"])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown persona %q (try -list)\n", opt.persona)
		return 2
	}
	if err := st.Set(ctx, store.PrefKey("persona"), []byte(p.ID)); err != nil {
		logger.Warn("persona preference not saved", "error", err)
	}

	cfg := session.DefaultConfig()
	cfg.TurnTimeout = opt.timeout
	cfg.Logger = logger
	cfg.Effect = &session.ImageEffect{Gateway: gw, NSFW: opt.nsfw}
	mgr := session.NewManager(st, gw, cfg)

	var strat session.Strategy
	if opt.web {
		strat = session.WebGrounded{Gateway: gw, NSFW: opt.nsfw}
	} else {
		strat = session.Plain{Gateway: gw, NSFW: opt.nsfw}
	}

	s := mgr.Load(ctx, "chat:"+p.ID, p)
	for _, msg := range s.Messages() {
		printMessage(p.Name, msg.Sender == "user", msg.Text)
	}

	fmt.Println("(/clear wipes all histories, /quit exits)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return 0
		case line == "/clear":
			if err := mgr.ClearHistories(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "clear:", err)
			} else {
				fmt.Println("histories cleared")
			}
			continue
		case line == "":
			continue
		}

		before := len(s.Messages())
		if err := mgr.Send(ctx, s, session.Input{Text: line}, strat); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		s.Wait()

		for _, msg := range s.Messages()[before:] {
			if msg.Sender == "user" {
				continue
			}
			if len(msg.ImageData) > 0 {
				fmt.Printf("%s sent an image (%d bytes)\n", p.Name, len(msg.ImageData))
				continue
			}
			printMessage(p.Name, false, msg.Text)
			for _, src := range msg.Sources {
				fmt.Printf("  [%s] %s\n", src.Title, src.URI)
			}
		}
	}
	return 0
}

// resolvePersona picks the companion for this run. An explicit -persona flag
// wins; otherwise the preference saved by the previous run, when it still
// names a known archetype; otherwise the flag default.
func resolvePersona(ctx context.Context, st store.Store, id string, explicit bool) (types.Persona, bool) {
	if !explicit {
		if saved, ok, err := st.Get(ctx, store.PrefKey("persona")); err == nil && ok {
			if p, found := persona.Preset(string(saved)); found {
				return p, true
			}
		}
	}
	return persona.Preset(id)
}

func printMessage(name string, fromUser bool, text string) {
	if text == "" {
		return
	}
	if fromUser {
		fmt.Printf("you: %s\n", text)
		return
	}
	fmt.Printf("%s: %s\n", name, text)
}
