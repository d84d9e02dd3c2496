package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/dojo/internal/config"
	"github.com/ChamsBouzaiene/dojo/internal/session"
)

const banner = `
 ____   ___      _  ___
|  _ \ / _ \    | |/ _ \
| | | | | | |_  | | | | |
| |_| | |_| | |_| | |_| |
|____/ \___/ \___/ \___/

  dojo — a patient coding tutor for your terminal  v0.1.0
`

func main() {
	// A .env next to the binary is the easiest place for API keys.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("dojo", flag.ExitOnError)
	modeFlag := fs.String("mode", "", "tutoring mode (python_basic, py5, sklearn, pandas, web_basic, aframe, threejs)")
	modelFlag := fs.String("model", "", "model name, e.g. qwen2.5-coder:7b")
	providerFlag := fs.String("provider", "", "model backend: ollama, lmstudio, openai, anthropic")
	rootFlag := fs.String("root", "", "directory the tutor may read and write (default: current directory)")
	budgetFlag := fs.Int("budget", 0, "backend calls allowed per session (default: 50)")
	researchFlag := fs.Bool("research", false, "also record rejected model output for later study")
	resumeFlag := fs.String("resume", "", "resume a saved session by ID")
	listFlag := fs.Bool("list-sessions", false, "list saved sessions and exit")
	exportFlag := fs.String("export-session", "", "write a session's records as JSONL to stdout and exit")
	_ = fs.Parse(os.Args[1:])

	log := newLogger()
	ctx := context.Background()

	manager, err := config.NewManager()
	if err != nil {
		fatal(err)
	}

	if *listFlag {
		if err := listSessions(ctx, manager); err != nil {
			fatal(err)
		}
		return
	}
	if *exportFlag != "" {
		if err := exportSession(ctx, manager, *exportFlag); err != nil {
			fatal(err)
		}
		return
	}

	fileCfg, err := manager.Load()
	if err != nil {
		log.Warn().Err(err).Str("path", manager.Path()).Msg("config file unreadable, using defaults")
	}
	cfg := config.Merge(config.Flags{
		Provider: *providerFlag,
		Model:    *modelFlag,
		Mode:     *modeFlag,
		Root:     *rootFlag,
		Budget:   *budgetFlag,
		Research: *researchFlag,
	}, fileCfg)

	if err := run(ctx, cfg, *resumeFlag, manager, log); err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, resumeID string, manager *config.Manager, log zerolog.Logger) error {
	// An interrupt cancels the in-flight turn; the loop then unwinds
	// through the save path, which runs on its own context.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Print(banner)

	rt, err := buildRuntime(ctx, cfg, resumeID, manager, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	return runREPL(ctx, rt)
}

func newLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if v := os.Getenv("DOJO_LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func openStore(ctx context.Context, manager *config.Manager) (*session.Store, error) {
	return session.Open(ctx, filepath.Join(manager.Dir(), "sessions.db"))
}

func listSessions(ctx context.Context, manager *config.Manager) error {
	store, err := openStore(ctx, manager)
	if err != nil {
		return err
	}
	defer store.Close()

	metas, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}
	for _, m := range metas {
		title := m.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("  %s  %-12s  %-22s  %2d turns  %s  %s\n",
			m.ID, m.Mode, m.Model, m.Turns, m.UpdatedAt.Format("2006-01-02 15:04"), title)
	}
	return nil
}

func exportSession(ctx context.Context, manager *config.Manager, id string) error {
	store, err := openStore(ctx, manager)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.ExportJSONL(ctx, id, os.Stdout)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
