package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/dojo/internal/challenges"
	"github.com/ChamsBouzaiene/dojo/internal/config"
	"github.com/ChamsBouzaiene/dojo/internal/curriculum"
	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/metrics"
	"github.com/ChamsBouzaiene/dojo/internal/policy"
	"github.com/ChamsBouzaiene/dojo/internal/prompts"
	"github.com/ChamsBouzaiene/dojo/internal/providers"
	"github.com/ChamsBouzaiene/dojo/internal/sandbox"
	"github.com/ChamsBouzaiene/dojo/internal/security"
	"github.com/ChamsBouzaiene/dojo/internal/session"
	"github.com/ChamsBouzaiene/dojo/internal/tools"
	"github.com/ChamsBouzaiene/dojo/internal/workspace"
)

// runtime bundles everything one tutoring session needs. Mode, model
// and provider are fixed here and never change while the loop runs.
type runtime struct {
	cfg         config.Config
	log         zerolog.Logger
	profile     policy.ModeProfile
	agent       *engine.Agent
	llm         engine.LLMClient
	store       *session.Store
	sess        *session.Session
	collector   *metrics.Collector
	progress    *curriculum.Tracker
	progressDir string
	tracker     *workspace.Tracker
	index       *challenges.Index // nil when the search index failed to build
	started     time.Time
	resumed     int // messages reseeded from a previous session
}

func (rt *runtime) Close() {
	if rt.tracker != nil {
		_ = rt.tracker.Stop()
	}
	if rt.index != nil {
		_ = rt.index.Close()
	}
	if rt.store != nil {
		_ = rt.store.Close()
	}
}

// buildRuntime resolves the working root, mode and model, then wires
// the full stack: provider client, tool registry behind the gate and
// sandbox, progress tracker, session store and the agent itself.
func buildRuntime(ctx context.Context, cfg config.Config, resumeID string, manager *config.Manager, log zerolog.Logger) (*runtime, error) {
	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, manager)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:         cfg,
		log:         log,
		store:       store,
		collector:   metrics.NewCollector(),
		progressDir: filepath.Join(manager.Dir(), "progress"),
		started:     time.Now(),
	}

	var transcript []engine.ChatMessage
	if resumeID != "" {
		sess, err := store.Get(ctx, resumeID)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("cannot resume session %s: %w", resumeID, err)
		}
		// A session is one mode and one model for its whole life,
		// including after a resume. Conflicting flags lose.
		if cfg.Mode != "" && cfg.Mode != sess.Mode {
			log.Warn().Str("flag", cfg.Mode).Str("session", sess.Mode).Msg("mode is fixed per session, keeping the saved one")
		}
		cfg.Mode = sess.Mode
		cfg.Model = sess.Model
		cfg.Provider = sess.Provider
		cfg.Research = cfg.Research || sess.Research
		rt.cfg = cfg
		rt.sess = sess

		transcript, err = store.Transcript(ctx, resumeID)
		if err != nil {
			store.Close()
			return nil, err
		}
		rt.resumed = len(transcript)
	}

	in := bufio.NewReader(os.Stdin)
	if cfg.Mode == "" {
		cfg.Mode = pickMode(root, in)
	}
	profile, err := policy.Resolve(cfg.Mode)
	if err != nil {
		store.Close()
		return nil, err
	}
	rt.profile = profile

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = providers.DefaultBaseURL(cfg.Provider)
	}
	if cfg.Model == "" {
		model, err := pickModel(ctx, cfg.Provider, baseURL, in)
		if err != nil {
			store.Close()
			return nil, err
		}
		cfg.Model = model
	}
	rt.cfg = cfg

	llm, err := providers.NewFromConfig(cfg.Provider, cfg.BaseURL)
	if err != nil {
		store.Close()
		return nil, err
	}
	rt.llm = llm
	warnLocalBackend(ctx, cfg.Provider, baseURL, cfg.Model)

	gate, err := security.NewGate(root, profile)
	if err != nil {
		store.Close()
		return nil, err
	}
	walker, err := workspace.NewWalker(root)
	if err != nil {
		store.Close()
		return nil, err
	}
	runner := sandbox.NewRunner(sandbox.FromEnv(log), log)
	registry := tools.New(profile, gate, walker, runner)

	rt.progress = curriculum.LoadTracker(rt.progressDir, cfg.Mode)
	education := curriculum.EducationBlock(cfg.Mode, rt.progress.Level(), rt.progress.MasteredList())

	if rt.sess == nil {
		sess := &session.Session{
			Mode:     cfg.Mode,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			RootPath: root,
			Research: cfg.Research,
		}
		if err := store.Create(ctx, sess); err != nil {
			store.Close()
			return nil, err
		}
		rt.sess = sess
	}

	agentCfg := engine.DefaultAgentConfig()
	agentCfg.Model = cfg.Model
	agentCfg.SystemPrompt = prompts.System(profile, education)
	if cfg.Budget > 0 {
		agentCfg.Budget = cfg.Budget
	}

	recorder := session.NewRecorder(store, rt.sess.ID, cfg.Research, log)
	rt.agent = engine.New(llm, registry, profile, tools.NewWorkDir(root), agentCfg,
		recorder, metrics.NewHook(rt.collector), engine.LoggerHook{L: log})
	if len(transcript) > 0 {
		rt.agent.Seed(transcript)
	}

	tracker, err := workspace.NewTracker(root, func(ev workspace.Event) {
		payload := session.ArtifactEventPayload{Path: ev.Path, Op: string(ev.Op), Size: ev.Size}
		if err := store.Append(context.Background(), rt.sess.ID, session.KindArtifactEvent, payload); err != nil {
			log.Warn().Err(err).Str("path", ev.Path).Msg("recording artifact event failed")
		}
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("workspace tracking disabled")
	} else if err := tracker.Start(); err != nil {
		log.Warn().Err(err).Msg("workspace tracking disabled")
	} else {
		rt.tracker = tracker
	}

	index, err := challenges.NewIndex()
	if err != nil {
		log.Warn().Err(err).Msg("challenge search disabled")
	} else {
		rt.index = index
	}

	printSessionInfo(rt, root)
	return rt, nil
}

func resolveRoot(root string) (string, error) {
	if root == "" || root == "." {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working root: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("working root is not a directory: %s", abs)
	}
	return abs, nil
}

// warnLocalBackend pings a local backend so a dead daemon or missing
// model shows up before the first turn instead of inside it.
func warnLocalBackend(ctx context.Context, provider, baseURL, model string) {
	if provider != providers.ProviderOllama && provider != providers.ProviderLMStudio {
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	names, err := providers.ListLocalModels(pingCtx, baseURL)
	if err != nil {
		fmt.Printf("\n  WARNING: cannot reach %s at %s.\n  Start it and try again if the first turn fails.\n", provider, baseURL)
		return
	}
	for _, n := range names {
		if n == model {
			return
		}
	}
	fmt.Printf("\n  WARNING: model %q is not loaded on %s.\n", model, provider)
	if provider == providers.ProviderOllama {
		fmt.Printf("  Run: ollama pull %s\n", model)
	}
}

func printSessionInfo(rt *runtime, root string) {
	research := "OFF"
	if rt.cfg.Research {
		research = "ON"
	}
	fmt.Printf("  Provider : %s\n", rt.cfg.Provider)
	fmt.Printf("  Model    : %s\n", rt.cfg.Model)
	fmt.Printf("  Mode     : %s\n", rt.profile.ID)
	fmt.Printf("  Level    : %s\n", rt.progress.Level())
	fmt.Printf("  Research : %s\n", research)
	fmt.Printf("  Root     : %s\n", root)
	if rt.resumed > 0 {
		fmt.Printf("  Session  : %s (resumed, %d messages)\n", rt.sess.ID, rt.resumed)
	} else {
		fmt.Printf("  Session  : %s\n", rt.sess.ID)
	}
	if rt.resumed > 0 && rt.sess.Recap != "" {
		fmt.Printf("\n  Last time: %s\n", rt.sess.Recap)
	}
	fmt.Println("\n  Type /help for commands. Start coding!")
	fmt.Println()
}
