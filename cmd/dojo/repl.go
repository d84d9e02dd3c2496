package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/dojo/internal/challenges"
	"github.com/ChamsBouzaiene/dojo/internal/curriculum"
	"github.com/ChamsBouzaiene/dojo/internal/engine"
	"github.com/ChamsBouzaiene/dojo/internal/prompts"
	"github.com/ChamsBouzaiene/dojo/internal/session"
)

const replHelp = `
Commands:
  /help              Show this help
  /metrics           Show session counters
  /progress          Show the concept checklist for this mode
  /challenge [query] Get a practice challenge, optionally by keyword
  /reset             Clear the conversation; files and progress stay
  /save              Save progress and refresh the session summary
  /exit              Save and leave

Anything else goes to the tutor.
`

// runREPL reads lines until /exit, EOF or an interrupt, then runs the
// save path. Slash commands are handled locally; everything else is a
// tutoring turn.
func runREPL(ctx context.Context, rt *runtime) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		if ctx.Err() != nil {
			fmt.Println("Interrupted.")
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if exit := rt.command(ctx, line); exit {
				break
			}
			continue
		}

		rt.turn(ctx, line)
		if ctx.Err() != nil {
			fmt.Println("Interrupted.")
			break
		}
	}
	return rt.shutdown()
}

// turn runs one tutoring exchange and folds the reply into the
// student's progress.
func (rt *runtime) turn(ctx context.Context, input string) {
	turnsBefore := rt.agent.State().Turn
	reply, err := rt.agent.Run(ctx, input)

	switch {
	case errors.Is(err, engine.ErrBudgetExhausted):
		fmt.Printf("\n%s\n\n", prompts.BudgetNotice())
	case errors.Is(err, context.Canceled):
	case err != nil:
		var backendErr *engine.BackendError
		if errors.As(err, &backendErr) {
			fmt.Printf("\nThe %s backend did not answer: %v\nCheck that it is running, then send your message again.\n\n",
				rt.cfg.Provider, backendErr.Unwrap())
			return
		}
		rt.log.Error().Err(err).Msg("turn failed")
		fmt.Printf("\nSomething went wrong: %v\n\n", err)
	default:
		fmt.Printf("\ntutor> %s\n\n", reply)
		// A refused request never becomes a turn; nothing was taught.
		if rt.agent.State().Turn > turnsBefore {
			rt.recordProgress(reply)
		}
	}
}

// recordProgress extracts taught concepts from the reply and advances
// the curriculum. A level change only affects future sessions; the
// running system prompt stays as composed.
func (rt *runtime) recordProgress(reply string) {
	concepts := curriculum.Extract(reply, rt.profile.ID)
	if len(concepts) == 0 {
		return
	}
	rt.progress.Record(concepts)
	rt.collector.AddConcepts(len(concepts))

	if level, changed := rt.progress.UpdateLevel(); changed {
		fmt.Printf("Level up! You are working at %s level now; new sessions will teach accordingly.\n\n", level)
	}
}

func (rt *runtime) command(ctx context.Context, line string) (exit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/help":
		fmt.Print(replHelp, "\n")
	case "/exit":
		return true
	case "/reset":
		rt.agent.Reset()
		fmt.Println("Conversation cleared; iteration budget restored.")
	case "/metrics":
		fmt.Println(rt.collector.Snapshot().Display())
		fmt.Printf("Elapsed    : %.1fs\n", time.Since(rt.started).Seconds())
	case "/progress":
		fmt.Println(rt.progress.Display())
	case "/challenge":
		rt.challenge(strings.TrimSpace(arg))
	case "/save":
		rt.save(ctx)
	default:
		fmt.Printf("Unknown command %s. Type /help for the list.\n", cmd)
	}
	return false
}

// challenge prints a practice task: a random level-appropriate one by
// default, the best keyword match when a query is given.
func (rt *runtime) challenge(query string) {
	if query == "" {
		ch, ok := challenges.Pick(rt.profile.ID, rt.progress.Level())
		if !ok {
			fmt.Println("No challenges for this mode yet.")
			return
		}
		fmt.Println(challenges.Format(ch))
		return
	}

	if rt.index == nil {
		fmt.Println("Challenge search is unavailable in this session.")
		return
	}
	hits, err := rt.index.Search(query, 5)
	if err != nil {
		rt.log.Warn().Err(err).Str("query", query).Msg("challenge search failed")
		fmt.Println("Challenge search failed; try /challenge without a query.")
		return
	}
	if len(hits) == 0 {
		fmt.Printf("No challenge matches %q.\n", query)
		return
	}
	fmt.Println(challenges.Format(hits[0]))
	if len(hits) > 1 {
		fmt.Println("Other matches:")
		for _, h := range hits[1:] {
			fmt.Printf("  %-8s %s (%s, %s)\n", h.ID, h.Title, h.Mode, h.Level)
		}
	}
}

// save persists progress and refreshes the session header. Records are
// already durable; this is for the human-facing bits.
func (rt *runtime) save(ctx context.Context) {
	if err := rt.progress.Save(rt.progressDir); err != nil {
		fmt.Printf("Could not save progress: %v\n", err)
	}
	rt.summarize(ctx)
	fmt.Printf("Session saved: %s\n", rt.sess.ID)
}

// shutdown is the end-of-session path: progress to disk, final metrics
// into the session log, title and recap refreshed, produced files
// listed. It uses its own context so an interrupt cannot cancel the
// save it triggered.
func (rt *runtime) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rt.progress.Save(rt.progressDir); err != nil {
		rt.log.Warn().Err(err).Msg("saving progress failed")
	}
	if err := rt.store.Append(ctx, rt.sess.ID, session.KindMetricsFinal, rt.collector.Snapshot()); err != nil {
		rt.log.Warn().Err(err).Msg("writing final metrics failed")
	}
	rt.summarize(ctx)

	if rt.tracker != nil {
		if touched := rt.tracker.Touched(); len(touched) > 0 {
			fmt.Println("Files produced this session:")
			for _, p := range touched {
				fmt.Printf("  %s\n", p)
			}
		}
	}
	fmt.Printf("Session saved: %s\n", rt.sess.ID)
	fmt.Printf("Resume it with: dojo -resume %s\n", rt.sess.ID)
	return nil
}

// summarize fills the session title once and refreshes the recap.
// Both are best-effort; an unreachable backend just leaves them empty.
func (rt *runtime) summarize(ctx context.Context) {
	if rt.agent.State().Turn == 0 {
		return
	}
	transcript, err := rt.store.Transcript(ctx, rt.sess.ID)
	if err != nil || len(transcript) == 0 {
		return
	}
	sum := session.NewSummarizer(rt.llm, rt.sess.Model)

	if rt.sess.Title == "" {
		if title, err := sum.Title(ctx, transcript); err == nil && title != "" {
			if err := rt.store.SetTitle(ctx, rt.sess.ID, title); err == nil {
				rt.sess.Title = title
			}
		}
	}
	if recap, err := sum.Recap(ctx, transcript); err == nil && recap != "" {
		if err := rt.store.SetRecap(ctx, rt.sess.ID, recap); err == nil {
			rt.sess.Recap = recap
		}
	}
}
