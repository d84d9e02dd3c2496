package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	gitignore "github.com/sabhiram/go-gitignore"
)

// EventOp classifies one observed file change.
type EventOp string

const (
	OpCreated  EventOp = "created"
	OpModified EventOp = "modified"
	OpRemoved  EventOp = "removed"
)

// Event is one debounced file change under the working root.
type Event struct {
	Path string // relative to the tracked root
	Op   EventOp
	Size int64
}

// Tracker watches the working root and reports which files changed,
// debounced so one saved artifact produces one event rather than a
// burst. It also keeps the set of files touched during the session for
// the exit summary. The callback runs on the tracker's goroutine.
type Tracker struct {
	root     string
	watcher  *fsnotify.Watcher
	onEvent  func(Event)
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]bool
	known   map[string]bool // files that existed at Start or were seen since
	touched map[string]bool // files created or modified this session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTracker builds a tracker over root. onEvent may be nil when only
// the touched-file set is wanted.
func NewTracker(root string, onEvent func(Event), log zerolog.Logger) (*Tracker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		root:     abs,
		watcher:  watcher,
		onEvent:  onEvent,
		debounce: 500 * time.Millisecond,
		log:      log,
		pending:  make(map[string]bool),
		known:    make(map[string]bool),
		touched:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start snapshots the current file set, adds the root and its
// non-ignored subdirectories to the watcher, and begins processing.
func (t *Tracker) Start() error {
	walker, err := NewWalker(t.root)
	if err != nil {
		return err
	}
	for entry := range walker.Files() {
		t.known[entry.Path] = true
	}

	ignore := ignoreMatcherFor(t.root)
	err = filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(t.root, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && ignore.MatchesPath(rel) {
			return filepath.SkipDir
		}
		if addErr := t.watcher.Add(path); addErr != nil {
			t.log.Warn().Err(addErr).Str("dir", path).Msg("failed to watch directory")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk working root: %w", err)
	}

	t.wg.Add(2)
	go t.eventLoop()
	go t.flushLoop()
	return nil
}

// Stop shuts the watcher down and waits for in-flight callbacks.
func (t *Tracker) Stop() error {
	t.cancel()
	t.wg.Wait()
	return t.watcher.Close()
}

// Touched returns the sorted set of files created or modified since
// Start, minus those since removed.
func (t *Tracker) Touched() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.touched))
	for p := range t.touched {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (t *Tracker) eventLoop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ctx.Done():
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			t.handleEvent(event)
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (t *Tracker) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(t.root, event.Name)
	if err != nil {
		return
	}

	// New directories need their own watch; fsnotify is not recursive.
	if event.Has(fsnotify.Create) {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if addErr := t.watcher.Add(event.Name); addErr != nil {
				t.log.Warn().Err(addErr).Str("dir", event.Name).Msg("failed to watch new directory")
			}
			return
		}
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		t.mu.Lock()
		t.pending[rel] = true
		t.mu.Unlock()
	}
}

func (t *Tracker) flushLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.flush()
		}
	}
}

// flush resolves each pending path against the filesystem once, after
// the debounce window, so a create+write burst reports a single event.
func (t *Tracker) flush() {
	t.mu.Lock()
	if len(t.pending) == 0 {
		t.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(t.pending))
	for p := range t.pending {
		paths = append(paths, p)
	}
	t.pending = make(map[string]bool)
	t.mu.Unlock()

	sort.Strings(paths)
	for _, rel := range paths {
		ev := Event{Path: rel}
		info, err := os.Stat(filepath.Join(t.root, rel))

		t.mu.Lock()
		switch {
		case err != nil:
			ev.Op = OpRemoved
			delete(t.known, rel)
			delete(t.touched, rel)
		case info.IsDir():
			t.mu.Unlock()
			continue
		default:
			ev.Size = info.Size()
			if t.known[rel] {
				ev.Op = OpModified
			} else {
				ev.Op = OpCreated
			}
			t.known[rel] = true
			t.touched[rel] = true
		}
		t.mu.Unlock()

		if t.onEvent != nil {
			t.onEvent(ev)
		}
	}
}

// ignoreMatcherFor builds the same matcher the walker uses, for
// skipping watched directories.
func ignoreMatcherFor(root string) gitignore.IgnoreParser {
	patterns := make([]string, 0, len(defaultIgnorePatterns)+8)
	patterns = append(patterns, defaultIgnorePatterns...)
	if lines, err := readGitignoreLines(filepath.Join(root, ".gitignore")); err == nil {
		patterns = append(patterns, lines...)
	}
	return gitignore.CompileIgnoreLines(patterns...)
}
