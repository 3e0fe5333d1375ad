// Package watch re-validates graph documents as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"

	"github.com/Benny93/graphclip/internal/document"
	"github.com/Benny93/graphclip/internal/graph"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 300 * time.Millisecond

// ignoredDirs are never descended into.
var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// Result is the outcome of checking one document.
type Result struct {
	Path       string
	Violations []graph.Violation
	// Err is set when the document could not be loaded.
	Err error
	// Removed is set when the document no longer exists.
	Removed bool
}

// OK reports whether the document loaded without violations.
func (r Result) OK() bool {
	return r.Err == nil && !r.Removed && len(r.Violations) == 0
}

// Handler receives check results.
type Handler func(Result)

// Watcher checks graph documents below a root directory whenever they change.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  Handler
	matcher  gitignore.Matcher
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch of changes is checked.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for root. The .gitignore at root, if any, excludes
// matching files and directories.
func New(root string, handler Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	w := &Watcher{
		root:     abs,
		debounce: DefaultDebounce,
		handler:  handler,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.matcher, err = loadGitignoreMatcher(abs)
	if err != nil {
		w.logger.Warn("ignoring unreadable .gitignore", zap.Error(err))
	}
	return w, nil
}

// Root returns the absolute directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Check loads the document at path and validates it.
func Check(path string) Result {
	res := Result{Path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		res.Removed = true
		return res
	}
	g, err := document.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Violations = g.Validate()
	return res
}

// CheckAll checks every document below the root, in path order.
func (w *Watcher) CheckAll(ctx context.Context) ([]Result, error) {
	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && w.shouldSkipDir(d.Name(), path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.shouldWatchFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", w.root, err)
	}

	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		results = append(results, Check(p))
	}
	return results, nil
}

// Run watches the root until ctx is cancelled, handing the result of every
// changed document to the handler. Changes are batched until no event has
// arrived for the debounce interval.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.root); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}
	w.logger.Info("watching for changes", zap.String("root", w.root), zap.Duration("debounce", w.debounce))

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(w.debounce)
	batchTimer.Stop()
	defer batchTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldSkipDir(info.Name(), event.Name) {
						if err := w.addTree(watcher, event.Name); err != nil {
							w.logger.Warn("watching new directory", zap.String("path", event.Name), zap.Error(err))
						}
					}
					continue
				}
			}
			if !w.shouldWatchFile(event.Name) {
				continue
			}
			changed[event.Name] = true
			batchTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))

		case <-batchTimer.C:
			w.process(changed)
			changed = make(map[string]bool)
		}
	}
}

func (w *Watcher) process(changed map[string]bool) {
	paths := make([]string, 0, len(changed))
	for p := range changed {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	w.logger.Debug("checking changed documents", zap.Int("count", len(paths)))
	for _, p := range paths {
		if w.handler != nil {
			w.handler(Check(p))
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.shouldSkipDir(d.Name(), path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// shouldWatchFile checks if a file is a graph document that is not ignored.
func (w *Watcher) shouldWatchFile(path string) bool {
	if !document.IsDocument(path) {
		return false
	}
	return !w.ignored(path, false)
}

// shouldSkipDir checks if a directory should not be descended into.
func (w *Watcher) shouldSkipDir(name, path string) bool {
	if ignoredDirs[name] {
		return true
	}
	return w.ignored(path, true)
}

func (w *Watcher) ignored(path string, isDir bool) bool {
	if w.matcher == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return w.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

// loadGitignoreMatcher loads a gitignore matcher from the root directory.
// A missing .gitignore yields a nil matcher.
func loadGitignoreMatcher(root string) (gitignore.Matcher, error) {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return gitignore.NewMatcher(patterns), nil
}
