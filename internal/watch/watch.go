// Package watch formats files when they are saved.
//
// A Watcher follows directory trees with fsnotify. Bursts of events for
// one file are debounced into a single format run, and the rewrite a run
// performs is recognised by its content hash so it does not trigger
// another run.
package watch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raphi011/cfmt/internal/buffer"
	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/format"
	"github.com/raphi011/cfmt/internal/lock"
	"github.com/raphi011/cfmt/internal/log"
	"github.com/raphi011/cfmt/internal/storage"
)

// Result describes one handled file.
type Result struct {
	Path     string
	Language string
	Changed  bool
	Err      error
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration // 0 means config.DefaultDebounce
	Ignore   []string      // base-name globs for files and directories

	// StateDir holds the per-file locks shared with other cfmt
	// processes. Empty means storage.StateDir().
	StateDir string

	// OnResult, if set, is called after every format run.
	OnResult func(Result)
}

// Watcher formats files under its roots as they change.
type Watcher struct {
	formatter *format.Formatter
	resolver  *config.Resolver
	opts      Options

	fsw   *fsnotify.Watcher
	ready chan string
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	timers  map[string]*time.Timer
	written map[string][sha256.Size]byte // last content we wrote, per path
}

// New creates a Watcher. Call Add for each root, then Run.
func New(f *format.Formatter, r *config.Resolver, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultDebounce
	}
	if opts.StateDir == "" {
		dir, err := storage.StateDir()
		if err != nil {
			return nil, err
		}
		opts.StateDir = dir
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		formatter: f,
		resolver:  r,
		opts:      opts,
		fsw:       fsw,
		ready:     make(chan string),
		done:      make(chan struct{}),
		timers:    make(map[string]*time.Timer),
		written:   make(map[string][sha256.Size]byte),
	}, nil
}

// Add watches root and every directory below it that is not ignored.
func (w *Watcher) Add(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished or unreadable subdirectories are skipped.
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run handles events until ctx is cancelled. It waits for running
// format operations before returning.
func (w *Watcher) Run(ctx context.Context) error {
	l := log.FromContext(ctx)
	defer w.fsw.Close()
	defer w.wg.Wait()
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			l.Warnf("watch: %v", err)

		case path := <-w.ready:
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.process(ctx, path)
			}()
		}
	}
}

func (w *Watcher) stop() {
	close(w.done)
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// ignored reports whether a file or directory with this base name is skipped.
func (w *Watcher) ignored(name string) bool {
	if name == ".git" {
		return true
	}
	for _, pattern := range w.opts.Ignore {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func isLocalConfig(name string) bool {
	return name == config.LocalConfigFileName || name == config.LocalYAMLConfigFileName
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	name := filepath.Base(ev.Name)

	if isLocalConfig(name) {
		log.FromContext(ctx).Debug("local config changed", "path", ev.Name)
		w.resolver.Invalidate()
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	if w.ignored(name) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			w.addCreated(ctx, ev.Name)
		}
		return
	}
	// Hidden files include our own atomic-write temp files.
	if strings.HasPrefix(name, ".") || !info.Mode().IsRegular() {
		return
	}

	w.schedule(ev.Name)
}

// addCreated watches a new directory and schedules files that were
// written into it before the watch was in place.
func (w *Watcher) addCreated(ctx context.Context, dir string) {
	if err := w.Add(dir); err != nil {
		log.FromContext(ctx).Warnf("watch %s: %v", dir, err)
		return
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.ignored(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if name := d.Name(); !strings.HasPrefix(name, ".") && !w.ignored(name) && d.Type().IsRegular() {
			w.schedule(path)
		}
		return nil
	})
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.opts.Debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

// process formats one file and writes it back if it changed.
// A file that is busy, locked by another cfmt, or saved again while its
// formatter ran is rescheduled rather than overwritten.
func (w *Watcher) process(ctx context.Context, path string) {
	l := log.FromContext(ctx)

	cfg, err := w.resolver.ForFile(path)
	if err != nil {
		l.Warnf("%s: %v", path, err)
		w.report(Result{Path: path, Err: err})
		return
	}
	lang, ok := cfg.LanguageForPath(path)
	if !ok || !lang.HasFormatter() {
		return
	}

	fl, err := lock.ForPath(w.opts.StateDir, path)
	if err != nil {
		l.Warnf("lock %s: %v", path, err)
		w.report(Result{Path: path, Language: lang.Name, Err: err})
		return
	}
	acquired, err := fl.TryLock()
	if err != nil {
		l.Warnf("lock %s: %v", path, err)
		w.report(Result{Path: path, Language: lang.Name, Err: err})
		return
	}
	if !acquired {
		l.Debug("locked by another cfmt", "path", path)
		w.schedule(path)
		return
	}
	defer fl.Unlock()

	snap, err := buffer.Load(path)
	if err != nil {
		// Deleted or replaced between the event and now.
		l.Debug("skip", "path", path, "err", err)
		return
	}

	sum := sha256.Sum256(snap.Text)
	w.mu.Lock()
	last, seen := w.written[path]
	w.mu.Unlock()
	if seen && last == sum {
		l.Debug("skip own write", "path", path)
		return
	}

	res, err := w.formatter.Format(ctx, format.Request{
		Text:     snap.Text,
		Language: lang,
		Path:     path,
		Timeout:  cfg.TimeoutFor(lang),
		TempDir:  cfg.TempDir,
	})
	if errors.Is(err, format.ErrBusy) {
		l.Debug("busy", "path", path)
		w.schedule(path)
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			l.Warnf("%s: %v", path, err)
		}
		w.report(Result{Path: path, Language: lang.Name, Err: err})
		return
	}

	if res.Changed {
		if !w.unchangedSince(snap) {
			l.Debug("saved during format, retrying", "path", path)
			w.schedule(path)
			return
		}

		w.mu.Lock()
		w.written[path] = sha256.Sum256(res.Text)
		w.mu.Unlock()

		if err := snap.Replace(res.Text); err != nil {
			l.Warnf("write %s: %v", path, err)
			w.report(Result{Path: path, Language: lang.Name, Err: err})
			return
		}
		l.Printf("formatted %s (%s)\n", path, res.Duration.Round(time.Millisecond))
	}

	w.report(Result{Path: path, Language: lang.Name, Changed: res.Changed})
}

// unchangedSince reports whether the file still holds snap's text.
func (w *Watcher) unchangedSince(snap buffer.Snapshot) bool {
	current, err := os.ReadFile(snap.Path)
	return err == nil && bytes.Equal(current, snap.Text)
}

func (w *Watcher) report(r Result) {
	if w.opts.OnResult != nil {
		w.opts.OnResult(r)
	}
}
