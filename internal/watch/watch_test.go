package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphi011/cfmt/internal/artifact"
	"github.com/raphi011/cfmt/internal/cmd"
	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/format"
	"github.com/raphi011/cfmt/internal/lock"
)

// upperRunner upper-cases the file named by the last argument.
type upperRunner struct {
	calls atomic.Int32
}

func (r *upperRunner) Run(_ context.Context, spec cmd.Spec) (cmd.Result, error) {
	r.calls.Add(1)
	path := spec.Argv[len(spec.Argv)-1]
	data, err := os.ReadFile(path)
	if err != nil {
		return cmd.Result{}, err
	}
	return cmd.Result{}, os.WriteFile(path, bytes.ToUpper(data), 0o600)
}

// blockingRunner behaves like upperRunner but holds its first call until
// release is closed.
type blockingRunner struct {
	upperRunner
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context, spec cmd.Spec) (cmd.Result, error) {
	r.once.Do(func() {
		close(r.started)
		<-r.release
	})
	return r.upperRunner.Run(ctx, spec)
}

type collector struct {
	mu      sync.Mutex
	results []Result
	ch      chan Result
}

func newCollector() *collector {
	return &collector{ch: make(chan Result, 16)}
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
	c.ch <- r
}

func (c *collector) wait(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-c.ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a format run")
		return Result{}
	}
}

func startWatcher(t *testing.T, root string, runner cmd.Runner, opts Options) {
	t.Helper()

	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	cfg.Languages["text"] = config.Language{
		Name:       "text",
		Extensions: []string{".txt"},
		Formatter:  []string{"upper", "$1"},
	}

	f := format.New(runner, artifact.NewDirStore(cfg.TempDir))
	if opts.StateDir == "" {
		opts.StateDir = t.TempDir()
	}
	if opts.Debounce == 0 {
		opts.Debounce = 20 * time.Millisecond
	}
	w, err := New(f, config.NewResolver(&cfg), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Add(root); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
}

func TestWatcher_FormatsOnSave(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := &upperRunner{}
	c := newCollector()
	startWatcher(t, root, runner, Options{OnResult: c.add})

	path := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := c.wait(t)
	if r.Err != nil {
		t.Fatalf("result error = %v", r.Err)
	}
	if !r.Changed || r.Language != "text" {
		t.Errorf("result = %+v, want changed text", r)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "HELLO\n" {
		t.Errorf("file = %q, want %q", got, "HELLO\n")
	}

	// Our own rewrite must not run the formatter again.
	time.Sleep(200 * time.Millisecond)
	if n := runner.calls.Load(); n != 1 {
		t.Errorf("formatter ran %d times, want 1", n)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644 kept", info.Mode().Perm())
	}
}

func TestWatcher_Debounces(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := &upperRunner{}
	c := newCollector()
	startWatcher(t, root, runner, Options{Debounce: 150 * time.Millisecond, OnResult: c.add})

	path := filepath.Join(root, "burst.txt")
	for _, s := range []string{"a", "ab", "abc"} {
		if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	c.wait(t)
	time.Sleep(300 * time.Millisecond)
	if n := runner.calls.Load(); n != 1 {
		t.Errorf("formatter ran %d times for one burst, want 1", n)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "ABC" {
		t.Errorf("file = %q, want %q", got, "ABC")
	}
}

func TestWatcher_UnknownExtensionUntouched(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := &upperRunner{}
	startWatcher(t, root, runner, Options{})

	path := filepath.Join(root, "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := runner.calls.Load(); n != 0 {
		t.Errorf("formatter ran %d times for an unconfigured file, want 0", n)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c := newCollector()
	startWatcher(t, root, &upperRunner{}, Options{OnResult: c.add})

	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(sub, "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := c.wait(t)
	if r.Path != path {
		t.Errorf("result path = %q, want %q", r.Path, path)
	}
}

func TestWatcher_Ignored(t *testing.T) {
	t.Parallel()

	w := &Watcher{opts: Options{Ignore: []string{"node_modules", "*.min.txt"}}}

	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{"node_modules", true},
		{"app.min.txt", true},
		{"app.txt", false},
		{"src", false},
	}

	for _, tt := range tests {
		if got := w.ignored(tt.name); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWatcher_SkipsIgnoredDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	vendor := filepath.Join(root, "vendor")
	if err := os.Mkdir(vendor, 0o755); err != nil {
		t.Fatal(err)
	}
	runner := &upperRunner{}
	startWatcher(t, root, runner, Options{Ignore: []string{"vendor"}})

	if err := os.WriteFile(filepath.Join(vendor, "lib.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := runner.calls.Load(); n != 0 {
		t.Errorf("formatter ran %d times inside an ignored dir, want 0", n)
	}
}

func TestWatcher_SaveDuringFormatNotOverwritten(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := newBlockingRunner()
	c := newCollector()
	startWatcher(t, root, runner, Options{OnResult: c.add})

	path := filepath.Join(root, "draft.txt")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-runner.started:
	case <-time.After(5 * time.Second):
		t.Fatal("formatter never started")
	}
	if err := os.WriteFile(path, []byte("newer edit\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	close(runner.release)

	for r := c.wait(t); !r.Changed; r = c.wait(t) {
		if r.Err != nil {
			t.Fatalf("result error = %v", r.Err)
		}
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "NEWER EDIT\n" {
		t.Errorf("file = %q, want %q", got, "NEWER EDIT\n")
	}
	if n := runner.calls.Load(); n < 2 {
		t.Errorf("formatter ran %d times, want the later save formatted too", n)
	}
}

func TestWatcher_WaitsForOtherProcessLock(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	stateDir := t.TempDir()
	runner := &upperRunner{}
	c := newCollector()
	startWatcher(t, root, runner, Options{StateDir: stateDir, OnResult: c.add})

	path := filepath.Join(root, "shared.txt")
	held, err := lock.ForPath(stateDir, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := held.Lock(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := runner.calls.Load(); n != 0 {
		t.Errorf("formatter ran %d times while the file was locked, want 0", n)
	}
	if got, _ := os.ReadFile(path); string(got) != "mine\n" {
		t.Errorf("file = %q while locked, want it untouched", got)
	}

	if err := held.Unlock(); err != nil {
		t.Fatal(err)
	}
	r := c.wait(t)
	if r.Err != nil || !r.Changed {
		t.Fatalf("result = %+v, want changed after unlock", r)
	}
	if got, _ := os.ReadFile(path); string(got) != "MINE\n" {
		t.Errorf("file = %q, want %q", got, "MINE\n")
	}
}

func TestWatcher_LocalTempDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	localTmp := t.TempDir()
	local := "temp_dir = " + strconv.Quote(localTmp) + "\n"
	if err := os.WriteFile(filepath.Join(root, config.LocalConfigFileName), []byte(local), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &dirRunner{}
	c := newCollector()
	startWatcher(t, root, runner, Options{OnResult: c.add})

	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := c.wait(t); r.Err != nil {
		t.Fatalf("result error = %v", r.Err)
	}
	if got := runner.dir(); got != localTmp {
		t.Errorf("artifact dir = %q, want local temp_dir %q", got, localTmp)
	}
}

// dirRunner records the directory of the artifact it was given.
type dirRunner struct {
	upperRunner
	mu      sync.Mutex
	lastDir string
}

func (r *dirRunner) Run(ctx context.Context, spec cmd.Spec) (cmd.Result, error) {
	r.mu.Lock()
	r.lastDir = filepath.Dir(spec.Argv[len(spec.Argv)-1])
	r.mu.Unlock()
	return r.upperRunner.Run(ctx, spec)
}

func (r *dirRunner) dir() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDir
}
