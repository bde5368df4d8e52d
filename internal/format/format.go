package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/raphi011/cfmt/internal/artifact"
	"github.com/raphi011/cfmt/internal/buffer"
	"github.com/raphi011/cfmt/internal/cmd"
	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/lock"
	"github.com/raphi011/cfmt/internal/log"
	"github.com/raphi011/cfmt/internal/template"
)

// Environment variables passed to every formatter process.
const (
	EnvFile     = "CFMT_FILE"     // path of the file being formatted, if known
	EnvLanguage = "CFMT_LANGUAGE" // language name from config
)

// Request is one buffer to format.
type Request struct {
	Text     []byte
	Language config.Language
	Path     string        // file the buffer belongs to; optional
	Cursor   buffer.Cursor // optional, mapped onto the result
	Timeout  time.Duration // 0 means no limit beyond ctx

	// TempDir, if set, holds this run's artifact instead of the
	// Formatter's store. Callers pass per-project overrides here.
	TempDir string
}

// Result is the outcome of a run. On failure Text is the original buffer.
type Result struct {
	Text     []byte
	Changed  bool
	Skipped  bool // no formatter configured, nothing ran
	Cursor   buffer.Cursor
	Argv     []string // resolved command, nil if nothing ran
	Duration time.Duration
}

// Formatter runs formatter commands. The zero value is not usable; use New.
type Formatter struct {
	runner cmd.Runner
	store  artifact.Store
	guard  lock.Inflight
}

// New returns a Formatter using runner to spawn processes and store for
// temporary files.
func New(runner cmd.Runner, store artifact.Store) *Formatter {
	return &Formatter{runner: runner, store: store}
}

// Format runs req through its language's formatter.
func (f *Formatter) Format(ctx context.Context, req Request) (Result, error) {
	unchanged := Result{Text: req.Text, Cursor: req.Cursor}

	lang := req.Language
	if !lang.HasFormatter() {
		unchanged.Skipped = true
		return unchanged, nil
	}

	tpl, err := template.Parse(lang.Formatter)
	if err != nil {
		return unchanged, &ConfigError{Language: lang.Name, Err: err}
	}
	mode := lang.EffectiveMode()
	if mode == config.ModeInPlace && !tpl.HasPlaceholder() {
		return unchanged, &ConfigError{
			Language: lang.Name,
			Err:      errors.New("in-place mode needs a $1 placeholder for the file to rewrite"),
		}
	}

	if req.Path != "" {
		release, ok := f.guard.TryAcquire(guardKey(req.Path))
		if !ok {
			return unchanged, ErrBusy
		}
		defer release()
	}

	l := log.FromContext(ctx)
	start := time.Now()

	spec := cmd.Spec{Env: []string{EnvLanguage + "=" + lang.Name}}
	if req.Path != "" {
		spec.Dir = filepath.Dir(req.Path)
		spec.Env = append(spec.Env, EnvFile+"="+req.Path)
	}

	store := f.store
	if req.TempDir != "" {
		store = artifact.NewDirStore(req.TempDir)
	}

	var art *artifact.Artifact
	if tpl.HasPlaceholder() {
		a, err := store.Create(req.Text, artifactExt(tpl, req))
		if err != nil {
			return unchanged, err
		}
		art = &a
		defer func() {
			if err := store.Remove(a); err != nil {
				l.Warnf("%v", err)
			}
		}()
		spec.Argv = tpl.Resolve(strings.TrimSuffix(a.Path, tpl.Extension()))
	} else {
		spec.Argv = tpl.Tokens()
		spec.Stdin = req.Text
	}
	unchanged.Argv = spec.Argv

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	res, err := f.runner.Run(runCtx, spec)
	if err != nil {
		return unchanged, runError(ctx, spec.Argv, req.Timeout, res, err)
	}

	var out []byte
	switch {
	case mode == config.ModeStdout:
		out = res.Stdout
		// Emptying a whitespace-only buffer is a legitimate result.
		if len(out) == 0 && len(bytes.TrimSpace(req.Text)) > 0 {
			return unchanged, &CommandError{
				Argv:     spec.Argv,
				Err:      errors.New("exited 0 but printed nothing; is mode = \"stdout\" right for this tool?"),
				Stderr:   strings.TrimSpace(string(res.Stderr)),
				ExitCode: 0,
			}
		}
	default:
		out, err = store.Read(*art)
		if err != nil {
			return unchanged, err
		}
	}

	result := Result{
		Text:     out,
		Changed:  !bytes.Equal(out, req.Text),
		Cursor:   buffer.Follow(out, req.Cursor),
		Argv:     spec.Argv,
		Duration: time.Since(start),
	}
	l.Debug("formatted", "lang", lang.Name, "path", req.Path, "changed", result.Changed, "took", result.Duration)
	return result, nil
}

// guardKey is the in-process serialization key for path: its absolute
// form, so relative and absolute spellings of one file collide.
func guardKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// artifactExt picks the temporary file's extension: the template's suffix
// if it has one, else the buffer's own extension, else the language's first.
func artifactExt(tpl template.Template, req Request) string {
	if ext := tpl.Extension(); ext != "" {
		return ext
	}
	if ext := filepath.Ext(req.Path); ext != "" {
		return ext
	}
	for _, ext := range req.Language.Extensions {
		if strings.HasPrefix(ext, ".") {
			return ext
		}
	}
	return ""
}

// runError converts a runner failure into the package's error types.
func runError(parent context.Context, argv []string, timeout time.Duration, res cmd.Result, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return &TimeoutError{Argv: argv, Timeout: timeout}
	}
	if parent.Err() != nil {
		return parent.Err()
	}

	var exitErr *cmd.ExitError
	if errors.As(err, &exitErr) {
		ce := &CommandError{
			Argv:     argv,
			ExitCode: exitErr.ExitCode,
			Stderr:   exitErr.Stderr,
		}
		msg := exitErr.Stderr
		if msg == "" {
			// Some tools report problems on stdout.
			msg = strings.TrimSpace(string(res.Stdout))
		}
		ce.Position, _ = ParsePosition(msg)
		return ce
	}

	return &CommandError{Argv: argv, ExitCode: -1, Err: err}
}

// FormatText formats text as the named language using cfg. A language
// that is not configured, or has no formatter, returns text unchanged.
func (f *Formatter) FormatText(ctx context.Context, text []byte, language string, cfg *config.Config) ([]byte, error) {
	lang, ok := cfg.Language(language)
	if !ok {
		return text, nil
	}
	res, err := f.Format(ctx, Request{
		Text:     text,
		Language: lang,
		Timeout:  cfg.TimeoutFor(lang),
	})
	if err != nil {
		return text, fmt.Errorf("format %s: %w", language, err)
	}
	return res.Text, nil
}
