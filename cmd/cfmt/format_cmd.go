package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/cfmt/internal/artifact"
	"github.com/raphi011/cfmt/internal/buffer"
	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/format"
	"github.com/raphi011/cfmt/internal/lock"
	"github.com/raphi011/cfmt/internal/log"
	"github.com/raphi011/cfmt/internal/output"
	"github.com/raphi011/cfmt/internal/storage"
	"github.com/raphi011/cfmt/internal/template"
)

// formatOptions holds the flags of cfmt format.
type formatOptions struct {
	lang    string
	check   bool
	stdout  bool
	dryRun  bool
	noWait  bool
	timeout time.Duration
	jobs    int
}

func newFormatCmd() *cobra.Command {
	var opts formatOptions

	cmd := &cobra.Command{
		Use:     "format <file>...",
		Short:   "Format files in place",
		Aliases: []string{"fmt"},
		GroupID: GroupCore,
		Args:    cobra.MinimumNArgs(1),
		Long: `Format files with the formatter configured for their language.

The language is picked by file extension unless --lang is given. Files
whose language has no formatter are left alone. A file is only rewritten
when the formatter succeeded and changed it.

Two cfmt processes never format the same file at once: the second one
waits, or skips the file with --no-wait.`,
		Example: `  cfmt format main.go              # Format one file
  cfmt format -j 4 src/*.ts         # Format files in parallel
  cfmt format --check *.go          # List files that need formatting
  cfmt format --stdout -l sql q.txt # Print result, treat file as SQL
  cfmt format -d app.js             # Show the command that would run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Language to format as (default: by extension)")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Report files that would change, write nothing")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Print the result instead of writing the file")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "Print the resolved command without running it")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Skip files another cfmt process is formatting")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-file timeout (default from config)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 1, "Files to format in parallel")
	cmd.MarkFlagsMutuallyExclusive("check", "stdout", "dry-run")
	cmd.RegisterFlagCompletionFunc("lang", completeLanguages)

	return cmd
}

func runFormat(ctx context.Context, files []string, opts formatOptions) error {
	l := log.FromContext(ctx)
	out := output.FromContext(ctx)

	if opts.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1")
	}
	// Results are printed in argument order.
	if opts.stdout || opts.dryRun {
		opts.jobs = 1
	}

	stateDir, err := storage.StateDir()
	if err != nil {
		return fmt.Errorf("state dir: %w", err)
	}

	var (
		mu      sync.Mutex
		errs    []error
		pending []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)

	for _, file := range files {
		path := absPath(file)
		g.Go(func() error {
			changed, err := formatFile(ctx, path, stateDir, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", file, err))
			} else if changed && opts.check {
				pending = append(pending, file)
			}
			return nil // One failing file does not stop the others
		})
	}

	_ = g.Wait() // always nil, failures are collected in errs

	for _, file := range pending {
		out.Println(file)
	}
	if len(pending) > 0 {
		errs = append(errs, fmt.Errorf("%d files need formatting", len(pending)))
	}
	if len(errs) > 0 {
		l.Debug("format finished", "files", len(files), "failed", len(errs))
	}
	return errors.Join(errs...)
}

// formatFile formats one file according to opts and reports whether the
// formatter changed it.
func formatFile(ctx context.Context, path, stateDir string, opts formatOptions) (bool, error) {
	l := log.FromContext(ctx)
	out := output.FromContext(ctx)

	cfg, err := effectiveConfig(ctx, path)
	if err != nil {
		return false, err
	}
	lang, ok, err := resolveLanguage(cfg, opts.lang, path)
	if err != nil {
		return false, err
	}
	if !ok || !lang.HasFormatter() {
		l.Debug("skip", "path", path, "reason", "no formatter configured")
		return false, nil
	}

	if opts.dryRun {
		return false, printDryRun(ctx, cfg, lang, path)
	}

	fl, err := lock.ForPath(stateDir, path)
	if err != nil {
		return false, fmt.Errorf("lock: %w", err)
	}
	if opts.noWait {
		acquired, err := fl.TryLock()
		if err != nil {
			return false, fmt.Errorf("lock: %w", err)
		}
		if !acquired {
			l.Printf("skip %s: being formatted by another cfmt\n", path)
			return false, nil
		}
	} else if err := fl.Lock(); err != nil {
		return false, fmt.Errorf("lock: %w", err)
	}
	defer fl.Unlock()

	snap, err := buffer.Load(path)
	if err != nil {
		return false, err
	}

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = cfg.TimeoutFor(lang)
	}

	res, err := newFormatter(cfg).Format(ctx, format.Request{
		Text:     snap.Text,
		Language: lang,
		Path:     path,
		Timeout:  timeout,
	})
	if err != nil {
		return false, withPosition(err)
	}

	switch {
	case opts.check:
		return res.Changed, nil
	case opts.stdout:
		if _, err := out.Write(res.Text); err != nil {
			return false, err
		}
		return res.Changed, nil
	}

	if !res.Changed {
		l.Debug("unchanged", "path", path, "took", res.Duration)
		return false, nil
	}
	if err := snap.Replace(res.Text); err != nil {
		return false, fmt.Errorf("write result: %w", err)
	}
	l.Printf("formatted %s (%s)\n", path, res.Duration.Round(time.Millisecond))
	return true, nil
}

// printDryRun prints the command that would run for path.
func printDryRun(ctx context.Context, cfg *config.Config, lang config.Language, path string) error {
	tpl, err := template.Parse(lang.Formatter)
	if err != nil {
		return &format.ConfigError{Language: lang.Name, Err: err}
	}
	argv := tpl.Tokens()
	if tpl.HasPlaceholder() {
		tmp := filepath.Join(artifact.NewDirStore(cfg.TempDir).Dir(), "cfmt-XXXX")
		argv = tpl.Resolve(tmp)
	}
	output.FromContext(ctx).Printf("%s: %s (%s, %s)\n", path, strings.Join(argv, " "), lang.Name, lang.EffectiveMode())
	return nil
}

// withPosition appends the reported line and column to a formatter error.
func withPosition(err error) error {
	var ce *format.CommandError
	if errors.As(err, &ce) && !ce.Position.IsZero() {
		return fmt.Errorf("%w (at %s)", err, ce.Position)
	}
	return err
}
