package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/cfmt/internal/artifact"
	"github.com/raphi011/cfmt/internal/cmd"
	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/format"
)

// runner spawns formatter processes; tests replace it.
var runner cmd.Runner = cmd.ExecRunner{}

func newFormatter(cfg *config.Config) *format.Formatter {
	return format.New(runner, artifact.NewDirStore(cfg.TempDir))
}

// effectiveConfig returns the config for path (or the working directory
// when path is empty), with local overrides applied.
func effectiveConfig(ctx context.Context, path string) (*config.Config, error) {
	r := config.ResolverFromContext(ctx)
	if path != "" {
		return r.ForFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return r.Global(), nil
	}
	return r.ForDir(wd)
}

// resolveLanguage picks the language by explicit name, else by path.
// ok is false when nothing matches and no name was given.
func resolveLanguage(cfg *config.Config, name, path string) (lang config.Language, ok bool, err error) {
	if name != "" {
		lang, err := cfg.LookupLanguage(name)
		if err != nil {
			return config.Language{}, false, err
		}
		return lang, true, nil
	}
	lang, ok = cfg.LanguageForPath(path)
	return lang, ok, nil
}

// readStdin reads all of stdin, refusing to wait on an interactive terminal.
func readStdin(c *cobra.Command) ([]byte, error) {
	in := c.InOrStdin()
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil, fmt.Errorf("reads the buffer from stdin; pipe text in, e.g. cfmt %s --lang go < main.go", c.Name())
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// completeLanguages completes language names for --lang.
func completeLanguages(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, name := range cfg.Names() {
		if strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
