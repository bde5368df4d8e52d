package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestResolver_Global(t *testing.T) {
	t.Parallel()

	global := &Config{TempDir: "/x"}

	r := NewResolver(global)
	if r.Global() != global {
		t.Error("Global() should return the global config")
	}
}

func TestResolver_NoLocalConfig(t *testing.T) {
	t.Parallel()

	global := &Config{Languages: map[string]Language{}}

	r := NewResolver(global)
	cfg, err := r.ForDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != global {
		t.Error("ForDir without local config should return the global config")
	}
}

func TestResolver_WithLocalConfig(t *testing.T) {
	t.Parallel()

	global := &Config{Languages: map[string]Language{
		"go": {Name: "go", Formatter: []string{"gofmt"}, Mode: ModeStdout},
	}}

	dir := t.TempDir()
	content := `[languages.go]
formatter = ["gofumpt"]
mode = "stdout"
`
	if err := os.WriteFile(filepath.Join(dir, LocalConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(global)
	cfg, err := r.ForFile(filepath.Join(dir, "main.go"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Languages["go"].Formatter[0]; got != "gofumpt" {
		t.Errorf("go formatter = %q, want gofumpt", got)
	}

	// Cached result is returned on second call
	again, err := r.ForDir(dir)
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if again != cfg {
		t.Error("expected cached result on second call")
	}

	r.Invalidate()
	fresh, err := r.ForDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if fresh == cfg {
		t.Error("expected a fresh result after Invalidate")
	}
}

func TestResolver_InvalidLocalConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LocalConfigFileName), []byte("invalid [[["), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(&Config{})
	if _, err := r.ForDir(dir); err == nil {
		t.Error("expected error for invalid local config")
	}
}

func TestResolverContext(t *testing.T) {
	t.Parallel()

	r := NewResolver(&Config{})
	ctx := WithResolver(context.Background(), r)
	if ResolverFromContext(ctx) != r {
		t.Error("ResolverFromContext did not return the stored resolver")
	}
	if ResolverFromContext(context.Background()) == nil {
		t.Error("ResolverFromContext(empty) should fall back to a resolver")
	}
}
