package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/raphi011/cfmt/internal/config"
)

func TestLanguages_Table(t *testing.T) {
	t.Parallel()

	ctx, out, _ := testContext(t, testConfig(t))
	if err := execute(ctx, newLanguagesCmd()); err != nil {
		t.Fatalf("languages failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"LANGUAGE", "text", ".txt", "sh -c", "broken", "markdown", "in-place", "10s"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestLanguages_JSON(t *testing.T) {
	t.Parallel()

	ctx, out, _ := testContext(t, testConfig(t))
	if err := execute(ctx, newLanguagesCmd(), "--json"); err != nil {
		t.Fatalf("languages --json failed: %v", err)
	}

	var infos []languageInfo
	if err := json.Unmarshal([]byte(out.String()), &infos); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("got %d languages, want 3", len(infos))
	}
	// Sorted by name.
	if infos[0].Name != "broken" || infos[2].Name != "text" {
		t.Errorf("order = %s, %s, %s", infos[0].Name, infos[1].Name, infos[2].Name)
	}
}

func TestLanguages_Empty(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	ctx, out, _ := testContext(t, &cfg)
	if err := execute(ctx, newLanguagesCmd()); err != nil {
		t.Fatalf("languages failed: %v", err)
	}
	if !strings.Contains(out.String(), "No languages configured") {
		t.Errorf("output = %q, want hint", out.String())
	}
}

func TestConfigInit_Stdout(t *testing.T) {
	t.Parallel()

	ctx, out, _ := testContext(t, testConfig(t))
	if err := execute(ctx, newConfigCmd(), "init", "--stdout"); err != nil {
		t.Fatalf("config init --stdout failed: %v", err)
	}
	if out.String() != config.DefaultConfig() {
		t.Error("config init --stdout did not print the default config")
	}
}

func TestConfigShow_JSON(t *testing.T) {
	t.Parallel()

	ctx, out, _ := testContext(t, testConfig(t))
	if err := execute(ctx, newConfigCmd(), "show", "--json"); err != nil {
		t.Fatalf("config show --json failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out.String()), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["Timeout"] != "10s" {
		t.Errorf("Timeout = %v, want 10s", got["Timeout"])
	}
}

func TestConfigShow_TOML(t *testing.T) {
	t.Parallel()

	ctx, out, _ := testContext(t, testConfig(t))
	if err := execute(ctx, newConfigCmd(), "show"); err != nil {
		t.Fatalf("config show failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "# Global config: (defaults)") {
		t.Errorf("output missing source header:\n%s", got)
	}
	body := got[strings.Index(got, "\n\n")+2:]
	cfg, err := config.Parse([]byte(body))
	if err != nil {
		t.Fatalf("shown config does not parse: %v\n%s", err, body)
	}
	if _, ok := cfg.Language("text"); !ok {
		t.Error("shown config lost the text language")
	}
}

// TestClip tests formatting the clipboard through swapped accessors.
// Not parallel: it replaces package-level clipboard functions.
func TestClip(t *testing.T) {
	origRead, origWrite := readClipboard, writeClipboard
	t.Cleanup(func() {
		readClipboard, writeClipboard = origRead, origWrite
	})

	clip := "hello"
	readClipboard = func() (string, error) { return clip, nil }
	writeClipboard = func(s string) error { clip = s; return nil }

	ctx, _, logs := testContext(t, testConfig(t))
	if err := execute(ctx, newClipCmd(), "--lang", "text"); err != nil {
		t.Fatalf("clip failed: %v", err)
	}
	if clip != "HELLO" {
		t.Errorf("clipboard = %q, want %q", clip, "HELLO")
	}
	if !strings.Contains(logs.String(), "clipboard formatted") {
		t.Errorf("log = %q", logs.String())
	}

	// Failure leaves the clipboard alone.
	clip = "oops"
	if err := execute(ctx, newClipCmd(), "--lang", "broken"); err == nil {
		t.Error("clip with failing formatter succeeded")
	}
	if clip != "oops" {
		t.Errorf("clipboard = %q after failure, want unchanged", clip)
	}

	readClipboard = func() (string, error) { return "", errors.New("no clipboard utility") }
	if err := execute(ctx, newClipCmd(), "--lang", "text"); err == nil || !strings.Contains(err.Error(), "read clipboard") {
		t.Errorf("error = %v, want read clipboard failure", err)
	}
}

func TestVersionString(t *testing.T) {
	t.Parallel()

	if got := versionString(); !strings.HasPrefix(got, "cfmt dev (none, unknown, go") {
		t.Errorf("versionString() = %q", got)
	}
}
