package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Timeout.Std() != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", cfg.Timeout.Std(), DefaultTimeout)
	}
	if cfg.Watch.Debounce.Std() != DefaultDebounce {
		t.Errorf("watch.debounce = %v, want %v", cfg.Watch.Debounce.Std(), DefaultDebounce)
	}
	if cfg.Languages == nil {
		t.Error("languages map should be initialised")
	}
}

func TestLoad_Nonexistent(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load(missing) error = %v, want nil", err)
	}
	if cfg.Path != "" || len(cfg.Languages) != 0 {
		t.Errorf("Load(missing) = %+v, want defaults", cfg)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfmt.toml")
	if err := os.WriteFile(path, []byte("timeout = \"3s\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigEnv, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if cfg.Timeout.Std() != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Timeout.Std())
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	content := `
timeout = "5s"
temp_dir = "/var/tmp"

[watch]
debounce = "250ms"
ignore = ["dist"]

[languages.javascript]
extensions = [".js", ".mjs"]
formatter = ["prettier", "--write", "$1.js"]

[languages.go]
extensions = [".go"]
formatter = ["gofmt"]
mode = "stdout"
timeout = "2s"

[languages.markdown]
extensions = [".md"]
`
	cfg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Timeout.Std() != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Timeout.Std())
	}
	if cfg.TempDir != "/var/tmp" {
		t.Errorf("temp_dir = %q, want /var/tmp", cfg.TempDir)
	}
	if cfg.Watch.Debounce.Std() != 250*time.Millisecond {
		t.Errorf("watch.debounce = %v, want 250ms", cfg.Watch.Debounce.Std())
	}
	if len(cfg.Watch.Ignore) != 1 || cfg.Watch.Ignore[0] != "dist" {
		t.Errorf("watch.ignore = %v, want [dist]", cfg.Watch.Ignore)
	}

	js, ok := cfg.Language("javascript")
	if !ok {
		t.Fatal("javascript language missing")
	}
	if js.Name != "javascript" {
		t.Errorf("Name = %q, want javascript", js.Name)
	}
	if js.EffectiveMode() != ModeInPlace {
		t.Errorf("javascript mode = %q, want %q", js.EffectiveMode(), ModeInPlace)
	}
	if cfg.TimeoutFor(js) != 5*time.Second {
		t.Errorf("TimeoutFor(javascript) = %v, want global 5s", cfg.TimeoutFor(js))
	}

	goLang, _ := cfg.Language("go")
	if cfg.TimeoutFor(goLang) != 2*time.Second {
		t.Errorf("TimeoutFor(go) = %v, want 2s", cfg.TimeoutFor(goLang))
	}

	md, _ := cfg.Language("markdown")
	if md.HasFormatter() {
		t.Error("markdown should have no formatter")
	}

	if got := strings.Join(cfg.Names(), ","); got != "go,javascript,markdown" {
		t.Errorf("Names() = %q, want sorted names", got)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad toml",
			content: "timeout = ",
			wantErr: "failed to parse config file",
		},
		{
			name:    "bad duration",
			content: `timeout = "soon"`,
			wantErr: "failed to parse config file",
		},
		{
			name:    "unknown key",
			content: "[languages.go]\nformater = [\"gofmt\"]\n",
			wantErr: `unknown config key "languages.go.formater"`,
		},
		{
			name:    "bad mode",
			content: "[languages.go]\nformatter = [\"gofmt\"]\nmode = \"pipe\"\n",
			wantErr: `invalid languages.go.mode "pipe": must be "in-place" or "stdout"`,
		},
		{
			name:    "placeholder index out of range",
			content: "[languages.js]\nformatter = [\"prettier\", \"$2.js\"]\n",
			wantErr: "languages.js.formatter",
		},
		{
			name:    "in-place without placeholder",
			content: "[languages.go]\nformatter = [\"gofmt\"]\n",
			wantErr: "in-place mode needs a $1 placeholder",
		},
		{
			name:    "bad extension",
			content: "[languages.go]\nextensions = [\"a/b\"]\n",
			wantErr: "invalid languages.go.extensions[0]",
		},
		{
			name:    "bad ignore glob",
			content: "[watch]\nignore = [\"[\"]\n",
			wantErr: "invalid watch.ignore[0]",
		},
		{
			name:    "negative timeout",
			content: `timeout = "-1s"`,
			wantErr: "invalid timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatalf("Parse(%q) = nil, want error", tt.content)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLanguageForPath(t *testing.T) {
	t.Parallel()

	cfg := Config{Languages: map[string]Language{
		"typescript": {Name: "typescript", Extensions: []string{".ts"}},
		"dts":        {Name: "dts", Extensions: []string{".d.ts"}},
		"make":       {Name: "make", Extensions: []string{"Makefile", ".mk"}},
		"javascript": {Name: "javascript", Extensions: []string{".js"}},
	}}

	tests := []struct {
		path string
		want string
	}{
		{path: "/src/app.ts", want: "typescript"},
		{path: "/src/types.d.ts", want: "dts"},
		{path: "/src/APP.JS", want: "javascript"},
		{path: "/src/Makefile", want: "make"},
		{path: "/src/rules.mk", want: "make"},
		{path: "/src/.js", want: ""},
		{path: "/src/readme.md", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := cfg.LanguageForPath(tt.path)
			if tt.want == "" {
				if ok {
					t.Errorf("LanguageForPath(%q) = %q, want no match", tt.path, got.Name)
				}
				return
			}
			if !ok || got.Name != tt.want {
				t.Errorf("LanguageForPath(%q) = %q, %v, want %q", tt.path, got.Name, ok, tt.want)
			}
		})
	}
}

func TestLookupLanguage_Suggestions(t *testing.T) {
	t.Parallel()

	cfg := Config{Languages: map[string]Language{
		"javascript": {Name: "javascript"},
		"python":     {Name: "python"},
	}}

	_, err := cfg.LookupLanguage("javscript")
	var unknown *UnknownLanguageError
	if !errors.As(err, &unknown) {
		t.Fatalf("LookupLanguage error = %v, want *UnknownLanguageError", err)
	}
	if len(unknown.Suggestions) == 0 || unknown.Suggestions[0] != "javascript" {
		t.Errorf("Suggestions = %v, want javascript first", unknown.Suggestions)
	}
	if !strings.Contains(err.Error(), `did you mean "javascript"`) {
		t.Errorf("Error() = %q, want a suggestion", err.Error())
	}

	if _, err := cfg.LookupLanguage("python"); err != nil {
		t.Errorf("LookupLanguage(python) = %v, want nil", err)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Languages["javascript"] = Language{
		Name:       "javascript",
		Extensions: []string{".js"},
		Formatter:  []string{"prettier", "--write", "$1.js"},
		Timeout:    Duration(5 * time.Second),
	}

	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(out, `timeout = "5s"`) {
		t.Errorf("Encode() = %q, want durations as strings", out)
	}

	back, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("Parse(Encode()) error = %v", err)
	}
	js, _ := back.Language("javascript")
	if js.Timeout.Std() != 5*time.Second || len(js.Formatter) != 3 {
		t.Errorf("round trip = %+v", js)
	}
}

func TestDefaultConfigParses(t *testing.T) {
	t.Parallel()

	var raw map[string]any
	if _, err := toml.Decode(DefaultConfig(), &raw); err != nil {
		t.Fatalf("default config template is not valid TOML: %v", err)
	}
	if _, err := Parse([]byte(DefaultConfig())); err != nil {
		t.Errorf("Parse(DefaultConfig()) error = %v", err)
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfmt", "config.toml")
	got, err := Init(path, false)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got != path {
		t.Errorf("Init() = %q, want %q", got, path)
	}

	if _, err := Init(path, false); err == nil {
		t.Error("second Init() without force = nil, want error")
	}
	if _, err := Init(path, true); err != nil {
		t.Errorf("Init() with force = %v, want nil", err)
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.TempDir = "/x"
	ctx := WithConfig(context.Background(), &cfg)
	if FromContext(ctx) != &cfg {
		t.Error("FromContext did not return the stored config")
	}
	if got := FromContext(context.Background()); got == nil || got.Timeout.Std() != DefaultTimeout {
		t.Errorf("FromContext(empty) = %+v, want defaults", got)
	}
}
