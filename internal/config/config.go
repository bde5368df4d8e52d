package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Formatter modes.
const (
	ModeInPlace = "in-place"
	ModeStdout  = "stdout"
)

// Defaults applied when the config leaves a value unset.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultDebounce = 100 * time.Millisecond
)

// ConfigEnv names the environment variable overriding the config path.
const ConfigEnv = "CFMT_CONFIG"

// Duration is a time.Duration written as a string like "5s" in config files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML parses a scalar duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Language binds file extensions to a formatter command.
type Language struct {
	Name       string   `toml:"-" yaml:"-"`
	Extensions []string `toml:"extensions" yaml:"extensions"`
	Formatter  []string `toml:"formatter" yaml:"formatter"`
	Mode       string   `toml:"mode,omitempty" yaml:"mode"`
	Timeout    Duration `toml:"timeout,omitempty" yaml:"timeout"`
	Enabled    *bool    `toml:"enabled,omitempty" yaml:"enabled"` // only meaningful in local config
}

// IsEnabled returns true unless enabled is explicitly set to false.
func (l Language) IsEnabled() bool {
	return l.Enabled == nil || *l.Enabled
}

// HasFormatter reports whether a formatter command is configured.
func (l Language) HasFormatter() bool {
	return len(l.Formatter) > 0
}

// EffectiveMode returns the mode, defaulting to in-place.
func (l Language) EffectiveMode() string {
	if l.Mode == "" {
		return ModeInPlace
	}
	return l.Mode
}

// WatchConfig holds settings for cfmt watch.
type WatchConfig struct {
	Debounce Duration `toml:"debounce,omitempty" yaml:"debounce"`
	Ignore   []string `toml:"ignore" yaml:"ignore"` // base-name globs
}

// Config holds the cfmt configuration.
type Config struct {
	Timeout   Duration            `toml:"timeout,omitempty"`
	TempDir   string              `toml:"temp_dir,omitempty"`
	Watch     WatchConfig         `toml:"watch"`
	Languages map[string]Language `toml:"languages"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Timeout: Duration(DefaultTimeout),
		Watch: WatchConfig{
			Debounce: Duration(DefaultDebounce),
			Ignore:   []string{".git", "node_modules", "vendor"},
		},
		Languages: map[string]Language{},
	}
}

// Names returns the configured language names, sorted.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.Languages))
}

// Language returns the named language.
func (c *Config) Language(name string) (Language, bool) {
	l, ok := c.Languages[name]
	return l, ok
}

// LanguageForPath finds the language whose extensions match path.
// Entries starting with "." match the file extension case-insensitively;
// other entries match the whole base name (e.g. "Makefile").
// The longest matching extension wins, so ".d.ts" beats ".ts".
func (c *Config) LanguageForPath(path string) (Language, bool) {
	base := filepath.Base(path)
	lower := strings.ToLower(base)

	var best Language
	bestLen := 0
	for _, name := range c.Names() {
		lang := c.Languages[name]
		for _, ext := range lang.Extensions {
			var n int
			switch {
			case strings.HasPrefix(ext, "."):
				if strings.HasSuffix(lower, strings.ToLower(ext)) && len(lower) > len(ext) {
					n = len(ext)
				}
			case ext == base:
				n = len(ext)
			}
			if n > bestLen {
				best, bestLen = lang, n
			}
		}
	}
	return best, bestLen > 0
}

// TimeoutFor returns the timeout for lang, falling back to the global one.
func (c *Config) TimeoutFor(lang Language) time.Duration {
	if lang.Timeout > 0 {
		return lang.Timeout.Std()
	}
	if c.Timeout > 0 {
		return c.Timeout.Std()
	}
	return DefaultTimeout
}

// DefaultPath returns the path of the config file: $CFMT_CONFIG if set,
// otherwise ~/.config/cfmt/config.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cfmt", "config.toml"), nil
}

// Load reads config from path, or from DefaultPath if path is empty.
// Returns Default() if the file doesn't exist (no error).
// Returns error only if the file exists but is invalid.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML config data, applies defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Default(), fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if cfg.Languages == nil {
		cfg.Languages = map[string]Language{}
	}
	for name, lang := range cfg.Languages {
		lang.Name = name
		cfg.Languages[name] = lang
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode() (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type configKey struct{}

// WithConfig returns a new context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	def := Default()
	return &def
}

const defaultConfig = `# cfmt configuration

# Default timeout for one formatter run. A formatter that takes longer is
# killed and the buffer is left untouched.
timeout = "10s"

# Directory for temporary files handed to formatters (default: system temp)
# temp_dir = "/tmp"

[watch]
# Wait this long after the last change before formatting (cfmt watch)
debounce = "100ms"
# Base-name globs skipped while watching
ignore = [".git", "node_modules", "vendor"]

# Languages - one section per language
#
# formatter is the argv of the command to run. No shell is involved.
# The token $1 is replaced with the path of a temporary file holding the
# buffer; $1.ext appends .ext so tools can detect the language.
#
# mode = "in-place" (default): the tool rewrites the file, e.g. --write
# mode = "stdout":             the tool prints the result; without $1 the
#                              buffer is passed on stdin
#
# [languages.javascript]
# extensions = [".js", ".mjs", ".cjs"]
# formatter = ["prettier", "--write", "$1.js"]
#
# [languages.go]
# extensions = [".go"]
# formatter = ["gofmt"]
# mode = "stdout"
#
# [languages.python]
# extensions = [".py"]
# formatter = ["black", "--quiet", "$1.py"]
# timeout = "20s"
#
# [languages.shell]
# extensions = [".sh", ".bash"]
# formatter = ["shfmt", "-w", "$1.sh"]
`

// DefaultConfig returns the default configuration template content.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file at path (DefaultPath if empty).
// If force is true, overwrites an existing file.
// Returns the path to the created file.
func Init(path string, force bool) (string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}

	return path, nil
}
