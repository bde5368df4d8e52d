package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Local config file names, checked in this order in each directory.
const (
	LocalConfigFileName     = ".cfmt.toml"
	LocalYAMLConfigFileName = ".cfmt.yaml"
)

// LocalConfig holds per-project overrides.
// Zero values indicate "not set" (inherit from global).
type LocalConfig struct {
	Timeout   Duration            `toml:"timeout" yaml:"timeout"`
	TempDir   string              `toml:"temp_dir" yaml:"temp_dir"` // relative to the file's directory
	Languages map[string]Language `toml:"languages" yaml:"languages"`

	// Path is the file the overrides were read from.
	Path string `toml:"-" yaml:"-"`
}

// FindLocal walks up from dir looking for a local config file.
// Returns "" if none exists up to the filesystem root.
func FindLocal(dir string) string {
	dir = filepath.Clean(dir)
	for {
		for _, name := range []string{LocalConfigFileName, LocalYAMLConfigFileName} {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadLocal reads the nearest local config at or above dir.
// Returns nil (no error) if there is none.
// Returns an error only on parse or validation failure.
func LoadLocal(dir string) (*LocalConfig, error) {
	path := FindLocal(dir)
	if path == "" {
		return nil, nil
	}
	return LoadLocalFile(path)
}

// LoadLocalFile reads a local config file; the format follows the extension.
func LoadLocalFile(path string) (*LocalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local config %s: %w", path, err)
	}

	var local LocalConfig
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF, which just means no overrides.
		if err := dec.Decode(&local); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse local config %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &local); err != nil {
			return nil, fmt.Errorf("failed to parse local config %s: %w", path, err)
		}
	}
	local.Path = path

	if local.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout in %s: must not be negative", path)
	}
	if local.TempDir != "" && !filepath.IsAbs(local.TempDir) {
		local.TempDir = filepath.Join(filepath.Dir(path), local.TempDir)
	}
	for name, lang := range local.Languages {
		lang.Name = name
		local.Languages[name] = lang
		if !lang.IsEnabled() {
			continue
		}
		if err := ValidateLanguage(lang); err != nil {
			return nil, fmt.Errorf("%w in %s", err, path)
		}
	}

	return &local, nil
}

// defaultLocalConfig is the template for cfmt config init --local
const defaultLocalConfig = `# cfmt local config (per-project overrides)
# Place this file at the root of your project.
# Languages here replace global languages of the same name for files
# below this directory.

# timeout = "20s"
# temp_dir = ".cache/cfmt"

# [languages.javascript]
# extensions = [".js"]
# formatter = ["npx", "prettier", "--write", "$1.js"]

# Disable a global language for this project
# [languages.python]
# enabled = false
`

// DefaultLocalConfig returns the default local configuration template content.
func DefaultLocalConfig() string {
	return defaultLocalConfig
}
