package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/raphi011/cfmt/internal/template"
)

// Valid enum values for configuration fields.
var (
	ValidModes = []string{ModeInPlace, ModeStdout}
)

// Validate checks the whole config. Errors name the offending field.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", c.Timeout.Std())
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("invalid watch.debounce %s: must not be negative", c.Watch.Debounce.Std())
	}
	if err := validateGlobs(c.Watch.Ignore, "watch.ignore"); err != nil {
		return err
	}
	for _, name := range c.Names() {
		if err := ValidateLanguage(c.Languages[name]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLanguage checks one language section.
// A language without a formatter is valid; it is simply disabled.
func ValidateLanguage(l Language) error {
	field := "languages." + l.Name
	if err := validateEnum(l.Mode, field+".mode", ValidModes); err != nil {
		return err
	}
	if l.Timeout < 0 {
		return fmt.Errorf("invalid %s.timeout %s: must not be negative", field, l.Timeout.Std())
	}
	for i, ext := range l.Extensions {
		if ext == "" || ext == "." || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("invalid %s.extensions[%d] %q", field, i, ext)
		}
	}
	if !l.HasFormatter() {
		return nil
	}

	tpl, err := template.Parse(l.Formatter)
	if err != nil {
		return fmt.Errorf("%s.formatter: %w", field, err)
	}
	if !tpl.HasPlaceholder() && l.EffectiveMode() == ModeInPlace {
		return fmt.Errorf("%s.formatter: in-place mode needs a $1 placeholder for the file to rewrite (or set mode = %q)", field, ModeStdout)
	}
	return nil
}

// validateEnum checks that value (if non-empty) is one of the allowed values.
// Returns a formatted error mentioning the field name and allowed options.
func validateEnum(value, field string, allowed []string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s %q: must be %s", field, value, formatOptions(allowed))
	}
	return nil
}

// validateGlobs checks that all patterns are valid filepath.Match syntax.
func validateGlobs(patterns []string, field string) error {
	for i, pat := range patterns {
		if _, err := filepath.Match(pat, ""); err != nil {
			return fmt.Errorf("invalid %s[%d] %q: %w", field, i, pat, err)
		}
	}
	return nil
}

// formatOptions formats a list of allowed values for error messages.
// E.g., ["a", "b", "c"] -> `"a", "b", or "c"`
func formatOptions(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	if len(quoted) <= 2 {
		return strings.Join(quoted, " or ")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}

// UnknownLanguageError is returned when a language name is not configured.
type UnknownLanguageError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownLanguageError) Error() string {
	msg := fmt.Sprintf("unknown language %q", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", formatOptions(e.Suggestions))
	}
	return msg
}

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 3

// Suggest returns configured language names that fuzzily match name,
// best match first.
func (c *Config) Suggest(name string) []string {
	names := c.Names()
	var out []string
	for _, m := range fuzzy.Find(name, names) {
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// LookupLanguage returns the named language or an *UnknownLanguageError
// with suggestions.
func (c *Config) LookupLanguage(name string) (Language, error) {
	if l, ok := c.Language(name); ok {
		return l, nil
	}
	return Language{}, &UnknownLanguageError{Name: name, Suggestions: c.Suggest(name)}
}
