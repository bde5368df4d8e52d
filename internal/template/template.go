package template

import (
	"fmt"
	"regexp"
	"slices"
)

// placeholderRegex matches $N with an optional literal extension suffix.
var placeholderRegex = regexp.MustCompile(`^\$(\d+)(\.\w+)?$`)

// Error reports a malformed template.
type Error struct {
	Token  string // offending token, empty for template-wide problems
	Reason string
}

func (e *Error) Error() string {
	if e.Token == "" {
		return "invalid formatter command: " + e.Reason
	}
	return fmt.Sprintf("invalid formatter token %q: %s", e.Token, e.Reason)
}

// Template is a parsed formatter command.
type Template struct {
	tokens []string
	ext    string
	holes  []int // indexes of placeholder tokens
}

// Parse validates tokens and returns a Template.
// An empty token list is an error; callers treat "no formatter configured"
// before getting here.
func Parse(tokens []string) (Template, error) {
	if len(tokens) == 0 {
		return Template{}, &Error{Reason: "empty command"}
	}
	if tokens[0] == "" {
		return Template{}, &Error{Reason: "empty program name"}
	}

	t := Template{tokens: slices.Clone(tokens)}
	seenExt := false
	for i, tok := range tokens {
		m := placeholderRegex.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		if i == 0 {
			return Template{}, &Error{Token: tok, Reason: "program name cannot be a placeholder"}
		}
		if m[1] != "1" {
			return Template{}, &Error{Token: tok, Reason: "only $1 is available, there is a single temporary file"}
		}
		if seenExt && m[2] != t.ext {
			return Template{}, &Error{Token: tok, Reason: fmt.Sprintf("conflicts with earlier suffix %q", t.ext)}
		}
		seenExt = true
		t.ext = m[2]
		t.holes = append(t.holes, i)
	}
	return t, nil
}

// MustParse is like Parse but panics on error. For tests and defaults.
func MustParse(tokens ...string) Template {
	t, err := Parse(tokens)
	if err != nil {
		panic(err)
	}
	return t
}

// Extension returns the placeholder suffix including the dot, e.g. ".js".
// Returns "" if the placeholder has no suffix or there is no placeholder.
func (t Template) Extension() string {
	return t.ext
}

// HasPlaceholder reports whether the command references the temporary file.
func (t Template) HasPlaceholder() bool {
	return len(t.holes) > 0
}

// Program returns the executable name.
func (t Template) Program() string {
	if len(t.tokens) == 0 {
		return ""
	}
	return t.tokens[0]
}

// Tokens returns a copy of the unresolved tokens.
func (t Template) Tokens() []string {
	return slices.Clone(t.tokens)
}

// Resolve returns the argv with every placeholder replaced.
// $1 becomes path and $1.<ext> becomes path+".<ext>".
func (t Template) Resolve(path string) []string {
	argv := slices.Clone(t.tokens)
	for _, i := range t.holes {
		argv[i] = path + t.ext
	}
	return argv
}

// String renders the tokens the way they appear in config.
func (t Template) String() string {
	return fmt.Sprintf("%q", t.tokens)
}

// Resolve substitutes path into every placeholder token of tokens.
// Tokens that are not placeholders, including malformed ones such as $2,
// pass through unchanged. Use Parse to reject malformed templates.
func Resolve(tokens []string, path string) []string {
	argv := make([]string, len(tokens))
	for i, tok := range tokens {
		m := placeholderRegex.FindStringSubmatch(tok)
		if m == nil || m[1] != "1" {
			argv[i] = tok
			continue
		}
		argv[i] = path + m[2]
	}
	return argv
}
