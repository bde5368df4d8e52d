// Package template resolves formatter command templates.
//
// A template is the argv configured for a language, e.g.
//
//	formatter = ["prettier", "--write", "$1.js"]
//
// Tokens of the form $1 or $1.<ext> are placeholders for the temporary
// file that holds the buffer. $1 becomes the path itself and $1.<ext>
// becomes the path with .<ext> appended. Every other token is passed
// through unchanged; no shell is involved, so quoting is never needed.
//
// Only index 1 exists because each invocation has exactly one temporary
// file. All placeholders in one template must agree on the suffix.
package template
