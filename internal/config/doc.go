// Package config handles loading and validation of cfmt configuration.
//
// Configuration is read from ~/.config/cfmt/config.toml. The CFMT_CONFIG
// environment variable or the --config flag point at another file.
//
// # Languages
//
// Each language is a [languages.NAME] section binding file extensions to
// a formatter command:
//
//	[languages.javascript]
//	extensions = [".js", ".mjs"]
//	formatter = ["prettier", "--write", "$1.js"]
//	mode = "in-place"
//	timeout = "5s"
//
// A language without a formatter is disabled: saving such a file is a
// no-op, not an error. See package template for the placeholder rules.
//
// # Modes
//
//   - in-place (default): the tool rewrites the temporary file, which is
//     read back after a zero exit.
//   - stdout: the tool prints the formatted text. When the command has no
//     $1 placeholder the buffer is fed on stdin instead.
//
// # Local Overrides
//
// A .cfmt.toml or .cfmt.yaml file in the file's directory or any parent
// overrides languages by name for that tree. Setting enabled = false
// removes a global language. The nearest file wins; files are not stacked.
package config
