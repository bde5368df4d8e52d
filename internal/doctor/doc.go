// Package doctor provides diagnostic and repair functionality for cfmt's
// configuration and runtime state.
//
// The doctor package detects and optionally repairs issues including:
//
//   - Config issues: formatter commands that do not parse, invalid modes,
//     and file extensions claimed by more than one language.
//
//   - Command issues: formatter programs that are not on PATH.
//
//   - State issues: an unwritable temp directory, temporary files left
//     behind by crashed runs, and lock files nobody holds anymore.
//
// # Usage
//
//	err := doctor.Run(ctx, cfg, doctor.Options{}, false) // check only
//	err := doctor.Run(ctx, cfg, doctor.Options{}, true)  // check and fix
//
// Only state issues can be fixed automatically; config and command
// issues need the user to edit the config or install the tool.
package doctor
