// Package cmd runs external formatter processes.
//
// A [Runner] executes an argv exactly as given, without a shell, and
// captures stdout and stderr. Tests substitute a fake Runner to assert on
// the resolved argv without spawning processes.
//
// # Usage
//
//	res, err := cmd.ExecRunner{}.Run(ctx, cmd.Spec{Argv: []string{"gofmt", "-w", path}})
//	var exitErr *cmd.ExitError
//	if errors.As(err, &exitErr) {
//	    // exitErr.Stderr holds the tool's diagnostics
//	}
//
// # Design Notes
//
// Formatters are invoked the same way the user would run them in a
// terminal, so their own config discovery (.prettierrc, rustfmt.toml)
// keeps working. Cancelling the context kills the process.
package cmd
