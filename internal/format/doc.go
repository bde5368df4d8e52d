// Package format runs a buffer through an external formatter.
//
// One run is a single linear sequence:
//
//  1. write the buffer to a temporary file ([artifact.Store])
//  2. substitute the file's path into the command ([template.Template])
//  3. run the command and wait for it ([cmd.Runner]), bounded by a timeout
//  4. on exit code zero, read the result back from the file (in-place
//     mode) or take the command's stdout (stdout mode)
//  5. remove the temporary file, on every path
//
// The buffer is replaced all-or-nothing: on any failure [Formatter.Format]
// returns the original text together with one of [ConfigError],
// [CommandError], [TempFileError] or [TimeoutError]. A language without a
// formatter is a no-op and reports Skipped.
//
// Runs for the same file are serialized: a second request for a path that
// is still being formatted fails fast with [ErrBusy] and should be ignored
// by the caller.
package format
