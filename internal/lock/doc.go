// Package lock serializes format runs on the same file.
//
// Two layers exist:
//
//   - [Inflight] guards one process. A second trigger for a path that is
//     already being formatted is refused, not queued.
//   - [FileLock] guards across processes with flock(2), so two editor
//     save hooks for the same file never run against each other.
//
// Lock files live in the state directory and are named after a hash of
// the absolute path of the file being formatted.
package lock
