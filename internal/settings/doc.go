// Package settings implements the persistent, project-local key/value store
// that remembers the developer's last choices (build mode, target) between
// mkgo invocations.
//
// The store is an explicit dependency with an open / get / set / flush /
// close lifecycle. There is no package-level instance; the CLI opens one
// FileStore per run and tests can substitute any Store implementation.
package settings
