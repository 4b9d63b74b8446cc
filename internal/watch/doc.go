// Package watch reloads the seed configuration when its file changes.
//
// A [Watcher] observes the config file with fsnotify, debounces bursts of
// events, reparses the file and hands the new [config.Config] to a callback.
// Files that fail to parse are logged and skipped, so the last good values
// stay in place. [Reseed] builds the callback used by the server: it writes
// every configured value through the shared store, so subscribers are
// notified even when a value did not change.
package watch
