// Package repl provides the interactive shell of linkhub-cli.
//
// One shell keeps a single client alive, so the session state, the
// navigation guard and the notification queue persist between lines:
//
//   - repl.go: Read-eval-print loop and built-in commands
//   - completer.go: Command lookup by prefix
//   - history.go: Command history persistence
package repl
