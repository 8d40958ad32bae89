// Package shutdown coordinates graceful shutdown of long-running commands.
//
// A Handler waits for SIGINT, SIGTERM or its context, then runs the
// registered hooks in reverse order within a timeout.
package shutdown
