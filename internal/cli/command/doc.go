// Package command provides the linkhub-cli commands using urfave/cli/v2.
//
//   - root.go: App, global flags, config and app construction
//   - auth.go: login, register, logout, me, status
//   - navigate.go: open (navigation guard)
//   - toast.go: notification queue
//   - watch.go: long-running session watcher with metrics
//   - shell.go: interactive shell sharing one app.App
//   - config.go: config show, init, path
//   - system.go: version
//
// Every command loads the configuration, builds an app.App (or reuses the
// shell's), runs one operation and writes the result with the selected
// formatter.
package command
