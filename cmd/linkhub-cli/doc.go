// Package main provides the entry point for linkhub-cli.
//
// The CLI keeps a LinkHub session on the local machine:
//
//   - Sign in, register and sign out
//   - Restore and validate the stored session at startup
//   - Ask the navigation guard about private paths
//   - Push messages through the notification queue
//   - Watch the session with configuration reload and metrics
//
// Usage:
//
//	linkhub-cli login --email alice@example.com
//	linkhub-cli -o json status
//	linkhub-cli open /dashboard
//	linkhub-cli watch --metrics-address 127.0.0.1:9464
package main
