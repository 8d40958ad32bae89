// Package output renders linkhub-cli results as a table, JSON or YAML.
//
// JSON and YAML honour json struct tags and custom JSON marshalers, so a
// profile prints the same way in both. Tables flatten nested maps into
// dotted keys sorted alphabetically.
package output
