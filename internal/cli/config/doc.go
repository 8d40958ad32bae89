// Package config provides the linkhub-cli configuration.
//
//   - spec.go: CLIConfig and its defaults (~/.linkhub/cli.yaml)
//   - loader.go: loading through confloader, validation and saving
package config
