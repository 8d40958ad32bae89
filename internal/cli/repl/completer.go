package repl

import (
	"sort"
	"strings"
)

var builtins = []string{"exit", "help", "history", "quit"}

// Completer looks up commands by prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for commands plus the built-ins.
func NewCompleter(commands []string) *Completer {
	all := append(append([]string(nil), commands...), builtins...)
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the commands that start with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Known reports whether name is a complete command word.
func (c *Completer) Known(name string) bool {
	for _, cmd := range c.commands {
		if cmd == name || strings.HasPrefix(cmd, name+" ") {
			return true
		}
	}
	return false
}
