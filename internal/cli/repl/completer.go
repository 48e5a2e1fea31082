package repl

import (
	"sort"
	"strings"
)

// Commands are the protocol commands and aliases offered for completion.
var Commands = []string{
	"START", "BEGIN", "STOP", "END", "STATUS", "HELP",
	"LOG_START", "START_FLIGHT", "LOG_STOP", "END_FLIGHT",
	"LIST_FLIGHTS", "DOWNLOAD_FLIGHT:", "DELETE_FLIGHT:",
	"STORAGE_INFO", "CLEAR_DATA", "FORMAT", "VERIFY",
	"RING_DOWNLOAD", "RING_CLEAR", "VERSION",
}

// localCommands are handled by the console itself.
var localCommands = []string{"exit", "quit", "history"}

// Completer provides command completion for the console.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the protocol and console commands.
func NewCompleter() *Completer {
	cmds := make([]string, 0, len(Commands)+len(localCommands))
	cmds = append(cmds, Commands...)
	cmds = append(cmds, localCommands...)
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToUpper(cmd), prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Suggest returns likely commands for a mistyped line: those sharing its
// first few letters, or containing its first word.
func (c *Completer) Suggest(line string) []string {
	word, _, _ := strings.Cut(strings.TrimSpace(line), ":")
	word = strings.ToUpper(strings.TrimSpace(word))
	if len(word) < 2 {
		return nil
	}

	n := 3
	if len(word) < n {
		n = len(word)
	}
	if s := c.Complete(word[:n]); len(s) > 0 {
		return s
	}

	var suggestions []string
	for _, cmd := range c.commands {
		if strings.Contains(strings.ToUpper(cmd), word) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
