package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"autogames": {
		Options: []string{"-threads", "-file"},
		Args:    []string{"stop", "analyze"},
	},
	"help": {
		Args: []string{"set", "autogames"},
	},
}

var commandNames = []string{
	"new", "w", "a", "s", "d", "up", "left", "right", "down", "ai", "hint",
	"autoplay", "autogames", "set", "show", "threads", "help", "exit",
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		if metadata, exists := commandMetadata[fields[0]]; exists {
			if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
				completions = metadata.Options
			} else {
				completions = metadata.Args
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
