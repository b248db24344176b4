package cli

import "strings"

// Command is a parsed slash command.
type Command struct {
	Name    string
	Args    []string
	RawArgs string
}

// ParseCommand parses a slash command from user input. Command names
// are case-insensitive. Input without a leading slash is not a
// command and returns nil.
func ParseCommand(input string) *Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	content := input[1:]
	if content == "" {
		return nil
	}

	parts := strings.SplitN(content, " ", 2)
	cmd := &Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.RawArgs = strings.TrimSpace(parts[1])
		cmd.Args = splitArgs(cmd.RawArgs)
	}
	return cmd
}

// splitArgs splits an argument string on spaces while keeping quoted
// substrings together. Quotes themselves are dropped.
func splitArgs(raw string) []string {
	var args []string
	var current strings.Builder
	var quote rune
	inQuotes := false

	for _, ch := range raw {
		switch {
		case (ch == '"' || ch == '\'') && !inQuotes:
			inQuotes = true
			quote = ch
		case ch == quote && inQuotes:
			inQuotes = false
			quote = 0
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}
