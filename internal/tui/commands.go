package tui

import "strings"

// Command represents a parsed slash command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a slash command from input.
// Returns nil if the input is not a slash command.
func ParseCommand(input string) *Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	input = input[1:] // strip leading /
	parts := strings.SplitN(input, " ", 2)
	cmd := &Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// HelpText returns the help message for all slash commands.
func HelpText() string {
	return `Available commands:
  /help                Show this help message
  /quit, /bye, /exit   Exit orchat
  /models              List available models
  /model <id>          Switch to a different model
  /system              Show the active system prompt
  /cost                Show per-turn and total cost for this session
  /save [path]         Save the session to disk
  /reset               Start a fresh session (discards unsaved turns)
  /clear               Clear the conversation display
  /update              Download and install the latest release`
}
