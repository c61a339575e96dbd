package models

import "strings"

// CommandType enumerates supported operator command categories.
type CommandType string

const (
	CommandOrders   CommandType = "of"
	CommandProgress CommandType = "avancement"
	CommandHelp     CommandType = "aide"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed operator instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))

	if normalized == "" {
		return Command{Type: CommandUnknown, Raw: message}
	}

	tokens := strings.Fields(normalized)
	cmd := Command{Raw: message}

	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.TrimPrefix(tokens[0], "/")
	switch head {
	case string(CommandOrders):
		cmd.Type = CommandOrders
	case string(CommandProgress):
		cmd.Type = CommandProgress
	case string(CommandHelp), "help":
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
