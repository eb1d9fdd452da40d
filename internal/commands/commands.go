// Package commands handles slash command parsing for the kinschat TUI.
package commands

import (
	"strings"
)

// Command interface for all command types
type Command interface {
	Type() string
}

// Help returns help text
type Help struct{}

func (Help) Type() string { return "help" }

// ToggleModels toggles the model selection panel
type ToggleModels struct{}

func (ToggleModels) Type() string { return "models" }

// SelectModel toggles selection of a single model
type SelectModel struct {
	ID string
}

func (SelectModel) Type() string { return "select" }

// Broadcast sends a message to every selected model
type Broadcast struct {
	Text string
}

func (Broadcast) Type() string { return "all" }

// GenerateImage requests an image for the focused conversation
type GenerateImage struct {
	Prompt string
}

func (GenerateImage) Type() string { return "image" }

// Attach buffers an image file for the next send in the focused
// conversation.
type Attach struct {
	Path string
}

func (Attach) Type() string { return "attach" }

// Speak reads text aloud, or the latest reply when empty
type Speak struct {
	Text string
}

func (Speak) Type() string { return "tts" }

// Export writes a conversation transcript to disk. Model may be
// empty, in which case the focused conversation is exported.
type Export struct {
	Model string
}

func (Export) Type() string { return "export" }

// ClearChat clears the focused conversation
type ClearChat struct{}

func (ClearChat) Type() string { return "clear" }

// Quit exits the program
type Quit struct{}

func (Quit) Type() string { return "quit" }

// ParseError represents a command parsing error
type ParseError struct {
	Message string
}

func (ParseError) Type() string { return "error" }

// Parse parses user input and returns the appropriate Command.
// Returns nil if the input is not a slash command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	// Split into command and arguments
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help":
		return Help{}

	case "/models":
		return ToggleModels{}

	case "/select":
		if len(args) == 0 {
			return ParseError{Message: "/select requires a model id"}
		}
		return SelectModel{ID: args[0]}

	case "/all":
		text := strings.Join(args, " ")
		if text == "" {
			return ParseError{Message: "/all requires a message"}
		}
		return Broadcast{Text: text}

	case "/image":
		prompt := strings.Join(args, " ")
		if prompt == "" {
			return ParseError{Message: "/image requires a prompt"}
		}
		return GenerateImage{Prompt: prompt}

	case "/attach":
		if len(args) == 0 {
			return ParseError{Message: "/attach requires a file path"}
		}
		return Attach{Path: strings.Join(args, " ")}

	case "/tts":
		return Speak{Text: strings.Join(args, " ")}

	case "/export":
		model := ""
		if len(args) > 0 {
			model = args[0]
		}
		return Export{Model: model}

	case "/clear":
		return ClearChat{}

	case "/quit", "/exit":
		return Quit{}

	default:
		return ParseError{Message: "unknown command: " + cmd}
	}
}

// HelpText returns the help text for all available commands.
func HelpText() string {
	return `Available commands:
  /help            - Show this help
  /models          - Toggle the model selection panel
  /select <id>     - Toggle selection of a model
  /all <message>   - Send a message to every selected model
  /image <prompt>  - Generate an image in the focused conversation
  /attach <path>   - Buffer an image file for the next send
  /tts [text]      - Read text aloud (latest reply when omitted)
  /export [model]  - Export a conversation as markdown
  /clear           - Clear the focused conversation
  /quit            - Exit`
}
