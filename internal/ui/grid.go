// internal/ui/grid.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"kinschat/internal/chat"
)

// renderMessages renders one conversation column's scrollback from a store
// snapshot. Assistant replies go through the markdown renderer when one is
// available; everything else is plain styled text.
func renderMessages(conv chat.Conversation, modelName string, accentIdx int, width int, renderer *glamour.TermRenderer) string {
	var sb strings.Builder

	for _, msg := range conv.Messages {
		ts := msg.Timestamp.Format("15:04")

		var header string
		switch {
		case chat.IsError(msg.ID):
			header = ErrorStyle.Render(fmt.Sprintf("[%s] %s error:", ts, modelName))
		case msg.Forwarded:
			header = ForwardStyle.Render(fmt.Sprintf("[%s] relayed:", ts))
		case msg.Role == chat.RoleUser:
			header = UserStyle.Render(fmt.Sprintf("[%s] You:", ts))
		default:
			name := msg.ModelName
			if name == "" {
				name = modelName
			}
			header = ColumnStyle(accentIdx).Render(fmt.Sprintf("[%s] %s:", ts, name))
		}

		sb.WriteString(header)
		sb.WriteString("\n")
		sb.WriteString(renderBody(msg, width, renderer))

		if len(msg.Images) > 0 {
			sb.WriteString(DimStyle.Render(fmt.Sprintf("  [%d image(s) attached]", len(msg.Images))))
			sb.WriteString("\n")
		}
		if msg.ImageURL != "" {
			sb.WriteString(DimStyle.Render("  image: " + msg.ImageURL))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(conv.ImageData) > 0 {
		sb.WriteString(SystemStyle.Render(fmt.Sprintf("%d image(s) buffered for next send", len(conv.ImageData))))
		sb.WriteString("\n")
	}

	return sb.String()
}

func renderBody(msg chat.Message, width int, renderer *glamour.TermRenderer) string {
	content := msg.Content

	switch {
	case chat.IsThinking(msg.ID):
		return "  " + DimStyle.Italic(true).Render(content) + "\n"
	case chat.IsError(msg.ID):
		return indentStyled(content, ErrorStyle)
	case msg.Forwarded:
		return indentStyled(content, ForwardStyle)
	case msg.Role == chat.RoleAssistant && renderer != nil:
		rendered, err := renderer.Render(content)
		if err == nil {
			return strings.TrimRight(rendered, "\n") + "\n"
		}
		return indentPlain(content)
	default:
		return indentPlain(content)
	}
}

func indentPlain(content string) string {
	var sb strings.Builder
	for _, line := range strings.Split(content, "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func indentStyled(content string, style lipgloss.Style) string {
	var sb strings.Builder
	for _, line := range strings.Split(content, "\n") {
		sb.WriteString("  ")
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// columnHeader renders the title bar of a conversation column.
func columnHeader(name string, accentIdx int, loading bool, spinnerView string, width int) string {
	title := ColumnStyle(accentIdx).Render(name)
	if loading {
		title += " " + spinnerView
	}
	return lipgloss.NewStyle().Width(width).Render(title)
}
