// internal/ui/help.go
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Help overlay content and rendering

var (
	// Help section title style
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			MarginBottom(1)

	// Help section header style
	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Yellow).
				MarginTop(1)

	// Help key style (for keybindings)
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// Help command style (for slash commands)
	helpCmdStyle = lipgloss.NewStyle().
			Foreground(Magenta)

	// Help description style
	helpDescStyle = lipgloss.NewStyle().
			Foreground(White)

	// Help dim style (for secondary info)
	helpDimStyle = lipgloss.NewStyle().
			Foreground(Dim)
)

// HelpContent returns the formatted help overlay content
func HelpContent(width, height int) string {
	var content strings.Builder

	title := helpTitleStyle.Render("KINSCHAT HELP")
	content.WriteString(title)
	content.WriteString("\n\n")

	content.WriteString(helpSectionStyle.Render("KEYBINDINGS"))
	content.WriteString("\n\n")

	keybindings := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send the input to the focused model"},
		{"Ctrl+A", "Send the input to all selected models"},
		{"Tab", "Focus the next model column"},
		{"Shift+Tab", "Focus the previous model column"},
		{"Ctrl+M", "Toggle the model selection panel"},
		{"Ctrl+X", "Remove the last buffered image"},
		{"PgUp/PgDn", "Scroll the focused conversation"},
		{"F1 / Ctrl+H", "Toggle this help overlay"},
		{"Esc", "Close help or menu / Return to input"},
		{"Ctrl+C / Ctrl+Q", "Quit"},
	}

	for _, kb := range keybindings {
		key := helpKeyStyle.Width(16).Render(kb.key)
		desc := helpDescStyle.Render(kb.desc)
		content.WriteString("  " + key + "  " + desc + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("SLASH COMMANDS"))
	content.WriteString("\n\n")

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help", "Show this help overlay"},
		{"/models", "Toggle the model selection panel"},
		{"/select <id>", "Toggle selection of a single model"},
		{"/all <message>", "Send a message to every selected model"},
		{"/image <prompt>", "Generate an image in the focused conversation"},
		{"/attach <path>", "Buffer an image file for the next send"},
		{"/tts [text]", "Synthesize speech (latest reply when omitted)"},
		{"/export [model]", "Export a conversation as markdown"},
		{"/clear", "Clear the focused conversation"},
		{"/quit", "Exit"},
	}

	for _, cmd := range commands {
		cmdStr := helpCmdStyle.Width(18).Render(cmd.cmd)
		desc := helpDescStyle.Render(cmd.desc)
		content.WriteString("  " + cmdStr + "  " + desc + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("CONVERSATIONS"))
	content.WriteString("\n\n")

	notes := []string{
		"Each selected model keeps its own conversation column.",
		"",
		"1. Messages sent to a single model stay in that column",
		"2. Broadcasts reach every selected model at once",
		"3. Broadcast replies are mirrored across the other columns",
		"4. A failing model never blocks the others",
		"",
		"Deselected models keep their history and resume where they left off.",
	}

	for _, line := range notes {
		if line == "" {
			content.WriteString("\n")
		} else {
			content.WriteString("  " + helpDimStyle.Render(line) + "\n")
		}
	}

	content.WriteString("\n")
	footer := helpDimStyle.Render("Press F1 or Esc to close this help")
	content.WriteString(lipgloss.PlaceHorizontal(width-8, lipgloss.Center, footer))

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3).
		MaxWidth(width - 10).
		MaxHeight(height - 4)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlayStyle.Render(content.String()),
	)
}

// renderHelp renders the help overlay (called from app.go)
func (m Model) renderHelp() string {
	return HelpContent(m.width, m.height)
}
