// internal/ui/menu.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kinschat/internal/models"
)

// MenuState holds the state for the model selection overlay.
type MenuState struct {
	entries   []models.Descriptor
	cursor    int
	scrollTop int
	maxHeight int
}

// NewMenuState creates a new menu state.
func NewMenuState() *MenuState {
	return &MenuState{
		maxHeight: 20, // default, will be updated based on terminal size
	}
}

// Load refreshes the entries from the registry, keeping the cursor in range.
func (m *MenuState) Load(registry *models.Registry) {
	m.entries = registry.All()
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Up moves the cursor up.
func (m *MenuState) Up() {
	if m.cursor > 0 {
		m.cursor--
		if m.cursor < m.scrollTop {
			m.scrollTop = m.cursor
		}
	}
}

// Down moves the cursor down.
func (m *MenuState) Down() {
	if m.cursor < len(m.entries)-1 {
		m.cursor++
		if m.cursor >= m.scrollTop+m.maxHeight {
			m.scrollTop = m.cursor - m.maxHeight + 1
		}
	}
}

// Selected returns the descriptor under the cursor, or nil if the list is
// empty.
func (m *MenuState) Selected() *models.Descriptor {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return &m.entries[m.cursor]
	}
	return nil
}

// SetMaxHeight updates the max visible height.
func (m *MenuState) SetMaxHeight(height int) {
	m.maxHeight = height - 10 // leave room for header/footer
	if m.maxHeight < 5 {
		m.maxHeight = 5
	}
}

// Render renders the model selection overlay.
func (m *MenuState) Render(width, height int) string {
	var content strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Render("MODELS")
	content.WriteString(title)
	content.WriteString("\n")
	content.WriteString(DimStyle.Render("Selected models receive your messages"))
	content.WriteString("\n\n")

	if len(m.entries) == 0 {
		content.WriteString(DimStyle.Render("No models configured."))
	} else {
		visibleEnd := m.scrollTop + m.maxHeight
		if visibleEnd > len(m.entries) {
			visibleEnd = len(m.entries)
		}

		for i := m.scrollTop; i < visibleEnd; i++ {
			entry := m.entries[i]

			check := "[ ]"
			checkStyle := DimStyle
			if entry.Selected {
				check = "[x]"
				checkStyle = StatusOK
			}

			cursor := "  "
			nameStyle := ColumnStyle(i)
			if i == m.cursor {
				cursor = "> "
			} else {
				nameStyle = nameStyle.Faint(true)
			}

			content.WriteString(cursor)
			content.WriteString(checkStyle.Render(check))
			content.WriteString(" ")
			content.WriteString(nameStyle.Render(entry.Name))
			if entry.Description != "" {
				content.WriteString(" ")
				content.WriteString(DimStyle.Render("- " + entry.Description))
			}
			content.WriteString("\n")
		}

		if len(m.entries) > m.maxHeight {
			scrollInfo := fmt.Sprintf("Showing %d-%d of %d",
				m.scrollTop+1, visibleEnd, len(m.entries))
			content.WriteString("\n")
			content.WriteString(DimStyle.Render(scrollInfo))
		}
	}

	content.WriteString("\n\n")
	footer := DimStyle.Render("Up/Down: Navigate | Space/Enter: Toggle | Esc: Close")
	content.WriteString(footer)

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 2).
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
