// internal/ui/styles.go
package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Cyan     = lipgloss.Color("#00FFFF")
	Green    = lipgloss.Color("#00FF00")
	Yellow   = lipgloss.Color("#FFD700")
	Orange   = lipgloss.Color("#FFA500")
	Red      = lipgloss.Color("#FF6B6B")
	Magenta  = lipgloss.Color("#FF00FF")
	SkyBlue  = lipgloss.Color("#87CEEB")
	Dim      = lipgloss.Color("#555555")
	White    = lipgloss.Color("#FFFFFF")
	DarkGray = lipgloss.Color("#333333")

	// Column accent colors, assigned to models by registry order
	columnColors = []lipgloss.Color{Cyan, Green, Magenta, Orange, Yellow, SkyBlue}

	// Box styles
	ActiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Cyan)

	InactiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Dim)

	// Text styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)

	UserStyle = lipgloss.NewStyle().
			Foreground(SkyBlue).
			Bold(true)

	SystemStyle = lipgloss.NewStyle().
			Foreground(Yellow)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(Dim)

	ForwardStyle = lipgloss.NewStyle().
			Foreground(Dim).
			Italic(true)

	// Status indicators
	StatusOK   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	StatusWarn = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	StatusCrit = lipgloss.NewStyle().Foreground(Red).Bold(true)
)

// ColumnColor returns the accent color for the model at position idx in
// registry order.
func ColumnColor(idx int) lipgloss.Color {
	if idx < 0 {
		return White
	}
	return columnColors[idx%len(columnColors)]
}

// ColumnStyle returns the header style for the model at position idx.
func ColumnStyle(idx int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColumnColor(idx)).Bold(true)
}
