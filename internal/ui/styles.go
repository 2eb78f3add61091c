package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: lime accent on gray.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Dimmed lime for borders and the prompt
	ColorWhite    = "255" // Headers
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Box borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds all UI styles for REPL rendering.
type Styles struct {
	Title      lipgloss.Style
	Header     lipgloss.Style
	Similarity lipgloss.Style
	Context    lipgloss.Style
	Status     lipgloss.Style
	Warning    lipgloss.Style
	Error      lipgloss.Style
	Dim        lipgloss.Style
	Prompt     lipgloss.Style

	Panel lipgloss.Style
	Input lipgloss.Style
}

// DefaultStyles returns styled components for TUI mode.
func DefaultStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Similarity: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Context:    lipgloss.NewStyle(),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Warning:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Prompt:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorLimeDim)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle(),
		Header:     lipgloss.NewStyle(),
		Similarity: lipgloss.NewStyle(),
		Context:    lipgloss.NewStyle(),
		Status:     lipgloss.NewStyle(),
		Warning:    lipgloss.NewStyle(),
		Error:      lipgloss.NewStyle(),
		Dim:        lipgloss.NewStyle(),
		Prompt:     lipgloss.NewStyle(),
		Panel:      lipgloss.NewStyle(),
		Input:      lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
