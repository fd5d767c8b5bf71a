package ui

import "github.com/charmbracelet/lipgloss"

// Palette: warm kitchen tones.
var (
	ColorBase    = lipgloss.Color("#211D1A")
	ColorSurface = lipgloss.Color("#332C27")
	ColorStripe  = lipgloss.Color("#2A2420")
	ColorMuted   = lipgloss.Color("#8C7F74")
	ColorText    = lipgloss.Color("#E6DCD1")
	ColorAccent  = lipgloss.Color("#D08C5B")
	ColorGreen   = lipgloss.Color("#a6e3a1")
	ColorRed     = lipgloss.Color("#f38ba8")
	ColorYellow  = lipgloss.Color("#f9e2af")
)

var (
	accentText = lipgloss.NewStyle().Foreground(ColorAccent)
	mutedText  = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Chrome
var (
	HeaderStyle = accentText.Bold(true).Padding(0, 1)

	// TitleStyle is the header bar with a rule underneath.
	TitleStyle = HeaderStyle.
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	FooterStyle = mutedText.
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted)

	StatusBarStyle = mutedText.Padding(0, 1)

	HelpKeyStyle  = accentText
	HelpDescStyle = mutedText
)

// Catalog table
var (
	TableHeaderStyle = HeaderStyle.Background(ColorSurface)
	NormalRowStyle   = lipgloss.NewStyle().Foreground(ColorText)
	SelectedRowStyle = lipgloss.NewStyle().Foreground(ColorBase).Background(ColorAccent)
	EmptyStateStyle  = mutedText.Italic(true).Padding(2, 4)
)

// Panes and form fields
var (
	LabelStyle        = accentText.Bold(true)
	BorderStyle       = boxed(ColorMuted).Padding(0, 1)
	ActiveBorderStyle = boxed(ColorAccent).Padding(0, 1)
	PanelStyle        = boxed(ColorMuted).Padding(1, 2)
	PreviewStyle      = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(ColorMuted)
)

// Banners and inline notices
var (
	ErrorStyle   = notice(ColorRed)
	SuccessStyle = notice(ColorGreen)
	WarningStyle = notice(ColorYellow)
)

func boxed(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(border)
}

func notice(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Padding(0, 1)
}
