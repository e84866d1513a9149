package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#E53935")
	ColorGreen   = lipgloss.Color("#43A047")
	ColorYellow  = lipgloss.Color("#FFCA28")
	ColorCyan    = lipgloss.Color("#00BCD4")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	BusyDotStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	OnlineDotStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	OfflineDotStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FieldLabelStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Width(20)

	FieldValueStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorDimGray)

	AliasStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	CleanStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	WarnTextStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(ColorGreen)

	InfoTextStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	LevelGreenStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	LevelYellowStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	LevelGrayStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)
)

// LevelStyle colours a 0..1 score: green when high, yellow when middling.
func LevelStyle(frac float64) lipgloss.Style {
	switch {
	case frac >= 0.7:
		return LevelGreenStyle
	case frac >= 0.4:
		return LevelYellowStyle
	default:
		return LevelGrayStyle
	}
}
