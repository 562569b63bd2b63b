package theme

import "github.com/charmbracelet/lipgloss"

// Nord theme - Arctic, north-bluish color palette
// https://www.nordtheme.com/
var Nord = Theme{
	Name: "nord",

	// Polar Night (dark backgrounds)
	Background: lipgloss.Color("#2E3440"),
	Foreground: lipgloss.Color("#ECEFF4"),
	Subtle:     lipgloss.Color("#4C566A"),
	Highlight:  lipgloss.Color("#3B4252"),
	Border:     lipgloss.Color("#4C566A"),

	// Frost (primary blues)
	Primary:   lipgloss.Color("#88C0D0"), // Nord8 - bright cyan
	Secondary: lipgloss.Color("#81A1C1"), // Nord9 - desaturated blue
	Info:      lipgloss.Color("#5E81AC"), // Nord10 - dark blue

	// Aurora (accent colors)
	Success: lipgloss.Color("#A3BE8C"), // Nord14 - green
	Warning: lipgloss.Color("#EBCB8B"), // Nord13 - yellow
	Error:   lipgloss.Color("#BF616A"), // Nord11 - red

	// Category colors
	Category: map[string]lipgloss.Color{
		"red":    lipgloss.Color("#BF616A"), // Nord11
		"orange": lipgloss.Color("#D08770"), // Nord12
		"yellow": lipgloss.Color("#EBCB8B"), // Nord13
		"green":  lipgloss.Color("#A3BE8C"), // Nord14
		"purple": lipgloss.Color("#B48EAD"), // Nord15
		"blue":   lipgloss.Color("#5E81AC"), // Nord10
		"teal":   lipgloss.Color("#8FBCBB"), // Nord7
		"pink":   lipgloss.Color("#D8A0C8"),
		"gray":   lipgloss.Color("#4C566A"), // Nord3
	},
}
