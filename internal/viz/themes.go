package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/quakeplay/internal/policy"
)

// Theme defines color scheme for the TUI
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Grid      lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Ages      map[policy.Color]lipgloss.Color
}

// Marker returns the terminal color for an age bucket.
func (t Theme) Marker(c policy.Color) lipgloss.Color {
	if v, ok := t.Ages[c]; ok {
		return v
	}
	return t.Text
}

func (t Theme) gridStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Grid)
}

// Available themes
var (
	ThemeClassic = Theme{
		Name:      "classic",
		Primary:   lipgloss.Color("#00ffff"),
		Secondary: lipgloss.Color("#888899"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Grid:      lipgloss.Color("#2a3a4a"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff4444"),
		Ages: map[policy.Color]lipgloss.Color{
			policy.Red:    lipgloss.Color("#ff3b30"),
			policy.Orange: lipgloss.Color("#ff9500"),
			policy.Yellow: lipgloss.Color("#ffcc00"),
			policy.White:  lipgloss.Color("#f2f2f2"),
		},
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"), // Green phosphor
		Secondary: lipgloss.Color("#00cc00"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Grid:      lipgloss.Color("#003300"),
		Success:   lipgloss.Color("#88ff88"),
		Warning:   lipgloss.Color("#ffff00"),
		Error:     lipgloss.Color("#ff0000"),
		Ages: map[policy.Color]lipgloss.Color{
			policy.Red:    lipgloss.Color("#ccffcc"),
			policy.Orange: lipgloss.Color("#88ff88"),
			policy.Yellow: lipgloss.Color("#33cc33"),
			policy.White:  lipgloss.Color("#116611"),
		},
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"), // Ocean blue
		Secondary: lipgloss.Color("#00a8cc"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Grid:      lipgloss.Color("#0a2a44"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffcc00"),
		Error:     lipgloss.Color("#ff4444"),
		Ages: map[policy.Color]lipgloss.Color{
			policy.Red:    lipgloss.Color("#ff4757"),
			policy.Orange: lipgloss.Color("#ff9f43"),
			policy.Yellow: lipgloss.Color("#feca57"),
			policy.White:  lipgloss.Color("#c8d6e5"),
		},
	}

	// All available themes
	Themes = []Theme{
		ThemeClassic,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
