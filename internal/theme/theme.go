// Package theme provides the colour palettes used by the file picker.
package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colours used by the picker.
type Theme struct {
	Accent    lipgloss.Color
	AccentFg  lipgloss.Color // text on Accent background
	BorderDim lipgloss.Color
	MutedFg   lipgloss.Color
	TextFg    lipgloss.Color
	MatchFg   lipgloss.Color // score column and match counter
	ErrorFg   lipgloss.Color
	Light     bool
}

// Theme names.
const (
	DraculaName         = "dracula"
	DraculaLightName    = "dracula-light"
	NordName            = "nord"
	GruvboxDarkName     = "gruvbox-dark"
	SolarizedLightName  = "solarized-light"
	CatppuccinMochaName = "catppuccin-mocha"
)

var registry = map[string]func() *Theme{
	DraculaName:         Dracula,
	DraculaLightName:    DraculaLight,
	NordName:            Nord,
	GruvboxDarkName:     GruvboxDark,
	SolarizedLightName:  SolarizedLight,
	CatppuccinMochaName: CatppuccinMocha,
}

// Dracula returns the Dracula theme.
func Dracula() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#BD93F9"),
		AccentFg:  lipgloss.Color("#282A36"),
		BorderDim: lipgloss.Color("#44475A"),
		MutedFg:   lipgloss.Color("#6272A4"),
		TextFg:    lipgloss.Color("#F8F8F2"),
		MatchFg:   lipgloss.Color("#50FA7B"),
		ErrorFg:   lipgloss.Color("#FF5555"),
	}
}

// DraculaLight returns the Dracula theme adapted for light backgrounds.
func DraculaLight() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#c6dbe5"),
		AccentFg:  lipgloss.Color("#24292F"),
		BorderDim: lipgloss.Color("#E8E8E8"),
		MutedFg:   lipgloss.Color("#6E7781"),
		TextFg:    lipgloss.Color("#24292F"),
		MatchFg:   lipgloss.Color("#059669"),
		ErrorFg:   lipgloss.Color("#DC2626"),
		Light:     true,
	}
}

// Nord returns the Nord theme.
func Nord() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#88C0D0"),
		AccentFg:  lipgloss.Color("#2E3440"),
		BorderDim: lipgloss.Color("#434C5E"),
		MutedFg:   lipgloss.Color("#81A1C1"),
		TextFg:    lipgloss.Color("#E5E9F0"),
		MatchFg:   lipgloss.Color("#A3BE8C"),
		ErrorFg:   lipgloss.Color("#BF616A"),
	}
}

// GruvboxDark returns the Gruvbox dark theme.
func GruvboxDark() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#FABD2F"),
		AccentFg:  lipgloss.Color("#282828"),
		BorderDim: lipgloss.Color("#3C3836"),
		MutedFg:   lipgloss.Color("#928374"),
		TextFg:    lipgloss.Color("#EBDBB2"),
		MatchFg:   lipgloss.Color("#B8BB26"),
		ErrorFg:   lipgloss.Color("#FB4934"),
	}
}

// SolarizedLight returns the Solarized light theme.
func SolarizedLight() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#268BD2"),
		AccentFg:  lipgloss.Color("#FDF6E3"),
		BorderDim: lipgloss.Color("#EEE8D5"),
		MutedFg:   lipgloss.Color("#93A1A1"),
		TextFg:    lipgloss.Color("#586E75"),
		MatchFg:   lipgloss.Color("#859900"),
		ErrorFg:   lipgloss.Color("#DC322F"),
		Light:     true,
	}
}

// CatppuccinMocha returns the Catppuccin Mocha theme.
func CatppuccinMocha() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#B4BEFE"),
		AccentFg:  lipgloss.Color("#1E1E2E"),
		BorderDim: lipgloss.Color("#313244"),
		MutedFg:   lipgloss.Color("#6C7086"),
		TextFg:    lipgloss.Color("#CDD6F4"),
		MatchFg:   lipgloss.Color("#A6E3A1"),
		ErrorFg:   lipgloss.Color("#F38BA8"),
	}
}

// Normalize returns the canonical theme name, or "" when it is unknown.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := registry[name]; ok {
		return name
	}
	return ""
}

// GetTheme returns a theme by name, or Dracula if not found.
func GetTheme(name string) *Theme {
	if ctor, ok := registry[Normalize(name)]; ok {
		return ctor()
	}
	return Dracula()
}

// Detect picks a default theme from the terminal background.
func Detect() string {
	if lipgloss.HasDarkBackground() {
		return DraculaName
	}
	return DraculaLightName
}

// AvailableThemes returns the sorted theme names.
func AvailableThemes() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
