package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Inks   [inkCount]lipgloss.Style
	Header lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Input  lipgloss.Style
	Idle   lipgloss.Style
}

type BorderColors struct {
	Unselected string
	Selected   string
	Focused    string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		Unselected: "#9CA3AF",
		Selected:   "#DD7090",
		Focused:    "#CCAA00",
	}

	darkModeColors := BorderColors{
		Unselected: "#4B5563",
		Selected:   "#FFB6C1",
		Focused:    "#DDDD77",
	}

	s := &Style{
		Header: lipgloss.NewStyle().Bold(true),
		Status: lipgloss.NewStyle().Faint(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#B91C1C")).
			Padding(0, 1),
		Input: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Focused,
				Dark:  darkModeColors.Focused,
			}),
		Idle: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.AdaptiveColor{
				Light: lightModeColors.Unselected,
				Dark:  darkModeColors.Unselected,
			}),
	}
	s.Inks[inkEdge] = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#64748B"})
	s.Inks[inkCard] = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: lightModeColors.Unselected,
		Dark:  darkModeColors.Unselected,
	})
	s.Inks[inkSelected] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{
		Light: lightModeColors.Selected,
		Dark:  darkModeColors.Selected,
	})
	s.Inks[inkHeader] = lipgloss.NewStyle().Bold(true)
	s.Inks[inkPending] = lipgloss.NewStyle().Italic(true).Faint(true)
	s.Inks[inkAnnotation] = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#F59E0B"})
	return s
}
