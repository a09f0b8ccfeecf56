package viz

import "github.com/charmbracelet/lipgloss"

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("242"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Width(14)

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Bold(true)

	Good = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82"))

	Warn = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220"))

	Bad = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)
)

// Row renders a label and value pair.
func Row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, Label.Render(label), Value.Render(value))
}

// Bar renders a progress bar of the given width for done out of total.
func Bar(done, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return Good.Render(string(bar[:filled])) + Subtle.Render(string(bar[filled:]))
}
