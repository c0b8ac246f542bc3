package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines color scheme for the TUI
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var Themes = []Theme{
	{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
	},
	{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	},
	{
		Name:    "ocean",
		Primary: lipgloss.Color("#00a8cc"),
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
	},
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// ThemeIndex finds a theme by name, falling back to the first.
func ThemeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}

type Styles struct {
	Header   lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Tracking lipgloss.Style
	Idle     lipgloss.Style
	Error    lipgloss.Style
	Graph    lipgloss.Style
	Panel    lipgloss.Style
	High     lipgloss.Style
	Mid      lipgloss.Style
	Low      lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Label:    lipgloss.NewStyle().Foreground(t.Muted),
		Value:    lipgloss.NewStyle().Foreground(t.Text),
		Selected: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Tracking: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Idle:     lipgloss.NewStyle().Foreground(t.Muted),
		Error:    lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Graph:    lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		High: lipgloss.NewStyle().Foreground(t.Error),
		Mid:  lipgloss.NewStyle().Foreground(t.Warning),
		Low:  lipgloss.NewStyle().Foreground(t.Success),
	}
}

// Throttle renders a command level in [0, 1] as a bar. High settings are
// drawn in the warning colors since they leave little control authority.
func (st Styles) Throttle(level float64, width int) string {
	filled := int(level*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case level > 0.9:
		return st.High.Render(bar)
	case level > 0.5:
		return st.Mid.Render(bar)
	}
	return st.Low.Render(bar)
}

// Sparkline renders the last width values scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return b.String()
}
