package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/sim"
)

const historyCapacity = 600

type frameMsg sim.Paced

type doneMsg struct{}

// Model is the live telemetry view. It owns no simulation state; everything it
// shows arrives on the frame stream.
type Model struct {
	title    string
	frames   <-chan sim.Paced
	frame    sim.Frame
	metrics  []sim.Metric
	speeds   map[string][]float64
	selected int
	theme    int
	styles   Styles
	err      error
	done     bool
	showHelp bool
}

// NewModel builds a view over frames. Metrics are observed on every frame and
// shown beside the ship table.
func NewModel(title string, frames <-chan sim.Paced, metrics ...sim.Metric) Model {
	return Model{
		title:   title,
		frames:  frames,
		metrics: metrics,
		speeds:  make(map[string][]float64),
		styles:  NewStyles(Themes[0]),
	}
}

// WithTheme selects a theme by name.
func (m Model) WithTheme(name string) Model {
	m.theme = ThemeIndex(name)
	m.styles = NewStyles(Themes[m.theme])
	return m
}

func waitFrame(frames <-chan sim.Paced) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-frames
		if !ok {
			return doneMsg{}
		}
		return frameMsg(p)
	}
}

func (m Model) Init() tea.Cmd {
	return waitFrame(m.frames)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if n := len(m.frame.Ships); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = NewStyles(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		}
	case frameMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, waitFrame(m.frames)
		}
		m.record(msg.Frame)
		return m, waitFrame(m.frames)
	case doneMsg:
		m.done = true
	}
	return m, nil
}

func (m *Model) record(f sim.Frame) {
	m.frame = f
	for _, metric := range m.metrics {
		metric.Observe(f)
	}
	for _, snap := range f.Ships {
		h := append(m.speeds[snap.Name], snap.State.Velocity().Norm())
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.speeds[snap.Name] = h
	}
	if m.selected >= len(f.Ships) {
		m.selected = 0
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Error.Render("FAILED: " + m.err.Error())
	case m.done:
		return m.styles.Idle.Render("STOPPED")
	}
	return m.styles.Tracking.Render("RUNNING")
}

func (m Model) View() string {
	st := m.styles
	var s strings.Builder

	s.WriteString(st.Header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(fmt.Sprintf("%s  %s %s  %s %d\n\n",
		m.status(),
		st.Label.Render("t"), st.Value.Render(fmt.Sprintf("%.1fs", m.frame.Time)),
		st.Label.Render("step"), m.frame.Step))

	s.WriteString(st.Label.Render(fmt.Sprintf("  %-10s %-15s %-9s %9s %8s  %-10s %s", "SHIP", "INTENT", "MODE", "SPEED", "|ω|", "THROTTLE", "POSITION")) + "\n")
	for i, snap := range m.frame.Ships {
		s.WriteString(m.row(i, snap) + "\n")
	}

	if len(m.frame.Ships) > 0 {
		sel := m.frame.Ships[m.selected]
		if h := m.speeds[sel.Name]; len(h) > 1 {
			chart := asciigraph.Plot(h,
				asciigraph.Height(6),
				asciigraph.Width(50),
				asciigraph.Caption(sel.Name+" speed (m/s)"))
			s.WriteString(st.Graph.Render(chart) + "\n")
		}
		if sel.Err != nil {
			s.WriteString(st.Error.Render("solver: "+sel.Err.Error()) + "\n")
		}
	}

	if len(m.metrics) > 0 {
		var ms strings.Builder
		for _, metric := range m.metrics {
			ms.WriteString(st.Label.Render(fmt.Sprintf("%-24s", metric.Name())) +
				st.Value.Render(formatMetric(metric.Value())) + "\n")
		}
		s.WriteString(st.Panel.Render(strings.TrimRight(ms.String(), "\n")) + "\n")
	}

	if m.showHelp {
		s.WriteString(st.Muted.Render("\nTab: next ship  T: theme (" + Themes[m.theme].Name + ")  ?: help  Q: quit"))
	} else {
		s.WriteString(st.Muted.Render("\n?: help  Q: quit"))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}

func (m Model) row(i int, snap sim.Snapshot) string {
	st := m.styles
	mode := st.Idle.Render(fmt.Sprintf("%-9s", snap.Mode))
	if snap.Mode == control.ModeTracking {
		mode = st.Tracking.Render(fmt.Sprintf("%-9s", snap.Mode))
	}
	p := snap.State.Position
	line := fmt.Sprintf("%-10s %-15s ", snap.Name, snap.Intent)
	tail := fmt.Sprintf(" %9.2f %-12s %8.3f  %s %s",
		snap.State.Velocity().Norm(),
		Sparkline(m.speeds[snap.Name], 12),
		snap.State.AngularVelocity().Norm(),
		st.Throttle(throttle(snap.Command), 10),
		fmt.Sprintf("(%.0f, %.0f, %.0f)", p.X, p.Y, p.Z))

	if i == m.selected {
		return st.Selected.Render("> "+line) + mode + st.Selected.Render(tail)
	}
	return "  " + st.Value.Render(line) + mode + st.Value.Render(tail)
}

// throttle is the largest thruster command magnitude.
func throttle(cmd []float64) float64 {
	peak := 0.0
	for _, u := range cmd {
		peak = math.Max(peak, math.Abs(u))
	}
	return peak
}

func formatMetric(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "—"
	}
	return fmt.Sprintf("%.4g", v)
}
