package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/bdsim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 12
	historyCapacity = 600
)

type TickMsg time.Time

// Model watches a single realization grow, one schedule batch per tick.
type Model struct {
	cfg      sim.Config
	idx      int
	runner   *sim.Simulator
	canvas   *Canvas
	running  bool
	fps      int
	width    float64
	mean     float64
	samples  int
	history  []float64
	showHelp bool
}

// NewModel prepares a live view of realization idx of cfg.
func NewModel(cfg sim.Config, idx, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{
		cfg:     cfg,
		idx:     idx,
		runner:  sim.New(cfg, idx),
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		running: true,
		fps:     fps,
		history: make([]float64, 0, historyCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "n":
			m.advance()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.runner.Done() {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) reset() {
	m.runner = sim.New(m.cfg, m.idx)
	m.samples = 0
	m.width, m.mean = 0, 0
	m.history = m.history[:0]
	m.canvas.Clear()
}

func (m *Model) advance() {
	if m.runner.Done() {
		return
	}
	m.width, m.mean = m.runner.Step()
	m.samples++
	if len(m.history) == historyCapacity {
		copy(m.history, m.history[1:])
		m.history = m.history[:historyCapacity-1]
	}
	m.history = append(m.history, m.width)
	m.canvas.DrawProfile(m.runner.Surface().Heights())
}

func (m Model) status() string {
	switch {
	case m.runner.Done():
		return Good.Render("DONE")
	case m.running:
		return Good.Render("RUNNING")
	default:
		return Warn.Render("PAUSED")
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(Title.Render(fmt.Sprintf("ballistic deposition  %s  realization %d", m.cfg, m.idx)))
	b.WriteString("\n\n")

	profile := Panel.Render(strings.TrimRight(m.canvas.String(), "\n"))

	stats := lipgloss.JoinVertical(lipgloss.Left,
		Row("status", m.status()),
		Row("time", fmt.Sprintf("%.2f / %d", m.runner.Time(), m.cfg.MaxTime)),
		Row("samples", fmt.Sprintf("%d / %d", m.samples, m.cfg.Schedule().Steps())),
		Row("width", fmt.Sprintf("%.4f", m.width)),
		Row("mean height", fmt.Sprintf("%.2f", m.mean)),
	)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, profile, "  ", stats))
	b.WriteString("\n\n")

	if len(m.history) > 1 {
		b.WriteString(asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(canvasWidth*2),
			asciigraph.Caption("interface width"),
		))
		b.WriteString("\n\n")
	}

	if m.showHelp {
		b.WriteString(Help.Render("space pause · n step · r restart · q quit · ? hide help"))
	} else {
		b.WriteString(Help.Render("? help"))
	}
	b.WriteString("\n")

	return b.String()
}
