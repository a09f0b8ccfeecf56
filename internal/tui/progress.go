// Package tui shows the progress of a parameter sweep in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/sim"
	"github.com/san-kum/bdsim/internal/sweep"
	"github.com/san-kum/bdsim/internal/viz"
)

const barWidth = 40

type startMsg struct {
	idx, total int
	cfg        sim.Config
}

type finishMsg struct {
	idx, total int
	out        sweep.Outcome
}

type realizationMsg struct {
	done, total int
}

type doneMsg struct {
	outcomes []sweep.Outcome
	err      error
}

// Model is the bubbletea model of a running sweep.
type Model struct {
	started   time.Time
	total     int
	current   int
	cfg       sim.Config
	running   bool
	realDone  int
	realTotal int
	finished  []sweep.Outcome
	err       error
	done      bool
	aborted   bool
}

func NewModel() Model {
	return Model{started: time.Now()}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	case startMsg:
		m.current, m.total, m.cfg = msg.idx, msg.total, msg.cfg
		m.running = true
		m.realDone, m.realTotal = 0, int(msg.cfg.SeedCount)
	case realizationMsg:
		if msg.done > m.realDone {
			m.realDone = msg.done
		}
		m.realTotal = msg.total
	case finishMsg:
		m.finished = append(m.finished, msg.out)
		m.running = false
	case doneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(viz.Title.Render("ballistic deposition sweep"))
	b.WriteString("\n\n")

	if m.total > 0 {
		b.WriteString(viz.Row("ensembles", fmt.Sprintf("%s %d/%d", viz.Bar(len(m.finished), m.total, barWidth), len(m.finished), m.total)))
		b.WriteString("\n")
	}
	if m.running {
		b.WriteString(viz.Row("current", m.cfg.String()))
		b.WriteString("\n")
		b.WriteString(viz.Row("realizations", fmt.Sprintf("%s %d/%d", viz.Bar(m.realDone, m.realTotal, barWidth), m.realDone, m.realTotal)))
		b.WriteString("\n")
	}
	b.WriteString(viz.Row("elapsed", time.Since(m.started).Round(time.Second).String()))
	b.WriteString("\n\n")

	for _, out := range m.finished {
		b.WriteString(viz.Good.Render("✓ "))
		b.WriteString(fmt.Sprintf("%s  %d samples  %s\n", out.Path, out.Samples, out.Elapsed.Round(time.Millisecond)))
	}

	switch {
	case m.err != nil:
		b.WriteString(viz.Bad.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.done:
		b.WriteString(viz.Good.Render("sweep complete"))
		b.WriteString("\n")
	default:
		b.WriteString(viz.Help.Render("q abort"))
		b.WriteString("\n")
	}

	return b.String()
}

// Reporter forwards sweep and realization events to a running program.
type Reporter struct {
	send func(tea.Msg)
}

func (r *Reporter) OnStart(idx, total int, cfg sim.Config) {
	r.send(startMsg{idx: idx, total: total, cfg: cfg})
}

func (r *Reporter) OnFinish(idx, total int, out sweep.Outcome) {
	r.send(finishMsg{idx: idx, total: total, out: out})
}

func (r *Reporter) OnRealization(_ sim.Config, _, done, total int) {
	r.send(realizationMsg{done: done, total: total})
}

// Run executes a sweep while rendering its progress. Quitting the view
// cancels the sweep.
func Run(ctx context.Context, params *config.Params, horizons config.Horizons, sink sweep.Sink, opts ...sweep.Option) ([]sweep.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel())
	rep := &Reporter{send: p.Send}
	opts = append(opts, sweep.WithProgress(rep), sweep.WithObserver(rep))
	s := sweep.New(params, horizons, sink, opts...)

	result := make(chan doneMsg, 1)
	go func() {
		outs, err := s.Run(ctx)
		msg := doneMsg{outcomes: outs, err: err}
		result <- msg
		p.Send(msg)
	}()

	_, err := p.Run()
	cancel()
	r := <-result
	if err != nil {
		return r.outcomes, err
	}
	return r.outcomes, r.err
}
