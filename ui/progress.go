// Package ui provides the terminal output of the narrate CLI.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/dgnsrekt/narrate/internal/tts"
)

const (
	maxBarWidth = 60
	padding     = 2
)

// Task is the work shown by RunProgress. It must report progress through
// onProgress and stop when ctx is canceled.
type Task func(ctx context.Context, onProgress tts.ProgressFunc) error

type (
	progressMsg float64
	doneMsg     struct{ err error }
)

type progressModel struct {
	label   string
	percent float64
	width   int

	bar     progress.Model
	spinner spinner.Model

	done     bool
	canceled bool
	err      error
}

func newProgressModel(label string, width int) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = labelStyle

	if width <= 0 || width > maxBarWidth {
		width = maxBarWidth
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(width))

	return progressModel{
		label:   label,
		width:   width,
		bar:     bar,
		spinner: s,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = min(msg.Width-padding*2, maxBarWidth)
		m.bar.Width = max(m.width, 10)

	case progressMsg:
		m.percent = float64(msg)
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		if msg.err == nil {
			m.percent = 1
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	pad := strings.Repeat(" ", padding)

	if m.done {
		if m.err != nil {
			return pad + errorStyle.Render("Conversion failed") + "\n"
		}
		return pad + labelStyle.Render(m.title()) + " " + statusStyle.Render("done") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + pad + m.spinner.View() + " " + labelStyle.Render(m.title()))
	b.WriteString(" " + statusStyle.Render(StatusText(m.percent)) + "\n")
	b.WriteString(pad + m.bar.ViewAs(m.percent) + "\n")
	b.WriteString(pad + helpStyle.Render("ctrl+c to cancel") + "\n")
	return b.String()
}

func (m progressModel) title() string {
	return truncate.StringWithTail(m.label, uint(max(m.width, 10)), ellipsis) //nolint:gosec
}

// StatusText renders a completed fraction as "Converting... (42%)".
func StatusText(fraction float64) string {
	return fmt.Sprintf("Converting... (%d%%)", percent(fraction))
}

func percent(fraction float64) int {
	return int(min(max(fraction, 0), 1) * 100)
}

// RunProgress runs task while showing its progress on stderr. On a
// terminal it draws an animated bar; otherwise, or with NoProgress set,
// it prints a line whenever the percentage changes. The task's error is
// returned. Pressing ctrl+c cancels the task.
func RunProgress(ctx context.Context, cfg Config, label string, task Task) error {
	if cfg.NoProgress || !term.IsTerminal(int(os.Stderr.Fd())) {
		return runPlain(ctx, os.Stderr, termenv.EnvColorProfile(), label, task)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(label, cfg.ProgressWidth), tea.WithOutput(os.Stderr))

	errc := make(chan error, 1)
	go func() {
		err := task(ctx, func(f float64) { p.Send(progressMsg(f)) })
		errc <- err
		p.Send(doneMsg{err})
	}()

	final, err := p.Run()
	if err != nil {
		log.Debug("progress display stopped", "err", err)
	}
	if m, ok := final.(progressModel); ok && m.canceled {
		cancel()
	}
	return <-errc
}

func runPlain(ctx context.Context, w io.Writer, profile termenv.Profile, label string, task Task) error {
	colorize := plainOutput(profile)
	_, _ = fmt.Fprintln(w, colorize(label))

	last := -1
	err := task(ctx, func(f float64) {
		if p := percent(f); p != last {
			last = p
			_, _ = fmt.Fprintln(w, StatusText(f))
		}
	})
	if err == nil && last != 100 {
		_, _ = fmt.Fprintln(w, StatusText(1))
	}
	return err
}
