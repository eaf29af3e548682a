package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tapedeck/ringstream/internal/cli"
)

// seekStep is how far the arrow keys jump, in seconds.
const seekStep = 5.0

// tickMsg drives the position refresh.
type tickMsg time.Time

// Transport is the playback surface the player UI drives.
type Transport interface {
	Position() float64
	SeekTo(seconds float64)
	TogglePause() bool
	Ready() bool
}

// Model implements the Bubbletea model for the player screen.
type Model struct {
	transport Transport
	title     string
	duration  float64
	bar       progress.Model
	paused    bool
	width     int
}

// NewModel creates the player UI for one stream.
func NewModel(transport Transport, title string, duration float64) Model {
	bar := progress.New(progress.WithDefaultGradient())
	return Model{
		transport: transport,
		title:     title,
		duration:  duration,
		bar:       bar,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the position refresh loop.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles key presses and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-10, 60)
		return m, nil

	case tickMsg:
		if m.duration > 0 && m.transport.Position() >= m.duration {
			return m, tea.Quit
		}
		return m, tickCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = m.transport.TogglePause()
		case "left":
			m.transport.SeekTo(m.transport.Position() - seekStep)
		case "right":
			m.transport.SeekTo(m.transport.Position() + seekStep)
		case "home":
			m.transport.SeekTo(0)
		}
	}

	return m, nil
}

// View renders the player screen.
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(cli.TitleStyle.Render("Ringplay"))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(m.title))
	s.WriteString("\n\n")

	pos := m.transport.Position()
	percent := 0.0
	if m.duration > 0 {
		percent = pos / m.duration
		if percent > 1 {
			percent = 1
		}
	}
	s.WriteString(m.bar.ViewAs(percent))
	s.WriteString("\n\n")

	status := "playing"
	switch {
	case m.paused:
		status = "paused"
	case !m.transport.Ready():
		status = "buffering"
	}
	s.WriteString(fmt.Sprintf("%s / %s  %s\n",
		cli.FormatTime(pos), cli.FormatTime(m.duration),
		lipgloss.NewStyle().Faint(true).Render("["+status+"]")))

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).
		Render("space pause  │  ←/→ seek 5s  │  home rewind  │  q quit"))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#1E66A8")).
		Padding(1, 2).
		Render(s.String())
}
