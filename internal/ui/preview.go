package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Session is a running nested screen driven by the preview. Every method is
// called from the bubbletea update loop, which makes it the single owner.
type Session interface {
	// Ready is signalled when host events are waiting.
	Ready() <-chan struct{}
	// Pump drains host events.
	Pump() Status
	// Frame advances the test pattern and repaints.
	Frame() Status
	Close()
}

// Status is a snapshot of the session shown in the status line.
type Status struct {
	Title         string
	Width, Height int
	Shm           bool
	Events        int
	Frames        int
	Closed        bool
	Err           error
}

type readyMsg struct{}

type frameMsg time.Time

// PreviewModel shows the state of a nested screen while pumping its host
// events.
type PreviewModel struct {
	session  Session
	interval time.Duration
	spinner  spinner.Model
	status   Status
	quitting bool
}

// NewPreviewModel creates a preview repainting every interval.
func NewPreviewModel(s Session, initial Status, interval time.Duration) *PreviewModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle
	return &PreviewModel{session: s, interval: interval, spinner: sp, status: initial}
}

func (m *PreviewModel) waitReady() tea.Msg {
	<-m.session.Ready()
	return readyMsg{}
}

func (m *PreviewModel) nextFrame() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *PreviewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitReady, m.nextFrame())
}

func (m *PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.session.Close()
			m.quitting = true
			return m, tea.Quit
		}
	case readyMsg:
		m.status = m.session.Pump()
		if m.status.Closed {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.waitReady
	case frameMsg:
		m.status = m.session.Frame()
		if m.status.Closed {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.nextFrame()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Status returns the last snapshot.
func (m *PreviewModel) Status() Status { return m.status }

func (m *PreviewModel) View() string {
	if m.quitting {
		return ""
	}
	s := m.status

	mode := WarningStyle.Render("private images")
	if s.Shm {
		mode = SuccessStyle.Render("MIT-SHM")
	}
	line := fmt.Sprintf("%s %dx%d  %s  events %d  frames %d",
		m.spinner.View(), s.Width, s.Height, mode, s.Events, s.Frames)

	parts := []string{TitleStyle.Render(s.Title), line}
	if s.Err != nil {
		parts = append(parts, ErrorStyle.Render(s.Err.Error()))
	}
	parts = append(parts, SubtleStyle.Render(FormatControl("q", "Quit")))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
