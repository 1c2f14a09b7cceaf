// Package tui is a full-screen live view of a tweet stream built on
// bubbletea.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"tweetrelay/pkg/export"
	"tweetrelay/pkg/stream"
)

// PreviewSize is the number of tweets listed in the view
const PreviewSize = 10

// EventMsg carries one stream event into the model
type EventMsg struct {
	Event stream.Event
}

// DoneMsg is sent once the stream has ended
type DoneMsg struct {
	Err error
}

// Model renders the state of an Accumulator while a stream runs
type Model struct {
	title     string
	target    int
	acc       *export.Accumulator
	cancel    func()
	spinner   spinner.Model
	bar       progress.Model
	started   time.Time
	width     int
	done      bool
	aborted   bool
	streamErr error
}

// NewModel creates a model over acc. cancel is called when the user quits
// before the stream ends.
func NewModel(title string, target int, acc *export.Accumulator, cancel func()) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &Model{
		title:   title,
		target:  target,
		acc:     acc,
		cancel:  cancel,
		spinner: s,
		bar:     bar,
		started: time.Now(),
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles key presses, window changes and stream messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.done {
				m.aborted = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 10; w > 10 && w < 80 {
			m.bar.Width = w
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.acc.Apply(msg.Event)
		return m, nil

	case DoneMsg:
		m.done = true
		m.streamErr = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// Done reports whether the stream finished
func (m *Model) Done() bool { return m.done }

// Aborted reports whether the user quit before the stream finished
func (m *Model) Aborted() bool { return m.aborted }

func (m *Model) ratio() float64 {
	if m.target <= 0 {
		return 0
	}
	r := float64(m.acc.Len()) / float64(m.target)
	if r > 1 {
		r = 1
	}
	return r
}
