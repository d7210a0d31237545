// Package tui implements the interactive recording screen.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/audiolibrelab/barscope/internal/render"
	"github.com/audiolibrelab/barscope/internal/service"
)

type (
	tickMsg        time.Time
	eventMsg       service.Event
	previewDoneMsg struct{ err error }
)

// frameOverhead is the border plus padding around the bar graph.
const frameOverhead = 4

// Model is the Bubbletea model for the record screen.
type Model struct {
	svc         service.Service
	surface     *render.TermSurface
	events      chan service.Event
	unsubscribe func()
	fps         int
	outputDir   string

	state    string
	elapsed  string
	saved    string
	notice   string
	err      error
	quitting bool
}

// NewModel subscribes to svc right away so no event between construction and
// the first Update is lost.
func NewModel(svc service.Service, surface *render.TermSurface, fps int, outputDir string) Model {
	events := make(chan service.Event, 64)
	unsubscribe := svc.Subscribe(func(e service.Event) {
		select {
		case events <- e:
		default:
		}
	})

	return Model{
		svc:         svc,
		surface:     surface,
		events:      events,
		unsubscribe: unsubscribe,
		fps:         max(1, fps),
		outputDir:   outputDir,
		state:       "idle",
		elapsed:     "00:00",
	}
}

// Init starts recording and the redraw timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), waitForEvent(m.events), m.tickCmd())
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		m.svc.StartRecording(m.surface)
		return nil
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(ch <-chan service.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-ch)
	}
}

// Update handles key presses, engine events, redraw ticks and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		// Applies to the next session; a live session keeps its size.
		_, rows := m.surface.Box()
		m.surface.SetBox(max(8, msg.Width-frameOverhead), rows)

	case eventMsg:
		m.handleEvent(service.Event(msg))
		return m, waitForEvent(m.events)

	case previewDoneMsg:
		m.notice = ""
		if msg.err != nil {
			m.err = msg.err
		}

	case tickMsg:
		return m, m.tickCmd()
	}

	return m, nil
}

func (m *Model) handleEvent(e service.Event) {
	switch e.Type {
	case service.EventState:
		m.state = e.State
		if e.State == "requesting" {
			m.err = nil
			m.elapsed = "00:00"
		}
	case service.EventTime:
		m.elapsed = e.Time
	case service.EventRecorded:
		path, err := m.svc.SaveRecording(m.outputDir)
		if err != nil {
			m.err = err
			return
		}
		m.saved = path
	case service.EventFailed:
		m.err = errors.New(e.Error)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.svc.AbortRecording()
		m.unsubscribe()
		m.quitting = true
		return m, tea.Quit

	case "enter", " ", "s":
		m.svc.StopRecording()

	case "a":
		m.svc.AbortRecording()

	case "r":
		if m.state == "idle" {
			m.saved = ""
			return m, m.startCmd()
		}

	case "p":
		if _, ok := m.svc.LastRecording(); ok && m.notice == "" {
			m.notice = "previewing"
			svc := m.svc
			return m, func() tea.Msg {
				return previewDoneMsg{err: svc.Preview(context.Background())}
			}
		}
	}
	return m, nil
}
