// ABOUTME: Bubbletea model for the playback monitor TUI
// ABOUTME: Renders buffer health, recovery counters, and drift state

package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ringfeed/ringfeed-go/internal/sync"
)

// Model represents the monitor state
type Model struct {
	// Stream
	backend    string
	sampleRate int
	updateRate int
	granted    int
	requested  int

	// Buffer health
	delay     int
	avail     int
	lowWater  int
	highWater int

	// Cursors
	writeIndex int64
	playCursor int64

	// Recovery
	state      string
	underruns  int64
	recoveries int64
	degraded   int64

	// Drift
	drift        float64
	residual     int
	driftQuality sync.Quality

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the monitor
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderBuffer()
	s += m.renderRecovery()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the stream parameters
func (m Model) renderHeader() string {
	stream := "No stream"
	if m.backend != "" {
		stream = fmt.Sprintf("%s %dHz @ %dfps, buffer %d/%d frames",
			m.backend, m.sampleRate, m.updateRate, m.granted, m.requested)
	}

	return fmt.Sprintf(`┌─ Ringfeed Monitor ───────────────────────────────────┐
│ Stream: %-45s│
├──────────────────────────────────────────────────────┤
`, truncate(stream, 45))
}

// renderBuffer renders queued delay against the watermark band
func (m Model) renderBuffer() string {
	band := ""
	if m.highWater > 0 {
		band = renderBar(m.delay, 2*m.highWater, 20)
	}

	delayMs := 0.0
	if m.sampleRate > 0 {
		delayMs = float64(m.delay) * 1000 / float64(m.sampleRate)
	}

	return fmt.Sprintf("│ Queued: [%s] %d frames (%.0fms)%-8s│\n"+
		"│ Band:   low %d  high %d  avail %d%-10s│\n",
		band, m.delay, delayMs, "",
		m.lowWater, m.highWater, m.avail, "")
}

// renderRecovery renders write state and recovery counters
func (m Model) renderRecovery() string {
	driftIcon := "✗"
	driftText := "no data"
	switch m.driftQuality {
	case sync.QualityGood:
		driftIcon = "✓"
		driftText = fmt.Sprintf("%+.1f frames/frame (residual %+d)", m.drift, m.residual)
	case sync.QualityDegraded:
		driftIcon = "⚠"
		driftText = fmt.Sprintf("%+.1f frames/frame DRIFTING", m.drift)
	}

	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Write:  %-10s underruns %d  recovered %d%-6s│
│ Drift:  %s %-44s│
`, m.state, m.underruns, m.recoveries, "", driftIcon, truncate(driftText, 44))
}

// renderDebug renders cursor internals
func (m Model) renderDebug() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ DEBUG:                                               │
│   write index: %-20d                  │
│   play cursor: %-20d                  │
│   degraded frames: %-16d                  │
`, m.writeIndex, m.playCursor, m.degraded)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Backend != "" {
		m.backend = msg.Backend
		m.sampleRate = msg.SampleRate
		m.updateRate = msg.UpdateRate
		m.granted = msg.Granted
		m.requested = msg.Requested
		m.lowWater = msg.LowWater
		m.highWater = msg.HighWater
	}

	m.delay = msg.Delay
	m.avail = msg.Avail
	m.writeIndex = msg.WriteIndex
	m.playCursor = msg.PlayCursor

	if msg.State != "" {
		m.state = msg.State
	}
	m.underruns = msg.Underruns
	m.recoveries = msg.Recoveries
	m.degraded = msg.Degraded

	m.drift = msg.Drift
	m.residual = msg.Residual
	m.driftQuality = msg.DriftQuality
}

// StatusMsg updates monitor state once per frame
type StatusMsg struct {
	Backend    string
	SampleRate int
	UpdateRate int
	Granted    int
	Requested  int
	LowWater   int
	HighWater  int

	Delay      int
	Avail      int
	WriteIndex int64
	PlayCursor int64

	State      string
	Underruns  int64
	Recoveries int64
	Degraded   int64

	Drift        float64
	Residual     int
	DriftQuality sync.Quality
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
