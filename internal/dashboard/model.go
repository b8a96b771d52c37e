// Package dashboard implements the live device dashboard TUI. The BubbleTea
// event loop is the single logical thread: fetches and commands run as
// tea.Cmds and report back as messages, and only Update touches the state.
package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jkaberg/sensor-dash/internal/config"
	"github.com/jkaberg/sensor-dash/internal/dispatch"
	"github.com/jkaberg/sensor-dash/internal/domain"
	"github.com/jkaberg/sensor-dash/internal/sensors"
	"github.com/jkaberg/sensor-dash/internal/view"
)

// Poller returns the latest record, or nil when there is nothing to apply.
// Implementations swallow their own errors.
type Poller interface {
	Poll(ctx context.Context) *sensors.SensorRecord
}

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

// recordMsg carries a successful fetch. seq orders overlapping fetches.
type recordMsg struct {
	seq    uint64
	record sensors.SensorRecord
	time   time.Time
}

// emptyPollMsg reports a fetch that produced nothing to apply.
type emptyPollMsg struct{ seq uint64 }

type commandResultMsg struct{ result dispatch.Result }

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the dashboard.
type Model struct {
	poller     Poller
	dispatcher *dispatch.Dispatcher
	publish    func(domain.DisplayState)
	timeout    time.Duration
	logger     *logrus.Logger

	state domain.DisplayState

	// fetchSeq numbers every issued fetch; appliedSeq is the newest one
	// whose result reached the state.
	fetchSeq   uint64
	appliedSeq uint64

	fresh    bool
	lastPoll time.Time
	width    int
	height   int
}

// New creates the initial model. publish, if non-nil, receives every polled
// state and must not block. Optimistic flips are not published.
func New(poller Poller, dispatcher *dispatch.Dispatcher, publish func(domain.DisplayState), timeout time.Duration, logger *logrus.Logger) Model {
	if publish == nil {
		publish = func(domain.DisplayState) {}
	}
	return Model{
		poller:     poller,
		dispatcher: dispatcher,
		publish:    publish,
		timeout:    timeout,
		logger:     logger,
	}
}

// State returns the current display state.
func (m Model) State() domain.DisplayState { return m.state }

// Mode returns the screen currently selected.
func (m Model) Mode() view.Mode { return view.Select(m.state) }

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(config.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) pollCmd(seq uint64) tea.Cmd {
	poller, timeout := m.poller, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		rec := poller.Poll(ctx)
		if rec == nil {
			return emptyPollMsg{seq: seq}
		}
		return recordMsg{seq: seq, record: *rec, time: time.Now()}
	}
}

func (m Model) sendCmd(cmd dispatch.Command) tea.Cmd {
	d := m.dispatcher
	return func() tea.Msg {
		return commandResultMsg{result: d.Send(context.Background(), cmd)}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

// Init fetches immediately and then once per tick.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(time.Now()) }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "y":
			return m.toggle(sensors.Yellow)
		case "b":
			return m.toggle(sensors.Blue)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// No in-flight guard: a slow fetch does not delay the next one.
		m.fetchSeq++
		return m, tea.Batch(m.pollCmd(m.fetchSeq), tickCmd())

	case recordMsg:
		if msg.seq <= m.appliedSeq {
			m.logger.WithFields(logrus.Fields{
				"seq":     msg.seq,
				"applied": m.appliedSeq,
				"id":      msg.record.ID,
			}).Debug("Dropping out-of-order fetch result")
			return m, nil
		}
		m.appliedSeq = msg.seq

		prev := m.state
		m.state = domain.Reduce(m.state, domain.RecordFetched{Record: msg.record})
		m.fresh = domain.CursorAdvanced(prev, m.state)
		m.lastPoll = msg.time
		m.publish(m.state)

	case emptyPollMsg:
		if msg.seq > m.appliedSeq {
			m.fresh = false
		}

	case commandResultMsg:
		if ev, ok := msg.result.Event(); ok {
			m.state = domain.Reduce(m.state, ev)
		}
	}

	return m, nil
}

func (m Model) toggle(ch sensors.Channel) (tea.Model, tea.Cmd) {
	if !view.ControlsReachable(m.Mode()) {
		return m, nil
	}

	var cmd dispatch.Command
	m.state, cmd = m.dispatcher.Toggle(m.state, ch)

	m.logger.WithFields(logrus.Fields{
		"channel":    cmd.Channel,
		"state":      cmd.Target,
		"request_id": cmd.RequestID,
	}).Info("Toggling output")

	return m, m.sendCmd(cmd)
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}
	return view.Render(m.state, view.Options{
		Width:    m.width - 2,
		LastPoll: m.lastPoll,
		Fresh:    m.fresh,
	})
}
