package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jkaberg/sensor-dash/internal/domain"
	"github.com/jkaberg/sensor-dash/internal/sensors"
)

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorYellow   = lipgloss.Color("220")
	colorBlue     = lipgloss.Color("39")
	colorOn       = lipgloss.Color("196")
	colorOff      = lipgloss.Color("78")
	colorAlert    = lipgloss.Color("208")
	colorNew      = lipgloss.Color("214")
)

const panelWidth = 24

// Options carries the presentation details that are not part of the state.
type Options struct {
	Width    int
	LastPoll time.Time
	// Fresh marks that the last poll advanced the record cursor.
	Fresh bool
}

// Render draws the complete screen for s.
func Render(s domain.DisplayState, opts Options) string {
	width := opts.Width
	if width < 40 {
		width = 40
	}

	mode := Select(s)

	var sections []string
	sections = append(sections, renderTitleBar(s, mode, opts, width))
	if mode == Armed {
		sections = append(sections, renderArmed(s, width))
	} else {
		sections = append(sections, renderWaiting(width))
	}
	sections = append(sections, renderFooter(mode, width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderTitleBar(s domain.DisplayState, mode Mode, opts Options, width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("SENSOR DASHBOARD")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	statusParts := []string{dimS.Render(strings.ToUpper(mode.String()))}

	if !opts.LastPoll.IsZero() {
		statusParts = append(statusParts, dimS.Render(opts.LastPoll.Format("15:04:05")))
	}
	if s.LastSeenID != nil {
		idText := dimS.Render(fmt.Sprintf("#%d", *s.LastSeenID))
		if opts.Fresh {
			idText = lipgloss.NewStyle().Foreground(colorNew).Bold(true).Render(fmt.Sprintf("NEW #%d", *s.LastSeenID))
		}
		statusParts = append(statusParts, idText)
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func renderArmed(s domain.DisplayState, width int) string {
	perRow := width / (panelWidth + 2)
	if perRow < 1 {
		perRow = 1
	}
	if perRow > 3 {
		perRow = 3
	}

	var rows []string
	var row []string
	for _, p := range Panels(s) {
		row = append(row, renderPanel(p))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderPanel(p Panel) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorLabel).Render(p.Title)

	var body string
	switch p.Kind {
	case Toggle:
		accent := colorYellow
		if p.Channel == sensors.Blue {
			accent = colorBlue
		}
		title = lipgloss.NewStyle().Bold(true).Foreground(accent).Render(p.Title)

		btnColor := colorOff
		if p.On {
			btnColor = colorOn
		}
		button := lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(btnColor).
			Padding(0, 1).
			Render(p.Value)
		key := lipgloss.NewStyle().Foreground(colorDim).Render(" [" + p.Key + "]")
		body = button + key
	default:
		body = lipgloss.NewStyle().Bold(true).Foreground(colorLabel).Render(p.Value)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(panelWidth).
		Render(title + "\n\n" + body)
}

func renderWaiting(width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAlert).
		Padding(1, 4).
		Align(lipgloss.Center).
		Render(
			lipgloss.NewStyle().Bold(true).Foreground(colorAlert).Render("⧗ Alert") +
				"\n\n" +
				lipgloss.NewStyle().Foreground(colorLabel).Render("Please press the switch!"),
		)

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Padding(2, 0).
		Render(box)
}

func renderFooter(mode Mode, width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit")
	if ControlsReachable(mode) {
		keys += dimS.Render("  y") + keyS.Render(":yellow") +
			dimS.Render("  b") + keyS.Render(":blue")
	}

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}
