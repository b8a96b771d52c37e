// Package view selects and renders the dashboard screen from DisplayState.
package view

import (
	"strconv"

	"github.com/jkaberg/sensor-dash/internal/domain"
	"github.com/jkaberg/sensor-dash/internal/sensors"
)

// Mode is the screen the dashboard shows.
type Mode int

const (
	// Waiting blocks the controls until the device reports a non-zero status.
	Waiting Mode = iota
	// Armed shows full telemetry and both toggle controls.
	Armed
)

func (m Mode) String() string {
	switch m {
	case Armed:
		return "armed"
	case Waiting:
		return "waiting"
	}
	return "unknown"
}

// Select chooses the screen for s. It is re-evaluated on every update with
// no debounce. An unset status (before the first poll) selects Waiting.
func Select(s domain.DisplayState) Mode {
	if sensors.IsArmed(s.StatusFlag) {
		return Armed
	}
	return Waiting
}

// ControlsReachable reports whether the toggle keys are live in mode m.
func ControlsReachable(m Mode) bool { return m == Armed }

// PanelKind distinguishes telemetry read-outs from toggle controls.
type PanelKind int

const (
	Telemetry PanelKind = iota
	Toggle
)

// Panel is one tile of the Armed screen.
type Panel struct {
	Kind  PanelKind
	Title string
	Value string

	// Toggle panels only
	Channel sensors.Channel
	Key     string
	On      bool
}

const loading = "Loading..."

// Panels lists the Armed screen tiles in display order.
func Panels(s domain.DisplayState) []Panel {
	return []Panel{
		togglePanel("LED Yellow", sensors.Yellow, "y", s.YellowOn),
		togglePanel("LED Blue", sensors.Blue, "b", s.BlueOn),
		{Kind: Telemetry, Title: "Temperature", Value: formatOptional(s.Temperature, "°C")},
		{Kind: Telemetry, Title: "Humidity", Value: formatOptional(s.Humidity, "%")},
		{Kind: Telemetry, Title: "Ultrasonic", Value: formatNumber(s.UltrasonicDistance) + "cm"},
		{Kind: Telemetry, Title: "Light", Value: formatOptional(s.LightLevel, "")},
	}
}

func togglePanel(title string, ch sensors.Channel, key string, on bool) Panel {
	label := "Turn On LED"
	if on {
		label = "Turn Off LED"
	}
	return Panel{Kind: Toggle, Title: title, Value: label, Channel: ch, Key: key, On: on}
}

func formatOptional(v *float64, unit string) string {
	if v == nil {
		return loading
	}
	return formatNumber(*v) + unit
}

// formatNumber prints the shortest exact representation, so 22 renders as
// "22" and 22.5 as "22.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
