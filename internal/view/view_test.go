package view

import (
	"strings"
	"testing"
	"time"

	"github.com/jkaberg/sensor-dash/internal/domain"
	"github.com/jkaberg/sensor-dash/internal/sensors"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func stateWithStatus(status int) domain.DisplayState {
	return domain.Reduce(domain.DisplayState{}, domain.RecordFetched{Record: sensors.SensorRecord{
		ID:                 1,
		Temperature:        f(22),
		Humidity:           f(40),
		UltrasonicDistance: 15,
		YellowOutputState:  sensors.StateOff,
		BlueOutputState:    sensors.StateOff,
		StatusFlag:         status,
	}})
}

func TestSelect(t *testing.T) {
	require.Equal(t, Waiting, Select(domain.DisplayState{}), "unset status starts in Waiting")
	require.Equal(t, Waiting, Select(stateWithStatus(0)))
	require.Equal(t, Armed, Select(stateWithStatus(7)))
	require.Equal(t, Armed, Select(stateWithStatus(-1)))

	require.True(t, ControlsReachable(Armed))
	require.False(t, ControlsReachable(Waiting))
	require.Equal(t, "armed", Armed.String())
}

func TestSelectFlipsWithoutDebounce(t *testing.T) {
	s := stateWithStatus(7)
	modes := []Mode{Select(s)}
	for _, status := range []int{0, 3, 0} {
		s = domain.Reduce(s, domain.RecordFetched{Record: sensors.SensorRecord{ID: 2, StatusFlag: status}})
		modes = append(modes, Select(s))
	}
	require.Equal(t, []Mode{Armed, Waiting, Armed, Waiting}, modes)
}

func TestPanelsScenario(t *testing.T) {
	panels := Panels(stateWithStatus(5))

	values := map[string]string{}
	var toggles []Panel
	for _, p := range panels {
		values[p.Title] = p.Value
		if p.Kind == Toggle {
			toggles = append(toggles, p)
		}
	}

	require.Equal(t, "22°C", values["Temperature"])
	require.Equal(t, "40%", values["Humidity"])
	require.Equal(t, "15cm", values["Ultrasonic"])
	require.Equal(t, "Loading...", values["Light"])

	require.Len(t, toggles, 2)
	require.Equal(t, sensors.Yellow, toggles[0].Channel)
	require.Equal(t, sensors.Blue, toggles[1].Channel)
	for _, p := range toggles {
		require.False(t, p.On)
		require.Equal(t, "Turn On LED", p.Value)
	}
}

func TestPanelsFormatting(t *testing.T) {
	s := domain.DisplayState{Temperature: f(22.5), LightLevel: f(512), YellowOn: true}
	values := map[string]string{}
	for _, p := range Panels(s) {
		values[p.Title] = p.Value
	}
	require.Equal(t, "22.5°C", values["Temperature"])
	require.Equal(t, "Loading...", values["Humidity"])
	require.Equal(t, "0cm", values["Ultrasonic"])
	require.Equal(t, "512", values["Light"])
	require.Equal(t, "Turn Off LED", values["LED Yellow"])
}

func TestRenderWaiting(t *testing.T) {
	out := Render(domain.DisplayState{}, Options{Width: 80})
	require.Contains(t, out, "Please press the switch!")
	require.NotContains(t, out, "Temperature")
	require.NotContains(t, out, ":yellow")
}

func TestRenderArmed(t *testing.T) {
	out := Render(stateWithStatus(7), Options{Width: 100, LastPoll: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Fresh: true})
	for _, want := range []string{"Temperature", "Humidity", "Ultrasonic", "22°C", "40%", "15cm", "Turn On LED", "NEW #1", "03:04:05"} {
		require.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
	require.NotContains(t, out, "Please press the switch!")
}
