// Package domain holds the client-local display state and the single reducer
// that every writer (poller, dispatcher) goes through.
package domain

import "github.com/jkaberg/sensor-dash/internal/sensors"

// DisplayState mirrors the latest record plus the dedup cursor. The zero
// value is the pre-first-poll state: everything unset.
type DisplayState struct {
	Temperature        *float64
	Humidity           *float64
	UltrasonicDistance float64
	LightLevel         *float64

	YellowOn bool
	BlueOn   bool

	// StatusFlag is nil until the first successful poll.
	StatusFlag *int

	// LastSeenID is the highest record id applied so far.
	LastSeenID *int64

	// Unconfirmed toggles per channel. Cleared by every poll.
	pendingYellow pendingToggle
	pendingBlue   pendingToggle
}

// pendingToggle remembers the newest in-flight command on a channel and the
// value the channel had before the first unconfirmed flip.
type pendingToggle struct {
	requestID string // empty when nothing is pending
	base      bool
}

// Output returns the displayed boolean for a channel.
func (s DisplayState) Output(ch sensors.Channel) bool {
	switch ch {
	case sensors.Yellow:
		return s.YellowOn
	case sensors.Blue:
		return s.BlueOn
	}
	return false
}

func (s DisplayState) withOutput(ch sensors.Channel, on bool) DisplayState {
	switch ch {
	case sensors.Yellow:
		s.YellowOn = on
	case sensors.Blue:
		s.BlueOn = on
	}
	return s
}

func (s DisplayState) pending(ch sensors.Channel) pendingToggle {
	switch ch {
	case sensors.Yellow:
		return s.pendingYellow
	case sensors.Blue:
		return s.pendingBlue
	}
	return pendingToggle{}
}

func (s DisplayState) withPending(ch sensors.Channel, p pendingToggle) DisplayState {
	switch ch {
	case sensors.Yellow:
		s.pendingYellow = p
	case sensors.Blue:
		s.pendingBlue = p
	}
	return s
}

// Event is anything that may change DisplayState.
type Event interface{ isEvent() }

// RecordFetched carries the authoritative record of a successful poll.
type RecordFetched struct{ Record sensors.SensorRecord }

// OutputToggled is the optimistic flip applied before a command is confirmed.
// RequestID identifies the command carrying the flip.
type OutputToggled struct {
	Channel   sensors.Channel
	On        bool
	RequestID string
}

// CommandSucceeded confirms a command. Emitted only when rollback on failure
// is enabled.
type CommandSucceeded struct {
	Channel   sensors.Channel
	Target    sensors.OutputState
	RequestID string
}

// CommandFailed reverts an optimistic flip. Emitted only when rollback on
// failure is enabled.
type CommandFailed struct {
	Channel   sensors.Channel
	Target    sensors.OutputState
	RequestID string
}

func (RecordFetched) isEvent()    {}
func (OutputToggled) isEvent()    {}
func (CommandSucceeded) isEvent() {}
func (CommandFailed) isEvent()    {}

// Reduce applies ev to s and returns the new state.
func Reduce(s DisplayState, ev Event) DisplayState {
	switch ev := ev.(type) {
	case RecordFetched:
		return applyRecord(s, ev.Record)
	case OutputToggled:
		p := s.pending(ev.Channel)
		if p.requestID == "" {
			p.base = s.Output(ev.Channel)
		}
		p.requestID = ev.RequestID
		return s.withPending(ev.Channel, p).withOutput(ev.Channel, ev.On)
	case CommandSucceeded:
		p := s.pending(ev.Channel)
		if p.requestID == "" {
			return s
		}
		p.base = ev.Target.On()
		if p.requestID == ev.RequestID {
			p = pendingToggle{}
		}
		return s.withPending(ev.Channel, p)
	case CommandFailed:
		// Only the newest command on the channel may undo, and it restores
		// the last value the device is known to hold. Older failures and
		// failures after a poll are left alone.
		p := s.pending(ev.Channel)
		if p.requestID == "" || p.requestID != ev.RequestID {
			return s
		}
		return s.withPending(ev.Channel, pendingToggle{}).withOutput(ev.Channel, p.base)
	}
	return s
}

// applyRecord overwrites every displayed field and, independently, moves the
// cursor forward. The overwrite never depends on the cursor.
func applyRecord(s DisplayState, r sensors.SensorRecord) DisplayState {
	s.Temperature = copyFloat(r.Temperature)
	s.Humidity = copyFloat(r.Humidity)
	s.UltrasonicDistance = r.UltrasonicDistance
	s.LightLevel = copyFloat(r.LightLevel)
	s.YellowOn = r.YellowOutputState.On()
	s.BlueOn = r.BlueOutputState.On()

	status := r.StatusFlag
	s.StatusFlag = &status

	s.pendingYellow = pendingToggle{}
	s.pendingBlue = pendingToggle{}

	if s.LastSeenID == nil || r.ID > *s.LastSeenID {
		id := r.ID
		s.LastSeenID = &id
	}
	return s
}

// CursorAdvanced reports whether the cursor moved between prev and cur.
func CursorAdvanced(prev, cur DisplayState) bool {
	if cur.LastSeenID == nil {
		return false
	}
	return prev.LastSeenID == nil || *cur.LastSeenID > *prev.LastSeenID
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
