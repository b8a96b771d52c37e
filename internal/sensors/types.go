package sensors

// OutputState is the wire representation of a binary output.
type OutputState string

const (
	StateOn  OutputState = "on"
	StateOff OutputState = "off"
)

// On reports whether the output is switched on. Anything other than "on" is
// treated as off.
func (s OutputState) On() bool { return s == StateOn }

// Valid reports whether s is one of the two known states.
func (s OutputState) Valid() bool { return s == StateOn || s == StateOff }

// StateFor converts a boolean into its wire state.
func StateFor(on bool) OutputState {
	if on {
		return StateOn
	}
	return StateOff
}

// Channel identifies one of the device's controllable outputs.
type Channel string

const (
	Yellow Channel = "yellow"
	Blue   Channel = "blue"
)

// Channels lists every controllable output in display order.
var Channels = []Channel{Yellow, Blue}

// SensorRecord is one immutable snapshot reported by the device backend.
// We use pointers to float64 for readings that may be unset so we can
// distinguish between a missing value (nil) and a value of 0.
type SensorRecord struct {
	ID int64 `json:"id"`

	Temperature        *float64 `json:"temperature"`
	Humidity           *float64 `json:"humidity"`
	UltrasonicDistance float64  `json:"ultrasonic"` // 0 when absent
	LightLevel         *float64 `json:"LDR"`

	YellowOutputState OutputState `json:"yellow"`
	BlueOutputState   OutputState `json:"blue"`

	// StatusFlag is 0 while the device is not ready/armed.
	StatusFlag int `json:"status"`
}

// Output returns the reported state of the given channel.
func (r SensorRecord) Output(ch Channel) OutputState {
	switch ch {
	case Yellow:
		return r.YellowOutputState
	case Blue:
		return r.BlueOutputState
	}
	return ""
}
