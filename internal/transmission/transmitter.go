package transmission

import "github.com/jkaberg/sensor-dash/internal/domain"

// Transmitter defines the interface for mirroring display state
type Transmitter interface {
	Transmit(state domain.DisplayState) error
	IsConnected() bool
}

// Publisher is the subset of the MQTT client a transmitter needs.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
	IsConnected() bool
}
