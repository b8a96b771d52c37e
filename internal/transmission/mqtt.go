package transmission

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jkaberg/sensor-dash/internal/domain"
	"github.com/jkaberg/sensor-dash/internal/mqtt"
	"github.com/jkaberg/sensor-dash/internal/sensors"
	"github.com/jkaberg/sensor-dash/internal/view"
)

// MQTTTransmitter mirrors the dashboard state to MQTT
type MQTTTransmitter struct {
	client           Publisher
	deviceID         string
	topicPrefix      string
	discoveryPrefix  string
	logger           *logrus.Logger
	publishedSensors map[string]bool // Tracks published discovery configs
}

// HADiscoveryConfig represents Home Assistant MQTT discovery configuration
type HADiscoveryConfig struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	ValueTemplate     string   `json:"value_template,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	PayloadOn         string   `json:"payload_on,omitempty"`
	PayloadOff        string   `json:"payload_off,omitempty"`
	Device            HADevice `json:"device"`
	AvailabilityTopic string   `json:"availability_topic"`
	StateClass        string   `json:"state_class,omitempty"`
}

// HADevice represents the device information for Home Assistant
type HADevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// EntityConfig defines one mirrored entity
type EntityConfig struct {
	Name        string
	Key         string // key in the state payload
	EntityType  string // "sensor" / "binary_sensor"
	DeviceClass string
	Unit        string
}

// Entities is the list of values exposed through discovery.
var Entities = []EntityConfig{
	{"Temperature", "temperature", "sensor", "temperature", "°C"},
	{"Humidity", "humidity", "sensor", "humidity", "%"},
	{"Ultrasonic Distance", "ultrasonic", "sensor", "distance", "cm"},
	{"Light Level", "light", "sensor", "", ""},
	{"Yellow LED", "yellow", "binary_sensor", "light", ""},
	{"Blue LED", "blue", "binary_sensor", "light", ""},
	{"Armed", "armed", "binary_sensor", "", ""},
}

// NewMQTTTransmitter creates a new MQTT transmitter
func NewMQTTTransmitter(client Publisher, deviceID, topicPrefix string, logger *logrus.Logger) *MQTTTransmitter {
	return &MQTTTransmitter{
		client:           client,
		deviceID:         mqtt.BuildCleanTopic(deviceID),
		topicPrefix:      topicPrefix,
		discoveryPrefix:  "homeassistant",
		logger:           logger,
		publishedSensors: make(map[string]bool),
	}
}

// BaseTopic returns the base topic for this device
func (t *MQTTTransmitter) BaseTopic() string {
	return baseTopic(t.topicPrefix, t.deviceID)
}

func baseTopic(topicPrefix, deviceID string) string {
	return mqtt.BuildCleanTopic(topicPrefix) + "/" + mqtt.BuildCleanTopic(deviceID)
}

// AvailabilityTopicFor returns the availability topic without needing a
// connected client, so it can be registered as the MQTT will.
func AvailabilityTopicFor(topicPrefix, deviceID string) string {
	return baseTopic(topicPrefix, deviceID) + "/availability"
}

// StateTopic returns the retained state topic
func (t *MQTTTransmitter) StateTopic() string { return t.BaseTopic() + "/state" }

// AvailabilityTopic returns the availability topic for this device
func (t *MQTTTransmitter) AvailabilityTopic() string { return t.BaseTopic() + "/availability" }

// Transmit sends the display state to MQTT
func (t *MQTTTransmitter) Transmit(state domain.DisplayState) error {
	if !t.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	if err := t.publishDiscoveryConfigs(); err != nil {
		// Log error but don't block transmission
		t.logger.WithError(err).Error("Failed to publish Home Assistant discovery configs")
	}

	payload, err := BuildStatePayload(state)
	if err != nil {
		return fmt.Errorf("failed to build state payload: %w", err)
	}

	if err := t.client.Publish(t.StateTopic(), payload, true); err != nil {
		return fmt.Errorf("failed to publish state: %w", err)
	}

	if err := t.PublishAvailability(true); err != nil {
		return fmt.Errorf("failed to publish availability: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"topic":   t.StateTopic(),
		"payload": string(payload),
	}).Debug("Published display state")
	return nil
}

// BuildStatePayload renders the state topic JSON. Unset readings are null.
func BuildStatePayload(state domain.DisplayState) ([]byte, error) {
	payload := map[string]interface{}{
		"temperature": state.Temperature,
		"humidity":    state.Humidity,
		"ultrasonic":  state.UltrasonicDistance,
		"light":       state.LightLevel,
		"yellow":      sensors.StateFor(state.YellowOn),
		"blue":        sensors.StateFor(state.BlueOn),
		"status":      state.StatusFlag,
		"armed":       onOff(sensors.IsArmed(state.StatusFlag)),
		"mode":        view.Select(state).String(),
		"last_id":     state.LastSeenID,
	}
	return json.Marshal(payload)
}

func onOff(b bool) string {
	return string(sensors.StateFor(b))
}

// PublishAvailability publishes device availability status
func (t *MQTTTransmitter) PublishAvailability(online bool) error {
	payload := "offline"
	if online {
		payload = "online"
	}
	if err := t.client.Publish(t.AvailabilityTopic(), []byte(payload), true); err != nil {
		return fmt.Errorf("failed to publish availability to %s: %w", t.AvailabilityTopic(), err)
	}
	return nil
}

// IsConnected checks if the MQTT client is connected
func (t *MQTTTransmitter) IsConnected() bool {
	return t.client.IsConnected()
}

// publishDiscoveryConfigs ensures every entity has its discovery config published.
func (t *MQTTTransmitter) publishDiscoveryConfigs() error {
	device := HADevice{
		Identifiers:  []string{fmt.Sprintf("sensor_dash_%s", t.deviceID)},
		Name:         "Sensor Dashboard",
		Model:        "Sensor/Actuator Node",
		Manufacturer: "sensor-dash",
	}

	var failed int
	for _, entity := range Entities {
		if err := t.publishDiscoveryForEntity(entity, device); err != nil {
			t.logger.WithError(err).WithField("entity", entity.Name).Warn("Failed to publish discovery config")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d discovery configs failed", failed)
	}
	return nil
}

func (t *MQTTTransmitter) publishDiscoveryForEntity(entity EntityConfig, device HADevice) error {
	uniqueID := fmt.Sprintf("%s_%s", t.deviceID, entity.Key)
	if t.publishedSensors[uniqueID] {
		return nil
	}

	config := HADiscoveryConfig{
		Name:              entity.Name,
		UniqueID:          uniqueID,
		StateTopic:        t.StateTopic(),
		ValueTemplate:     fmt.Sprintf("{{ value_json.%s }}", entity.Key),
		DeviceClass:       entity.DeviceClass,
		UnitOfMeasurement: entity.Unit,
		AvailabilityTopic: t.AvailabilityTopic(),
		Device:            device,
	}
	if entity.EntityType == "binary_sensor" {
		config.PayloadOn = string(sensors.StateOn)
		config.PayloadOff = string(sensors.StateOff)
	} else if entity.Unit != "" {
		config.StateClass = "measurement"
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery config: %w", err)
	}

	topic := fmt.Sprintf("%s/%s/sensor_dash_%s/%s/config", t.discoveryPrefix, entity.EntityType, t.deviceID, entity.Key)
	if err := t.client.Publish(topic, payload, true); err != nil {
		return err
	}

	t.logger.WithFields(logrus.Fields{
		"entity": entity.Name,
		"topic":  topic,
	}).Info("Published discovery config")

	t.publishedSensors[uniqueID] = true
	return nil
}
