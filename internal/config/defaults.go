package config

import "time"

// Central place for all application-wide timing constants and other defaults.
// Changing a value here immediately affects all components that import
// github.com/jkaberg/sensor-dash/internal/config.

const (
	// PollInterval is the fixed cadence of the record fetcher. It is
	// deliberately not exposed as a flag or config key.
	PollInterval = 1 * time.Second

	// Operation time-outs (to avoid blocking goroutines)
	APITimeout  = 5 * time.Second // backend GET/POST
	MQTTTimeout = 5 * time.Second // MQTT publish

	// Mirror cadence; state is only pushed when it changed.
	MQTTPublishInterval = 5 * time.Second

	// Backend routes
	DefaultFetchPath   = "/api/getAll"
	DefaultControlPath = "/api/control"

	// ConfigFileName is looked up (without extension) by Load.
	ConfigFileName = "sensor-dash"
	EnvPrefix      = "SENSOR_DASH"
)
