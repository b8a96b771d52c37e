package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration options for sensor-dash
type Config struct {
	// Backend Configuration
	BackendURL  string        `json:"backend_url" mapstructure:"backend_url"`   // Base URL of the device backend
	FetchPath   string        `json:"fetch_path" mapstructure:"fetch_path"`     // Route returning all records
	ControlPath string        `json:"control_path" mapstructure:"control_path"` // Route accepting output commands
	APITimeout  time.Duration `json:"api_timeout" mapstructure:"api_timeout"`   // Per-request timeout

	// Command Configuration
	RollbackOnFailure bool `json:"rollback_on_failure" mapstructure:"rollback_on_failure"` // Revert optimistic toggles on failed commands

	// Application Configuration
	Verbose bool   `json:"verbose" mapstructure:"verbose"`   // Enable verbose logging
	LogFile string `json:"log_file" mapstructure:"log_file"` // Log destination while the TUI owns the terminal

	// MQTT Configuration
	MQTTUrl      string        `json:"mqtt_url" mapstructure:"mqtt_url"`           // Optional state mirror broker
	DeviceID     string        `json:"device_id" mapstructure:"device_id"`         // Unique device identifier
	TopicPrefix  string        `json:"topic_prefix" mapstructure:"topic_prefix"`   // Base topic for the mirror
	MQTTInterval time.Duration `json:"mqtt_interval" mapstructure:"mqtt_interval"` // Minimum gap between mirror publishes
}

// GetDefaultConfig returns a configuration with sensible defaults
func GetDefaultConfig() *Config {
	return &Config{
		BackendURL:   "http://localhost:3000",
		FetchPath:    DefaultFetchPath,
		ControlPath:  DefaultControlPath,
		APITimeout:   APITimeout,
		LogFile:      "sensor-dash.log",
		DeviceID:     "sensor_dash",
		TopicPrefix:  "sensor_dash",
		MQTTInterval: MQTTPublishInterval,
	}
}

// Load reads configuration from defaults, an optional sensor-dash.yaml in dir
// and SENSOR_DASH_* environment variables, in increasing precedence.
func Load(dir string) (*Config, error) {
	v := viper.New()

	def := GetDefaultConfig()
	v.SetDefault("backend_url", def.BackendURL)
	v.SetDefault("fetch_path", def.FetchPath)
	v.SetDefault("control_path", def.ControlPath)
	v.SetDefault("api_timeout", def.APITimeout)
	v.SetDefault("rollback_on_failure", def.RollbackOnFailure)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("mqtt_url", def.MQTTUrl)
	v.SetDefault("device_id", def.DeviceID)
	v.SetDefault("topic_prefix", def.TopicPrefix)
	v.SetDefault("mqtt_interval", def.MQTTInterval)

	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL must use http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("backend URL has no host")
	}

	if !strings.HasPrefix(c.FetchPath, "/") || !strings.HasPrefix(c.ControlPath, "/") {
		return fmt.Errorf("fetch and control paths must start with /")
	}

	// MQTT validation - support both WebSocket and standard MQTT protocols
	if c.MQTTUrl != "" {
		if !strings.HasPrefix(c.MQTTUrl, "ws://") &&
			!strings.HasPrefix(c.MQTTUrl, "wss://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtt://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtts://") {
			return fmt.Errorf("MQTT URL must use supported protocol (ws://, wss://, mqtt://, or mqtts://)")
		}
		if c.DeviceID == "" {
			return fmt.Errorf("device ID is required when MQTT is enabled")
		}
	}

	// Set defaults for invalid values
	if c.APITimeout <= 0 {
		c.APITimeout = APITimeout
	}
	if c.MQTTInterval <= 0 {
		c.MQTTInterval = MQTTPublishInterval
	}

	return nil
}

// HasMQTT returns true if the MQTT state mirror is configured
func (c *Config) HasMQTT() bool {
	return c.MQTTUrl != ""
}

// FetchURL returns the absolute URL of the record retrieval endpoint.
func (c *Config) FetchURL() string {
	return strings.TrimRight(c.BackendURL, "/") + c.FetchPath
}

// ControlURL returns the absolute URL of the control endpoint.
func (c *Config) ControlURL() string {
	return strings.TrimRight(c.BackendURL, "/") + c.ControlPath
}
