package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://localhost:3000/api/getAll", cfg.FetchURL())
	require.Equal(t, "http://localhost:3000/api/control", cfg.ControlURL())
	require.False(t, cfg.HasMQTT())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.BackendURL = "ftp://device" }},
		{"no host", func(c *Config) { c.BackendURL = "http://" }},
		{"relative fetch path", func(c *Config) { c.FetchPath = "api/getAll" }},
		{"bad mqtt scheme", func(c *Config) { c.MQTTUrl = "tcp://broker:1883" }},
		{"mqtt without device", func(c *Config) { c.MQTTUrl = "mqtt://broker:1883"; c.DeviceID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRepairsDurations(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.APITimeout = 0
	cfg.MQTTInterval = -time.Second
	require.NoError(t, cfg.Validate())
	require.Equal(t, APITimeout, cfg.APITimeout)
	require.Equal(t, MQTTPublishInterval, cfg.MQTTInterval)
}

func TestControlURLTrimsSlash(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.BackendURL = "http://10.0.0.5:8080/"
	require.Equal(t, "http://10.0.0.5:8080/api/control", cfg.ControlURL())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "backend_url: http://device.local:8080\napi_timeout: 2s\nrollback_on_failure: true\nmqtt_url: mqtt://broker:1883\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sensor-dash.yaml"), []byte(yaml), 0o644))
	t.Setenv("SENSOR_DASH_DEVICE_ID", "bench_rig")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "http://device.local:8080", cfg.BackendURL)
	require.Equal(t, 2*time.Second, cfg.APITimeout)
	require.True(t, cfg.RollbackOnFailure)
	require.Equal(t, "bench_rig", cfg.DeviceID)
	require.True(t, cfg.HasMQTT())
	require.Equal(t, DefaultFetchPath, cfg.FetchPath)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sensor-dash.yaml"), []byte("backend_url: [unclosed"), 0o644))
	_, err := Load(dir)
	require.Error(t, err)
}
