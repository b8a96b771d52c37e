package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jkaberg/sensor-dash/internal/api"
	"github.com/jkaberg/sensor-dash/internal/app"
	"github.com/jkaberg/sensor-dash/internal/config"
	"github.com/jkaberg/sensor-dash/internal/mqtt"
	"github.com/jkaberg/sensor-dash/internal/sensors"
	"github.com/jkaberg/sensor-dash/internal/transmission"
)

// version is injected at build time via ldflags
var version = "dev"

func main() {
	cfg, once := parseFlags()

	// One-shot path ---------------------------------------------------------------
	if once {
		runOnce(cfg)
		return
	}

	logger, closeLog := setupLogger(cfg.Verbose, cfg.LogFile)
	defer closeLog()

	logger.WithFields(logrus.Fields{
		"version":  version,
		"backend":  cfg.BackendURL,
		"poll":     config.PollInterval,
		"rollback": cfg.RollbackOnFailure,
		"mqtt":     cfg.HasMQTT(),
	}).Info("Starting sensor-dash")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Core clients ---------------------------------------------------------------
	client := api.NewClient(cfg.FetchURL(), cfg.ControlURL(), cfg.APITimeout, logger)
	checkBackend(ctx, client, cfg, logger)

	// Mirror ---------------------------------------------------------------------
	var mirror transmission.Transmitter
	if cfg.HasMQTT() {
		willTopic := transmission.AvailabilityTopicFor(cfg.TopicPrefix, cfg.DeviceID)
		mqttClient, err := mqtt.NewClient(cfg.MQTTUrl, cfg.DeviceID, willTopic, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create MQTT client")
		}
		defer mqttClient.Disconnect(250)

		mqttTx := transmission.NewMQTTTransmitter(mqttClient, cfg.DeviceID, cfg.TopicPrefix, logger)
		defer func() {
			if err := mqttTx.PublishAvailability(false); err != nil {
				logger.WithError(err).Debug("Failed to publish offline availability")
			}
		}()
		mirror = mqttTx
		logger.WithField("topic", mqttTx.StateTopic()).Info("MQTT mirror ready")
	}

	// Run application ------------------------------------------------------------
	if err := app.Run(ctx, cfg, client, mirror, logger); err != nil {
		logger.WithError(err).Error("sensor-dash exited with error")
		return
	}
	logger.Info("sensor-dash stopped")
}

// -----------------------------------------------------------------------------
// Helpers & Flags
// -----------------------------------------------------------------------------

func parseFlags() (*config.Config, bool) {
	cfg, err := config.Load(getEnv("SENSOR_DASH_CONFIG_DIR", "."))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	showVersion := flag.Bool("version", false, "Show version and exit")
	once := flag.Bool("once", false, "Fetch and print the latest record, then exit")

	flag.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "Device backend base URL")
	flag.BoolVar(&cfg.RollbackOnFailure, "rollback", cfg.RollbackOnFailure, "Revert optimistic toggles when the command fails")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file while the dashboard is running")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose logging")
	flag.StringVar(&cfg.MQTTUrl, "mqtt-url", cfg.MQTTUrl, "MQTT URL for the optional state mirror")
	flag.StringVar(&cfg.DeviceID, "device-id", cfg.DeviceID, "Device identifier")
	flag.StringVar(&cfg.TopicPrefix, "topic-prefix", cfg.TopicPrefix, "Base MQTT topic")

	apiTimeoutStr := flag.String("api-timeout", "", "Per-request timeout (e.g. 5s)")
	mqttIntervalStr := flag.String("mqtt-interval", "", "Minimum gap between mirror publishes (e.g. 5s)")

	flag.Parse()

	if *showVersion {
		fmt.Printf("sensor-dash %s\n", version)
		os.Exit(0)
	}

	// Duration overrides
	if d, ok := parseDuration(*apiTimeoutStr); ok {
		cfg.APITimeout = d
	}
	if d, ok := parseDuration(*mqttIntervalStr); ok {
		cfg.MQTTInterval = d
	}

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	return cfg, *once
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return time.Duration(v) * time.Second, true
	}
	return 0, false
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// setupLogger sends logs to logFile so they do not tear the dashboard. An
// empty logFile discards everything below warnings.
func setupLogger(verbose bool, logFile string) (*logrus.Logger, func()) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	if logFile == "" {
		l.SetOutput(io.Discard)
		return l, func() {}
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sensor-dash: cannot open log file %s: %v\n", logFile, err)
		l.SetOutput(io.Discard)
		return l, func() {}
	}
	l.SetOutput(f)
	return l, func() { _ = f.Close() }
}

// checkBackend warns when the backend does not answer at startup. The
// dashboard still starts and keeps polling.
func checkBackend(ctx context.Context, client *api.Client, cfg *config.Config, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.APITimeout)
	defer cancel()
	if !client.IsHealthy(ctx) {
		logger.WithField("url", cfg.FetchURL()).Warn("Backend not reachable; dashboard will keep polling")
	}
}

func runOnce(cfg *config.Config) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.DebugLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
	defer cancel()

	client := api.NewClient(cfg.FetchURL(), cfg.ControlURL(), cfg.APITimeout, logger)
	rec, err := client.FetchLatest(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Fetch failed")
	}
	if rec == nil {
		logger.Info("Backend returned no records")
		return
	}

	logger.WithFields(recordFields(rec)).Info("Latest record")
}

func recordFields(rec *sensors.SensorRecord) logrus.Fields {
	f := logrus.Fields{
		"id":         rec.ID,
		"ultrasonic": rec.UltrasonicDistance,
		"yellow":     rec.YellowOutputState,
		"blue":       rec.BlueOutputState,
		"status":     rec.StatusFlag,
	}
	if rec.Temperature != nil {
		f["temperature"] = *rec.Temperature
	}
	if rec.Humidity != nil {
		f["humidity"] = *rec.Humidity
	}
	if rec.LightLevel != nil {
		f["light"] = *rec.LightLevel
	}
	return f
}
