package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jkaberg/sensor-dash/internal/netutil"
	"github.com/jkaberg/sensor-dash/internal/sensors"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the per-command correlation id.
const RequestIDHeader = "X-Request-ID"

// ControlRequest is the body accepted by the control endpoint.
type ControlRequest struct {
	LED   string `json:"led"`
	State string `json:"state"`
}

// Client handles communication with the device backend
type Client struct {
	fetchURL   string
	controlURL string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new backend client
func NewClient(fetchURL, controlURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		fetchURL:   fetchURL,
		controlURL: controlURL,
		httpClient: netutil.NewHTTPClient(timeout, logger),
		logger:     logger,
	}
}

// FetchAll retrieves every record known to the backend.
func (c *Client) FetchAll(ctx context.Context) ([]sensors.SensorRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}

	records, err := sensors.ParseRecords(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	c.logger.WithField("records", len(records)).Debug("Successfully parsed records")
	return records, nil
}

// FetchLatest returns the record with the highest id, or nil when the backend
// has no records yet.
func (c *Client) FetchLatest(ctx context.Context) (*sensors.SensorRecord, error) {
	records, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if !sensors.IsAscending(records) {
		c.logger.WithField("records", len(records)).Warn("Backend returned records out of id order; using the last one")
	}

	latest := sensors.Latest(records)
	if latest == nil {
		return nil, nil
	}
	for _, warning := range sensors.ValidateRecord(latest) {
		c.logger.WithField("id", latest.ID).Warn(warning)
	}
	return latest, nil
}

// Poll is the fail-soft variant of FetchLatest: transport and parse errors
// are logged and swallowed, and nil is returned so callers keep their
// previous state.
func (c *Client) Poll(ctx context.Context) *sensors.SensorRecord {
	c.logger.Debug("Polling backend for records...")
	rec, err := c.FetchLatest(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("poll failed")
		return nil
	}
	return rec
}

// SendControl asks the backend to switch an output channel.
func (c *Client) SendControl(ctx context.Context, ch sensors.Channel, state sensors.OutputState, requestID string) error {
	payload, err := json.Marshal(ControlRequest{LED: string(ch), State: string(state)})
	if err != nil {
		return fmt.Errorf("failed to marshal control request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.controlURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, requestID)

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("failed to toggle %s LED: %w", ch, err)
	}

	c.logger.WithFields(logrus.Fields{
		"channel":    ch,
		"state":      state,
		"request_id": requestID,
	}).Debug("Control request accepted")
	return nil
}

// IsHealthy checks if the backend is responding
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.FetchAll(ctx)
	return err == nil
}

// do performs the request and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	c.logger.WithFields(logrus.Fields{
		"method":        req.Method,
		"status_code":   resp.StatusCode,
		"response_size": len(body),
	}).Debug("Received API response")

	return body, nil
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Status)
}
