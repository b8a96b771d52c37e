package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jkaberg/sensor-dash/internal/sensors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *logtest.Hook) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewClient(srv.URL+"/api/getAll", srv.URL+"/api/control", time.Second, logger), hook
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestFetchLatestReturnsLastRecord(t *testing.T) {
	c, _ := newTestClient(t, serveJSON(`[
		{"id":1,"temperature":20,"humidity":35,"ultrasonic":10,"yellow":"off","blue":"off","status":0},
		{"id":2,"temperature":22,"humidity":40,"ultrasonic":15,"yellow":"off","blue":"on","status":5}
	]`))

	rec, err := c.FetchLatest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, int64(2), rec.ID)
	require.Equal(t, 22.0, *rec.Temperature)
	require.True(t, rec.BlueOutputState.On())
}

func TestFetchLatestEmpty(t *testing.T) {
	c, _ := newTestClient(t, serveJSON(`[]`))

	rec, err := c.FetchLatest(context.Background())
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestFetchLatestWarnsOnDisorder(t *testing.T) {
	c, hook := newTestClient(t, serveJSON(`[{"id":9,"yellow":"off","blue":"off"},{"id":4,"yellow":"off","blue":"off"}]`))

	rec, err := c.FetchLatest(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), rec.ID)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestFetchAllStatusError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.FetchAll(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestPollSwallowsErrors(t *testing.T) {
	c, hook := newTestClient(t, serveJSON(`not json`))

	require.Nil(t, c.Poll(context.Background()))
	require.NotNil(t, hook.LastEntry())
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	require.Equal(t, "poll failed", hook.LastEntry().Message)
}

func TestIsHealthy(t *testing.T) {
	c, _ := newTestClient(t, serveJSON(`[]`))
	require.True(t, c.IsHealthy(context.Background()))

	bad, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	require.False(t, bad.IsHealthy(context.Background()))
}

func TestPollUnreachableBackend(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	c := NewClient("http://127.0.0.1:1/api/getAll", "http://127.0.0.1:1/api/control", 200*time.Millisecond, logger)

	require.Nil(t, c.Poll(context.Background()))
	require.Equal(t, "poll failed", hook.LastEntry().Message)
	require.False(t, c.IsHealthy(context.Background()))
}

func TestSendControl(t *testing.T) {
	var got ControlRequest
	var gotID, method, path, contentType string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		contentType = r.Header.Get("Content-Type")
		gotID = r.Header.Get(RequestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.SendControl(context.Background(), sensors.Yellow, sensors.StateOn, "req-1")
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "/api/control", path)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, ControlRequest{LED: "yellow", State: "on"}, got)
	require.Equal(t, "req-1", gotID)
}

func TestSendControlGeneratesRequestID(t *testing.T) {
	var gotID string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
	}))

	require.NoError(t, c.SendControl(context.Background(), sensors.Blue, sensors.StateOff, ""))
	require.Len(t, gotID, 36)
}

func TestSendControlFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := c.SendControl(context.Background(), sensors.Blue, sensors.StateOn, "req-2")
	require.Error(t, err)
	require.Contains(t, err.Error(), "blue")
}
