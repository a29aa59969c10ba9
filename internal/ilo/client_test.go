package ilo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/hwerr"
	"github.com/stretchr/testify/assert"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	parsed, err := url.Parse(server.URL)
	assert.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	assert.NoError(t, err)

	return NewClient(configuration.IloConfig{
		Host:               parsed.Hostname(),
		Port:               port,
		Username:           "Administrator",
		Password:           "secret",
		QueryTimeout:       5 * time.Second,
		InsecureSkipVerify: true,
	})
}

func TestClient_Sensors(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointTemperature, r.URL.Path)
		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "Administrator", username)
		assert.Equal(t, "secret", password)

		_, _ = w.Write([]byte(`{
            "temperature": [
                {"label": "01-Inlet Ambient", "location": "Ambient", "status": "OK", "currentreading": 24, "critical": 42, "fatal": 46},
                {"label": "02-CPU 1", "location": "CPU", "currentreading": 75, "critical": 70, "fatal": 0}
            ]
        }`))
	}))

	// WHEN
	snapshot, err := client.Sensors(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Len(t, snapshot.Sensors, 2)
	assert.Equal(t, "01-Inlet Ambient", snapshot.Sensors[0].Name)
	assert.Equal(t, 24.0, snapshot.Sensors[0].Reading)
	// missing status is derived from the thresholds
	assert.Equal(t, StatusCritical, snapshot.Sensors[1].Status)
}

func TestClient_Sensors_MissingLabel(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"temperature": [{"currentreading": 24}]}`))
	}))

	// WHEN
	_, err := client.Sensors(context.Background())

	// THEN
	assert.True(t, hwerr.IsKind(err, hwerr.KindRemoteUnreachable))
}

func TestClient_Fans(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointFans, r.URL.Path)
		_, _ = w.Write([]byte(`{
            "fans": [
                {"label": "Fan 1", "status": "Enabled", "health": "OK", "speed": 23, "speed_unit": "Percentage"},
                {"label": "Fan 2", "status": "Enabled", "health": "OK", "speed": 25, "speed_unit": "Percentage"}
            ]
        }`))
	}))

	// WHEN
	snapshot, err := client.Fans(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Len(t, snapshot.Fans, 2)
	assert.Equal(t, "Fan 1", snapshot.Fans[0].Name)
	assert.Equal(t, 23, snapshot.Fans[0].Speed)
}

func TestClient_Fans_OutOfRangeSpeed(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fans": [{"label": "Fan 1", "speed": 250}]}`))
	}))

	// WHEN
	_, err := client.Fans(context.Background())

	// THEN
	assert.True(t, hwerr.IsKind(err, hwerr.KindRemoteUnreachable))
}

func TestClient_Power(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointPower, r.URL.Path)
		_, _ = w.Write([]byte(`{
            "present_power_reading": 176,
            "average_power_reading": 170,
            "minimum_power_reading": 160,
            "maximum_power_reading": 194,
            "power_cap": 0,
            "regulation_mode": "max",
            "firmware_version": "2.77"
        }`))
	}))

	// WHEN
	snapshot, err := client.Power(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 176, snapshot.PresentPower)
	assert.Equal(t, "max", snapshot.RegulationMode)
	assert.Equal(t, "2.77", snapshot.FirmwareVersion)
}

func TestClient_Pids(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointPids, r.URL.Path)
		_, _ = w.Write([]byte(`{
            "records": [
                {"number": 32, "p_gain": 2.5, "i_gain": 0.1, "d_gain": 0, "set_point": 60, "low_limit": 20, "high_limit": 100, "prev_drive": 28, "output": 28.5, "is_active": 1},
                {"number": 33, "is_active": 0}
            ]
        }`))
	}))

	// WHEN
	snapshot, err := client.Pids(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Len(t, snapshot.Records, 2)
	assert.True(t, snapshot.Records[0].Active)
	assert.False(t, snapshot.Records[1].Active)
	assert.Equal(t, 60.0, snapshot.Records[0].SetPoint)
}

func TestClient_RejectedCredentials(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	// WHEN
	_, err := client.Sensors(context.Background())

	// THEN
	assert.True(t, hwerr.IsKind(err, hwerr.KindRemoteUnreachable))
}

func TestClient_MalformedResponse(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))

	// WHEN
	_, err := client.Fans(context.Background())

	// THEN
	assert.True(t, hwerr.IsKind(err, hwerr.KindRemoteUnreachable))
}

func TestClient_Fetch_UnknownDomain(t *testing.T) {
	// GIVEN
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// WHEN
	_, err := client.Fetch(context.Background(), Domain("thermals"))

	// THEN
	assert.True(t, hwerr.IsKind(err, hwerr.KindValidation))
}
