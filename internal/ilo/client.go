package ilo

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/hwerr"
)

const (
	endpointTemperature = "/json/health_temperature"
	endpointFans        = "/json/health_fans"
	endpointPower       = "/json/power_summary"
	endpointPids        = "/json/fan_pids"
)

// Client issues read-only queries against the controller's JSON endpoints.
// It is stateless; every call is bounded by the configured query timeout.
type Client struct {
	baseUrl    string
	username   string
	password   string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(config configuration.IloConfig) *Client {
	transport := &http.Transport{
		// management controllers almost universally present self-signed certs
		TLSClientConfig: &tls.Config{InsecureSkipVerify: config.InsecureSkipVerify},
	}

	return &Client{
		baseUrl:  fmt.Sprintf("https://%s:%d", config.Host, config.Port),
		username: config.Username,
		password: config.Password,
		httpClient: &http.Client{
			Timeout:   config.QueryTimeout,
			Transport: transport,
		},
		now: time.Now,
	}
}

// Fetch retrieves the current snapshot for the given domain.
func (c *Client) Fetch(ctx context.Context, domain Domain) (Snapshot, error) {
	switch domain {
	case DomainSensors:
		return c.Sensors(ctx)
	case DomainFans:
		return c.Fans(ctx)
	case DomainPower:
		return c.Power(ctx)
	case DomainPid:
		return c.Pids(ctx)
	}
	return nil, hwerr.New(hwerr.KindValidation, "unknown telemetry domain: %s", domain)
}

type wireSensor struct {
	Label          string  `json:"label"`
	Location       string  `json:"location"`
	Status         string  `json:"status"`
	CurrentReading float64 `json:"currentreading"`
	Critical       float64 `json:"critical"`
	Fatal          float64 `json:"fatal"`
}

type wireTemperature struct {
	Temperature []wireSensor `json:"temperature"`
}

func (c *Client) Sensors(ctx context.Context) (*SensorSnapshot, error) {
	var payload wireTemperature
	if err := c.get(ctx, endpointTemperature, &payload); err != nil {
		return nil, err
	}

	timestamp := c.now()
	snapshot := &SensorSnapshot{Timestamp: timestamp}
	for _, sensor := range payload.Temperature {
		if sensor.Label == "" {
			return nil, hwerr.New(hwerr.KindRemoteUnreachable,
				"controller returned a sensor without a label")
		}
		status := sensor.Status
		if status == "" {
			status = ComputeStatus(sensor.CurrentReading, sensor.Critical, sensor.Fatal)
		}
		snapshot.Sensors = append(snapshot.Sensors, SensorReading{
			Name:              sensor.Label,
			Context:           sensor.Location,
			Reading:           sensor.CurrentReading,
			CriticalThreshold: sensor.Critical,
			FatalThreshold:    sensor.Fatal,
			Status:            status,
			Timestamp:         timestamp,
		})
	}
	return snapshot, nil
}

type wireFan struct {
	Label     string `json:"label"`
	Status    string `json:"status"`
	Health    string `json:"health"`
	Speed     int    `json:"speed"`
	SpeedUnit string `json:"speed_unit"`
}

type wireFans struct {
	Fans []wireFan `json:"fans"`
}

func (c *Client) Fans(ctx context.Context) (*FanSnapshot, error) {
	var payload wireFans
	if err := c.get(ctx, endpointFans, &payload); err != nil {
		return nil, err
	}

	timestamp := c.now()
	snapshot := &FanSnapshot{Timestamp: timestamp}
	for _, fan := range payload.Fans {
		if fan.Label == "" {
			return nil, hwerr.New(hwerr.KindRemoteUnreachable,
				"controller returned a fan without a label")
		}
		if fan.Speed < 0 || fan.Speed > 100 {
			return nil, hwerr.New(hwerr.KindRemoteUnreachable,
				"controller returned an out-of-range speed %d for fan %s", fan.Speed, fan.Label)
		}
		snapshot.Fans = append(snapshot.Fans, FanReading{
			Name:      fan.Label,
			Speed:     fan.Speed,
			Status:    fan.Status,
			Health:    fan.Health,
			Timestamp: timestamp,
		})
	}
	return snapshot, nil
}

type wirePower struct {
	PresentReading   int    `json:"present_power_reading"`
	AverageReading   int    `json:"average_power_reading"`
	MinimumReading   int    `json:"minimum_power_reading"`
	MaximumReading   int    `json:"maximum_power_reading"`
	PowerCap         int    `json:"power_cap"`
	RegulationMode   string `json:"regulation_mode"`
	WarningThreshold int    `json:"warning_threshold"`
	WarningDuration  int    `json:"warning_duration"`
	FirmwareVersion  string `json:"firmware_version"`
}

func (c *Client) Power(ctx context.Context) (*PowerSnapshot, error) {
	var payload wirePower
	if err := c.get(ctx, endpointPower, &payload); err != nil {
		return nil, err
	}

	return &PowerSnapshot{
		PresentPower:     payload.PresentReading,
		AveragePower:     payload.AverageReading,
		MinPower:         payload.MinimumReading,
		MaxPower:         payload.MaximumReading,
		PowerCap:         payload.PowerCap,
		RegulationMode:   payload.RegulationMode,
		WarningThreshold: payload.WarningThreshold,
		WarningDuration:  payload.WarningDuration,
		FirmwareVersion:  payload.FirmwareVersion,
		Timestamp:        c.now(),
	}, nil
}

type wirePid struct {
	Number    int     `json:"number"`
	PGain     float64 `json:"p_gain"`
	IGain     float64 `json:"i_gain"`
	DGain     float64 `json:"d_gain"`
	SetPoint  float64 `json:"set_point"`
	LowLimit  float64 `json:"low_limit"`
	HighLimit float64 `json:"high_limit"`
	PrevDrive float64 `json:"prev_drive"`
	Output    float64 `json:"output"`
	IsActive  int     `json:"is_active"`
}

type wirePids struct {
	Records []wirePid `json:"records"`
}

func (c *Client) Pids(ctx context.Context) (*PidSnapshot, error) {
	var payload wirePids
	if err := c.get(ctx, endpointPids, &payload); err != nil {
		return nil, err
	}

	snapshot := &PidSnapshot{Timestamp: c.now()}
	for _, record := range payload.Records {
		snapshot.Records = append(snapshot.Records, PidRecord{
			Number:    record.Number,
			PGain:     record.PGain,
			IGain:     record.IGain,
			DGain:     record.DGain,
			SetPoint:  record.SetPoint,
			LowLimit:  record.LowLimit,
			HighLimit: record.HighLimit,
			PrevDrive: record.PrevDrive,
			Output:    record.Output,
			Active:    record.IsActive != 0,
		})
	}
	return snapshot, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseUrl+path, nil)
	if err != nil {
		return hwerr.Wrap(hwerr.KindRemoteUnreachable, err, "building request for %s", path)
	}
	request.SetBasicAuth(c.username, c.password)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return hwerr.Wrap(hwerr.KindRemoteUnreachable, err, "querying %s", path)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return hwerr.New(hwerr.KindRemoteUnreachable, "controller rejected credentials for %s", path)
	case response.StatusCode != http.StatusOK:
		return hwerr.New(hwerr.KindRemoteUnreachable, "controller answered %d for %s", response.StatusCode, path)
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return hwerr.Wrap(hwerr.KindRemoteUnreachable, err, "malformed response from %s", path)
	}
	return nil
}
