package ilo

import (
	"fmt"
	"time"

	"github.com/ilosync/ilosync/internal/hwerr"
)

// Domain is one independently polled category of controller telemetry.
type Domain string

const (
	DomainSensors Domain = "sensors"
	DomainFans    Domain = "fans"
	DomainPower   Domain = "power"
	DomainPid     Domain = "pid"
)

func AllDomains() []Domain {
	return []Domain{DomainSensors, DomainFans, DomainPower, DomainPid}
}

func ParseDomain(value string) (Domain, error) {
	switch Domain(value) {
	case DomainSensors, DomainFans, DomainPower, DomainPid:
		return Domain(value), nil
	}
	return "", hwerr.New(hwerr.KindValidation, "unknown telemetry domain: %s", value)
}

const (
	StatusOK       = "OK"
	StatusCritical = "Critical"
	StatusFatal    = "Fatal"
	StatusAbsent   = "Absent"

	FanStatusEnabled = "Enabled"
	FanStatusAbsent  = "Absent"
)

type SensorReading struct {
	Name              string    `json:"name"`
	Context           string    `json:"context"`
	Reading           float64   `json:"reading"`
	CriticalThreshold float64   `json:"criticalThreshold"`
	FatalThreshold    float64   `json:"fatalThreshold"`
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
}

// ComputeStatus derives the sensor status from a reading and its thresholds.
// A zero threshold means the controller does not report one for this sensor.
func ComputeStatus(reading, critical, fatal float64) string {
	if fatal > 0 && reading >= fatal {
		return StatusFatal
	}
	if critical > 0 && reading >= critical {
		return StatusCritical
	}
	return StatusOK
}

type FanReading struct {
	Name      string    `json:"name"`
	Speed     int       `json:"speed"`
	Status    string    `json:"status"`
	Health    string    `json:"health"`
	Timestamp time.Time `json:"timestamp"`
}

type PidRecord struct {
	Number    int     `json:"number"`
	PGain     float64 `json:"pGain"`
	IGain     float64 `json:"iGain"`
	DGain     float64 `json:"dGain"`
	SetPoint  float64 `json:"setPoint"`
	LowLimit  float64 `json:"lowLimit"`
	HighLimit float64 `json:"highLimit"`
	PrevDrive float64 `json:"prevDrive"`
	Output    float64 `json:"output"`
	Active    bool    `json:"active"`
}

// Metric is a single numeric series sample extracted from a snapshot,
// consumed by the history store for bucketed aggregation.
type Metric struct {
	Name  string
	Value float64
}

// Snapshot is one wholesale poll result for a domain. Snapshots are immutable
// once produced; merged views are deep copies, never in-place edits.
type Snapshot interface {
	Domain() Domain
	Taken() time.Time
	Metrics() []Metric
}

type SensorSnapshot struct {
	Sensors   []SensorReading `json:"sensors"`
	Timestamp time.Time       `json:"timestamp"`
}

func (s *SensorSnapshot) Domain() Domain {
	return DomainSensors
}

func (s *SensorSnapshot) Taken() time.Time {
	return s.Timestamp
}

func (s *SensorSnapshot) Metrics() []Metric {
	metrics := make([]Metric, 0, len(s.Sensors))
	for _, sensor := range s.Sensors {
		metrics = append(metrics, Metric{Name: sensor.Name, Value: sensor.Reading})
	}
	return metrics
}

type FanSnapshot struct {
	Fans      []FanReading `json:"fans"`
	Timestamp time.Time    `json:"timestamp"`
}

func (s *FanSnapshot) Domain() Domain {
	return DomainFans
}

func (s *FanSnapshot) Taken() time.Time {
	return s.Timestamp
}

func (s *FanSnapshot) Metrics() []Metric {
	metrics := make([]Metric, 0, len(s.Fans))
	for _, fan := range s.Fans {
		metrics = append(metrics, Metric{Name: fan.Name, Value: float64(fan.Speed)})
	}
	return metrics
}

type PidSnapshot struct {
	Records   []PidRecord `json:"records"`
	Timestamp time.Time   `json:"timestamp"`
}

func (s *PidSnapshot) Domain() Domain {
	return DomainPid
}

func (s *PidSnapshot) Taken() time.Time {
	return s.Timestamp
}

func (s *PidSnapshot) Metrics() []Metric {
	metrics := make([]Metric, 0, len(s.Records)*2)
	for _, record := range s.Records {
		metrics = append(metrics,
			Metric{Name: fmt.Sprintf("pid%d_setpoint", record.Number), Value: record.SetPoint},
			Metric{Name: fmt.Sprintf("pid%d_output", record.Number), Value: record.Output},
		)
	}
	return metrics
}

type PowerSnapshot struct {
	PresentPower     int       `json:"presentPower"`
	AveragePower     int       `json:"averagePower"`
	MinPower         int       `json:"minPower"`
	MaxPower         int       `json:"maxPower"`
	PowerCap         int       `json:"powerCap"`
	RegulationMode   string    `json:"regulationMode"`
	WarningThreshold int       `json:"warningThreshold"`
	WarningDuration  int       `json:"warningDuration"`
	FirmwareVersion  string    `json:"firmwareVersion"`
	Timestamp        time.Time `json:"timestamp"`
}

func (s *PowerSnapshot) Domain() Domain {
	return DomainPower
}

func (s *PowerSnapshot) Taken() time.Time {
	return s.Timestamp
}

func (s *PowerSnapshot) Metrics() []Metric {
	return []Metric{
		{Name: "present", Value: float64(s.PresentPower)},
		{Name: "average", Value: float64(s.AveragePower)},
		{Name: "min", Value: float64(s.MinPower)},
		{Name: "max", Value: float64(s.MaxPower)},
		{Name: "cap", Value: float64(s.PowerCap)},
	}
}
