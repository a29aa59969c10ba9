package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Configuration {
	domain := DomainPollingConfig{
		Interval: 30 * time.Second,
		Ttl:      60 * time.Second,
	}
	return Configuration{
		Ilo: IloConfig{
			Host:         "ilo.example.org",
			Port:         443,
			SshPort:      22,
			Username:     "Administrator",
			Password:     "secret",
			QueryTimeout: 10 * time.Second,
		},
		Polling: PollingConfig{
			Sensors: domain,
			Fans:    domain,
			Power:   domain,
			Pid:     domain,
		},
		Command: CommandConfig{
			Timeout:           15 * time.Second,
			QueueSize:         8,
			FanSettleDelay:    2 * time.Second,
			SensorSettleDelay: 1500 * time.Millisecond,
		},
		Overrides: OverridesConfig{
			DbPath: "/tmp/overrides.db",
		},
		History: HistoryConfig{
			DbPath:        "/tmp/history.db",
			Retention:     7 * 24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Api: ApiConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    9400,
		},
		Statistics: StatisticsConfig{
			Enabled: true,
			Port:    9401,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	CurrentConfig = validConfig()

	err := Validate("ilosync.yaml")

	assert.NoError(t, err)
}

func TestValidate_MissingHost(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Ilo.Host = ""

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_MissingUsername(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Ilo.Username = ""

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_SubSecondPollingInterval(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Polling.Fans.Interval = 500 * time.Millisecond

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_TtlBelowInterval(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Polling.Sensors.Ttl = 10 * time.Second

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_ZeroQueueSize(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Command.QueueSize = 0

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_NegativeSettleDelay(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Command.FanSettleDelay = -time.Second

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_NonPositiveRetention(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.History.Retention = 0

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_ApiPortOutOfRange(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Api.Port = 70000

	err := Validate("ilosync.yaml")

	assert.Error(t, err)
}

func TestValidate_DisabledApiIgnoresPort(t *testing.T) {
	CurrentConfig = validConfig()
	CurrentConfig.Api.Enabled = false
	CurrentConfig.Api.Port = 0

	err := Validate("ilosync.yaml")

	assert.NoError(t, err)
}
