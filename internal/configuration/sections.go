package configuration

import "time"

type IloConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	SshPort            int           `json:"sshPort"`
	Username           string        `json:"username"`
	Password           string        `json:"password"`
	QueryTimeout       time.Duration `json:"queryTimeout"`
	InsecureSkipVerify bool          `json:"insecureSkipVerify"`
}

// DomainPollingConfig holds the poll interval and cache TTL for one
// telemetry domain.
type DomainPollingConfig struct {
	Interval time.Duration `json:"interval"`
	Ttl      time.Duration `json:"ttl"`
}

type PollingConfig struct {
	Sensors DomainPollingConfig `json:"sensors"`
	Fans    DomainPollingConfig `json:"fans"`
	Power   DomainPollingConfig `json:"power"`
	Pid     DomainPollingConfig `json:"pid"`
}

type CommandConfig struct {
	Timeout   time.Duration `json:"timeout"`
	QueueSize int           `json:"queueSize"`

	// FanSettleDelay and SensorSettleDelay are the waits between a successful
	// mutating command and the forced re-poll of the affected domain.
	FanSettleDelay    time.Duration `json:"fanSettleDelay"`
	SensorSettleDelay time.Duration `json:"sensorSettleDelay"`
}

type OverridesConfig struct {
	DbPath string `json:"dbPath"`
}

type HistoryConfig struct {
	DbPath        string        `json:"dbPath"`
	Retention     time.Duration `json:"retention"`
	SweepInterval time.Duration `json:"sweepInterval"`
}

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}
