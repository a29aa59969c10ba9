package configuration

import (
	"fmt"
	"time"
)

// Validate checks the loaded configuration for mistakes that would only
// surface as confusing runtime behavior later on.
func Validate(configPath string) error {
	config := &CurrentConfig

	if config.Ilo.Host == "" {
		return fmt.Errorf("%s: ilo.host must be set", configPath)
	}
	if config.Ilo.Username == "" {
		return fmt.Errorf("%s: ilo.username must be set", configPath)
	}
	if config.Ilo.QueryTimeout <= 0 {
		return fmt.Errorf("%s: ilo.queryTimeout must be positive", configPath)
	}

	domains := map[string]DomainPollingConfig{
		"sensors": config.Polling.Sensors,
		"fans":    config.Polling.Fans,
		"power":   config.Polling.Power,
		"pid":     config.Polling.Pid,
	}
	for name, polling := range domains {
		if polling.Interval < time.Second {
			return fmt.Errorf("%s: polling.%s.interval must be at least 1s, got %s",
				configPath, name, anyToSeconds(polling.Interval))
		}
		if polling.Ttl < polling.Interval {
			// a TTL below the interval would flag every read as stale
			return fmt.Errorf("%s: polling.%s.ttl must not be smaller than the interval",
				configPath, name)
		}
	}

	if config.Command.Timeout <= 0 {
		return fmt.Errorf("%s: command.timeout must be positive", configPath)
	}
	if config.Command.QueueSize < 1 {
		return fmt.Errorf("%s: command.queueSize must be at least 1", configPath)
	}
	if config.Command.FanSettleDelay < 0 || config.Command.SensorSettleDelay < 0 {
		return fmt.Errorf("%s: settle delays must not be negative", configPath)
	}

	if config.History.Retention <= 0 {
		return fmt.Errorf("%s: history.retention must be positive", configPath)
	}
	if config.History.SweepInterval <= 0 {
		return fmt.Errorf("%s: history.sweepInterval must be positive", configPath)
	}

	if config.Api.Enabled && (config.Api.Port <= 0 || config.Api.Port >= 65535) {
		return fmt.Errorf("%s: api.port out of range: %d", configPath, config.Api.Port)
	}
	if config.Statistics.Enabled && (config.Statistics.Port <= 0 || config.Statistics.Port >= 65535) {
		return fmt.Errorf("%s: statistics.port out of range: %d", configPath, config.Statistics.Port)
	}

	return nil
}
