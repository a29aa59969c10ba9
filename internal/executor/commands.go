package executor

import (
	"context"
	"fmt"

	"github.com/ilosync/ilosync/internal/hwerr"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/overrides"
)

type Operation string

const (
	OpOverrideSensor    Operation = "overrideSensor"
	OpResetOverrides    Operation = "resetOverrides"
	OpSetAllFanSpeeds   Operation = "setAllFanSpeeds"
	OpLockFanAtSpeed    Operation = "lockFanAtSpeed"
	OpUnlockFanControl  Operation = "unlockFanControl"
	OpSetSensorLowLimit Operation = "setSensorLowLimit"
	OpSetPidLowLimit    Operation = "setPidLowLimit"
)

// Device-legal input ranges. Out-of-range input fails fast with a validation
// error and never reaches the channel.
const (
	MinFanSpeed = 10
	MaxFanSpeed = 100

	MinSensorValue = 0
	MaxSensorValue = 125

	MinLimitPercent = 0
	MaxLimitPercent = 100
)

// command is one fully validated unit of work for the channel worker.
type command struct {
	operation     Operation
	shellCommands []string
	affected      []ilo.Domain
	onSuccess     func() error
}

// OverrideSensor forces the reading of a sensor on the controller and in the
// ledger.
func (e *Executor) OverrideSensor(ctx context.Context, id string, value float64) error {
	if id == "" {
		return hwerr.New(hwerr.KindValidation, "sensor id must not be empty")
	}
	if value < MinSensorValue || value > MaxSensorValue {
		return hwerr.New(hwerr.KindValidation,
			"sensor value %.1f out of range [%d..%d]", value, MinSensorValue, MaxSensorValue)
	}

	return e.submit(ctx, command{
		operation: OpOverrideSensor,
		shellCommands: []string{
			fmt.Sprintf("fan t %q lock %.0f", id, value),
		},
		affected: []ilo.Domain{ilo.DomainSensors},
		onSuccess: func() error {
			return e.ledger.Set(overrides.Override{
				Target:    id,
				Kind:      overrides.KindSensor,
				Value:     value,
				AppliedAt: e.now(),
			})
		},
	})
}

// ResetOverrides clears all sensor overrides on the controller and in the
// ledger.
func (e *Executor) ResetOverrides(ctx context.Context) error {
	return e.submit(ctx, command{
		operation: OpResetOverrides,
		shellCommands: []string{
			"fan t global unlock",
		},
		affected: []ilo.Domain{ilo.DomainSensors},
		onSuccess: func() error {
			return e.ledger.Reset(ilo.DomainSensors)
		},
	})
}

// SetAllFanSpeeds locks every fan at the given speed. The ledger records one
// override per known fan in a single atomic batch.
func (e *Executor) SetAllFanSpeeds(ctx context.Context, percent int) error {
	if err := validateFanSpeed(percent); err != nil {
		return err
	}

	return e.submit(ctx, command{
		operation: OpSetAllFanSpeeds,
		shellCommands: []string{
			fmt.Sprintf("fan p global lock %d", percent),
		},
		affected: []ilo.Domain{ilo.DomainFans},
		onSuccess: func() error {
			names := e.fanNames()
			if len(names) == 0 {
				// no fan snapshot yet; the device change still applies and
				// the forced refresh will pick it up
				return nil
			}
			batch := make([]overrides.Override, 0, len(names))
			for _, name := range names {
				batch = append(batch, overrides.Override{
					Target:    name,
					Kind:      overrides.KindFanSpeed,
					Value:     float64(percent),
					AppliedAt: e.now(),
				})
			}
			return e.ledger.SetAll(batch)
		},
	})
}

// LockFanAtSpeed pins a single fan, addressed by its zero-based index.
func (e *Executor) LockFanAtSpeed(ctx context.Context, index int, percent int) error {
	if err := validateFanSpeed(percent); err != nil {
		return err
	}
	if index < 0 {
		return hwerr.New(hwerr.KindValidation, "fan index must not be negative, got %d", index)
	}
	name, exists := e.fanName(index)
	if !exists {
		return hwerr.New(hwerr.KindValidation, "no fan with index %d", index)
	}

	return e.submit(ctx, command{
		operation: OpLockFanAtSpeed,
		shellCommands: []string{
			fmt.Sprintf("fan p %d lock %d", index, percent),
		},
		affected: []ilo.Domain{ilo.DomainFans},
		onSuccess: func() error {
			return e.ledger.Set(overrides.Override{
				Target:    name,
				Kind:      overrides.KindFanLock,
				Value:     float64(percent),
				AppliedAt: e.now(),
			})
		},
	})
}

// UnlockFanControl returns all fans to firmware control and clears all fan
// overrides.
func (e *Executor) UnlockFanControl(ctx context.Context) error {
	return e.submit(ctx, command{
		operation: OpUnlockFanControl,
		shellCommands: []string{
			"fan p global unlock",
		},
		affected: []ilo.Domain{ilo.DomainFans},
		onSuccess: func() error {
			return e.ledger.Reset(ilo.DomainFans)
		},
	})
}

// SetSensorLowLimit adjusts the minimum fan drive the firmware allows for a
// sensor's control loop. Telemetry is unaffected, so no domain is
// invalidated and the ledger is not involved.
func (e *Executor) SetSensorLowLimit(ctx context.Context, id string, percentLimit int) error {
	if id == "" {
		return hwerr.New(hwerr.KindValidation, "sensor id must not be empty")
	}
	if err := validateLimit(percentLimit); err != nil {
		return err
	}

	return e.submit(ctx, command{
		operation: OpSetSensorLowLimit,
		shellCommands: []string{
			fmt.Sprintf("fan t %q lo %d", id, percentLimit),
		},
	})
}

// SetPidLowLimit adjusts the low limit of a PID record.
func (e *Executor) SetPidLowLimit(ctx context.Context, number int, percentLimit int) error {
	if number < 0 {
		return hwerr.New(hwerr.KindValidation, "pid number must not be negative, got %d", number)
	}
	if err := validateLimit(percentLimit); err != nil {
		return err
	}

	return e.submit(ctx, command{
		operation: OpSetPidLowLimit,
		shellCommands: []string{
			fmt.Sprintf("fan pid %d lo %d", number, percentLimit),
		},
		affected: []ilo.Domain{ilo.DomainPid},
	})
}

func validateFanSpeed(percent int) error {
	if percent < MinFanSpeed || percent > MaxFanSpeed {
		return hwerr.New(hwerr.KindValidation,
			"fan speed %d out of range [%d..%d]", percent, MinFanSpeed, MaxFanSpeed)
	}
	return nil
}

func validateLimit(percent int) error {
	if percent < MinLimitPercent || percent > MaxLimitPercent {
		return hwerr.New(hwerr.KindValidation,
			"limit %d out of range [%d..%d]", percent, MinLimitPercent, MaxLimitPercent)
	}
	return nil
}
