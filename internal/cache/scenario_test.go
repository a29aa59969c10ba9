package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/executor"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/overrides"
	"github.com/stretchr/testify/assert"
)

// acceptAllChannel acknowledges every command, standing in for a healthy
// controller shell.
type acceptAllChannel struct{}

func (acceptAllChannel) Execute(ctx context.Context, command string) (string, error) {
	return "", nil
}

func (acceptAllChannel) Close() error {
	return nil
}

func (f *fakeFetcher) set(domain ilo.Domain, snapshot ilo.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[domain] = snapshot
}

func scenarioSetup(t *testing.T, fetcher *fakeFetcher) (*Cache, *executor.Executor) {
	t.Helper()

	ledger := overrides.NewLedger(nil)
	c := NewCache(fetcher, ledger, nil, testPollingConfig())
	invalidator := NewInvalidator(c, 20*time.Millisecond, 20*time.Millisecond)
	t.Cleanup(invalidator.Stop)

	fanNames := func() []string {
		entry, exists := c.Entry(ilo.DomainFans)
		if !exists {
			return nil
		}
		snapshot, ok := entry.Data.(*ilo.FanSnapshot)
		if !ok {
			return nil
		}
		names := make([]string, 0, len(snapshot.Fans))
		for _, fan := range snapshot.Fans {
			names = append(names, fan.Name)
		}
		return names
	}

	e := executor.NewExecutor(
		acceptAllChannel{}, ledger, invalidator,
		configuration.CommandConfig{Timeout: time.Second, QueueSize: 8},
		fanNames,
		func(index int) (string, bool) {
			names := fanNames()
			if index < 0 || index >= len(names) {
				return "", false
			}
			return names[index], true
		},
	)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = e.Run(ctx)
	}()
	t.Cleanup(cancel)

	return c, e
}

func TestScenario_SetAllFanSpeeds(t *testing.T) {
	// GIVEN a cache primed with Fan1 at 40%
	fetcher := &fakeFetcher{snapshots: map[ilo.Domain]ilo.Snapshot{
		ilo.DomainFans: &ilo.FanSnapshot{
			Fans:      []ilo.FanReading{{Name: "Fan1", Speed: 40, Status: ilo.FanStatusEnabled}},
			Timestamp: time.Now(),
		},
	}}
	c, e := scenarioSetup(t, fetcher)
	c.poll(context.Background(), ilo.DomainFans)

	// WHEN the bulk speed command succeeds
	err := e.SetAllFanSpeeds(context.Background(), 80)
	assert.NoError(t, err)

	// THEN an immediate read is stale and still shows the pre-change speed
	result := c.Read(ilo.DomainFans)
	assert.True(t, result.Ready)
	assert.True(t, result.Stale)
	assert.Equal(t, 40, result.Data.(*ilo.FanSnapshot).Fans[0].Speed)

	// AND after the settle delay the forced refresh picks up the new state
	assert.Eventually(t, func() bool {
		return len(c.refresh[ilo.DomainFans]) == 1
	}, time.Second, 5*time.Millisecond)

	fetcher.set(ilo.DomainFans, &ilo.FanSnapshot{
		Fans:      []ilo.FanReading{{Name: "Fan1", Speed: 80, Status: ilo.FanStatusEnabled}},
		Timestamp: time.Now(),
	})
	c.poll(context.Background(), ilo.DomainFans)

	result = c.Read(ilo.DomainFans)
	assert.False(t, result.Stale)
	assert.Equal(t, 80, result.Data.(*ilo.FanSnapshot).Fans[0].Speed)
}

func TestScenario_OverrideThenReset(t *testing.T) {
	// GIVEN a cache primed with CPU1 at 40
	fetcher := &fakeFetcher{snapshots: map[ilo.Domain]ilo.Snapshot{
		ilo.DomainSensors: &ilo.SensorSnapshot{
			Sensors:   []ilo.SensorReading{{Name: "CPU1", Reading: 40, Status: ilo.StatusOK}},
			Timestamp: time.Now(),
		},
	}}
	c, e := scenarioSetup(t, fetcher)
	c.poll(context.Background(), ilo.DomainSensors)

	// WHEN the sensor is overridden
	err := e.OverrideSensor(context.Background(), "CPU1", 90)
	assert.NoError(t, err)

	// THEN every read shows the forced value, whatever the device reports
	result := c.Read(ilo.DomainSensors)
	assert.Equal(t, 90.0, result.Data.(*ilo.SensorSnapshot).Sensors[0].Reading)

	fetcher.set(ilo.DomainSensors, &ilo.SensorSnapshot{
		Sensors:   []ilo.SensorReading{{Name: "CPU1", Reading: 42, Status: ilo.StatusOK}},
		Timestamp: time.Now(),
	})
	c.poll(context.Background(), ilo.DomainSensors)
	result = c.Read(ilo.DomainSensors)
	assert.Equal(t, 90.0, result.Data.(*ilo.SensorSnapshot).Sensors[0].Reading)

	// WHEN the override is reset and a regular poll completes with 45
	err = e.ResetOverrides(context.Background())
	assert.NoError(t, err)

	fetcher.set(ilo.DomainSensors, &ilo.SensorSnapshot{
		Sensors:   []ilo.SensorReading{{Name: "CPU1", Reading: 45, Status: ilo.StatusOK}},
		Timestamp: time.Now(),
	})
	c.poll(context.Background(), ilo.DomainSensors)

	// THEN the live value is visible again
	result = c.Read(ilo.DomainSensors)
	assert.Equal(t, 45.0, result.Data.(*ilo.SensorSnapshot).Sensors[0].Reading)
	assert.False(t, result.Stale)
}
