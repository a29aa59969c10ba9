package overrides

import (
	"fmt"
	"sync"
	"time"

	"github.com/ilosync/ilosync/internal/hwerr"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/qdm12/reprint"
	"golang.org/x/exp/maps"
)

type Kind string

const (
	// KindSensor forces a sensor reading. Merged over live readings.
	KindSensor Kind = "sensor"
	// KindFanSpeed records a bulk "set all" speed. Kept for audit and
	// persistence only; the re-poll after the settle delay reports the new
	// speed itself, so live readings win.
	KindFanSpeed Kind = "fanSpeed"
	// KindFanLock pins a single fan at a speed. Merged over live readings.
	KindFanLock Kind = "fanLock"
)

// Override is a manually forced value that supersedes live telemetry until
// explicitly cleared, superseded, or expired.
type Override struct {
	Target    string     `json:"target"`
	Kind      Kind       `json:"kind"`
	Value     float64    `json:"value"`
	AppliedAt time.Time  `json:"appliedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (o Override) key() string {
	return fmt.Sprintf("%s/%s", o.Target, o.Kind)
}

func (o Override) expired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

// Ledger holds all active overrides. At most one override is active per
// (target, kind); setting a new one supersedes the previous. All mutations
// are atomic: a bulk set either commits every override or none.
type Ledger struct {
	store Store
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]Override
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		store:   store,
		now:     time.Now,
		entries: map[string]Override{},
	}
}

// Init loads persisted overrides so they survive a daemon restart.
func (l *Ledger) Init() error {
	if l.store == nil {
		return nil
	}
	if err := l.store.Init(); err != nil {
		return err
	}
	entries, err := l.store.Load()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	return nil
}

// Set records a single override, superseding any previous one for the same
// (target, kind).
func (l *Ledger) Set(override Override) error {
	return l.SetAll([]Override{override})
}

// SetAll records the given overrides atomically: the ledger is only updated
// after the batch has been persisted, and the in-memory view is swapped
// wholesale so readers never observe a partial batch.
func (l *Ledger) SetAll(batch []Override) error {
	if len(batch) == 0 {
		return hwerr.New(hwerr.KindValidation, "empty override batch")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	staged := maps.Clone(l.entries)
	for _, override := range batch {
		if override.Target == "" {
			return hwerr.New(hwerr.KindValidation, "override without a target")
		}
		staged[override.key()] = override
	}

	if l.store != nil {
		if err := l.store.Save(staged); err != nil {
			return err
		}
	}
	l.entries = staged
	return nil
}

// Reset clears all overrides for a domain. This is the only bulk-clear path.
func (l *Ledger) Reset(domain ilo.Domain) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	staged := maps.Clone(l.entries)
	for key, override := range staged {
		if domainOf(override.Kind) == domain {
			delete(staged, key)
		}
	}

	if l.store != nil {
		if err := l.store.Save(staged); err != nil {
			return err
		}
	}
	l.entries = staged
	return nil
}

// Active returns the currently active (non-expired) overrides.
func (l *Ledger) Active() []Override {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := l.now()
	var active []Override
	for _, override := range l.entries {
		if !override.expired(now) {
			active = append(active, override)
		}
	}
	return active
}

func (l *Ledger) lookup(target string, kind Kind) (Override, bool) {
	key := Override{Target: target, Kind: kind}.key()
	override, exists := l.entries[key]
	if !exists || override.expired(l.now()) {
		return Override{}, false
	}
	return override, true
}

// Apply merges the active overrides for the snapshot's domain over a live
// snapshot and returns the merged view. The input snapshot is never mutated.
func (l *Ledger) Apply(snapshot ilo.Snapshot) ilo.Snapshot {
	switch typed := snapshot.(type) {
	case *ilo.SensorSnapshot:
		return l.applySensors(typed)
	case *ilo.FanSnapshot:
		return l.applyFans(typed)
	}
	// power and PID domains have no override kinds
	return snapshot
}

func (l *Ledger) applySensors(snapshot *ilo.SensorSnapshot) *ilo.SensorSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := reprint.This(*snapshot).(ilo.SensorSnapshot)
	for i := range merged.Sensors {
		sensor := &merged.Sensors[i]
		if override, exists := l.lookup(sensor.Name, KindSensor); exists {
			sensor.Reading = override.Value
			// status follows the forced reading, same rules as live data
			sensor.Status = ilo.ComputeStatus(override.Value, sensor.CriticalThreshold, sensor.FatalThreshold)
		}
	}
	return &merged
}

func (l *Ledger) applyFans(snapshot *ilo.FanSnapshot) *ilo.FanSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := reprint.This(*snapshot).(ilo.FanSnapshot)
	for i := range merged.Fans {
		fan := &merged.Fans[i]
		if override, exists := l.lookup(fan.Name, KindFanLock); exists {
			fan.Speed = int(override.Value)
		}
	}
	return &merged
}

func domainOf(kind Kind) ilo.Domain {
	if kind == KindSensor {
		return ilo.DomainSensors
	}
	return ilo.DomainFans
}
