package cache

import (
	"context"
	"time"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/ilo"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Fetcher issues the actual remote query for a domain. Satisfied by
// ilo.Client.
type Fetcher interface {
	Fetch(ctx context.Context, domain ilo.Domain) (ilo.Snapshot, error)
}

// Merger produces the override-applied view of a live snapshot. Satisfied by
// overrides.Ledger.
type Merger interface {
	Apply(snapshot ilo.Snapshot) ilo.Snapshot
}

// Appender records successful polls. Satisfied by history.Store.
type Appender interface {
	Append(ctx context.Context, snapshot ilo.Snapshot) error
}

// Entry is the cached state of one domain. Entries are replaced wholesale on
// every update; an Entry value is never mutated in place, so readers cannot
// observe a half-written one.
type Entry struct {
	Data        ilo.Snapshot
	FetchedAt   time.Time
	Ttl         time.Duration
	LastError   error
	ErrorCount  uint64
	Invalidated bool
}

// ReadResult is what callers get from a cache read. Ready is false until the
// first successful poll of the domain, which is a state, not an error.
type ReadResult struct {
	Ready     bool
	Data      ilo.Snapshot
	FetchedAt time.Time
	Stale     bool
	LastError error
}

// Cache holds one entry per telemetry domain, refreshed by independent
// background pollers. Reads are answered from memory and never touch the
// controller.
type Cache struct {
	fetcher Fetcher
	merger  Merger
	history Appender
	polling map[ilo.Domain]configuration.DomainPollingConfig
	now     func() time.Time

	entries cmap.ConcurrentMap[string, Entry]
	refresh map[ilo.Domain]chan struct{}
}

func NewCache(fetcher Fetcher, merger Merger, history Appender, polling configuration.PollingConfig) *Cache {
	c := &Cache{
		fetcher: fetcher,
		merger:  merger,
		history: history,
		polling: map[ilo.Domain]configuration.DomainPollingConfig{
			ilo.DomainSensors: polling.Sensors,
			ilo.DomainFans:    polling.Fans,
			ilo.DomainPower:   polling.Power,
			ilo.DomainPid:     polling.Pid,
		},
		now:     time.Now,
		entries: cmap.New[Entry](),
		refresh: map[ilo.Domain]chan struct{}{},
	}
	for _, domain := range ilo.AllDomains() {
		// capacity 1 so concurrent force-refresh requests coalesce into a
		// single out-of-cycle poll
		c.refresh[domain] = make(chan struct{}, 1)
	}
	return c
}

// Read returns the merged (override-applied) view of the domain from memory.
// Stale data is preferred over no data; staleness is surfaced, not hidden.
func (c *Cache) Read(domain ilo.Domain) ReadResult {
	entry, exists := c.entries.Get(string(domain))
	if !exists || entry.Data == nil {
		return ReadResult{
			Ready:     false,
			LastError: entry.LastError,
		}
	}

	stale := entry.Invalidated || c.now().Sub(entry.FetchedAt) > entry.Ttl
	return ReadResult{
		Ready:     true,
		Data:      c.merger.Apply(entry.Data),
		FetchedAt: entry.FetchedAt,
		Stale:     stale,
		LastError: entry.LastError,
	}
}

// ForceRefresh requests an out-of-cycle poll for the domain. Requests for a
// domain that already has one pending are coalesced.
func (c *Cache) ForceRefresh(domain ilo.Domain) {
	ch, exists := c.refresh[domain]
	if !exists {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// MarkStale flags the domain's entry as stale without touching its data, so
// readers see last-good data with the staleness flag raised until the next
// successful poll replaces the entry. The flag is set atomically; a plain
// get-then-set here could write an old entry back over a concurrent poll
// result and make the fetch time regress.
func (c *Cache) MarkStale(domain ilo.Domain) {
	c.entries.Upsert(string(domain), Entry{}, func(exist bool, current Entry, _ Entry) Entry {
		current.Invalidated = true
		return current
	})
}

// Entry exposes the raw cache entry, used by the statistics collector.
func (c *Cache) Entry(domain ilo.Domain) (Entry, bool) {
	return c.entries.Get(string(domain))
}
