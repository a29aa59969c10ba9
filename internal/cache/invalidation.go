package cache

import (
	"sync"
	"time"

	"github.com/ilosync/ilosync/internal/ilo"
)

// Invalidator bridges the gap between "command acknowledged" and "device
// state actually changed". After a successful mutating command the affected
// entry is evicted immediately, but the re-poll is delayed by a settle delay:
// polling right after a write would read pre-change state and make the change
// appear to revert.
type Invalidator struct {
	cache  *Cache
	delays map[ilo.Domain]time.Duration

	mu     sync.Mutex
	timers map[ilo.Domain]*time.Timer
}

func NewInvalidator(cache *Cache, fanSettleDelay, sensorSettleDelay time.Duration) *Invalidator {
	return &Invalidator{
		cache: cache,
		delays: map[ilo.Domain]time.Duration{
			ilo.DomainFans:    fanSettleDelay,
			ilo.DomainSensors: sensorSettleDelay,
			ilo.DomainPower:   fanSettleDelay,
			ilo.DomainPid:     fanSettleDelay,
		},
		timers: map[ilo.Domain]*time.Timer{},
	}
}

// Invalidate marks the domain stale now and schedules a single delayed
// force-refresh. Repeated invalidations of the same domain reset the timer,
// so a burst of commands results in exactly one re-poll after the last one.
func (i *Invalidator) Invalidate(domain ilo.Domain) {
	i.cache.MarkStale(domain)

	delay := i.delays[domain]

	i.mu.Lock()
	defer i.mu.Unlock()

	if timer, exists := i.timers[domain]; exists {
		timer.Reset(delay)
		return
	}
	i.timers[domain] = time.AfterFunc(delay, func() {
		i.fire(domain)
	})
}

// fire issues exactly one force-refresh. If the refresh poll fails, the poll
// loop records the failure and the next regular tick retries; hammering a
// possibly-unstable device right after a write helps nobody.
func (i *Invalidator) fire(domain ilo.Domain) {
	i.mu.Lock()
	delete(i.timers, domain)
	i.mu.Unlock()

	i.cache.ForceRefresh(domain)
}

// Stop cancels all pending refresh timers.
func (i *Invalidator) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for domain, timer := range i.timers {
		timer.Stop()
		delete(i.timers, domain)
	}
}
