package cache

import (
	"context"
	"time"

	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/ui"
)

// RunPoller runs the poll loop for one domain until ctx is done. Each domain
// has exactly one poller, so polls for a domain never overlap and a failing
// domain never affects the others. Errors are retried on the next scheduled
// tick, never in a tight loop.
func (c *Cache) RunPoller(ctx context.Context, domain ilo.Domain) error {
	polling := c.polling[domain]

	ticker := time.NewTicker(polling.Interval)
	defer ticker.Stop()

	// initial poll so the cache becomes ready without waiting a full interval
	c.poll(ctx, domain)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.poll(ctx, domain)
		case <-c.refresh[domain]:
			c.poll(ctx, domain)
		}
	}
}

func (c *Cache) poll(ctx context.Context, domain ilo.Domain) {
	snapshot, err := c.fetcher.Fetch(ctx, domain)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		ui.Warning("Poll for %s failed: %v", domain, err)
		c.recordFailure(domain, err)
		return
	}

	fetchedAt := c.now()
	c.entries.Upsert(string(domain), Entry{}, func(exist bool, current Entry, _ Entry) Entry {
		return Entry{
			Data:       snapshot,
			FetchedAt:  fetchedAt,
			Ttl:        c.polling[domain].Ttl,
			ErrorCount: current.ErrorCount,
		}
	})

	if c.history != nil {
		merged := c.merger.Apply(snapshot)
		if err := c.history.Append(ctx, merged); err != nil {
			ui.Warning("Recording %s history point failed: %v", domain, err)
		}
	}
}

// recordFailure keeps the previous data and fetch time so readers degrade to
// stale-but-flagged data instead of losing the last-good snapshot.
func (c *Cache) recordFailure(domain ilo.Domain, err error) {
	c.entries.Upsert(string(domain), Entry{}, func(exist bool, entry Entry, _ Entry) Entry {
		entry.LastError = err
		entry.ErrorCount++
		if entry.Ttl == 0 {
			entry.Ttl = c.polling[domain].Ttl
		}
		return entry
	})
}
