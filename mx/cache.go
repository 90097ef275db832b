package mx

import (
	"context"
	"net"
	"sync"
	"time"
)

// cache is a TTL-based MX lookup cache with singleflight deduplication:
// concurrent lookups for the same domain trigger a single DNS query and
// all waiters receive the result.
type cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	lookup  LookupFunc
}

type entry struct {
	records []*net.MX
	err     error
	expires time.Time
	done    chan struct{} // closed when the lookup completes
}

func newCache(lookup LookupFunc, ttl time.Duration) *cache {
	return &cache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		lookup:  lookup,
	}
}

func (c *cache) lookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	c.mu.Lock()

	if e, ok := c.entries[domain]; ok {
		select {
		case <-e.done:
			if time.Now().Before(e.expires) {
				c.mu.Unlock()
				return copyMX(e.records), e.err
			}
			// expired, fall through to refresh
		default:
			// lookup in progress, wait for it
			c.mu.Unlock()
			select {
			case <-e.done:
				return copyMX(e.records), e.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	e := &entry{done: make(chan struct{})}
	c.entries[domain] = e
	c.mu.Unlock()

	e.records, e.err = c.lookup(ctx, domain)
	e.expires = time.Now().Add(c.ttl)
	close(e.done)

	return copyMX(e.records), e.err
}

// copyMX deep-copies the records so callers cannot mutate cached data
// (e.g. via sort.Slice).
func copyMX(records []*net.MX) []*net.MX {
	if records == nil {
		return nil
	}
	out := make([]*net.MX, len(records))
	for i, r := range records {
		cp := *r
		out[i] = &cp
	}
	return out
}
