package usecase

import (
	"time"

	"dealwatch-service/internal/domain/entity"
)

// PriceCache memoizes observed prices per (route, date-pair, cabin).
// It is not synchronized; WatchState owns the only instance.
type PriceCache struct {
	entries map[entity.PriceKey]*entity.PriceCacheEntry
	ttl     time.Duration
}

// NewPriceCache creates a cache that forgets entries older than ttl
func NewPriceCache(ttl time.Duration) *PriceCache {
	return &PriceCache{
		entries: make(map[entity.PriceKey]*entity.PriceCacheEntry),
		ttl:     ttl,
	}
}

// Lookup returns the entry for key if it was observed in cycle
func (c *PriceCache) Lookup(key entity.PriceKey, cycle time.Time) (*entity.PriceCacheEntry, bool) {
	e, ok := c.entries[key]
	if !ok || !e.CycleAt.Equal(cycle) {
		return nil, false
	}
	return e, true
}

// Record stores the outcome of a successful search for key.
// offers may be empty; the cheapest offer becomes the entry's price.
func (c *PriceCache) Record(key entity.PriceKey, offers []entity.Offer, cycle, now time.Time) *entity.PriceCacheEntry {
	e := &entity.PriceCacheEntry{
		Key:        key,
		CycleAt:    cycle,
		ObservedAt: now,
		Empty:      true,
	}
	for i := range offers {
		if e.Empty || offers[i].Price < e.Price {
			o := offers[i]
			e.Offer = &o
			e.Price = o.Price
			e.Empty = false
		}
	}
	c.entries[key] = e
	return e
}

// History returns prices observed before cycle on date pairs route samples, per cabin.
// One-way and round-trip fares on the same city pair are kept apart.
func (c *PriceCache) History(route *entity.Route, cycle time.Time) entity.PriceHistory {
	history := make(entity.PriceHistory)
	for key, e := range c.entries {
		if e.Empty || !key.Matches(route) {
			continue
		}
		if !e.CycleAt.Before(cycle) {
			continue
		}
		history[key.Cabin] = append(history[key.Cabin], e.Price)
	}
	return history
}

// Prune drops entries observed more than ttl before now
func (c *PriceCache) Prune(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.ObservedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries
func (c *PriceCache) Len() int {
	return len(c.entries)
}
