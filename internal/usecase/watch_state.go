package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"dealwatch-service/internal/domain/entity"
)

// WatchState owns every piece of mutable state shared by the scheduler and
// inbound message handling. One mutex guards all of it; callers only get
// copies. No method performs I/O while holding the lock.
type WatchState struct {
	mu       sync.Mutex
	routes   map[string]*entity.Route
	keys     map[entity.RouteKey]string
	prices   *PriceCache
	seen     seenSet
	usage    map[entity.UsageKey]int64
	degraded bool
}

// NewWatchState creates empty state whose price cache forgets entries after priceTTL
func NewWatchState(priceTTL time.Duration) *WatchState {
	return &WatchState{
		routes: make(map[string]*entity.Route),
		keys:   make(map[entity.RouteKey]string),
		prices: NewPriceCache(priceTTL),
		seen:   make(seenSet),
		usage:  make(map[entity.UsageKey]int64),
	}
}

// seenSet is the in-memory SeenAlert ledger
type seenSet map[entity.SeenAlertKey]time.Time

func (s seenSet) MarkSeen(key entity.SeenAlertKey, at time.Time) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = at
	return true
}

// --- routes ---

// reserveRoute inserts route unless its key is taken
func (s *WatchState) reserveRoute(route *entity.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[route.Key()]; exists {
		return entity.ErrDuplicateRoute
	}
	s.routes[route.ID] = route.Clone()
	s.keys[route.Key()] = route.ID
	return nil
}

// releaseRoute undoes reserveRoute
func (s *WatchState) releaseRoute(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.routes[id]; ok {
		delete(s.keys, r.Key())
		delete(s.routes, id)
	}
}

// loadRoutes replaces all routes, keeping the first of any duplicate keys
func (s *WatchState) loadRoutes(routes []*entity.Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes = make(map[string]*entity.Route, len(routes))
	s.keys = make(map[entity.RouteKey]string, len(routes))
	skipped := 0
	for _, r := range routes {
		if _, exists := s.keys[r.Key()]; exists {
			skipped++
			continue
		}
		s.routes[r.ID] = r.Clone()
		s.keys[r.Key()] = r.ID
	}
	return skipped
}

// Route returns a copy of the route with id
func (s *WatchState) Route(id string) (*entity.Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routes[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Routes returns copies of all routes ordered by creation time
func (s *WatchState) Routes() []*entity.Route {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r.Clone())
	}
	sortRoutes(out)
	return out
}

// RoutesByChat returns copies of the routes owned by chatID
func (s *WatchState) RoutesByChat(chatID string) []*entity.Route {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Route
	for _, r := range s.routes {
		if r.ChatID == chatID {
			out = append(out, r.Clone())
		}
	}
	sortRoutes(out)
	return out
}

// RouteCount returns the number of registered routes
func (s *WatchState) RouteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.routes)
}

// setSchedule replaces a route's scheduling state and returns the previous
// one together with a copy of the updated route
func (s *WatchState) setSchedule(id string, sched entity.Schedule, now time.Time) (entity.Schedule, *entity.Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routes[id]
	if !ok {
		return entity.Schedule{}, nil, false
	}
	prev := r.Schedule
	r.Schedule = sched
	r.UpdatedAt = now
	return prev, r.Clone(), true
}

func sortRoutes(routes []*entity.Route) {
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].CreatedAt.Equal(routes[j].CreatedAt) {
			return routes[i].ID < routes[j].ID
		}
		return routes[i].CreatedAt.Before(routes[j].CreatedAt)
	})
}

// --- price cache ---

// CachedOffer reports whether key was already sampled in cycle, with the
// cheapest offer it produced (nil when the provider had none)
func (s *WatchState) CachedOffer(key entity.PriceKey, cycle time.Time) (*entity.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.prices.Lookup(key, cycle)
	if !ok {
		return nil, false
	}
	if e.Offer == nil {
		return nil, true
	}
	o := *e.Offer
	return &o, true
}

// PrunePrices drops expired price cache entries
func (s *WatchState) PrunePrices(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prices.Prune(now)
}

// --- alerts ---

// Evaluate runs the evaluator against the route's cached history and the
// seen-alert ledger, then records fresh search results, in one critical
// section. History is read before fresh results replace their entries.
func (s *WatchState) Evaluate(evaluator *DealEvaluator, route *entity.Route, offers []entity.Offer, fresh map[entity.PriceKey][]entity.Offer, cycle, now time.Time) Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.prices.History(route, cycle)
	ev := evaluator.Evaluate(route, offers, history, s.seen, now)
	for key, found := range fresh {
		s.prices.Record(key, found, cycle, now)
	}
	return ev
}

// loadSeen merges persisted alerts into the ledger
func (s *WatchState) loadSeen(alerts []*entity.SeenAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range alerts {
		s.seen.MarkSeen(a.Key, a.SeenAt)
	}
}

// forgetSeenBefore prunes ledger entries older than before
func (s *WatchState) forgetSeenBefore(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, at := range s.seen {
		if at.Before(before) {
			delete(s.seen, k)
			removed++
		}
	}
	return removed
}

// SeenCount returns the size of the seen-alert ledger
func (s *WatchState) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// --- usage ---

// Reserve implements repository.UsageRepository on in-memory counters.
// Counters of other days are dropped when a new day is first seen.
func (s *WatchState) Reserve(_ context.Context, key entity.UsageKey, quota int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usage[key]; !ok {
		for k := range s.usage {
			if k.Day != key.Day {
				delete(s.usage, k)
			}
		}
	}

	n := s.usage[key]
	if n >= quota {
		return n, false, nil
	}
	n++
	s.usage[key] = n
	return n, true, nil
}

// --- health ---

// MarkDegraded records that a persistence write failed
func (s *WatchState) MarkDegraded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = true
}

// Degraded reports whether in-memory state may be ahead of the store
func (s *WatchState) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}
