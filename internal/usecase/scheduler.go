package usecase

import (
	"context"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/pkg/metrics"
	"dealwatch-service/templates"
)

// SchedulerConfig holds the tunables of the polling loop
type SchedulerConfig struct {
	TickInterval     time.Duration
	BaselineInterval time.Duration
	BurstInterval    time.Duration
	BurstWindow      time.Duration
	MaxCallsPerRoute int
	DailyAPIQuota    int64
	SampleOffsets    []int
	SearchTimeout    time.Duration
	// SeenAlertPruneEvery is how often expired seen alerts are pruned
	SeenAlertPruneEvery time.Duration
}

// Scheduler decides per route and tick whether to re-query the fare provider
type Scheduler struct {
	cfg        SchedulerConfig
	state      *WatchState
	registry   *RouteRegistry
	seen       *SeenAlertStore
	searcher   repository.FareSearchRepository
	usage      repository.UsageRepository
	evaluator  *DealEvaluator
	notifier   Notifier
	logger     logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	lastPruned time.Time
}

// NewScheduler wires the scheduler. usage may be the WatchState itself.
func NewScheduler(
	cfg SchedulerConfig,
	state *WatchState,
	registry *RouteRegistry,
	seen *SeenAlertStore,
	searcher repository.FareSearchRepository,
	usage repository.UsageRepository,
	evaluator *DealEvaluator,
	notifier Notifier,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Scheduler {
	if cfg.SeenAlertPruneEvery <= 0 {
		cfg.SeenAlertPruneEvery = 24 * time.Hour
	}
	return &Scheduler{
		cfg:       cfg,
		state:     state,
		registry:  registry,
		seen:      seen,
		searcher:  searcher,
		usage:     usage,
		evaluator: evaluator,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// pollResult is what one route's query pipeline produced
type pollResult struct {
	calls        int
	cacheHits    int
	volatile     bool
	unauthorized bool
	deals        int
}

// Run ticks immediately and then every TickInterval until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.logger.Info("Scheduler started",
		"tick", s.cfg.TickInterval.String(),
		"baseline", s.cfg.BaselineInterval.String(),
		"burst", s.cfg.BurstInterval.String(),
		"burstWindow", s.cfg.BurstWindow.String())

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling cycle over every route
func (s *Scheduler) Tick(ctx context.Context) {
	started := time.Now()
	now := s.now()

	if pruned := s.state.PrunePrices(now); pruned > 0 {
		s.logger.Debug("Pruned price cache", "entries", pruned)
	}
	s.maybePruneSeen(ctx, now)

	s.registry.ForEachRoute(func(route *entity.Route) {
		if ctx.Err() != nil {
			return
		}
		s.processRoute(ctx, route, now)
	})

	s.metrics.TickDuration.Observe(time.Since(started).Seconds())
}

// processRoute applies the scheduling rules to one route for the tick at now
func (s *Scheduler) processRoute(ctx context.Context, route *entity.Route, now time.Time) {
	if route.Schedule.Halted {
		return
	}

	sched := route.Schedule
	changed := false
	log := s.logger.With("routeID", route.ID, "route", route.Label())

	// Demotion is checked on every tick so no route stays in burst past
	// BurstWindow plus one tick, polled or not.
	demoted := false
	if sched.BurstActive && now.Sub(sched.BurstStartedAt) > s.cfg.BurstWindow {
		sched.BurstActive = false
		sched.BurstStartedAt = time.Time{}
		sched.Interval = s.cfg.BaselineInterval
		demoted = true
		changed = true
		log.Info("Burst window elapsed, back to baseline polling")
	}

	if !s.due(sched, now) {
		if changed {
			s.saveSchedule(ctx, route.ID, sched)
		}
		return
	}

	result := s.poll(ctx, route, now)
	sched.LastCheckedAt = now

	if result.unauthorized {
		sched.Halted = true
		sched.HaltReason = "provider rejected credentials"
		log.Error("Fare provider unauthorized, route halted")
		s.notifier.Enqueue(route.ChatID, templates.RouteHalted(route))
	}

	if result.volatile && !sched.BurstActive && !demoted {
		sched.BurstActive = true
		sched.BurstStartedAt = now
		s.metrics.BurstActivations.Inc()
		log.Info("Price volatility detected, burst polling enabled")
	}

	sched.Interval = s.interval(sched)
	s.saveSchedule(ctx, route.ID, sched)

	log.Debug("Route polled",
		"calls", result.calls,
		"cacheHits", result.cacheHits,
		"deals", result.deals,
		"burst", sched.BurstActive)
}

// due reports whether enough time passed since the last check
func (s *Scheduler) due(sched entity.Schedule, now time.Time) bool {
	if sched.LastCheckedAt.IsZero() {
		return true
	}
	return now.Sub(sched.LastCheckedAt) >= s.interval(sched)
}

func (s *Scheduler) interval(sched entity.Schedule) time.Duration {
	if sched.BurstActive {
		return s.cfg.BurstInterval
	}
	return s.cfg.BaselineInterval
}

// poll runs the query pipeline: cache, budget, search, evaluate, notify.
// The shared state lock is never held across a network call.
func (s *Scheduler) poll(ctx context.Context, route *entity.Route, now time.Time) pollResult {
	var result pollResult
	var offers []entity.Offer
	fresh := make(map[entity.PriceKey][]entity.Offer)
	cycle := now
	provider := s.searcher.Name()
	usageKey := entity.UsageKeyFor(route.ChatID, now)

	for _, query := range SampleQueries(route, now, s.cfg.SampleOffsets) {
		if result.calls >= s.cfg.MaxCallsPerRoute || ctx.Err() != nil {
			break
		}

		key := query.PriceKey()
		if cached, hit := s.state.CachedOffer(key, cycle); hit {
			result.cacheHits++
			s.metrics.CacheHits.Inc()
			if cached != nil {
				offers = append(offers, *cached)
			}
			continue
		}

		used, ok, err := s.usage.Reserve(ctx, usageKey, s.cfg.DailyAPIQuota)
		if err != nil {
			s.metrics.ErrorsCount.WithLabelValues("usage_reserve").Inc()
			s.logger.Error("Failed to reserve API budget", "routeID", route.ID, "error", err)
			break
		}
		if !ok {
			s.metrics.FareSearches.WithLabelValues(provider, "quota_exhausted").Inc()
			s.logger.Warn("Daily API quota exhausted", "identity", usageKey.Identity, "day", usageKey.Day, "used", used)
			break
		}
		result.calls++

		found, err := s.search(ctx, query)
		if err != nil {
			kind := entity.AdapterKind(err)
			s.metrics.FareSearches.WithLabelValues(provider, kind.String()).Inc()
			if kind == entity.AdapterUnauthorized {
				result.unauthorized = true
				break
			}
			s.logger.Warn("Fare search failed, skipping",
				"routeID", route.ID,
				"departure", key.DepartureDate,
				"return", key.ReturnDate,
				"cabin", key.Cabin,
				"error", err)
			continue
		}
		s.metrics.FareSearches.WithLabelValues(provider, "ok").Inc()

		for i := range found {
			if found[i].Cabin == "" {
				found[i].Cabin = query.Cabin
			}
			if found[i].DepartureDate.IsZero() {
				found[i].DepartureDate = query.DepartureDate
				found[i].ReturnDate = query.ReturnDate
			}
		}
		fresh[key] = found
		offers = append(offers, found...)
	}

	ev := s.state.Evaluate(s.evaluator, route, offers, fresh, cycle, now)
	result.volatile = ev.Volatile
	result.deals = len(ev.Deals)

	if ev.Suppressed > 0 {
		s.metrics.DealsSuppressed.Add(float64(ev.Suppressed))
	}
	if len(ev.NewAlerts) > 0 {
		// Alerts are sent even if persisting them fails; the in-memory
		// ledger still suppresses repeats until restart.
		if err := s.seen.Persist(ctx, ev.NewAlerts); err != nil {
			s.logger.Warn("Sending deals with unpersisted seen alerts", "routeID", route.ID, "alerts", len(ev.NewAlerts))
		}
	}
	for _, deal := range ev.Deals {
		s.metrics.DealsEmitted.Inc()
		s.logger.Info("Deal found",
			"routeID", route.ID,
			"chatID", route.ChatID,
			"price", deal.Offer.Price,
			"cabin", deal.Offer.Cabin,
			"offerID", deal.Offer.OfferID)
		s.notifier.Enqueue(route.ChatID, templates.DealAlert(deal))
	}

	return result
}

func (s *Scheduler) search(ctx context.Context, query entity.FareQuery) ([]entity.Offer, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()
	return s.searcher.Search(callCtx, query)
}

func (s *Scheduler) saveSchedule(ctx context.Context, id string, sched entity.Schedule) {
	if err := s.registry.UpdateSchedule(ctx, id, sched); err != nil {
		s.logger.Error("Failed to update route schedule", "routeID", id, "error", err)
	}
}

func (s *Scheduler) maybePruneSeen(ctx context.Context, now time.Time) {
	if s.seen == nil || now.Sub(s.lastPruned) < s.cfg.SeenAlertPruneEvery {
		return
	}
	s.lastPruned = now
	if err := s.seen.Prune(ctx); err != nil {
		s.logger.Error("Failed to prune seen alerts", "error", err)
	}
}
