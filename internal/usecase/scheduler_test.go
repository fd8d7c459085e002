package usecase

import (
	"context"
	"testing"
	"time"

	"dealwatch-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerPollsOnlyWhenIntervalElapsed(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	id := h.addRoute(t, oneWayRoute("42", 200))

	h.tickAt(t0)
	require.Equal(t, 1, h.searcher.Calls(), "a never-checked route polls immediately")
	assert.True(t, h.route(t, id).Schedule.LastCheckedAt.Equal(t0))

	h.tickAt(t0.Add(30 * time.Second))
	h.tickAt(t0.Add(29 * time.Minute))
	assert.Equal(t, 1, h.searcher.Calls())

	h.tickAt(t0.Add(30 * time.Minute))
	assert.Equal(t, 2, h.searcher.Calls())
	assert.Equal(t, 30*time.Minute, h.route(t, id).Schedule.Interval)
}

func TestSchedulerAlertsOnceForTheSameOffer(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	h.addRoute(t, oneWayRoute("42", 200))
	h.searcher.respond = offerAt("X1", 180)

	h.tickAt(t0)
	msgs := h.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "KTM → BKK")
	assert.Contains(t, msgs[0].text, "180.00 USD")
	assert.Contains(t, msgs[0].text, "X1")

	h.tickAt(t0.Add(30 * time.Minute))
	assert.Equal(t, 2, h.searcher.Calls())
	assert.Len(t, h.notifier.Messages(), 1)
	assert.Equal(t, 1, h.seenRepo.Len())
}

func TestSchedulerRoundTripScenario(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	id := h.addRoute(t, roundTripRoute("42", 200, 7, 10, 60))
	h.searcher.respond = offerAt("X1", 180)

	h.tickAt(t0)
	require.Equal(t, 2, h.searcher.Calls(), "shortest and longest stay for the single offset")
	depart := t0.Truncate(24*time.Hour).AddDate(0, 0, 7)
	for i, stay := range []int{7, 10} {
		q := h.searcher.calls[i]
		assert.True(t, q.DepartureDate.Equal(depart))
		require.NotNil(t, q.ReturnDate)
		assert.True(t, q.ReturnDate.Equal(depart.AddDate(0, 0, stay)))
	}

	msgs := h.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "180.00 USD")
	assert.Contains(t, msgs[0].text, "X1")

	h.tickAt(t0.Add(30 * time.Minute))
	assert.Equal(t, 4, h.searcher.Calls())
	assert.Len(t, h.notifier.Messages(), 1)
	assert.False(t, h.route(t, id).Schedule.BurstActive, "steady 180 against a 180 history")
}

func TestSchedulerKeepsTripShapesApartOnSharedCityPair(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	oneWay := h.addRoute(t, oneWayRoute("1", 50))
	roundTrip := h.addRoute(t, roundTripRoute("2", 50, 7, 7, 120))
	h.searcher.respond = func(_ int, q entity.FareQuery) ([]entity.Offer, error) {
		price := 100.0
		if q.ReturnDate != nil {
			price = 200
		}
		return []entity.Offer{{OfferID: "X", Price: price, Cabin: q.Cabin}}, nil
	}

	h.tickAt(t0)
	h.tickAt(t0.Add(30 * time.Minute))

	assert.Equal(t, 4, h.searcher.Calls())
	assert.False(t, h.route(t, oneWay).Schedule.BurstActive, "one-way fares are steady at 100")
	assert.False(t, h.route(t, roundTrip).Schedule.BurstActive, "round-trip fares are steady at 200")
}

func TestSchedulerIgnoresOffersAboveThreshold(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	h.addRoute(t, oneWayRoute("42", 150))
	h.searcher.respond = offerAt("X1", 180)

	h.tickAt(t0)
	assert.Empty(t, h.notifier.Messages())
}

func TestSchedulerBurstOnVolatility(t *testing.T) {
	tests := []struct {
		name      string
		second    float64
		wantBurst bool
	}{
		{"drop of 16 percent", 84, true},
		{"drop of 14 percent", 86, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testSchedulerConfig())
			id := h.addRoute(t, oneWayRoute("42", 50))
			h.searcher.respond = func(n int, q entity.FareQuery) ([]entity.Offer, error) {
				price := 100.0
				if n > 1 {
					price = tt.second
				}
				return []entity.Offer{{OfferID: "X", Price: price, Cabin: q.Cabin}}, nil
			}

			h.tickAt(t0)
			assert.False(t, h.route(t, id).Schedule.BurstActive, "no history on the first poll")

			t1 := t0.Add(30 * time.Minute)
			h.tickAt(t1)
			sched := h.route(t, id).Schedule
			assert.Equal(t, tt.wantBurst, sched.BurstActive)
			if !tt.wantBurst {
				return
			}
			assert.True(t, sched.BurstStartedAt.Equal(t1))
			assert.Equal(t, 5*time.Minute, sched.Interval)

			h.tickAt(t1.Add(5 * time.Minute))
			assert.Equal(t, 3, h.searcher.Calls())
		})
	}
}

func TestSchedulerBurstIsBoundedByWindow(t *testing.T) {
	cfg := testSchedulerConfig()
	h := newHarness(t, cfg)
	id := h.addRoute(t, oneWayRoute("42", 50))
	// Alternating prices keep re-triggering volatility during burst
	h.searcher.respond = func(n int, q entity.FareQuery) ([]entity.Offer, error) {
		price := 100.0
		if n%2 == 0 {
			price = 84
		}
		return []entity.Offer{{OfferID: "X", Price: price, Cabin: q.Cabin}}, nil
	}

	h.tickAt(t0)
	t1 := t0.Add(30 * time.Minute)
	h.tickAt(t1)
	require.True(t, h.route(t, id).Schedule.BurstActive)

	end := t1.Add(cfg.BurstWindow + cfg.TickInterval)
	for now := t1.Add(cfg.TickInterval); !now.After(end); now = now.Add(cfg.TickInterval) {
		h.tickAt(now)
		sched := h.route(t, id).Schedule
		if sched.BurstActive {
			assert.True(t, sched.BurstStartedAt.Equal(t1), "re-triggering must not extend the burst")
			assert.LessOrEqual(t, now.Sub(t1), cfg.BurstWindow+cfg.TickInterval)
		}
	}

	sched := h.route(t, id).Schedule
	assert.False(t, sched.BurstActive)
	assert.Equal(t, cfg.BaselineInterval, sched.Interval)
	// 1 baseline poll, the triggering poll, then one poll per burst interval
	assert.Equal(t, 2+int(cfg.BurstWindow/cfg.BurstInterval), h.searcher.Calls())
}

func TestSchedulerHaltsRouteOnUnauthorized(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	id := h.addRoute(t, oneWayRoute("42", 200))
	h.searcher.respond = func(int, entity.FareQuery) ([]entity.Offer, error) {
		return nil, &entity.AdapterError{Provider: "fake", Kind: entity.AdapterUnauthorized, StatusCode: 401}
	}

	h.tickAt(t0)
	route := h.route(t, id)
	require.True(t, route.Schedule.Halted)
	msgs := h.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "paused")

	h.tickAt(t0.Add(time.Hour))
	assert.Equal(t, 1, h.searcher.Calls())

	n, err := h.registry.ResumeRoutes(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	h.searcher.respond = nil
	h.tickAt(t0.Add(2 * time.Hour))
	assert.Equal(t, 2, h.searcher.Calls())
	assert.False(t, h.route(t, id).Schedule.Halted)
}

func TestSchedulerSkipsFailedSearches(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.SampleOffsets = []int{7, 14}
	h := newHarness(t, cfg)
	h.addRoute(t, oneWayRoute("42", 200))
	h.searcher.respond = func(n int, q entity.FareQuery) ([]entity.Offer, error) {
		if n == 1 {
			return nil, &entity.AdapterError{Provider: "fake", Kind: entity.AdapterTransient}
		}
		return []entity.Offer{{OfferID: "X2", Price: 150, Cabin: q.Cabin}}, nil
	}

	h.tickAt(t0)
	assert.Equal(t, 2, h.searcher.Calls())
	assert.Len(t, h.notifier.Messages(), 1)
}

func TestSchedulerSharesCacheWithinCycle(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	h.addRoute(t, oneWayRoute("1", 200))
	h.addRoute(t, oneWayRoute("2", 200))
	h.searcher.respond = offerAt("X1", 180)

	h.tickAt(t0)
	assert.Equal(t, 1, h.searcher.Calls(), "second route is served from the cache")

	msgs := h.notifier.Messages()
	require.Len(t, msgs, 2)
	assert.ElementsMatch(t, []string{"1", "2"}, []string{msgs[0].chatID, msgs[1].chatID})

	// The next cycle queries again
	h.tickAt(t0.Add(30 * time.Minute))
	assert.Equal(t, 2, h.searcher.Calls())
}

func TestSchedulerRespectsCallCeilingAndQuota(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.SampleOffsets = []int{21, 7, 14}
	cfg.MaxCallsPerRoute = 2
	h := newHarness(t, cfg)
	h.addRoute(t, oneWayRoute("42", 200))

	h.tickAt(t0)
	require.Equal(t, 2, h.searcher.Calls())
	today := t0.Truncate(24 * time.Hour)
	assert.Equal(t, today.AddDate(0, 0, 7), h.searcher.calls[0].DepartureDate, "nearest departures first")
	assert.Equal(t, today.AddDate(0, 0, 14), h.searcher.calls[1].DepartureDate)

	cfg.MaxCallsPerRoute = 8
	cfg.DailyAPIQuota = 3
	q := newHarness(t, cfg)
	q.addRoute(t, oneWayRoute("42", 200))

	q.tickAt(t0)
	assert.Equal(t, 3, q.searcher.Calls())
	q.tickAt(t0.Add(30 * time.Minute))
	assert.Equal(t, 3, q.searcher.Calls(), "quota exhausted for the day")
	q.tickAt(t0.Add(24 * time.Hour))
	assert.Equal(t, 6, q.searcher.Calls(), "quota resets on the next UTC day")
}

func TestSchedulerKeepsScheduleWhenStoreFails(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	id := h.addRoute(t, oneWayRoute("42", 200))
	h.routeRepo.failSave = true

	h.tickAt(t0)
	assert.True(t, h.state.Degraded())
	assert.True(t, h.route(t, id).Schedule.LastCheckedAt.Equal(t0))

	h.tickAt(t0.Add(time.Minute))
	assert.Equal(t, 1, h.searcher.Calls())
}

func TestSchedulerSendsDealsWhenSeenAlertWriteFails(t *testing.T) {
	h := newHarness(t, testSchedulerConfig())
	h.addRoute(t, oneWayRoute("42", 200))
	h.searcher.respond = offerAt("X1", 180)
	h.seenRepo.failSave = true

	h.tickAt(t0)
	assert.Len(t, h.notifier.Messages(), 1)
	assert.True(t, h.state.Degraded())
	assert.Equal(t, 0, h.seenRepo.Len())

	h.tickAt(t0.Add(30 * time.Minute))
	assert.Len(t, h.notifier.Messages(), 1, "the in-memory ledger still suppresses the repeat")
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.TickInterval = 10 * time.Millisecond
	h := newHarness(t, cfg)
	h.addRoute(t, oneWayRoute("42", 200))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.scheduler.Run(ctx) }()

	require.Eventually(t, func() bool { return h.searcher.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
