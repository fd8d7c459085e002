package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

type memRouteRepo struct {
	mu       sync.Mutex
	routes   map[string]*entity.Route
	failSave bool
	saves    int
}

func newMemRouteRepo() *memRouteRepo {
	return &memRouteRepo{routes: make(map[string]*entity.Route)}
}

func (r *memRouteRepo) LoadAll(context.Context) ([]*entity.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route.Clone())
	}
	return out, nil
}

func (r *memRouteRepo) Save(_ context.Context, route *entity.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errStoreDown
	}
	r.saves++
	r.routes[route.ID] = route.Clone()
	return nil
}

type memSeenRepo struct {
	mu       sync.Mutex
	alerts   map[entity.SeenAlertKey]*entity.SeenAlert
	failSave bool
}

func newMemSeenRepo() *memSeenRepo {
	return &memSeenRepo{alerts: make(map[entity.SeenAlertKey]*entity.SeenAlert)}
}

func (r *memSeenRepo) LoadSince(_ context.Context, since time.Time) ([]*entity.SeenAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.SeenAlert
	for _, a := range r.alerts {
		if !a.SeenAt.Before(since) {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memSeenRepo) Save(_ context.Context, alert *entity.SeenAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errStoreDown
	}
	if _, ok := r.alerts[alert.Key]; !ok {
		c := *alert
		r.alerts[alert.Key] = &c
	}
	return nil
}

func (r *memSeenRepo) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, a := range r.alerts {
		if a.SeenAt.Before(before) {
			delete(r.alerts, k)
			n++
		}
	}
	return n, nil
}

func (r *memSeenRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

// fakeSearcher answers every query through respond and records the calls
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []entity.FareQuery
	respond func(n int, q entity.FareQuery) ([]entity.Offer, error)
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(_ context.Context, q entity.FareQuery) ([]entity.Offer, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	n := len(f.calls)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return nil, nil
	}
	return respond(n, q)
}

func (f *fakeSearcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func offerAt(id string, price float64) func(int, entity.FareQuery) ([]entity.Offer, error) {
	return func(_ int, q entity.FareQuery) ([]entity.Offer, error) {
		return []entity.Offer{{OfferID: id, Price: price, Currency: "USD", Cabin: q.Cabin}}, nil
	}
}

type sentMessage struct {
	chatID string
	text   string
}

// recordingNotifier collects enqueued messages instead of sending them
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Enqueue(chatID, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return true
}

func (n *recordingNotifier) Messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics("test", prometheus.NewRegistry())
}

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func testSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TickInterval:     30 * time.Second,
		BaselineInterval: 30 * time.Minute,
		BurstInterval:    5 * time.Minute,
		BurstWindow:      2 * time.Hour,
		MaxCallsPerRoute: 8,
		DailyAPIQuota:    500,
		SampleOffsets:    []int{7},
		SearchTimeout:    5 * time.Second,
	}
}

// harness wires a scheduler over in-memory collaborators and a manual clock
type harness struct {
	clock     time.Time
	state     *WatchState
	routeRepo *memRouteRepo
	seenRepo  *memSeenRepo
	registry  *RouteRegistry
	seen      *SeenAlertStore
	searcher  *fakeSearcher
	notifier  *recordingNotifier
	scheduler *Scheduler
}

func newHarness(t *testing.T, cfg SchedulerConfig) *harness {
	t.Helper()
	h := &harness{
		clock:     t0,
		state:     NewWatchState(24 * time.Hour),
		routeRepo: newMemRouteRepo(),
		seenRepo:  newMemSeenRepo(),
		searcher:  &fakeSearcher{},
		notifier:  &recordingNotifier{},
	}
	log := logger.NewNopLogger()
	m := newTestMetrics()
	now := func() time.Time { return h.clock }

	h.registry = NewRouteRegistry(h.state, h.routeRepo, log, m)
	h.registry.now = now
	h.seen = NewSeenAlertStore(h.state, h.seenRepo, 30*24*time.Hour, log, m)
	h.seen.now = now
	h.scheduler = NewScheduler(cfg, h.state, h.registry, h.seen, h.searcher, h.state, NewDealEvaluator(0.15), h.notifier, log, m)
	h.scheduler.now = now
	return h
}

func (h *harness) tickAt(at time.Time) {
	h.clock = at
	h.scheduler.Tick(context.Background())
}

func (h *harness) addRoute(t *testing.T, route *entity.Route) string {
	t.Helper()
	id, err := h.registry.AddRoute(context.Background(), route)
	require.NoError(t, err)
	return id
}

func (h *harness) route(t *testing.T, id string) *entity.Route {
	t.Helper()
	r, ok := h.state.Route(id)
	require.True(t, ok)
	return r
}

func oneWayRoute(chatID string, economy float64) *entity.Route {
	return &entity.Route{
		ChatID:      chatID,
		Origin:      "KTM",
		Destination: "BKK",
		TripType:    entity.TripOneWay,
		HorizonDays: 120,
		Currency:    "USD",
		Thresholds:  map[entity.CabinClass]float64{entity.CabinEconomy: economy},
	}
}

func roundTripRoute(chatID string, economy float64, minDays, maxDays, horizon int) *entity.Route {
	r := oneWayRoute(chatID, economy)
	r.TripType = entity.TripRoundTrip
	r.MinDays = minDays
	r.MaxDays = maxDays
	r.HorizonDays = horizon
	return r
}
