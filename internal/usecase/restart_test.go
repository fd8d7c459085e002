package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dealwatch-service/internal/infrastructure/persistence"
	repo "dealwatch-service/internal/interface/repository"
	"dealwatch-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// process is one service lifetime over the sqlite store at path
type process struct {
	clock     time.Time
	state     *WatchState
	registry  *RouteRegistry
	searcher  *fakeSearcher
	notifier  *recordingNotifier
	scheduler *Scheduler
	close     func()
}

func startProcess(t *testing.T, path string, at time.Time) *process {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.NewSQLiteDB(ctx, path)
	require.NoError(t, err)

	p := &process{
		clock:    at,
		state:    NewWatchState(24 * time.Hour),
		searcher: &fakeSearcher{respond: offerAt("X1", 180)},
		notifier: &recordingNotifier{},
		close:    func() { db.Close() },
	}
	log := logger.NewNopLogger()
	m := newTestMetrics()
	now := func() time.Time { return p.clock }

	p.registry = NewRouteRegistry(p.state, repo.NewSQLiteRouteRepository(db), log, m)
	p.registry.now = now
	seen := NewSeenAlertStore(p.state, repo.NewSQLiteSeenAlertRepository(db), 30*24*time.Hour, log, m)
	seen.now = now

	require.NoError(t, p.registry.Load(ctx))
	require.NoError(t, seen.Load(ctx))

	p.scheduler = NewScheduler(testSchedulerConfig(), p.state, p.registry, seen, p.searcher, p.state, NewDealEvaluator(0.15), p.notifier, log, m)
	p.scheduler.now = now
	return p
}

func TestRestartDoesNotReAlert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dealwatch.db")

	first := startProcess(t, path, t0)
	_, err := first.registry.AddRoute(context.Background(), oneWayRoute("42", 200))
	require.NoError(t, err)
	first.scheduler.Tick(context.Background())
	require.Len(t, first.notifier.Messages(), 1)
	first.close()

	// Restarted ten minutes later: the route is not due yet
	second := startProcess(t, path, t0.Add(10*time.Minute))
	defer second.close()
	require.Equal(t, 1, second.state.RouteCount())
	assert.Equal(t, 1, second.state.SeenCount())

	second.scheduler.Tick(context.Background())
	assert.Equal(t, 0, second.searcher.Calls())

	second.clock = t0.Add(30 * time.Minute)
	second.scheduler.Tick(context.Background())
	assert.Equal(t, 1, second.searcher.Calls())
	assert.Empty(t, second.notifier.Messages(), "an offer alerted before the restart stays suppressed")
}
