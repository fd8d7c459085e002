package usecase

import (
	"context"
	"errors"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/pkg/metrics"

	"github.com/google/uuid"
)

// RouteRegistry is the set of subscribed routes backed by a RouteRepository
type RouteRegistry struct {
	state   *WatchState
	repo    repository.RouteRepository
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRouteRegistry creates a registry over state persisted through repo
func NewRouteRegistry(state *WatchState, repo repository.RouteRepository, logger logger.Logger, metrics *metrics.Metrics) *RouteRegistry {
	return &RouteRegistry{
		state:   state,
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Load replaces the in-memory registry with the persisted routes
func (r *RouteRegistry) Load(ctx context.Context) error {
	routes, err := r.repo.LoadAll(ctx)
	if err != nil {
		return &entity.PersistenceError{Op: "load routes", Err: err}
	}
	if skipped := r.state.loadRoutes(routes); skipped > 0 {
		r.logger.Warn("Skipped duplicate persisted routes", "count", skipped)
	}
	r.metrics.RoutesWatched.Set(float64(r.state.RouteCount()))
	r.logger.Info("Route registry loaded", "routes", r.state.RouteCount())
	return nil
}

// AddRoute validates and registers candidate, returning its new ID.
// It returns entity.ErrDuplicateRoute when the route key is taken and a
// *entity.PersistenceError, with nothing registered, when the write fails.
func (r *RouteRegistry) AddRoute(ctx context.Context, candidate *entity.Route) (string, error) {
	if err := candidate.Validate(); err != nil {
		return "", err
	}

	now := r.now()
	route := candidate.Clone()
	route.ID = uuid.NewString()
	route.CreatedAt = now
	route.UpdatedAt = now
	route.Schedule = entity.Schedule{}

	if err := r.state.reserveRoute(route); err != nil {
		return "", err
	}

	if err := r.repo.Save(ctx, route); err != nil {
		r.state.releaseRoute(route.ID)
		r.metrics.ErrorsCount.WithLabelValues("save_route").Inc()
		r.logger.Error("Failed to persist new route, rolled back", "chatID", route.ChatID, "error", err)
		return "", &entity.PersistenceError{Op: "add route", Err: err}
	}

	r.metrics.RoutesWatched.Set(float64(r.state.RouteCount()))
	r.logger.Info("Route added",
		"routeID", route.ID,
		"chatID", route.ChatID,
		"origin", route.Origin,
		"destination", route.Destination,
		"tripType", route.TripType)
	return route.ID, nil
}

// ListRoutes returns the routes owned by chatID
func (r *RouteRegistry) ListRoutes(chatID string) []*entity.Route {
	return r.state.RoutesByChat(chatID)
}

// Snapshot returns copies of every route
func (r *RouteRegistry) Snapshot() []*entity.Route {
	return r.state.Routes()
}

// ForEachRoute calls visit with a copy of every route.
// Mutating the copy has no effect on the registry.
func (r *RouteRegistry) ForEachRoute(visit func(route *entity.Route)) {
	for _, route := range r.state.Routes() {
		visit(route)
	}
}

// UpdateSchedule stores new scheduling state for a route and persists it.
// On a failed write the in-memory state is kept and marked degraded so the
// route is not re-polled ahead of its interval.
func (r *RouteRegistry) UpdateSchedule(ctx context.Context, id string, sched entity.Schedule) error {
	_, updated, ok := r.state.setSchedule(id, sched, r.now())
	if !ok {
		return entity.ErrRouteNotFound
	}
	if err := r.repo.Save(ctx, updated); err != nil {
		r.degrade("save_schedule")
		r.logger.Error("Failed to persist route schedule", "routeID", id, "error", err)
		return &entity.PersistenceError{Op: "update schedule", Err: err}
	}
	return nil
}

// ResumeRoutes clears the halted flag on every paused route of chatID
func (r *RouteRegistry) ResumeRoutes(ctx context.Context, chatID string) (int, error) {
	resumed := 0
	var errs []error
	for _, route := range r.state.RoutesByChat(chatID) {
		if !route.Schedule.Halted {
			continue
		}
		sched := route.Schedule
		sched.Halted = false
		sched.HaltReason = ""
		if err := r.UpdateSchedule(ctx, route.ID, sched); err != nil {
			errs = append(errs, err)
			continue
		}
		resumed++
	}
	if resumed > 0 {
		r.logger.Info("Routes resumed", "chatID", chatID, "count", resumed)
	}
	return resumed, errors.Join(errs...)
}

func (r *RouteRegistry) degrade(op string) {
	r.state.MarkDegraded()
	r.metrics.StateDegraded.Set(1)
	r.metrics.ErrorsCount.WithLabelValues(op).Inc()
}
