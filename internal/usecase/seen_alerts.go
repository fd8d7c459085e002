package usecase

import (
	"context"
	"errors"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/pkg/logger"
	"dealwatch-service/pkg/metrics"
)

// SeenAlertStore keeps the in-memory dedup ledger in step with its repository
type SeenAlertStore struct {
	state     *WatchState
	repo      repository.SeenAlertRepository
	retention time.Duration
	logger    logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewSeenAlertStore creates a store that keeps alerts for retention
func NewSeenAlertStore(state *WatchState, repo repository.SeenAlertRepository, retention time.Duration, logger logger.Logger, metrics *metrics.Metrics) *SeenAlertStore {
	return &SeenAlertStore{
		state:     state,
		repo:      repo,
		retention: retention,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Load prunes expired alerts and loads the rest into the ledger
func (s *SeenAlertStore) Load(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)
	if _, err := s.repo.DeleteBefore(ctx, cutoff); err != nil {
		return &entity.PersistenceError{Op: "prune seen alerts", Err: err}
	}
	alerts, err := s.repo.LoadSince(ctx, cutoff)
	if err != nil {
		return &entity.PersistenceError{Op: "load seen alerts", Err: err}
	}
	s.state.loadSeen(alerts)
	s.logger.Info("Seen alerts loaded", "count", len(alerts))
	return nil
}

// Persist writes newly emitted alerts. A failed write marks the state degraded;
// the alerts stay in the in-memory ledger.
func (s *SeenAlertStore) Persist(ctx context.Context, alerts []*entity.SeenAlert) error {
	var errs []error
	for _, a := range alerts {
		if err := s.repo.Save(ctx, a); err != nil {
			s.state.MarkDegraded()
			s.metrics.StateDegraded.Set(1)
			s.metrics.ErrorsCount.WithLabelValues("save_seen_alert").Inc()
			s.logger.Error("Failed to persist seen alert",
				"routeID", a.RouteID,
				"offerID", a.Key.OfferID,
				"error", err)
			errs = append(errs, &entity.PersistenceError{Op: "save seen alert", Err: err})
		}
	}
	return errors.Join(errs...)
}

// Prune forgets alerts older than the retention window in memory and in the store
func (s *SeenAlertStore) Prune(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)
	removed := s.state.forgetSeenBefore(cutoff)
	deleted, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.metrics.ErrorsCount.WithLabelValues("prune_seen_alerts").Inc()
		return &entity.PersistenceError{Op: "prune seen alerts", Err: err}
	}
	s.logger.Info("Pruned seen alerts", "memory", removed, "store", deleted)
	return nil
}
