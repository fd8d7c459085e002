package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/infrastructure/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoute() *entity.Route {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &entity.Route{
		ID:          "route-1",
		ChatID:      "42",
		Origin:      "KTM",
		Destination: "BKK",
		TripType:    entity.TripRoundTrip,
		MinDays:     5,
		MaxDays:     9,
		HorizonDays: 120,
		Currency:    "USD",
		Thresholds: map[entity.CabinClass]float64{
			entity.CabinEconomy:  200,
			entity.CabinBusiness: 700,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteRouteRepositorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "dealwatch.db")

	db, err := persistence.NewSQLiteDB(ctx, path)
	require.NoError(t, err)

	repo := NewSQLiteRouteRepository(db)
	route := sampleRoute()
	require.NoError(t, repo.Save(ctx, route))

	checked := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	route.Schedule = entity.Schedule{
		LastCheckedAt:  checked,
		Interval:       5 * time.Minute,
		BurstActive:    true,
		BurstStartedAt: checked,
	}
	route.UpdatedAt = checked
	require.NoError(t, repo.Save(ctx, route))
	require.NoError(t, db.Close())

	db, err = persistence.NewSQLiteDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	routes, err := NewSQLiteRouteRepository(db).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)

	got := routes[0]
	assert.Equal(t, "route-1", got.ID)
	assert.Equal(t, entity.TripRoundTrip, got.TripType)
	assert.Equal(t, 5, got.MinDays)
	assert.Equal(t, 9, got.MaxDays)
	assert.Equal(t, 700.0, got.Thresholds[entity.CabinBusiness])
	assert.True(t, got.Schedule.BurstActive)
	assert.Equal(t, 5*time.Minute, got.Schedule.Interval)
	assert.True(t, got.Schedule.LastCheckedAt.Equal(checked))
	assert.True(t, got.CreatedAt.Equal(route.CreatedAt))
	assert.False(t, got.Schedule.Halted)
}

func TestSQLiteRouteRepositoryRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	db, err := persistence.NewSQLiteDB(ctx, filepath.Join(t.TempDir(), "dealwatch.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteRouteRepository(db)
	require.NoError(t, repo.Save(ctx, sampleRoute()))

	dup := sampleRoute()
	dup.ID = "route-2"
	assert.Error(t, repo.Save(ctx, dup))

	routes, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 1)
}

func TestSQLiteSeenAlertRepository(t *testing.T) {
	ctx := context.Background()
	db, err := persistence.NewSQLiteDB(ctx, filepath.Join(t.TempDir(), "dealwatch.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteSeenAlertRepository(db)
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(40 * 24 * time.Hour)

	key := entity.SeenAlertKey{ChatID: "42", Origin: "KTM", Destination: "BKK", Cabin: entity.CabinEconomy, PriceMinor: 18000, OfferID: "X1"}
	require.NoError(t, repo.Save(ctx, &entity.SeenAlert{Key: key, RouteID: "r", ChatID: "42", SeenAt: old}))
	// Same key again is ignored
	require.NoError(t, repo.Save(ctx, &entity.SeenAlert{Key: key, RouteID: "r", ChatID: "42", SeenAt: recent}))

	other := key
	other.OfferID = "X2"
	require.NoError(t, repo.Save(ctx, &entity.SeenAlert{Key: other, RouteID: "r", ChatID: "42", SeenAt: recent}))

	all, err := repo.LoadSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deleted, err := repo.DeleteBefore(ctx, old.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	left, err := repo.LoadSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other, left[0].Key)
	assert.True(t, left[0].SeenAt.Equal(recent))
}
