package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
)

// SQLiteRouteRepository implements RouteRepository on the embedded store
type SQLiteRouteRepository struct {
	db *sql.DB
}

// NewSQLiteRouteRepository creates a new sqlite route repository
func NewSQLiteRouteRepository(db *sql.DB) repository.RouteRepository {
	return &SQLiteRouteRepository{db: db}
}

// LoadAll returns every stored route
func (r *SQLiteRouteRepository) LoadAll(ctx context.Context) ([]*entity.Route, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, origin, destination, trip_type, min_days, max_days,
		       horizon_days, currency, thresholds, last_checked_ts, interval_ns,
		       burst_active, burst_started_ts, halted, halt_reason, created_ts, updated_ts
		FROM route ORDER BY created_ts ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*entity.Route
	for rows.Next() {
		var (
			route                               entity.Route
			tripType, thresholds                string
			lastChecked, interval, burstStarted int64
			created, updated                    int64
			burstActive, halted                 bool
		)
		if err := rows.Scan(
			&route.ID, &route.ChatID, &route.Origin, &route.Destination, &tripType,
			&route.MinDays, &route.MaxDays, &route.HorizonDays, &route.Currency, &thresholds,
			&lastChecked, &interval, &burstActive, &burstStarted, &halted,
			&route.Schedule.HaltReason, &created, &updated,
		); err != nil {
			return nil, err
		}
		route.TripType = entity.TripType(tripType)
		if err := json.Unmarshal([]byte(thresholds), &route.Thresholds); err != nil {
			return nil, fmt.Errorf("decode thresholds of route %s: %w", route.ID, err)
		}
		route.Schedule.LastCheckedAt = fromUnixNano(lastChecked)
		route.Schedule.Interval = time.Duration(interval)
		route.Schedule.BurstActive = burstActive
		route.Schedule.BurstStartedAt = fromUnixNano(burstStarted)
		route.Schedule.Halted = halted
		route.CreatedAt = fromUnixNano(created)
		route.UpdatedAt = fromUnixNano(updated)
		routes = append(routes, &route)
	}
	return routes, rows.Err()
}

// Save inserts the route or replaces the stored row with the same id
func (r *SQLiteRouteRepository) Save(ctx context.Context, route *entity.Route) error {
	thresholds, err := json.Marshal(route.Thresholds)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO route (
			id, chat_id, origin, destination, trip_type, min_days, max_days,
			horizon_days, currency, thresholds, last_checked_ts, interval_ns,
			burst_active, burst_started_ts, halted, halt_reason, created_ts, updated_ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			horizon_days     = excluded.horizon_days,
			currency         = excluded.currency,
			thresholds       = excluded.thresholds,
			last_checked_ts  = excluded.last_checked_ts,
			interval_ns      = excluded.interval_ns,
			burst_active     = excluded.burst_active,
			burst_started_ts = excluded.burst_started_ts,
			halted           = excluded.halted,
			halt_reason      = excluded.halt_reason,
			updated_ts       = excluded.updated_ts`,
		route.ID, route.ChatID, route.Origin, route.Destination, string(route.TripType),
		route.MinDays, route.MaxDays, route.HorizonDays, route.Currency, string(thresholds),
		toUnixNano(route.Schedule.LastCheckedAt), int64(route.Schedule.Interval),
		route.Schedule.BurstActive, toUnixNano(route.Schedule.BurstStartedAt),
		route.Schedule.Halted, route.Schedule.HaltReason,
		toUnixNano(route.CreatedAt), toUnixNano(route.UpdatedAt),
	)
	return err
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
