package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRouteRepository implements the RouteRepository interface on PostgreSQL
type GormRouteRepository struct {
	db *gorm.DB
}

// NewGormRouteRepository creates a new GORM route repository
func NewGormRouteRepository(db *gorm.DB) repository.RouteRepository {
	return &GormRouteRepository{
		db: db,
	}
}

// Routes GORM model for database mapping
type Routes struct {
	ID             string `gorm:"primaryKey;column:id"`
	ChatID         string `gorm:"column:chat_id;uniqueIndex:idx_route_key"`
	Origin         string `gorm:"column:origin;uniqueIndex:idx_route_key"`
	Destination    string `gorm:"column:destination;uniqueIndex:idx_route_key"`
	TripType       string `gorm:"column:trip_type;uniqueIndex:idx_route_key"`
	MinDays        int    `gorm:"column:min_days;uniqueIndex:idx_route_key"`
	MaxDays        int    `gorm:"column:max_days;uniqueIndex:idx_route_key"`
	HorizonDays    int    `gorm:"column:horizon_days"`
	Currency       string `gorm:"column:currency"`
	Thresholds     string `gorm:"column:thresholds;type:jsonb"`
	LastCheckedAt  *time.Time
	IntervalNs     int64 `gorm:"column:interval_ns"`
	BurstActive    bool  `gorm:"column:burst_active"`
	BurstStartedAt *time.Time
	Halted         bool   `gorm:"column:halted"`
	HaltReason     string `gorm:"column:halt_reason"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides the default table name
func (Routes) TableName() string {
	return "routes"
}

// LoadAll returns every stored route
func (r *GormRouteRepository) LoadAll(ctx context.Context) ([]*entity.Route, error) {
	var rows []Routes
	result := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	// Convert to domain entities
	entities := make([]*entity.Route, 0, len(rows))
	for _, row := range rows {
		route := &entity.Route{
			ID:          row.ID,
			ChatID:      row.ChatID,
			Origin:      row.Origin,
			Destination: row.Destination,
			TripType:    entity.TripType(row.TripType),
			MinDays:     row.MinDays,
			MaxDays:     row.MaxDays,
			HorizonDays: row.HorizonDays,
			Currency:    row.Currency,
			Schedule: entity.Schedule{
				Interval:    time.Duration(row.IntervalNs),
				BurstActive: row.BurstActive,
				Halted:      row.Halted,
				HaltReason:  row.HaltReason,
			},
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
		if row.LastCheckedAt != nil {
			route.Schedule.LastCheckedAt = *row.LastCheckedAt
		}
		if row.BurstStartedAt != nil {
			route.Schedule.BurstStartedAt = *row.BurstStartedAt
		}
		if err := json.Unmarshal([]byte(row.Thresholds), &route.Thresholds); err != nil {
			return nil, fmt.Errorf("decode thresholds of route %s: %w", row.ID, err)
		}
		entities = append(entities, route)
	}

	return entities, nil
}

// Save upserts the route by id
func (r *GormRouteRepository) Save(ctx context.Context, route *entity.Route) error {
	thresholds, err := json.Marshal(route.Thresholds)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	model := Routes{
		ID:             route.ID,
		ChatID:         route.ChatID,
		Origin:         route.Origin,
		Destination:    route.Destination,
		TripType:       string(route.TripType),
		MinDays:        route.MinDays,
		MaxDays:        route.MaxDays,
		HorizonDays:    route.HorizonDays,
		Currency:       route.Currency,
		Thresholds:     string(thresholds),
		LastCheckedAt:  optionalTime(route.Schedule.LastCheckedAt),
		IntervalNs:     int64(route.Schedule.Interval),
		BurstActive:    route.Schedule.BurstActive,
		BurstStartedAt: optionalTime(route.Schedule.BurstStartedAt),
		Halted:         route.Schedule.Halted,
		HaltReason:     route.Schedule.HaltReason,
		CreatedAt:      route.CreatedAt,
		UpdatedAt:      route.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"horizon_days", "currency", "thresholds", "last_checked_at", "interval_ns",
			"burst_active", "burst_started_at", "halted", "halt_reason", "updated_at",
		}),
	}).Create(&model)
	return result.Error
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
