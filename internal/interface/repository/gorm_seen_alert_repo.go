package repository

import (
	"context"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSeenAlertRepository implements the SeenAlertRepository interface on PostgreSQL
type GormSeenAlertRepository struct {
	db *gorm.DB
}

// NewGormSeenAlertRepository creates a new GORM seen-alert repository
func NewGormSeenAlertRepository(db *gorm.DB) repository.SeenAlertRepository {
	return &GormSeenAlertRepository{
		db: db,
	}
}

// SeenAlerts GORM model for database mapping
type SeenAlerts struct {
	ChatID      string    `gorm:"primaryKey;column:chat_id"`
	Origin      string    `gorm:"primaryKey;column:origin"`
	Destination string    `gorm:"primaryKey;column:destination"`
	Cabin       string    `gorm:"primaryKey;column:cabin"`
	PriceMinor  int64     `gorm:"primaryKey;column:price_minor;autoIncrement:false"`
	OfferID     string    `gorm:"primaryKey;column:offer_id"`
	RouteID     string    `gorm:"column:route_id"`
	SeenAt      time.Time `gorm:"column:seen_at;index"`
}

// TableName overrides the default table name
func (SeenAlerts) TableName() string {
	return "seen_alerts"
}

// LoadSince returns alerts seen at or after since
func (r *GormSeenAlertRepository) LoadSince(ctx context.Context, since time.Time) ([]*entity.SeenAlert, error) {
	var rows []SeenAlerts
	result := r.db.WithContext(ctx).Where("seen_at >= ?", since).Order("seen_at ASC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	entities := make([]*entity.SeenAlert, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, &entity.SeenAlert{
			Key: entity.SeenAlertKey{
				ChatID:      row.ChatID,
				Origin:      row.Origin,
				Destination: row.Destination,
				Cabin:       entity.CabinClass(row.Cabin),
				PriceMinor:  row.PriceMinor,
				OfferID:     row.OfferID,
			},
			RouteID: row.RouteID,
			ChatID:  row.ChatID,
			SeenAt:  row.SeenAt,
		})
	}
	return entities, nil
}

// Save inserts the alert, ignoring keys already present
func (r *GormSeenAlertRepository) Save(ctx context.Context, alert *entity.SeenAlert) error {
	model := SeenAlerts{
		ChatID:      alert.Key.ChatID,
		Origin:      alert.Key.Origin,
		Destination: alert.Key.Destination,
		Cabin:       string(alert.Key.Cabin),
		PriceMinor:  alert.Key.PriceMinor,
		OfferID:     alert.Key.OfferID,
		RouteID:     alert.RouteID,
		SeenAt:      alert.SeenAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

// DeleteBefore removes alerts seen before the cutoff
func (r *GormSeenAlertRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("seen_at < ?", before).Delete(&SeenAlerts{})
	return result.RowsAffected, result.Error
}
