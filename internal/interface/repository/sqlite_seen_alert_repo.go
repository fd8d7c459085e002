package repository

import (
	"context"
	"database/sql"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
)

// SQLiteSeenAlertRepository implements SeenAlertRepository on the embedded store
type SQLiteSeenAlertRepository struct {
	db *sql.DB
}

// NewSQLiteSeenAlertRepository creates a new sqlite seen-alert repository
func NewSQLiteSeenAlertRepository(db *sql.DB) repository.SeenAlertRepository {
	return &SQLiteSeenAlertRepository{db: db}
}

// LoadSince returns alerts seen at or after since
func (r *SQLiteSeenAlertRepository) LoadSince(ctx context.Context, since time.Time) ([]*entity.SeenAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT origin, destination, cabin, price_minor, offer_id, route_id, chat_id, seen_ts
		FROM seen_alert WHERE seen_ts >= ? ORDER BY seen_ts ASC`, toUnixNano(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*entity.SeenAlert
	for rows.Next() {
		var (
			a      entity.SeenAlert
			cabin  string
			seenTs int64
		)
		if err := rows.Scan(&a.Key.Origin, &a.Key.Destination, &cabin, &a.Key.PriceMinor,
			&a.Key.OfferID, &a.RouteID, &a.ChatID, &seenTs); err != nil {
			return nil, err
		}
		a.Key.Cabin = entity.CabinClass(cabin)
		a.Key.ChatID = a.ChatID
		a.SeenAt = fromUnixNano(seenTs)
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// Save records an alert; re-saving an existing key is a no-op
func (r *SQLiteSeenAlertRepository) Save(ctx context.Context, alert *entity.SeenAlert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO seen_alert (origin, destination, cabin, price_minor, offer_id, route_id, chat_id, seen_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		alert.Key.Origin, alert.Key.Destination, string(alert.Key.Cabin), alert.Key.PriceMinor,
		alert.Key.OfferID, alert.RouteID, alert.Key.ChatID, toUnixNano(alert.SeenAt))
	return err
}

// DeleteBefore removes alerts seen before the cutoff
func (r *SQLiteSeenAlertRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seen_alert WHERE seen_ts < ?`, toUnixNano(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
