package repository

import (
	"context"
	"time"

	"dealwatch-service/internal/domain/entity"
)

// SeenAlertRepository defines the interface for the notified-offer ledger
type SeenAlertRepository interface {
	LoadSince(ctx context.Context, since time.Time) ([]*entity.SeenAlert, error)
	Save(ctx context.Context, alert *entity.SeenAlert) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
