package repository

import (
	"context"

	"dealwatch-service/internal/domain/entity"
)

// UsageRepository counts outbound fare-search calls per identity and day
type UsageRepository interface {
	// Reserve takes one call from the budget of key. It reports false,
	// without consuming anything, once quota calls were already reserved.
	Reserve(ctx context.Context, key entity.UsageKey, quota int64) (int64, bool, error)
}
