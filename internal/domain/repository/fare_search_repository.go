package repository

import (
	"context"

	"dealwatch-service/internal/domain/entity"
)

// FareSearchRepository defines the interface for fare-search providers.
// Failures are returned as *entity.AdapterError.
type FareSearchRepository interface {
	Name() string
	Search(ctx context.Context, query entity.FareQuery) ([]entity.Offer, error)
}
