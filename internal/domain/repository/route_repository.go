package repository

import (
	"context"

	"dealwatch-service/internal/domain/entity"
)

// RouteRepository defines the interface for durable route storage
type RouteRepository interface {
	LoadAll(ctx context.Context) ([]*entity.Route, error)
	// Save inserts or replaces the route with the same ID
	Save(ctx context.Context, route *entity.Route) error
}
