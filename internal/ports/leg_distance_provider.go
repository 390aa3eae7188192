package ports

import (
	"context"
	"delivery-route-optimizer/internal/domain"
)

// Street distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Optional extension of StreetRouter that supports batched leg lookups.
type LegDistanceProvider interface {
	StreetRouter
	// Return distances from one origin to many destinations, keyed by
	// domain.Coordinates.Key() of each destination.
	LegDistances(ctx context.Context, origin domain.Coordinates, destinations []domain.Coordinates) (map[string]DistanceResult, error)
}
