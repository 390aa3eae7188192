package ports

import (
	"context"
	"delivery-route-optimizer/internal/domain"
)

// A single turn-by-turn instruction along a street route.
type StreetStep struct {
	Instruction    string
	DistanceMeters float64
	Location       domain.Coordinates
}

// Street-level path through an ordered list of waypoints, for display.
type StreetRoute struct {
	Path            []domain.Coordinates
	Steps           []StreetStep
	DistanceKm      float64
	DurationMinutes float64
}

// Contract for retrieving street geometry between waypoints.
// The optimizer never depends on it; it only serves map rendering.
type StreetRouter interface {
	// Return the street path visiting waypoints in order.
	Route(ctx context.Context, waypoints []domain.Coordinates) (StreetRoute, error)
}
