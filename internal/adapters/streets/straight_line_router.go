package streets

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/services"
	"fmt"
	"math"
)

// StraightLineRouter connects waypoints with great-circle segments.
// It needs no network and serves as the fallback when OSRM is unavailable.
// Durations assume free-flow traffic (both factors 1).
type StraightLineRouter struct{}

func (StraightLineRouter) Route(_ context.Context, waypoints []domain.Coordinates) (ports.StreetRoute, error) {
	out := ports.StreetRoute{Path: append([]domain.Coordinates(nil), waypoints...)}

	var km, minutes float64
	for i := 1; i < len(waypoints); i++ {
		d := services.Distance(waypoints[i-1], waypoints[i])
		if math.IsNaN(d) {
			return ports.StreetRoute{}, fmt.Errorf("straight line route: waypoint %d is not finite", i)
		}
		km += d
		minutes += services.TravelTime(d, 1, 1)
	}
	out.DistanceKm = math.Round(km*100) / 100
	out.DurationMinutes = math.Round(minutes)

	return out, nil
}

func (StraightLineRouter) LegDistances(
	_ context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, d := range destinations {
		km := services.Distance(origin, d)
		if math.IsNaN(km) {
			return nil, fmt.Errorf("straight line legs: destination %d is not finite", i)
		}
		out[d.Key()] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(km * 1000)),
			DurationSeconds: int(math.Round(services.TravelTime(km, 1, 1) * 60)),
		}
	}
	return out, nil
}
