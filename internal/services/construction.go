package services

import (
	"delivery-route-optimizer/internal/domain"
	"slices"
)

// ConstructCostAware builds an initial visiting order greedily.
//
// From the current position every unvisited stop is scored with the full leg
// cost (time, fuel and the lateness penalty of its predicted arrival) and the
// cheapest one is visited next. Ties keep the stop that appears first in the
// input, so the result is deterministic. O(N²) leg evaluations.
func ConstructCostAware(start domain.Coordinates, stops []domain.Stop, cfg domain.OptimizationConfig) []domain.Stop {
	cfg = WithDefaults(cfg)

	pool := slices.Clone(stops)
	order := make([]domain.Stop, 0, len(stops))
	current := start
	elapsed := 0.0

	for len(pool) > 0 {
		best := -1
		var bestLeg leg
		for i, s := range pool {
			l := nextLeg(current, s, elapsed, cfg)
			if best == -1 || l.cost < bestLeg.cost {
				best = i
				bestLeg = l
			}
		}

		chosen := pool[best]
		pool = slices.Delete(pool, best, best+1)
		order = append(order, chosen)

		current = chosen.Location
		elapsed = bestLeg.arrival
	}

	return order
}

// ConstructNearestNeighbor is the legacy distance-only heuristic: always move
// to the geometrically closest unvisited stop, ignoring traffic and deadlines.
// Kept as a baseline for comparing against the cost-aware strategy.
func ConstructNearestNeighbor(start domain.Coordinates, stops []domain.Stop) []domain.Stop {
	pool := slices.Clone(stops)
	order := make([]domain.Stop, 0, len(stops))
	current := start

	for len(pool) > 0 {
		best := -1
		shortest := 0.0
		// Select next stop by minimum distance (greedy step).
		for i, s := range pool {
			d := Distance(current, s.Location)
			if best == -1 || d < shortest {
				best = i
				shortest = d
			}
		}

		chosen := pool[best]
		pool = slices.Delete(pool, best, best+1)
		order = append(order, chosen)
		current = chosen.Location
	}

	return order
}
