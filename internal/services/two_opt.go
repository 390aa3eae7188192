package services

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"fmt"
)

// CostFunc scores a complete candidate visiting order. Lower is better.
type CostFunc func(order []domain.Stop) float64

type TwoOptStats struct {
	Sweeps      int
	Accepted    int
	Evaluations int
	InitialCost float64
	FinalCost   float64
	// Capped is set when maxSweeps stopped the search before a sweep without improvement.
	Capped bool
}

// TwoOpt refines a visiting order by reversing contiguous segments.
//
// Each sweep scans every pair (i, j), i < j, and adopts the reversed candidate
// as soon as it is strictly cheaper (first improvement); the scan then
// continues from the adopted order. Sweeps repeat until one finds no
// improvement, so the returned cost never exceeds the initial cost.
// maxSweeps > 0 bounds the number of sweeps. ctx is checked between sweeps.
//
// One sweep is O(N²) candidates, each costing one oracle call (O(N) for the
// route evaluator).
func TwoOpt(ctx context.Context, route []domain.Stop, cost CostFunc, maxSweeps int) ([]domain.Stop, TwoOptStats, error) {
	best := make([]domain.Stop, len(route))
	copy(best, route)

	bestCost := cost(best)
	stats := TwoOptStats{Evaluations: 1, InitialCost: bestCost}

	improved := true
	for improved {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("two-opt: sweep %d: %w", stats.Sweeps+1, err)
		}
		if maxSweeps > 0 && stats.Sweeps >= maxSweeps {
			stats.Capped = true
			break
		}

		improved = false
		stats.Sweeps++

		for i := 0; i < len(best)-1; i++ {
			for j := i + 1; j < len(best); j++ {
				candidate := reverseSegment(best, i, j)
				c := cost(candidate)
				stats.Evaluations++

				if c < bestCost {
					best = candidate
					bestCost = c
					stats.Accepted++
					improved = true
				}
			}
		}
	}

	stats.FinalCost = bestCost
	return best, stats, nil
}

// reverseSegment returns a copy of order with order[i..j] reversed.
func reverseSegment(order []domain.Stop, i, j int) []domain.Stop {
	out := make([]domain.Stop, len(order))
	copy(out, order[:i])
	pos := i
	for k := j; k >= i; k-- {
		out[pos] = order[k]
		pos++
	}
	copy(out[pos:], order[j+1:])
	return out
}
