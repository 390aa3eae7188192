package services

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"fmt"
)

// Strategy produces a visiting order for a set of stops.
// Implementations must return a permutation of stops and must not modify them.
type Strategy interface {
	Name() string
	Plan(ctx context.Context, start domain.Coordinates, stops []domain.Stop, cfg domain.OptimizationConfig) ([]domain.Stop, domain.TwoOptSummary, error)
}

const (
	StrategyHybrid          = "hybrid"
	StrategyNearestNeighbor = "nearest-neighbor"
	// StrategyKept labels results where the given order was only re-evaluated.
	StrategyKept            = "kept"
)

// HybridStrategy is cost-aware greedy construction refined by 2-opt, with the
// route evaluator as the refinement oracle.
type HybridStrategy struct{}

func (HybridStrategy) Name() string { return StrategyHybrid }

func (HybridStrategy) Plan(
	ctx context.Context,
	start domain.Coordinates,
	stops []domain.Stop,
	cfg domain.OptimizationConfig,
) ([]domain.Stop, domain.TwoOptSummary, error) {
	initial := ConstructCostAware(start, stops, cfg)

	oracle := func(order []domain.Stop) float64 {
		return routeCost(start, order, cfg)
	}
	refined, stats, err := TwoOpt(ctx, initial, oracle, cfg.MaxTwoOptSweeps)
	if err != nil {
		return nil, domain.TwoOptSummary{}, fmt.Errorf("hybrid plan: %w", err)
	}

	return refined, domain.TwoOptSummary{
		Sweeps:      stats.Sweeps,
		Accepted:    stats.Accepted,
		Evaluations: stats.Evaluations,
		InitialCost: stats.InitialCost,
		Capped:      stats.Capped,
	}, nil
}

// NearestNeighborStrategy orders stops by geometric distance only, with no refinement.
type NearestNeighborStrategy struct{}

func (NearestNeighborStrategy) Name() string { return StrategyNearestNeighbor }

func (NearestNeighborStrategy) Plan(
	_ context.Context,
	start domain.Coordinates,
	stops []domain.Stop,
	_ domain.OptimizationConfig,
) ([]domain.Stop, domain.TwoOptSummary, error) {
	return ConstructNearestNeighbor(start, stops), domain.TwoOptSummary{}, nil
}

// StrategyByName resolves a configured strategy name. An empty name selects hybrid.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", StrategyHybrid:
		return HybridStrategy{}, nil
	case StrategyNearestNeighbor:
		return NearestNeighborStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, name)
	}
}
