package services

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/logger"
	"fmt"
	"time"
)

// Recorder receives one observation per completed optimization.
type Recorder interface {
	RecordOptimization(op string, result domain.OptimizationResult, stops int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordOptimization(string, domain.OptimizationResult, int, time.Duration) {}

// RouteOptimizer is the entry point to route planning.
// It holds no per-call state and is safe for concurrent use.
type RouteOptimizer struct {
	strategy Strategy
	log      logger.Logger
	recorder Recorder
}

type Option func(*RouteOptimizer)

func WithStrategy(s Strategy) Option {
	return func(o *RouteOptimizer) { o.strategy = s }
}

func WithLogger(l logger.Logger) Option {
	return func(o *RouteOptimizer) { o.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(o *RouteOptimizer) { o.recorder = r }
}

// NewRouteOptimizer defaults to the hybrid strategy with no logging or metrics.
func NewRouteOptimizer(opts ...Option) *RouteOptimizer {
	o := &RouteOptimizer{
		strategy: HybridStrategy{},
		log:      logger.NopLogger{},
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Using returns a copy of the optimizer that plans with s.
func (o *RouteOptimizer) Using(s Strategy) *RouteOptimizer {
	cp := *o
	cp.strategy = s
	return &cp
}

func (o *RouteOptimizer) Strategy() string { return o.strategy.Name() }

// Optimize plans a visiting order for stops starting at start and returns the
// evaluated route with aggregate metrics. Empty input yields an empty route
// with zero metrics.
func (o *RouteOptimizer) Optimize(
	ctx context.Context,
	start domain.Coordinates,
	stops []domain.Stop,
	cfg domain.OptimizationConfig,
) (domain.OptimizationResult, error) {
	return o.run(ctx, "optimize", start, stops, cfg)
}

// ReoptimizeRemaining plans only the stops still to be visited, starting from
// the vehicle's current location.
func (o *RouteOptimizer) ReoptimizeRemaining(
	ctx context.Context,
	currentLocation domain.Coordinates,
	pendingStops []domain.Stop,
	cfg domain.OptimizationConfig,
) (domain.OptimizationResult, error) {
	return o.run(ctx, "reoptimize_remaining", currentLocation, pendingStops, cfg)
}

// ReoptimizeWithHistory keeps fullRoute[:currentStopIndex] exactly as given and
// re-plans fullRoute[currentStopIndex:] from currentLocation.
func (o *RouteOptimizer) ReoptimizeWithHistory(
	ctx context.Context,
	currentLocation domain.Coordinates,
	fullRoute []domain.Stop,
	currentStopIndex int,
	cfg domain.OptimizationConfig,
) ([]domain.Stop, error) {
	completed, pending, err := splitRoute(fullRoute, currentStopIndex)
	if err != nil {
		return nil, fmt.Errorf("reoptimize with history: %w", err)
	}

	res, err := o.run(ctx, "reoptimize_with_history", currentLocation, pending, cfg)
	if err != nil {
		return nil, fmt.Errorf("reoptimize with history: %w", err)
	}

	return joinRoute(completed, res.Route), nil
}

// Outcome of a delay report against an in-progress route.
type DelayOutcome struct {
	Route            []domain.Stop
	Pending          domain.OptimizationResult
	Recalculated     bool
	DelayMinutes     float64
	EstimatedMinutes float64
}

// ReoptimizeAfterDelay re-plans the pending suffix when the reported delay
// exceeds cfg.DelayThresholdMinutes. Below the threshold the current order is
// kept and only re-evaluated from currentLocation. A zero delay (initial plan)
// or a zero threshold always re-plans.
func (o *RouteOptimizer) ReoptimizeAfterDelay(
	ctx context.Context,
	currentLocation domain.Coordinates,
	fullRoute []domain.Stop,
	currentStopIndex int,
	delayMinutes float64,
	cfg domain.OptimizationConfig,
) (DelayOutcome, error) {
	if delayMinutes < 0 {
		return DelayOutcome{}, fmt.Errorf("reoptimize after delay: %w: negative delay %v", ErrInvalidInput, delayMinutes)
	}

	completed, pending, err := splitRoute(fullRoute, currentStopIndex)
	if err != nil {
		return DelayOutcome{}, fmt.Errorf("reoptimize after delay: %w", err)
	}

	cfg = WithDefaults(cfg)
	recalc := delayMinutes == 0 || cfg.DelayThresholdMinutes == 0 || delayMinutes > cfg.DelayThresholdMinutes

	const op = "reoptimize_after_delay"
	var res domain.OptimizationResult
	if recalc {
		res, err = o.run(ctx, op, currentLocation, pending, cfg)
	} else {
		res, err = o.evaluateOnly(op, currentLocation, pending, cfg)
	}
	if err != nil {
		return DelayOutcome{}, fmt.Errorf("reoptimize after delay: %w", err)
	}

	o.log.Debugw("delay report applied", map[string]any{
		"delay_minutes": delayMinutes,
		"threshold":     cfg.DelayThresholdMinutes,
		"recalculated":  recalc,
		"pending":       len(pending),
	})

	return DelayOutcome{
		Route:            joinRoute(completed, res.Route),
		Pending:          res,
		Recalculated:     recalc,
		DelayMinutes:     delayMinutes,
		EstimatedMinutes: round2(res.Metrics.TotalTime + delayMinutes),
	}, nil
}

func (o *RouteOptimizer) run(
	ctx context.Context,
	op string,
	start domain.Coordinates,
	stops []domain.Stop,
	cfg domain.OptimizationConfig,
) (domain.OptimizationResult, error) {
	began := time.Now()

	cfg = WithDefaults(cfg)
	if err := validateRequest(start, stops, cfg); err != nil {
		return domain.OptimizationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	order, summary, err := o.strategy.Plan(ctx, start, stops, cfg)
	if err != nil {
		return domain.OptimizationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := EvaluateRoute(start, order, cfg)
	res.Strategy = o.strategy.Name()
	res.Refinement = summary

	elapsed := time.Since(began)
	o.recorder.RecordOptimization(op, res, len(stops), elapsed)
	o.log.Debugw("route optimized", map[string]any{
		"op":         op,
		"strategy":   res.Strategy,
		"stops":      len(stops),
		"sweeps":     summary.Sweeps,
		"accepted":   summary.Accepted,
		"total_cost": res.Metrics.TotalCost,
		"dur_ms":     elapsed.Milliseconds(),
	})

	return res, nil
}

// evaluateOnly scores stops in their current order. It is observed like a
// planning run so kept-order delay reports still reach the recorder.
func (o *RouteOptimizer) evaluateOnly(
	op string,
	start domain.Coordinates,
	stops []domain.Stop,
	cfg domain.OptimizationConfig,
) (domain.OptimizationResult, error) {
	began := time.Now()

	if err := validateRequest(start, stops, cfg); err != nil {
		return domain.OptimizationResult{}, err
	}
	res := EvaluateRoute(start, stops, cfg)
	res.Strategy = StrategyKept

	elapsed := time.Since(began)
	o.recorder.RecordOptimization(op, res, len(stops), elapsed)
	o.log.Debugw("route re-evaluated", map[string]any{
		"op":         op,
		"stops":      len(stops),
		"total_cost": res.Metrics.TotalCost,
		"dur_ms":     elapsed.Milliseconds(),
	})

	return res, nil
}

func validateRequest(start domain.Coordinates, stops []domain.Stop, cfg domain.OptimizationConfig) error {
	if err := ValidateLocation(start); err != nil {
		return err
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	return ValidateStops(stops)
}

func splitRoute(fullRoute []domain.Stop, k int) (completed, pending []domain.Stop, err error) {
	if k < 0 || k > len(fullRoute) {
		return nil, nil, fmt.Errorf("%w: current stop index %d outside [0, %d]", ErrInvalidInput, k, len(fullRoute))
	}
	if err := ValidateStops(fullRoute); err != nil {
		return nil, nil, err
	}
	return fullRoute[:k], fullRoute[k:], nil
}

func joinRoute(completed, pending []domain.Stop) []domain.Stop {
	out := make([]domain.Stop, 0, len(completed)+len(pending))
	out = append(out, completed...)
	return append(out, pending...)
}
