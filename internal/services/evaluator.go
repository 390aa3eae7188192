package services

import "delivery-route-optimizer/internal/domain"

// Per-leg contribution of travelling from the current position to a stop.
type leg struct {
	distance float64
	time     float64
	fuel     float64
	arrival  float64
	penalty  float64
	cost     float64
}

// nextLeg is shared by construction and evaluation so both score a leg identically.
func nextLeg(from domain.Coordinates, stop domain.Stop, elapsed float64, cfg domain.OptimizationConfig) leg {
	d := Distance(from, stop.Location)
	t := TravelTime(d, stop.TrafficFactor, cfg.TimeOfDayFactor)
	f := Fuel(d, stop.TrafficFactor, cfg.VehicleConsumptionRate)
	arrival := round2(elapsed + t)
	p := LatenessPenalty(arrival, stop.TimeWindowEnd)

	return leg{
		distance: d,
		time:     t,
		fuel:     f,
		arrival:  arrival,
		penalty:  p,
		cost:     Cost(t, f, p),
	}
}

func walkRoute(start domain.Coordinates, order []domain.Stop, cfg domain.OptimizationConfig, visit func(domain.Stop, leg)) {
	current := start
	elapsed := 0.0
	for _, s := range order {
		l := nextLeg(current, s, elapsed, cfg)
		visit(s, l)
		current = s.Location
		elapsed = l.arrival
	}
}

// EvaluateRoute walks a fixed order from start and returns arrival-stamped
// copies of the stops together with the aggregate metrics.
// The input slice and its stops are not modified.
func EvaluateRoute(start domain.Coordinates, order []domain.Stop, cfg domain.OptimizationConfig) domain.OptimizationResult {
	cfg = WithDefaults(cfg)

	route := make([]domain.Stop, 0, len(order))
	var m domain.Metrics
	walkRoute(start, order, cfg, func(s domain.Stop, l leg) {
		arrival := l.arrival
		s.ArrivalTime = &arrival
		route = append(route, s)

		m.TotalDistance += l.distance
		m.TotalTime += l.time
		m.TotalFuel += l.fuel
		m.TotalCost += l.cost
		if l.penalty > 0 {
			m.LateStops++
		}
	})

	m.TotalDistance = round2(m.TotalDistance)
	m.TotalTime = round2(m.TotalTime)
	m.TotalFuel = round2(m.TotalFuel)
	m.TotalCost = round2(m.TotalCost)
	m.CarbonFootprint = CarbonFootprint(m.TotalFuel)

	return domain.OptimizationResult{Route: route, Metrics: m}
}

// routeCost is the allocation-free equivalent of EvaluateRoute(...).Metrics.TotalCost,
// used as the 2-opt oracle.
func routeCost(start domain.Coordinates, order []domain.Stop, cfg domain.OptimizationConfig) float64 {
	total := 0.0
	walkRoute(start, order, cfg, func(_ domain.Stop, l leg) {
		total += l.cost
	})
	return round2(total)
}
