package domain

// Tunables for a single optimization request.
// VehicleConsumptionRate is liters per km and TimeOfDayFactor multiplies every
// travel-time prediction. MaxTwoOptSweeps bounds the refiner (0 = until no
// improvement). DelayThresholdMinutes gates delay-triggered re-optimization
// (0 = always re-optimize).
type OptimizationConfig struct {
	VehicleConsumptionRate float64
	TimeOfDayFactor        float64
	MaxTwoOptSweeps        int
	DelayThresholdMinutes  float64
}

// Aggregate route metrics. Each total is the sum of per-leg contributions.
type Metrics struct {
	TotalDistance   float64
	TotalTime       float64
	TotalFuel       float64
	TotalCost       float64
	CarbonFootprint float64
	LateStops       int
}

// Summary of the local-search pass that produced a result.
type TwoOptSummary struct {
	Sweeps      int
	Accepted    int
	Evaluations int
	InitialCost float64
	Capped      bool
}

// Represents the evaluated output of the optimizer.
// Route is the visiting order with ArrivalTime populated per stop.
// It is fresh planning data and shares no state with the request.
type OptimizationResult struct {
	Route      []Stop
	Metrics    Metrics
	Strategy   string
	Refinement TwoOptSummary
}
