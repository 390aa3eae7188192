package dto

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Stop struct {
	ID            string      `json:"id"`
	Location      Coordinates `json:"location"`
	TrafficFactor float64     `json:"traffic_factor"`
	TimeWindowEnd float64     `json:"time_window_end"`
	ArrivalTime   *float64    `json:"arrival_time,omitempty"`
}

// Omitted fields fall back to the server's configured defaults. An explicit
// 0 is honoured: max_two_opt_sweeps 0 is uncapped and delay_threshold_minutes
// 0 re-plans on every delay.
type OptimizationConfig struct {
	VehicleConsumptionRate *float64 `json:"vehicle_consumption_rate,omitempty"`
	TimeOfDayFactor        *float64 `json:"time_of_day_factor,omitempty"`
	MaxTwoOptSweeps        *int     `json:"max_two_opt_sweeps,omitempty"`
	DelayThresholdMinutes  *float64 `json:"delay_threshold_minutes,omitempty"`
}

type OptimizeRequest struct {
	Start       *Coordinates        `json:"start"`
	Stops       []Stop              `json:"stops"`
	Config      *OptimizationConfig `json:"config"`
	Strategy    string              `json:"strategy"`
	TrafficZone string              `json:"traffic_zone"`
}

type HistoryRequest struct {
	CurrentLocation  *Coordinates        `json:"current_location"`
	Route            []Stop              `json:"route"`
	CurrentStopIndex int                 `json:"current_stop_index"`
	Config           *OptimizationConfig `json:"config"`
	Strategy         string              `json:"strategy"`
	TrafficZone      string              `json:"traffic_zone"`
}

type Metrics struct {
	TotalDistance   float64 `json:"total_distance_km"`
	TotalTime       float64 `json:"total_time_minutes"`
	TotalFuel       float64 `json:"total_fuel_liters"`
	TotalCost       float64 `json:"total_cost"`
	CarbonFootprint float64 `json:"carbon_footprint_kg"`
	LateStops       int     `json:"late_stops"`
}

type Refinement struct {
	Sweeps      int     `json:"sweeps"`
	Accepted    int     `json:"accepted"`
	Evaluations int     `json:"evaluations"`
	InitialCost float64 `json:"initial_cost"`
	Capped      bool    `json:"capped"`
}

type OptimizeResponse struct {
	Route      []Stop     `json:"route"`
	Metrics    Metrics    `json:"metrics"`
	Strategy   string     `json:"strategy"`
	Refinement Refinement `json:"refinement"`
}

type RouteResponse struct {
	Route []Stop `json:"route"`
}
