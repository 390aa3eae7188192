package dto

import "time"

type PlanRouteRequest struct {
	Start       *Coordinates        `json:"start"`
	Config      *OptimizationConfig `json:"config"`
	Strategy    string              `json:"strategy"`
	TrafficZone string              `json:"traffic_zone"`
}

type SessionResponse struct {
	SessionID        string      `json:"session_id"`
	Start            Coordinates `json:"start"`
	Stops            []Stop      `json:"stops"`
	CurrentStopIndex int         `json:"current_stop_index"`
	CurrentStop      *Stop       `json:"current_stop"`
	Progress         int         `json:"progress_percent"`
	Finished         bool        `json:"finished"`
	DelayMinutes     float64     `json:"delay_minutes"`
	Strategy         string      `json:"strategy"`
	// Metrics cover the whole route from start.
	Metrics Metrics `json:"metrics"`
	// PendingMetrics cover the unvisited stops from the last reported delay location.
	PendingMetrics *Metrics  `json:"pending_metrics,omitempty"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type AdvanceResponse struct {
	Visited Stop            `json:"visited"`
	Session SessionResponse `json:"session"`
}

type DelayRequest struct {
	CurrentLocation *Coordinates `json:"current_location"`
	DelayMinutes    float64      `json:"delay_minutes"`
}

type DelayResponse struct {
	Recalculated     bool            `json:"recalculated"`
	EstimatedMinutes float64         `json:"estimated_minutes"`
	Session          SessionResponse `json:"session"`
}

type Step struct {
	Instruction    string      `json:"instruction"`
	DistanceMeters float64     `json:"distance_meters"`
	Location       Coordinates `json:"location"`
}

type PathResponse struct {
	Path            []Coordinates `json:"path"`
	Steps           []Step        `json:"steps"`
	DistanceKm      float64       `json:"distance_km"`
	DurationMinutes float64       `json:"duration_minutes"`
}

type Leg struct {
	From            string `json:"from,omitempty"`
	To              string `json:"to"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
}

type SummaryResponse struct {
	Legs                 []Leg   `json:"legs"`
	TotalDistanceKm      float64 `json:"total_distance_km"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`
}
