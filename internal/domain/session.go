package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrRouteFinished = errors.New("route session: all stops completed")

// Active delivery route aggregate: a planned stop order plus the driver's progress.
// Stops[:CurrentStopIndex] have been visited and are never reordered.
//
// Metrics always cover the whole route from Start. PendingMetrics covers only
// the unvisited stops from the location of the last delay report, and is nil
// until one arrives. Version is owned by the session store.
type RouteSession struct {
	SessionID        string
	Start            Coordinates
	Stops            []Stop
	CurrentStopIndex int
	DelayMinutes     float64
	Strategy         string
	Config           OptimizationConfig
	Metrics          Metrics
	PendingMetrics   *Metrics
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewRouteSession(id string, start Coordinates, result OptimizationResult, now time.Time) *RouteSession {
	return &RouteSession{
		SessionID: id,
		Start:     start,
		Stops:     result.Route,
		Strategy:  result.Strategy,
		Metrics:   result.Metrics,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Return the stops already visited, in visiting order.
func (s *RouteSession) Completed() []Stop {
	return s.Stops[:s.CurrentStopIndex]
}

// Return the stops not yet visited, in planned order.
func (s *RouteSession) Pending() []Stop {
	return s.Stops[s.CurrentStopIndex:]
}

func (s *RouteSession) Finished() bool {
	return s.CurrentStopIndex >= len(s.Stops)
}

// Return where the vehicle currently is: the last visited stop, or Start.
func (s *RouteSession) CurrentLocation() Coordinates {
	if s.CurrentStopIndex == 0 || len(s.Stops) == 0 {
		return s.Start
	}
	return s.Stops[s.CurrentStopIndex-1].Location
}

// Return the stop the driver is heading to, or false once the route is finished.
func (s *RouteSession) CurrentStop() (Stop, bool) {
	if s.Finished() {
		return Stop{}, false
	}
	return s.Stops[s.CurrentStopIndex], true
}

// Progress is the completed share of the route as a whole percentage.
func (s *RouteSession) Progress() int {
	if len(s.Stops) == 0 {
		return 0
	}
	return int(float64(s.CurrentStopIndex)/float64(len(s.Stops))*100 + 0.5)
}

// Mark the current stop as visited.
func (s *RouteSession) Advance(now time.Time) (Stop, error) {
	stop, ok := s.CurrentStop()
	if !ok {
		return Stop{}, fmt.Errorf("advance session %s: %w", s.SessionID, ErrRouteFinished)
	}
	s.CurrentStopIndex++
	s.UpdatedAt = now
	return stop, nil
}

// Replace the stop order with a re-optimized route.
// The route must keep the completed prefix intact and contain exactly the
// session's stops.
func (s *RouteSession) ApplyRoute(route []Stop, metrics Metrics, now time.Time) error {
	if len(route) != len(s.Stops) {
		return fmt.Errorf("apply route: session %s has %d stops, route has %d", s.SessionID, len(s.Stops), len(route))
	}

	for i := 0; i < s.CurrentStopIndex; i++ {
		if route[i].ID != s.Stops[i].ID {
			return fmt.Errorf("apply route: completed stop %d changed from %q to %q", i, s.Stops[i].ID, route[i].ID)
		}
	}

	want := make(map[string]int, len(s.Stops))
	for _, st := range s.Stops {
		want[st.ID]++
	}
	for _, st := range route {
		want[st.ID]--
		if want[st.ID] < 0 {
			return fmt.Errorf("apply route: unexpected stop %q", st.ID)
		}
	}

	s.Stops = route
	s.Metrics = metrics
	s.UpdatedAt = now
	return nil
}
