package domain

// Represents a single delivery location within a route.
// ID, Location, TrafficFactor and TimeWindowEnd are caller inputs and are never
// modified by the optimizer. ArrivalTime (minutes from route start) is nil on
// input and populated on the evaluated copies returned by the optimizer.
type Stop struct {
	ID            string
	Location      Coordinates
	TrafficFactor float64
	TimeWindowEnd float64
	ArrivalTime   *float64
}

// Late reports whether the stop was evaluated as arriving after its time window.
func (s Stop) Late() bool {
	return s.ArrivalTime != nil && *s.ArrivalTime > s.TimeWindowEnd
}

// StopIDs returns the identifiers of stops in visiting order.
func StopIDs(stops []Stop) []string {
	ids := make([]string, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}
