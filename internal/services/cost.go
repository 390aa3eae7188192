package services

import "math"

// Cost weights: delivery speed first, then fuel, then lateness risk.
const (
	TimeWeight    = 0.6
	FuelWeight    = 0.3
	PenaltyWeight = 0.1

	// Added to any positive lateness so that a missed window outweighs the
	// small PenaltyWeight.
	LateSurcharge = 20.0
)

// LatenessPenalty scores a predicted arrival against a stop deadline.
// On-time arrivals cost nothing.
func LatenessPenalty(predictedArrival, timeWindowEnd float64) float64 {
	penalty := math.Max(0, predictedArrival-timeWindowEnd)
	if predictedArrival > timeWindowEnd {
		penalty += LateSurcharge
	}
	return penalty
}

// Cost combines time, fuel and lateness penalty into one scalar.
// It is the only objective used by construction and refinement.
func Cost(time, fuel, penalty float64) float64 {
	return round2(TimeWeight*time + FuelWeight*fuel + PenaltyWeight*penalty)
}
