package services

import (
	"delivery-route-optimizer/internal/domain"
	"fmt"
	"math/rand/v2"
	"slices"
)

var chennaiHub = domain.Coordinates{Lat: 13.0827, Lng: 80.2707}

// Six-stop regression fixture around Chennai, rush-hour config.
func chennaiStops() []domain.Stop {
	return []domain.Stop{
		{ID: "Stop_1", Location: domain.Coordinates{Lat: 13.0475, Lng: 80.2089}, TrafficFactor: 1.2, TimeWindowEnd: 30},
		{ID: "Stop_2", Location: domain.Coordinates{Lat: 12.9172, Lng: 80.1923}, TrafficFactor: 1.8, TimeWindowEnd: 60},
		{ID: "Stop_3", Location: domain.Coordinates{Lat: 13.0067, Lng: 80.2547}, TrafficFactor: 1.1, TimeWindowEnd: 20},
		{ID: "Stop_4", Location: domain.Coordinates{Lat: 13.0674, Lng: 80.2376}, TrafficFactor: 1.5, TimeWindowEnd: 90},
		{ID: "Stop_5", Location: domain.Coordinates{Lat: 12.8342, Lng: 79.7036}, TrafficFactor: 1.3, TimeWindowEnd: 150},
		{ID: "Stop_6", Location: domain.Coordinates{Lat: 13.1585, Lng: 80.2871}, TrafficFactor: 1.6, TimeWindowEnd: 120},
	}
}

var rushHour = domain.OptimizationConfig{VehicleConsumptionRate: 0.12, TimeOfDayFactor: 1.4}

// randomStops scatters n stops over the Chennai area with a fixed seed.
func randomStops(n int, seed uint64) []domain.Stop {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	stops := make([]domain.Stop, 0, n)
	for i := 0; i < n; i++ {
		stops = append(stops, domain.Stop{
			ID: fmt.Sprintf("STOP_%d", i+1),
			Location: domain.Coordinates{
				Lat: 12.8 + r.Float64()*0.4,
				Lng: 79.9 + r.Float64()*0.5,
			},
			TrafficFactor: 1 + r.Float64()*2,
			TimeWindowEnd: float64(60 + r.IntN(300)),
		})
	}
	return stops
}

func sortedIDs(stops []domain.Stop) []string {
	ids := domain.StopIDs(stops)
	slices.Sort(ids)
	return ids
}
