package services

import (
	"delivery-route-optimizer/internal/domain"
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDistance(t *testing.T) {
	a := domain.Coordinates{Lat: 0, Lng: 0}
	b := domain.Coordinates{Lat: 0, Lng: 1}

	got := Distance(a, b)
	want := EarthRadiusKm * math.Pi / 180
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("distance = %v, want %v", got, want)
	}

	hub := domain.Coordinates{Lat: 13.0827, Lng: 80.2707}
	stop := domain.Coordinates{Lat: 13.0475, Lng: 80.2089}
	if d1, d2 := Distance(hub, stop), Distance(stop, hub); d1 != d2 {
		t.Fatalf("distance not symmetric: %v != %v", d1, d2)
	}
	if d := Distance(hub, hub); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}

	nan := domain.Coordinates{Lat: math.NaN(), Lng: 0}
	if d := Distance(nan, hub); !math.IsNaN(d) {
		t.Fatalf("distance with NaN input = %v, want NaN", d)
	}
}

func TestPredictors(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"travel time", TravelTime(10, 1.5, 1.2), 18},
		{"travel time rounds", TravelTime(1.23456, 1, 1), 1.23},
		{"fuel", Fuel(10, 1.5, 0.15), 2.25},
		{"fuel rounds", Fuel(3.33333, 1, 1), 3.33},
		{"carbon", CarbonFootprint(10), 23.1},
		{"carbon zero", CarbonFootprint(0), 0},
	}
	for _, tt := range tests {
		if !approx(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLatenessPenalty(t *testing.T) {
	tests := []struct {
		arrival, windowEnd, want float64
	}{
		{50, 60, 0},
		{60, 60, 0},
		{70, 60, 30},
		{60.5, 60, 20.5},
	}
	for _, tt := range tests {
		if got := LatenessPenalty(tt.arrival, tt.windowEnd); !approx(got, tt.want) {
			t.Errorf("LatenessPenalty(%v, %v) = %v, want %v", tt.arrival, tt.windowEnd, got, tt.want)
		}
	}
}

func TestCost(t *testing.T) {
	if got := Cost(10, 2, 30); !approx(got, 9.6) {
		t.Fatalf("cost = %v, want 9.6", got)
	}
	if got := Cost(1.111, 0, 0); !approx(got, 0.67) {
		t.Fatalf("cost = %v, want 0.67 (rounded)", got)
	}
	if got := Cost(0, 0, 0); got != 0 {
		t.Fatalf("cost = %v, want 0", got)
	}
}

func TestTrafficZones(t *testing.T) {
	zones := TrafficZones{"downtown": 0.8, "suburb": 0.1}

	f, err := zones.Factor("downtown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(f, 1.4) {
		t.Fatalf("factor = %v, want 1.4", f)
	}

	cfg, err := zones.Apply(domain.OptimizationConfig{TimeOfDayFactor: 1}, "suburb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(cfg.TimeOfDayFactor, 1.05) {
		t.Fatalf("time of day factor = %v, want 1.05", cfg.TimeOfDayFactor)
	}

	cfg, err = zones.Apply(domain.OptimizationConfig{TimeOfDayFactor: 1.3}, "")
	if err != nil || cfg.TimeOfDayFactor != 1.3 {
		t.Fatalf("empty zone changed config: %+v err=%v", cfg, err)
	}

	if _, err := zones.Factor("airport"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}
