package services

import (
	"delivery-route-optimizer/internal/domain"
	"fmt"
)

// TrafficZones maps a zone name to its congestion level in [0, 1].
// Zones are loaded from configuration and resolved per request; the optimizer
// never keeps a "current zone".
type TrafficZones map[string]float64

// Factor converts a zone's congestion into a travel-time multiplier.
// Full congestion slows travel by at most 50%.
func (z TrafficZones) Factor(zone string) (float64, error) {
	congestion, ok := z[zone]
	if !ok {
		return 0, fmt.Errorf("%w: unknown traffic zone %q", ErrInvalidInput, zone)
	}
	return 1 + congestion*0.5, nil
}

// Apply sets cfg.TimeOfDayFactor from the zone. An empty zone leaves cfg unchanged.
func (z TrafficZones) Apply(cfg domain.OptimizationConfig, zone string) (domain.OptimizationConfig, error) {
	if zone == "" {
		return cfg, nil
	}
	f, err := z.Factor(zone)
	if err != nil {
		return cfg, err
	}
	cfg.TimeOfDayFactor = f
	return cfg, nil
}
