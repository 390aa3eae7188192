package services

import (
	"delivery-route-optimizer/internal/domain"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks requests rejected before optimization
// (non-finite coordinates, non-positive factors, duplicate stop IDs).
var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultVehicleConsumptionRate = 0.15
	DefaultTimeOfDayFactor        = 1.0
)

// WithDefaults fills omitted (zero) rate and factor with the documented defaults.
func WithDefaults(cfg domain.OptimizationConfig) domain.OptimizationConfig {
	if cfg.VehicleConsumptionRate == 0 {
		cfg.VehicleConsumptionRate = DefaultVehicleConsumptionRate
	}
	if cfg.TimeOfDayFactor == 0 {
		cfg.TimeOfDayFactor = DefaultTimeOfDayFactor
	}
	return cfg
}

func ValidateConfig(cfg domain.OptimizationConfig) error {
	if !positive(cfg.VehicleConsumptionRate) {
		return fmt.Errorf("%w: vehicle consumption rate must be positive, got %v", ErrInvalidInput, cfg.VehicleConsumptionRate)
	}
	if !positive(cfg.TimeOfDayFactor) {
		return fmt.Errorf("%w: time of day factor must be positive, got %v", ErrInvalidInput, cfg.TimeOfDayFactor)
	}
	if cfg.MaxTwoOptSweeps < 0 {
		return fmt.Errorf("%w: max two-opt sweeps must not be negative, got %d", ErrInvalidInput, cfg.MaxTwoOptSweeps)
	}
	if cfg.DelayThresholdMinutes < 0 || math.IsNaN(cfg.DelayThresholdMinutes) {
		return fmt.Errorf("%w: delay threshold must not be negative, got %v", ErrInvalidInput, cfg.DelayThresholdMinutes)
	}
	return nil
}

func ValidateLocation(c domain.Coordinates) error {
	if !c.Valid() {
		return fmt.Errorf("%w: non-finite coordinates (%v, %v)", ErrInvalidInput, c.Lat, c.Lng)
	}
	return nil
}

// ValidateStops checks stop attributes and identifier uniqueness.
func ValidateStops(stops []domain.Stop) error {
	seen := make(map[string]struct{}, len(stops))
	for i, s := range stops {
		if s.ID == "" {
			return fmt.Errorf("%w: stop %d has an empty id", ErrInvalidInput, i)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: duplicate stop id %q", ErrInvalidInput, s.ID)
		}
		seen[s.ID] = struct{}{}

		if !s.Location.Valid() {
			return fmt.Errorf("%w: stop %q has non-finite coordinates", ErrInvalidInput, s.ID)
		}
		if !positive(s.TrafficFactor) {
			return fmt.Errorf("%w: stop %q traffic factor must be positive, got %v", ErrInvalidInput, s.ID, s.TrafficFactor)
		}
		if math.IsNaN(s.TimeWindowEnd) || math.IsInf(s.TimeWindowEnd, 0) {
			return fmt.Errorf("%w: stop %q has a non-finite time window", ErrInvalidInput, s.ID)
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
