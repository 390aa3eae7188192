package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinates in degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Valid reports whether both components are finite numbers.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// Return coordinates as [lng, lat] for street-routing API compatibility.
func (c Coordinates) LngLat() []float64 { return []float64{c.Lng, c.Lat} }

// Key renders the coordinates rounded to 5 decimals (~1m), suitable as a cache key.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}
