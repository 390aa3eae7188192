package services

// Liters of fuel to kg of CO2 for the assumed fuel type.
const CO2KgPerLiter = 2.31

// TravelTime predicts leg duration in minutes.
// Both factors are multiplicative; non-positive factors are rejected by Validate
// before the optimizer runs.
func TravelTime(distanceKm, trafficFactor, timeOfDayFactor float64) float64 {
	return round2(distanceKm * trafficFactor * timeOfDayFactor)
}

// Fuel predicts leg fuel burn in liters.
func Fuel(distanceKm, trafficFactor, vehicleConsumptionRate float64) float64 {
	return round2(distanceKm * trafficFactor * vehicleConsumptionRate)
}

// CarbonFootprint estimates kg of CO2 emitted for the given fuel volume.
func CarbonFootprint(fuelLiters float64) float64 {
	return round2(fuelLiters * CO2KgPerLiter)
}
