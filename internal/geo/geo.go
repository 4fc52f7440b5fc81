// Package geo holds the geodesy and energy model: pure functions pricing a
// trip from great-circle distance and the fleet's fixed drain profile.
package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadiusMeters is Earth's radius for the Haversine calculation.
	EarthRadiusMeters = 6371000.0
	// BatteryPerMeter is the battery percentage a drone drains per meter flown.
	BatteryPerMeter = 0.1
	// ReserveBatteryPercent is the floor kept in reserve on every trip.
	ReserveBatteryPercent = 20.0
	// SpeedMetersPerMinute is the assumed constant cruise speed.
	SpeedMetersPerMinute = 400.0
)

// DistanceMeters calculates the great-circle distance between two points on
// Earth in meters using the Haversine formula.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// RequiredBattery returns the minimum battery percentage a drone must hold to
// fly the given distance: per-meter drain plus the reserve floor, rounded up.
// The result may exceed 100, in which case no drone can serve the trip.
func RequiredBattery(distanceMeters float64) int {
	return int(math.Ceil(distanceMeters*BatteryPerMeter + ReserveBatteryPercent))
}

// EstimatedMinutes returns the trip duration at cruise speed, rounded up.
func EstimatedMinutes(distanceMeters float64) int {
	return int(math.Ceil(distanceMeters / SpeedMetersPerMinute))
}

// FormatDistance renders a distance the way clients display it, e.g. "152m".
func FormatDistance(distanceMeters float64) string {
	return fmt.Sprintf("%.0fm", distanceMeters)
}
