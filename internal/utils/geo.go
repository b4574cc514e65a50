package utils

import "math"

// EarthRadiusMeters is the mean earth radius used for distance computations.
const EarthRadiusMeters = 6371008.8

// Haversine returns the great-circle distance in meters between two points
// given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WalkingDuration returns the seconds needed to cover meters at speed meters
// per second, rounded up. A non-positive speed yields zero.
func WalkingDuration(meters, speed float64) int32 {
	if speed <= 0 || meters <= 0 {
		return 0
	}
	return int32(math.Ceil(meters / speed))
}
