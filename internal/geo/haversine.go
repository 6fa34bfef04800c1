// internal/geo/haversine.go
package geo

import "math"

// earthRadiusMiles is the mean radius of the Earth in miles.
const earthRadiusMiles = 3958.8

// HaversineDistance returns the great-circle distance in miles between
// two coordinate pairs. Invalid inputs (NaN) and negative or NaN results
// collapse to 0 so a bad record never poisons a distance sort.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	if math.IsNaN(lat1) || math.IsNaN(lon1) || math.IsNaN(lat2) || math.IsNaN(lon2) {
		return 0
	}

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	radLat1 := lat1 * math.Pi / 180
	radLat2 := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radLat1)*math.Cos(radLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distance := earthRadiusMiles * c

	if math.IsNaN(distance) || distance < 0 {
		return 0
	}
	return distance
}
