package geo

import "math"

const (
	earthRadiusKM = 6371.0
	milesToKM     = 1.609344
)

// Coordinate is a (latitude, longitude) pair in degrees. It is the sole
// spatial key used for selection and distance computation.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceKM returns the great-circle distance between two coordinates
// using the haversine formula.
func DistanceKM(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// MilesToKM converts a distance in statute miles to kilometers.
func MilesToKM(miles float64) float64 {
	return miles * milesToKM
}
