package geo

import "math"

const earthRadiusKm = 6371

// DefaultWalkingSpeedKmh is the walking-pace assumption used when a caller
// does not supply its own speed.
const DefaultWalkingSpeedKmh = 3.0

// Point is a single geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceKm sums the pairwise haversine legs of an ordered point sequence,
// rounded to 2 decimal places. Fewer than 2 points yields 0.
func DistanceKm(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		total += HaversineKm(prev.Lat, prev.Lng, curr.Lat, curr.Lng)
	}
	return round(total, 2)
}

// EstimatedTimeMin converts the sequence distance into walking minutes at
// speedKmh, rounded to 1 decimal place. Non-positive speeds fall back to
// DefaultWalkingSpeedKmh.
func EstimatedTimeMin(points []Point, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultWalkingSpeedKmh
	}
	hours := DistanceKm(points) / speedKmh
	return round(hours*60, 1)
}

func radians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
