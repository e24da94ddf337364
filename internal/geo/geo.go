// Package geo provides great-circle distance calculation between coordinates.
package geo

import (
	"math"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

// earthRadiusKm is the mean Earth radius used by the Haversine formula.
const earthRadiusKm = 6371

// Distance returns the Haversine great-circle distance between two points in
// kilometers, rounded to one fractional digit. Inputs are assumed to be valid
// degrees; NaN coordinates propagate to a NaN result.
func Distance(a, b model.LatLng) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(earthRadiusKm*c*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}
