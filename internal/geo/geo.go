// Package geo provides great-circle distance and travel-time presentation
// helpers. It has no dependencies and no error cases.
package geo

import (
	"fmt"
	"math"

	"github.com/sahayakapp/sahayak-core/internal/domain"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// referenceSpeedKmh is the assumed travel speed for ETA formatting. It is a
// presentation constant, not a routing estimate.
const referenceSpeedKmh = 50.0

// DistanceKm returns the haversine great-circle distance between two points
// given in degrees. Identical points return 0.
func DistanceKm(a, b domain.Coordinate) float64 {
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// ETAString formats the time to cover remainingKm at the reference speed.
// Output is "{d}d {h}h", "{h}h {m}m", or "{m}m" depending on magnitude.
// Callers must not treat it as authoritative travel time.
func ETAString(remainingKm float64) string {
	if remainingKm < 0 {
		remainingKm = 0
	}

	totalMinutes := int(math.Round(remainingKm / referenceSpeedKmh * 60))

	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
