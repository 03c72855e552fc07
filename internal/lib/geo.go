package lib

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

const (
	DefaultDistanceKm = 10.0
	MaxDistanceKm     = 100.0
)

// BoundingBox is a latitude/longitude rectangle in degrees.
type BoundingBox struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

func ValidateCoordinates(latitude float64, longitude float64) error {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return InvalidArgumentError(fmt.Sprintf("latitude must be between -90 and 90, got %v", latitude))
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return InvalidArgumentError(fmt.Sprintf("longitude must be between -180 and 180, got %v", longitude))
	}
	return nil
}

// NewBoundingBox returns the box enclosing a circle of distanceKm around the
// point. Latitudes are clamped at the poles. A box crossing the antimeridian
// wraps, leaving MinLongitude greater than MaxLongitude.
func NewBoundingBox(latitude float64, longitude float64, distanceKm float64) BoundingBox {
	angular := distanceKm / earthRadiusKm
	latDelta := angular * 180 / math.Pi

	minLat := latitude - latDelta
	maxLat := latitude + latDelta

	lonDelta := 180.0
	if minLat > -90 && maxLat < 90 {
		lonDelta = math.Asin(math.Sin(angular)/math.Cos(latitude*math.Pi/180)) * 180 / math.Pi
	}

	box := BoundingBox{
		MinLatitude:  math.Max(minLat, -90),
		MaxLatitude:  math.Min(maxLat, 90),
		MinLongitude: -180,
		MaxLongitude: 180,
	}
	if lonDelta >= 180 {
		return box
	}

	box.MinLongitude = wrapLongitude(longitude - lonDelta)
	box.MaxLongitude = wrapLongitude(longitude + lonDelta)
	return box
}

func wrapLongitude(longitude float64) float64 {
	switch {
	case longitude < -180:
		return longitude + 360
	case longitude > 180:
		return longitude - 360
	}
	return longitude
}

// CrossesAntimeridian reports whether the box spans longitude 180.
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.MinLongitude > b.MaxLongitude
}

// LongitudeRanges returns the box longitudes as one or two closed intervals.
func (b BoundingBox) LongitudeRanges() [][2]float64 {
	if b.CrossesAntimeridian() {
		return [][2]float64{{b.MinLongitude, 180}, {-180, b.MaxLongitude}}
	}
	return [][2]float64{{b.MinLongitude, b.MaxLongitude}}
}

func (b BoundingBox) Contains(latitude float64, longitude float64) bool {
	if latitude < b.MinLatitude || latitude > b.MaxLatitude {
		return false
	}
	for _, r := range b.LongitudeRanges() {
		if longitude >= r[0] && longitude <= r[1] {
			return true
		}
	}
	return false
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
