// Package coordinates provides the geodesic math used to decide which aircraft
// are near a location: great-circle distance, initial bearing and the
// latitude/longitude box used to scope provider requests.
package coordinates

import "math"

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusMiles is the mean Earth radius in statute miles
	EarthRadiusMiles = 3958.8
)

// Geographic represents a position on Earth's surface in decimal degrees.
// Values are not range-checked anywhere in this package.
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64
}

// ToRadians converts the Geographic coordinates to radians.
// Returns (latRad, lonRad).
func (g Geographic) ToRadians() (float64, float64) {
	return g.Latitude * DegreesToRadians, g.Longitude * DegreesToRadians
}

// BoundingBox is a latitude/longitude rectangle in decimal degrees.
type BoundingBox struct {
	MinLatitude  float64
	MinLongitude float64
	MaxLatitude  float64
	MaxLongitude float64
}

// BoxAround returns the box extending marginDeg degrees on each side of
// (lat, lon). The margin is applied as-is on both axes; no clamping is done at
// the poles or the antimeridian.
func BoxAround(lat, lon, marginDeg float64) BoundingBox {
	return BoundingBox{
		MinLatitude:  lat - marginDeg,
		MinLongitude: lon - marginDeg,
		MaxLatitude:  lat + marginDeg,
		MaxLongitude: lon + marginDeg,
	}
}

// DistanceMiles calculates the great-circle distance between two points
// given in decimal degrees, using the Haversine formula on a sphere of radius
// EarthRadiusMiles. Returns distance in statute miles.
//
// Inputs are not validated; NaN in any argument yields NaN.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * DegreesToRadians
	lon1Rad := lon1 * DegreesToRadians
	lat2Rad := lat2 * DegreesToRadians
	lon2Rad := lon2 * DegreesToRadians

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a past 1 near the antipode.
	a = math.Min(a, 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// Distance is DistanceMiles for Geographic values.
func Distance(from, to Geographic) float64 {
	return DistanceMiles(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Geographic) float64 {
	lat1, lon1 := from.ToRadians()
	lat2, lon2 := to.ToRadians()

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeAzimuth(math.Atan2(y, x) * RadiansToDegrees)
}

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	az := math.Mod(azimuth, 360.0)
	if az < 0 {
		az += 360.0
	}
	return az
}

// ValidLatitude reports whether lat is a finite value in [-90, 90].
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lon is a finite value in [-180, 180].
func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}
