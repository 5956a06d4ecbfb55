package geo

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is Earth's mean radius.
const EarthRadiusKm = 6371.0

// KmPerDegree is the flat approximation of one degree of latitude.
const KmPerDegree = 111.0

// HaversineKm is the great-circle distance in kilometers between two
// coordinates given in degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Distance is HaversineKm between two points.
func Distance(a, b GeoPoint) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}
