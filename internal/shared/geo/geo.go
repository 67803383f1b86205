package geo

import "github.com/golang/geo/s2"

const EarthRadiusKm = 6371.0088

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// PathLengthM sums the leg distances of an ordered [lat, lng] polyline in metres.
func PathLengthM(points [][2]float64) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		total += HaversineKm(a[0], a[1], b[0], b[1]) * 1000
	}
	return total
}

// Bounds returns the smallest lat/lng rectangle holding every [lat, lng] point.
func Bounds(points [][2]float64) s2.Rect {
	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p[0], p[1]))
	}
	return rect
}
