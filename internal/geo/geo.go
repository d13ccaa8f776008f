package geo

import (
	"math"

	"raahi/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// points using the haversine formula.
func DistanceKm(a, b domain.Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLng := (b.Lng - a.Lng) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180.0)*math.Cos(b.Lat*math.Pi/180.0)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// DisplayDistanceKm returns the distance rounded to one decimal place, the
// precision shown in bus listings.
func DisplayDistanceKm(a, b domain.Coordinate) float64 {
	return math.Round(DistanceKm(a, b)*10) / 10
}

// BoundingRegion returns the smallest rectangle covering all valid points.
// ok is false when no valid point is present; the caller must fall back to a
// default view instead of fitting an empty region.
func BoundingRegion(points []domain.Coordinate) (bb domain.BoundingBox, ok bool) {
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		if !ok {
			bb = domain.BoundingBox{MinLat: p.Lat, MaxLat: p.Lat, MinLng: p.Lng, MaxLng: p.Lng}
			ok = true
			continue
		}
		bb.MinLat = math.Min(bb.MinLat, p.Lat)
		bb.MaxLat = math.Max(bb.MaxLat, p.Lat)
		bb.MinLng = math.Min(bb.MinLng, p.Lng)
		bb.MaxLng = math.Max(bb.MaxLng, p.Lng)
	}
	return bb, ok
}
