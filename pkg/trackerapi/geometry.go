package trackerapi

import "raahi/internal/domain"

// PathGeometry is the GeoJSON-shaped body the path endpoint returns.
type PathGeometry struct {
	Features []PathFeature `json:"features"`
}

type PathFeature struct {
	Geometry struct {
		// GeoJSON order: [lng, lat]
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Polyline flattens the first feature into renderer-order coordinates.
func (p *PathGeometry) Polyline() []domain.Coordinate {
	if p == nil || len(p.Features) == 0 {
		return nil
	}

	coords := p.Features[0].Geometry.Coordinates
	line := make([]domain.Coordinate, 0, len(coords))
	for _, pair := range coords {
		if len(pair) < 2 {
			continue
		}
		line = append(line, domain.Coordinate{Lat: pair[1], Lng: pair[0]})
	}
	return line
}
