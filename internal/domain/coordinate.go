package domain

// Coordinate is a WGS84 point. The zero value means "no fix".
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is a usable fix. An exact (0,0) pair
// is treated as missing, never as a real position.
func (c Coordinate) Valid() bool {
	if c.Lat == 0 && c.Lng == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// BoundingBox represents a geographic rectangle
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains checks if a point is within the bounding box
func (bb *BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= bb.MinLat && c.Lat <= bb.MaxLat &&
		c.Lng >= bb.MinLng && c.Lng <= bb.MaxLng
}
