package view

import (
	"raahi/internal/domain"
	"raahi/internal/geo"
)

// DefaultCenter is framed when nothing else is known.
var DefaultCenter = domain.Coordinate{Lat: 28.6139, Lng: 77.2090}

const (
	DefaultZoom = 13
	SelfZoom    = 15
)

// ViewportKind says how the renderer should frame the map
type ViewportKind int

const (
	// ViewportDefault shows the default location.
	ViewportDefault ViewportKind = iota
	// ViewportRegion fits the bounding region of the focus set.
	ViewportRegion
	// ViewportCenter centers on a single point at a fixed zoom.
	ViewportCenter
)

// Viewport is what the external renderer frames.
type Viewport struct {
	Kind   ViewportKind
	Region domain.BoundingBox
	Center domain.Coordinate
	Zoom   int
}

// State is the slice of client state the viewport depends on.
type State struct {
	Self        domain.Coordinate
	SelectedBus *domain.VehicleRecord
	Route       *domain.Route
	Buses       []*domain.VehicleRecord
}

// FocusPoints applies the strict precedence chain deciding which points the
// map should frame:
//
//  1. a selected bus with a known self position: self + that bus
//  2. a tracked route with at least one bus: every bus, every stop,
//     plus self when known
//  3. self position only: just self
//  4. nothing
//
// Exactly one branch applies. Invalid coordinates never contribute.
func FocusPoints(st State) []domain.Coordinate {
	if st.SelectedBus != nil && st.SelectedBus.Coordinates.Valid() && st.Self.Valid() {
		return []domain.Coordinate{st.Self, st.SelectedBus.Coordinates}
	}

	if st.Route != nil && len(st.Buses) > 0 {
		var points []domain.Coordinate
		for _, bus := range st.Buses {
			if bus.Coordinates.Valid() {
				points = append(points, bus.Coordinates)
			}
		}
		for _, stop := range st.Route.Stops {
			if stop.Coordinates.Valid() {
				points = append(points, stop.Coordinates)
			}
		}
		if st.Self.Valid() {
			points = append(points, st.Self)
		}
		if len(points) > 0 {
			return points
		}
	}

	if st.Self.Valid() {
		return []domain.Coordinate{st.Self}
	}

	return nil
}

// Derive turns the focus set into a concrete viewport. A lone self position
// gets a fixed close-in zoom instead of a degenerate bounding fit; no focus
// falls back to the default view.
func Derive(st State) Viewport {
	points := FocusPoints(st)

	switch len(points) {
	case 0:
		return Viewport{Kind: ViewportDefault, Center: DefaultCenter, Zoom: DefaultZoom}
	case 1:
		return Viewport{Kind: ViewportCenter, Center: points[0], Zoom: SelfZoom}
	}

	region, ok := geo.BoundingRegion(points)
	if !ok {
		return Viewport{Kind: ViewportDefault, Center: DefaultCenter, Zoom: DefaultZoom}
	}
	return Viewport{Kind: ViewportRegion, Region: region}
}
