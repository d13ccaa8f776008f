package view

import (
	"testing"
	"time"

	"raahi/internal/domain"
)

func bus(n string, lat, lng float64) *domain.VehicleRecord {
	return &domain.VehicleRecord{
		BusNumber:   n,
		Coordinates: domain.Coordinate{Lat: lat, Lng: lng},
	}
}

func containsPoint(points []domain.Coordinate, c domain.Coordinate) bool {
	for _, p := range points {
		if p == c {
			return true
		}
	}
	return false
}

func TestFocusPoints_SelectedBusAndSelf(t *testing.T) {
	st := State{
		Self:        domain.Coordinate{Lat: 10, Lng: 11},
		SelectedBus: bus("42", 10, 10),
		// route context present but the selection branch must win
		Route: &domain.Route{RouteID: "R1", Stops: []domain.Stop{
			{StopID: "S1", Coordinates: domain.Coordinate{Lat: 20, Lng: 20}},
		}},
		Buses: []*domain.VehicleRecord{bus("42", 10, 10), bus("43", 30, 30)},
	}

	points := FocusPoints(st)
	if len(points) != 2 {
		t.Fatalf("expected exactly 2 points, got %d: %v", len(points), points)
	}
	if !containsPoint(points, domain.Coordinate{Lat: 10, Lng: 10}) ||
		!containsPoint(points, domain.Coordinate{Lat: 10, Lng: 11}) {
		t.Errorf("expected {(10,10),(10,11)}, got %v", points)
	}
}

func TestFocusPoints_RouteWithBusesAndStops(t *testing.T) {
	st := State{
		Route: &domain.Route{RouteID: "R1", Stops: []domain.Stop{
			{StopID: "S1", Coordinates: domain.Coordinate{Lat: 28.60, Lng: 77.20}},
		}},
		Buses: []*domain.VehicleRecord{
			bus("101", 28.61, 77.21),
			bus("102", 28.63, 77.19),
		},
	}

	points := FocusPoints(st)
	if len(points) != 3 {
		t.Fatalf("expected exactly 3 points, got %d: %v", len(points), points)
	}
	for _, want := range []domain.Coordinate{
		{Lat: 28.61, Lng: 77.21},
		{Lat: 28.63, Lng: 77.19},
		{Lat: 28.60, Lng: 77.20},
	} {
		if !containsPoint(points, want) {
			t.Errorf("missing %v in %v", want, points)
		}
	}
}

func TestFocusPoints_RouteIncludesSelfWhenKnown(t *testing.T) {
	st := State{
		Self:  domain.Coordinate{Lat: 28.65, Lng: 77.25},
		Route: &domain.Route{RouteID: "R1"},
		Buses: []*domain.VehicleRecord{bus("101", 28.61, 77.21)},
	}

	points := FocusPoints(st)
	if !containsPoint(points, st.Self) {
		t.Errorf("self should join the route focus set: %v", points)
	}
}

func TestFocusPoints_RouteWithoutBusesFallsThrough(t *testing.T) {
	st := State{
		Self:  domain.Coordinate{Lat: 28.65, Lng: 77.25},
		Route: &domain.Route{RouteID: "R1", Stops: []domain.Stop{
			{StopID: "S1", Coordinates: domain.Coordinate{Lat: 28.60, Lng: 77.20}},
		}},
	}

	points := FocusPoints(st)
	if len(points) != 1 || points[0] != st.Self {
		t.Errorf("empty route must fall through to self-only: %v", points)
	}
}

func TestFocusPoints_RouteWithNoFixBusStillFramesStops(t *testing.T) {
	st := State{
		Self: domain.Coordinate{Lat: 28.65, Lng: 77.25},
		Route: &domain.Route{RouteID: "R1", Stops: []domain.Stop{
			{StopID: "S1", Coordinates: domain.Coordinate{Lat: 28.60, Lng: 77.20}},
		}},
		Buses: []*domain.VehicleRecord{
			bus("101", 0, 0), // tracked but no fix yet
		},
	}

	points := FocusPoints(st)
	if len(points) != 2 {
		t.Fatalf("expected stop+self, got %v", points)
	}
	if points[0] != st.Route.Stops[0].Coordinates || points[1] != st.Self {
		t.Errorf("expected [stop self], got %v", points)
	}
}

func TestFocusPoints_SelfOnly(t *testing.T) {
	st := State{Self: domain.Coordinate{Lat: 28.65, Lng: 77.25}}

	points := FocusPoints(st)
	if len(points) != 1 || points[0] != st.Self {
		t.Errorf("expected self only, got %v", points)
	}
}

func TestFocusPoints_Nothing(t *testing.T) {
	if points := FocusPoints(State{}); points != nil {
		t.Errorf("expected no focus, got %v", points)
	}
}

func TestFocusPoints_InvalidCoordinatesNeverContribute(t *testing.T) {
	st := State{
		Route: &domain.Route{RouteID: "R1", Stops: []domain.Stop{
			{StopID: "S1"}, // zero coordinate
		}},
		Buses: []*domain.VehicleRecord{
			bus("101", 28.61, 77.21),
			bus("102", 0, 0), // no fix
		},
	}

	points := FocusPoints(st)
	if len(points) != 1 {
		t.Errorf("invalid points must be skipped, got %v", points)
	}
}

func TestDerive_SelfOnlyUsesCloseZoom(t *testing.T) {
	vp := Derive(State{Self: domain.Coordinate{Lat: 28.65, Lng: 77.25}})
	if vp.Kind != ViewportCenter {
		t.Fatalf("expected center viewport, got %v", vp.Kind)
	}
	if vp.Zoom != SelfZoom {
		t.Errorf("expected zoom %d, got %d", SelfZoom, vp.Zoom)
	}
}

func TestDerive_NothingFallsBackToDefault(t *testing.T) {
	vp := Derive(State{})
	if vp.Kind != ViewportDefault || vp.Center != DefaultCenter || vp.Zoom != DefaultZoom {
		t.Errorf("expected default viewport, got %+v", vp)
	}
}

func TestDerive_RegionCoversFocusSet(t *testing.T) {
	st := State{
		Self:        domain.Coordinate{Lat: 10, Lng: 11},
		SelectedBus: bus("42", 10, 10),
	}

	vp := Derive(st)
	if vp.Kind != ViewportRegion {
		t.Fatalf("expected region viewport, got %v", vp.Kind)
	}
	if vp.Region.MinLng != 10 || vp.Region.MaxLng != 11 || vp.Region.MinLat != 10 || vp.Region.MaxLat != 10 {
		t.Errorf("unexpected region: %+v", vp.Region)
	}
}

func TestOccupancyLevelOf(t *testing.T) {
	tests := []struct {
		current, capacity int
		expected          OccupancyLevel
	}{
		{0, 40, OccupancyLow},
		{19, 40, OccupancyLow},
		{20, 40, OccupancyMedium},
		{28, 40, OccupancyHigh},
		{36, 40, OccupancyFull},
		{40, 40, OccupancyFull},
		{10, 0, OccupancyLow},
	}

	for _, tt := range tests {
		if got := OccupancyLevelOf(tt.current, tt.capacity); got != tt.expected {
			t.Errorf("OccupancyLevelOf(%d, %d) = %v, want %v", tt.current, tt.capacity, got, tt.expected)
		}
	}
}

func TestFormatLastUpdate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		age      time.Duration
		expected string
	}{
		{30 * time.Second, "Just now"},
		{90 * time.Second, "1 min ago"},
		{10 * time.Minute, "10 mins ago"},
		{75 * time.Minute, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
	}

	for _, tt := range tests {
		if got := FormatLastUpdate(now.Add(-tt.age), now); got != tt.expected {
			t.Errorf("age %v: got %q, want %q", tt.age, got, tt.expected)
		}
	}
}
