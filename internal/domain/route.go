package domain

import (
	"sort"
	"time"
)

// Stop is one stop along a route. Order gives the canonical sequence.
type Stop struct {
	StopID      string     `json:"stopId"`
	StopName    string     `json:"stopName"`
	Coordinates Coordinate `json:"coordinates"`
	Order       int        `json:"order"`
}

// OperatingHours is a daily service window in local "HH:MM" wall-clock time.
type OperatingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OperatingState classifies a route against its operating hours
type OperatingState string

const (
	OperatingStateUnknown   OperatingState = "unknown"
	OperatingStateOperating OperatingState = "operating"
	OperatingStateClosed    OperatingState = "closed"
)

// Route is a fixed path with an ordered stop sequence. It is supplied by the
// tracking server and read-only on the client; RouteID is the subscription key.
type Route struct {
	RouteID        string          `json:"routeId"`
	RouteName      string          `json:"routeName"`
	Stops          []Stop          `json:"stops"`
	OperatingHours *OperatingHours `json:"operatingHours,omitempty"`
	Frequency      int             `json:"frequency,omitempty"`
}

// StopsInOrder returns the stops sorted by their Order field.
func (r *Route) StopsInOrder() []Stop {
	stops := make([]Stop, len(r.Stops))
	copy(stops, r.Stops)
	sort.Slice(stops, func(i, j int) bool { return stops[i].Order < stops[j].Order })
	return stops
}

// OperatingStateAt reports whether the route is in service at the given local
// time. Routes without operating hours are OperatingStateUnknown.
func (r *Route) OperatingStateAt(now time.Time) OperatingState {
	if r.OperatingHours == nil {
		return OperatingStateUnknown
	}
	current := now.Format("15:04")
	if current >= r.OperatingHours.Start && current <= r.OperatingHours.End {
		return OperatingStateOperating
	}
	return OperatingStateClosed
}
