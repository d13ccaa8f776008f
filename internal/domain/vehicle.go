package domain

import "time"

// VehicleStatus is the operational state reported for a bus
type VehicleStatus string

const (
	StatusActive      VehicleStatus = "active"
	StatusDelayed     VehicleStatus = "delayed"
	StatusIdle        VehicleStatus = "idle"
	StatusOffline     VehicleStatus = "offline"
	StatusMaintenance VehicleStatus = "maintenance"
)

// VehiclePosition is a driver-originated sample. It is sent to the server
// as soon as it is produced and never retained on the driver side.
type VehiclePosition struct {
	BusNumber string    `json:"busNumber"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Speed     float64   `json:"speed"`
	Occupancy int       `json:"occupancy"`
	Timestamp time.Time `json:"timestamp"`
}

// VehicleRecord is the commuter-side view of a single bus on the tracked
// route, keyed by BusNumber. Records are replaced wholesale by snapshot
// merges; a bus absent from a batch keeps its last known state and only
// ages through LastUpdated.
type VehicleRecord struct {
	BusNumber        string        `json:"busNumber"`
	Coordinates      Coordinate    `json:"coordinates"`
	Status           VehicleStatus `json:"status"`
	CurrentOccupancy int           `json:"currentOccupancy"`
	Capacity         int           `json:"capacity"`
	Speed            float64       `json:"speed"`
	DriverName       string        `json:"driverName,omitempty"`
	LastUpdated      time.Time     `json:"lastUpdated"`
}
