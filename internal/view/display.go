package view

import (
	"fmt"
	"time"
)

// OccupancyLevel bands a bus load for the rider list
type OccupancyLevel string

const (
	OccupancyLow    OccupancyLevel = "low"    // below 50%
	OccupancyMedium OccupancyLevel = "medium" // 50-69%
	OccupancyHigh   OccupancyLevel = "high"   // 70-89%
	OccupancyFull   OccupancyLevel = "full"   // 90% and up
)

// OccupancyLevelOf bands current load against capacity. A missing capacity
// reads as low rather than dividing by zero.
func OccupancyLevelOf(current, capacity int) OccupancyLevel {
	if capacity <= 0 {
		return OccupancyLow
	}
	pct := float64(current) / float64(capacity) * 100
	switch {
	case pct >= 90:
		return OccupancyFull
	case pct >= 70:
		return OccupancyHigh
	case pct >= 50:
		return OccupancyMedium
	default:
		return OccupancyLow
	}
}

// FormatLastUpdate renders a record's age the way the bus list shows it.
func FormatLastUpdate(ts, now time.Time) string {
	minutes := int(now.Sub(ts).Minutes())

	switch {
	case minutes < 1:
		return "Just now"
	case minutes == 1:
		return "1 min ago"
	case minutes < 60:
		return fmt.Sprintf("%d mins ago", minutes)
	}

	hours := minutes / 60
	if hours == 1 {
		return "1 hour ago"
	}
	return fmt.Sprintf("%d hours ago", hours)
}
