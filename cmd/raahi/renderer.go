package main

import (
	"log/slog"

	"raahi/internal/view"
)

// logRenderer stands in for a map surface: it logs every framing decision
// the engine makes.
type logRenderer struct {
	logger *slog.Logger
}

func (r *logRenderer) Frame(vp view.Viewport) {
	switch vp.Kind {
	case view.ViewportRegion:
		r.logger.Debug("frame region",
			"min_lat", vp.Region.MinLat, "max_lat", vp.Region.MaxLat,
			"min_lng", vp.Region.MinLng, "max_lng", vp.Region.MaxLng,
		)
	case view.ViewportCenter:
		r.logger.Debug("frame center", "lat", vp.Center.Lat, "lng", vp.Center.Lng, "zoom", vp.Zoom)
	default:
		r.logger.Debug("frame default view", "lat", vp.Center.Lat, "lng", vp.Center.Lng, "zoom", vp.Zoom)
	}
}
