package camera

import (
	"log/slog"
	"math"

	"github.com/golang/geo/s2"

	"github.com/olablt/geovideo/tiles"
)

const (
	MinZoom = 1
	MaxZoom = 20

	earthRadiusMeters = 6371008.8
)

// State places the viewport. Only the zoom animates during a render.
type State struct {
	Center tiles.LatLng
	Zoom   int
}

// AutoFit frames center and pois in a width x height viewport. A non-nil
// zoomOverride is returned verbatim without looking at the points.
func AutoFit(center tiles.LatLng, pois []tiles.LatLng, width, height int, marginRatio float64, zoomOverride *int) State {
	if zoomOverride != nil {
		return State{Center: center, Zoom: *zoomOverride}
	}

	points := append([]tiles.LatLng{center}, pois...)
	bounds, _ := tiles.BoundsFor(points) // never empty: center is always present
	zoom := ChooseZoom(bounds, width, height, marginRatio)

	slog.Debug("camera fitted",
		"zoom", zoom, "pois", len(pois), "spread_m", math.Round(Spread(points)),
		"m_per_px", tiles.CalculateMetersPerPixel(center.Lat, zoom))
	return State{Center: center, Zoom: zoom}
}

// ChooseZoom returns the highest zoom in [MinZoom, MaxZoom] at which bounds
// fits the viewport minus marginRatio on every side. When nothing fits it
// falls back to MinZoom rather than failing.
func ChooseZoom(bounds tiles.Bounds, width, height int, marginRatio float64) int {
	usableW := float64(width) * (1 - marginRatio*2)
	usableH := float64(height) * (1 - marginRatio*2)
	for zoom := MaxZoom; zoom >= MinZoom; zoom-- {
		minX, minY := tiles.CalculateWorldCoordinates(tiles.LatLng{Lat: bounds.MinLat, Lng: bounds.MinLng}, float64(zoom))
		maxX, maxY := tiles.CalculateWorldCoordinates(tiles.LatLng{Lat: bounds.MaxLat, Lng: bounds.MaxLng}, float64(zoom))
		if math.Abs(maxX-minX) <= usableW && math.Abs(maxY-minY) <= usableH {
			return zoom
		}
	}
	return MinZoom
}

// Spread is the largest great-circle distance in meters between any two points.
func Spread(points []tiles.LatLng) float64 {
	lls := make([]s2.LatLng, len(points))
	for i, p := range points {
		lls[i] = s2.LatLngFromDegrees(p.Lat, p.Lng)
	}
	var widest float64
	for i := range lls {
		for j := i + 1; j < len(lls); j++ {
			widest = math.Max(widest, lls[i].Distance(lls[j]).Radians()*earthRadiusMeters)
		}
	}
	return widest
}
