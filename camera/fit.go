package camera

import (
	"fmt"

	"github.com/olablt/geovideo/config"
)

const (
	FitAll    = "all"
	FitCenter = "center"
)

// Fit frames a project. FitAll always searches for the tightest zoom;
// FitCenter keeps the center and uses the configured start zoom, or the end
// zoom, when one is set.
func Fit(cfg *config.Config, mode string) (State, error) {
	var override *int
	switch mode {
	case FitAll, "":
	case FitCenter:
		override = cfg.Timeline.CameraStartZoom
		if override == nil {
			override = cfg.Timeline.CameraEndZoom
		}
	default:
		return State{}, fmt.Errorf("unknown fit mode %q (want %s or %s)", mode, FitAll, FitCenter)
	}
	return AutoFit(cfg.Center.LatLng(), cfg.PoiPoints(),
		cfg.Style.Width, cfg.Style.Height, cfg.Style.MarginRatio, override), nil
}
