package camera

import (
	"math"
	"testing"

	"github.com/olablt/geovideo/config"
	"github.com/olablt/geovideo/tiles"
)

var london = tiles.LatLng{Lat: 51.507222, Lng: -0.1275}

func TestAutoFitOverride(t *testing.T) {
	z := 7
	pois := []tiles.LatLng{{Lat: -33.86, Lng: 151.2}, {Lat: 40.7, Lng: -74}}
	s := AutoFit(london, pois, 1080, 1920, 0.12, &z)
	if s.Zoom != 7 || s.Center != london {
		t.Errorf("AutoFit with override = %+v, want zoom 7 at london", s)
	}
}

func TestAutoFitSinglePoint(t *testing.T) {
	if s := AutoFit(london, nil, 1080, 1920, 0.12, nil); s.Zoom != MaxZoom {
		t.Errorf("single point zoom = %d, want %d", s.Zoom, MaxZoom)
	}
	// Margins eat the whole viewport: nothing fits, fall back to the floor.
	if s := AutoFit(london, nil, 1080, 1920, 0.6, nil); s.Zoom != MinZoom {
		t.Errorf("non-positive usable area zoom = %d, want %d", s.Zoom, MinZoom)
	}
}

func TestAutoFitFitsPoints(t *testing.T) {
	pois := []tiles.LatLng{{Lat: 51.52, Lng: -0.10}, {Lat: 51.49, Lng: -0.16}}
	s := AutoFit(london, pois, 1080, 1920, 0.12, nil)
	if s.Zoom < MinZoom || s.Zoom > MaxZoom {
		t.Fatalf("zoom %d out of range", s.Zoom)
	}
	usableW := 1080 * (1 - 0.24)
	usableH := 1920 * (1 - 0.24)
	for _, p := range pois {
		sx, sy := tiles.CalculateScreenCoordinates(p, s.Zoom, london, 1080, 1920)
		if math.Abs(sx-540) > usableW || math.Abs(sy-960) > usableH {
			t.Errorf("poi %+v lands off-screen at (%f,%f) for zoom %d", p, sx, sy, s.Zoom)
		}
	}
	// One level deeper must not fit, otherwise the search was not greedy.
	b, _ := tiles.BoundsFor(append([]tiles.LatLng{london}, pois...))
	if s.Zoom < MaxZoom && ChooseZoom(b, 1080, 1920, 0.12) != s.Zoom {
		t.Errorf("ChooseZoom disagrees with AutoFit")
	}
}

func TestAutoFitHeightConstrains(t *testing.T) {
	// A tall, thin spread must be limited by the vertical axis.
	tall := []tiles.LatLng{{Lat: 60, Lng: -0.1275}, {Lat: 40, Lng: -0.1275}}
	wide := []tiles.LatLng{{Lat: 51.507222, Lng: 10}, {Lat: 51.507222, Lng: -10}}
	zTall := AutoFit(london, tall, 1000, 1000, 0.1, nil).Zoom
	b, _ := tiles.BoundsFor(append([]tiles.LatLng{london}, tall...))
	_, y1 := tiles.CalculateWorldCoordinates(tiles.LatLng{Lat: b.MaxLat}, float64(zTall))
	_, y2 := tiles.CalculateWorldCoordinates(tiles.LatLng{Lat: b.MinLat}, float64(zTall))
	if y2-y1 > 800 {
		t.Errorf("tall spread is %f px high at zoom %d, want <= 800", y2-y1, zTall)
	}
	if zWide := AutoFit(london, wide, 1000, 1000, 0.1, nil).Zoom; zWide == MaxZoom {
		t.Errorf("wide spread zoom = %d, want < %d", zWide, MaxZoom)
	}
}

func TestAutoFitZoomNonIncreasingWithSpread(t *testing.T) {
	prevZoom := MaxZoom + 1
	prevSpread := -1.0
	for d := 0.001; d < 60; d *= 1.7 {
		pois := []tiles.LatLng{
			{Lat: london.Lat + d/2, Lng: london.Lng + d},
			{Lat: london.Lat - d/3, Lng: london.Lng - d/2},
		}
		spread := Spread(append([]tiles.LatLng{london}, pois...))
		if spread <= prevSpread {
			t.Fatalf("spread did not grow: %f then %f", prevSpread, spread)
		}
		z := AutoFit(london, pois, 1080, 1920, 0.12, nil).Zoom
		if z > prevZoom {
			t.Errorf("zoom rose from %d to %d as spread grew to %.0f m", prevZoom, z, spread)
		}
		prevZoom, prevSpread = z, spread
	}
}

func TestSpread(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	got := Spread([]tiles.LatLng{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 0.5, Lng: 0}})
	if math.Abs(got-111195) > 100 {
		t.Errorf("Spread = %f, want ~111195", got)
	}
	if Spread([]tiles.LatLng{london}) != 0 {
		t.Error("Spread of one point should be 0")
	}
}

func TestFitModes(t *testing.T) {
	end := 9
	cfg := &config.Config{
		Center: config.Location{Name: "c", Lat: london.Lat, Lon: london.Lng},
		Style:  config.StyleConfig{Width: 1080, Height: 1920, MarginRatio: 0.12},
	}
	cfg.Timeline.CameraEndZoom = &end

	all, err := Fit(cfg, FitAll)
	if err != nil || all.Zoom != MaxZoom {
		t.Errorf("Fit(all) = %+v, %v; want zoom %d", all, err, MaxZoom)
	}
	center, err := Fit(cfg, FitCenter)
	if err != nil || center.Zoom != 9 {
		t.Errorf("Fit(center) = %+v, %v; want end zoom 9", center, err)
	}
	if _, err := Fit(cfg, "sideways"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
