package compositor

import (
	"fmt"
	"image/color"
	"math"

	"github.com/olablt/geovideo/config"
)

// Layer is one drawing pass over a frame.
type Layer struct {
	Name string
	Draw func(c *Compositor, f *frame)
}

// RingStyle sizes the pulse around the active POI as radius = Base +
// phase*Growth and alpha = Alpha*(1-phase).
type RingStyle struct {
	Base, Growth, Alpha float64
}

// Variant is a presentation preset: its visual parameters and the ordered
// layers drawn over the basemap.
type Variant struct {
	Name   string
	Layers []Layer

	ZoomFactor float64

	PolygonFill    color.Color // nil draws the outline only
	PolygonOutline color.Color
	PolygonWidth   float64

	// PinColor overrides the per-category pin colors when set.
	PinColor color.Color
	PinDot   bool

	Ring RingStyle
}

var (
	white         = color.NRGBA{255, 255, 255, 255}
	categoryColor = map[string]color.NRGBA{
		config.PoiSchool: {255, 196, 0, 255},
		config.PoiMarket: {0, 200, 120, 255},
		config.PoiFood:   {255, 90, 90, 255},
		config.PoiOther:  {80, 160, 255, 255},
	}
	unknownCategory = color.NRGBA{200, 200, 200, 255}
)

// NewVariant builds the preset named by style.UIPreset.
func NewVariant(style config.StyleConfig) (Variant, error) {
	switch style.UIPreset {
	case config.PresetClassic, "":
		return classicVariant(style), nil
	case config.PresetSocialMap:
		return socialVariant(style), nil
	}
	return Variant{}, fmt.Errorf("unknown ui preset %q", style.UIPreset)
}

func classicVariant(style config.StyleConfig) Variant {
	layers := []Layer{{"polygon", drawPolygon}}
	if style.ShowConnectors {
		layers = append(layers, Layer{"connectors", drawConnectors})
	}
	layers = append(layers,
		Layer{"pins", drawPins},
		Layer{"ring", drawRing},
		Layer{"labels", drawBoxedLabels},
		Layer{"subtitle", drawSubtitle},
		Layer{"overlay", drawOverlay},
		Layer{"attribution", drawCornerAttribution},
	)
	return Variant{
		Name:           config.PresetClassic,
		Layers:         layers,
		ZoomFactor:     1,
		PolygonFill:    color.NRGBA{0, 128, 255, 70},
		PolygonOutline: color.NRGBA{0, 128, 255, 255},
		PolygonWidth:   1,
		Ring:           RingStyle{Base: 24, Growth: 40, Alpha: 200},
	}
}

func socialVariant(style config.StyleConfig) Variant {
	factor := math.Min(math.Max(style.SocialZoomFactor, 1), 2)
	var layers []Layer
	if factor > 1 {
		layers = append(layers, Layer{"crop-zoom", cropZoom})
	}
	layers = append(layers,
		Layer{"tint", tintMap},
		Layer{"polygon", drawPolygon},
		Layer{"pins", drawPins},
		Layer{"ring", drawRing},
		Layer{"labels", drawTagLabels},
		Layer{"center-marker", drawCenterMarker},
	)
	if style.ShowSocialChrome {
		layers = append(layers, Layer{"chrome", drawSocialChrome})
	} else {
		layers = append(layers, Layer{"overlay", drawOverlay})
	}
	layers = append(layers, Layer{"attribution", drawFeedAttribution})

	return Variant{
		Name:           config.PresetSocialMap,
		Layers:         layers,
		ZoomFactor:     factor,
		PolygonOutline: color.NRGBA{245, 219, 72, 220},
		PolygonWidth:   4,
		PinColor:       color.NRGBA{225, 35, 44, 255},
		PinDot:         true,
		Ring:           RingStyle{Base: 28, Growth: 36, Alpha: 190},
	}
}

// pinColor returns the category color, brightened when the POI is active.
func pinColor(category string, active bool) color.NRGBA {
	c, ok := categoryColor[category]
	if !ok {
		c = unknownCategory
	}
	if active {
		c.R = brighten(c.R)
		c.G = brighten(c.G)
		c.B = brighten(c.B)
	}
	return c
}

func brighten(v uint8) uint8 {
	return uint8(min(int(v)+40, 255))
}
