package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/olablt/geovideo/camera"
	"github.com/olablt/geovideo/config"
	"github.com/olablt/geovideo/metrics"
	"github.com/olablt/geovideo/tiles"
	"github.com/olablt/geovideo/timeline"
)

// TileGetter is the part of a tile provider the compositor needs.
type TileGetter interface {
	GetTile(tile tiles.Tile) (image.Image, error)
}

// Compositor turns a timestamp into a finished frame. It holds no per-frame
// state, so RenderFrame may be called from several goroutines at once.
type Compositor struct {
	cfg         *config.Config
	tiles       TileGetter
	timeline    timeline.Config
	variant     Variant
	fonts       *Fonts
	overlay     image.Image
	polygon     []tiles.LatLng
	attribution string
}

// New prepares fonts, the overlay image and the variant once. The watermark
// text wins over the provider attribution when both are set.
func New(cfg *config.Config, tg TileGetter, attribution string) (*Compositor, error) {
	variant, err := NewVariant(cfg.Style)
	if err != nil {
		return nil, err
	}
	fonts, err := LoadFonts(cfg.Style.FontPath)
	if err != nil {
		return nil, err
	}
	c := &Compositor{
		cfg:         cfg,
		tiles:       tg,
		timeline:    cfg.TimelineConfig(),
		variant:     variant,
		fonts:       fonts,
		polygon:     cfg.PolygonPoints(),
		attribution: attribution,
	}
	if cfg.Style.WatermarkText != "" {
		c.attribution = cfg.Style.WatermarkText
	}
	if cfg.Style.OverlayPath != "" {
		if c.overlay, err = loadOverlay(cfg.Style.OverlayPath, cfg.Style.Width, cfg.Style.Height); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// loadOverlay scales the image to fit inside the frame.
func loadOverlay(path string, width, height int) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open overlay: %w", err)
	}
	b := img.Bounds()
	ratio := math.Min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	return imaging.Resize(img, int(float64(b.Dx())*ratio), int(float64(b.Dy())*ratio), imaging.CatmullRom), nil
}

func (c *Compositor) Variant() Variant { return c.variant }

// EffectiveZoom is the integer tile zoom used for an animated camera zoom.
// Halves round to even.
func EffectiveZoom(z float64) int {
	return int(math.RoundToEven(z))
}

// RenderFrame draws the frame at t seconds. Any tile failure aborts the
// frame and is returned wrapped.
func (c *Compositor) RenderFrame(t float64, cam camera.State) (*image.RGBA, error) {
	start := time.Now()
	state := timeline.StateAt(t, len(c.cfg.Pois), c.timeline, float64(cam.Zoom))
	zoom := EffectiveZoom(state.CameraZoom)

	canvas, err := c.basemap(cam.Center, zoom)
	if err != nil {
		return nil, fmt.Errorf("render frame at %.3fs: %w", t, err)
	}
	f := &frame{
		canvas: canvas,
		dc:     gg.NewContextForRGBA(canvas),
		faces:  c.fonts.faces(),
		active: state.ActiveIndex,
		reveal: state.RevealProgress,
		zoom:   zoom,
		center: cam.Center,
		width:  c.cfg.Style.Width,
		height: c.cfg.Style.Height,
	}
	for _, layer := range c.variant.Layers {
		layer.Draw(c, f)
	}

	metrics.FramesRendered.WithLabelValues(c.variant.Name).Inc()
	metrics.FrameRenderDuration.WithLabelValues(c.variant.Name).Observe(time.Since(start).Seconds())
	return canvas, nil
}

// basemap pastes every tile that intersects the viewport. X wraps around the
// antimeridian; rows beyond the poles stay black.
func (c *Compositor) basemap(center tiles.LatLng, zoom int) (*image.RGBA, error) {
	vp := tiles.NewViewport(center, zoom, c.cfg.Style.Width, c.cfg.Style.Height)
	x0, y0, x1, y1 := vp.TileRange()

	canvas := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for tx := x0; tx <= x1; tx++ {
		for ty := y0; ty <= y1; ty++ {
			tile, ok := tiles.NormalizeTile(tiles.Tile{X: tx, Y: ty, Zoom: zoom})
			if !ok {
				continue
			}
			img, err := c.tiles.GetTile(tile)
			if err != nil {
				return nil, err
			}
			px, py := vp.Offset(tx, ty)
			dst := image.Rect(px, py, px+tiles.TileSize, py+tiles.TileSize)
			draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Src)
		}
	}
	return canvas, nil
}
