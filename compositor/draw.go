package compositor

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/olablt/geovideo/tiles"
)

// frame is the per-call drawing state handed to each layer.
type frame struct {
	canvas *image.RGBA
	dc     *gg.Context
	faces  faces
	active int
	reveal float64
	zoom   int
	center tiles.LatLng
	width  int
	height int
}

func (f *frame) project(ll tiles.LatLng) (float64, float64) {
	return tiles.CalculateScreenCoordinates(ll, f.zoom, f.center, f.width, f.height)
}

// projectInt truncates toward zero like the label anchors do.
func (f *frame) projectInt(ll tiles.LatLng) (float64, float64) {
	x, y := f.project(ll)
	return float64(int(x)), float64(int(y))
}

func cropZoom(c *Compositor, f *frame) {
	cw := int(float64(f.width) / c.variant.ZoomFactor)
	ch := int(float64(f.height) / c.variant.ZoomFactor)
	left, top := (f.width-cw)/2, (f.height-ch)/2
	cropped := imaging.Crop(f.canvas, image.Rect(left, top, left+cw, top+ch))
	zoomed := imaging.Resize(cropped, f.width, f.height, imaging.Lanczos)
	draw.Draw(f.canvas, f.canvas.Bounds(), zoomed, image.Point{}, draw.Src)
}

// tintMap mutes the basemap (saturation 0.52, contrast 1.16, brightness
// 0.84), washes it green and darkens the top and bottom bands.
func tintMap(c *Compositor, f *frame) {
	muted := imaging.AdjustFunc(f.canvas, func(px color.NRGBA) color.NRGBA {
		l := float64(luma(px))
		return color.NRGBA{
			R: clampByte(l + 0.52*(float64(px.R)-l)),
			G: clampByte(l + 0.52*(float64(px.G)-l)),
			B: clampByte(l + 0.52*(float64(px.B)-l)),
			A: px.A,
		}
	})
	mean := math.Floor(meanLuma(muted) + 0.5)
	muted = imaging.AdjustFunc(muted, func(px color.NRGBA) color.NRGBA {
		adjust := func(v uint8) uint8 {
			contrasted := clampByte(mean + 1.16*(float64(v)-mean))
			return clampByte(0.84 * float64(contrasted))
		}
		return color.NRGBA{R: adjust(px.R), G: adjust(px.G), B: adjust(px.B), A: px.A}
	})
	draw.Draw(f.canvas, f.canvas.Bounds(), muted, image.Point{}, draw.Src)

	draw.Draw(f.canvas, f.canvas.Bounds(), image.NewUniform(color.NRGBA{10, 38, 28, 22}), image.Point{}, draw.Over)

	topH := int(float64(f.height) * 0.22)
	for y := 0; y < topH; y++ {
		a := 160 * (1 - float64(y)/float64(topH))
		shadeRow(f.canvas, y, a)
	}
	bottomH := int(float64(f.height) * 0.28)
	for i := 0; i < bottomH; i++ {
		a := 195 * (1 - float64(i)/float64(bottomH))
		shadeRow(f.canvas, f.height-bottomH+i, a)
	}
}

func shadeRow(dst *image.RGBA, y int, alpha float64) {
	row := image.Rect(0, y, dst.Bounds().Dx(), y+1)
	draw.Draw(dst, row, image.NewUniform(color.NRGBA{0, 0, 0, clampByte(alpha)}), image.Point{}, draw.Over)
}

// luma is ITU-R 601-2, as used for L-mode conversion.
func luma(px color.NRGBA) uint8 {
	return uint8((uint32(px.R)*19595 + uint32(px.G)*38470 + uint32(px.B)*7471 + 0x8000) >> 16)
}

func meanLuma(img *image.NRGBA) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(luma(img.NRGBAAt(x, y)))
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}

func clampByte(v float64) uint8 {
	return uint8(math.Min(math.Max(v, 0), 255))
}

func drawPolygon(c *Compositor, f *frame) {
	if len(c.polygon) < 3 {
		return
	}
	dc := f.dc
	for _, p := range c.polygon {
		x, y := f.project(p)
		dc.LineTo(x, y)
	}
	dc.ClosePath()
	if c.variant.PolygonFill != nil {
		dc.SetColor(c.variant.PolygonFill)
		dc.FillPreserve()
	}
	dc.SetColor(c.variant.PolygonOutline)
	dc.SetLineWidth(c.variant.PolygonWidth)
	dc.Stroke()
}

func drawConnectors(c *Compositor, f *frame) {
	dc := f.dc
	x1, y1 := f.project(c.cfg.Center.LatLng())
	dc.SetColor(color.NRGBA{255, 255, 255, 120})
	dc.SetLineWidth(2)
	for _, poi := range c.cfg.Pois {
		x2, y2 := f.project(poi.LatLng())
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}
}

func drawPins(c *Compositor, f *frame) {
	for i, poi := range c.cfg.Pois {
		var col color.Color = pinColor(poi.Type, i == f.active)
		if c.variant.PinColor != nil {
			col = c.variant.PinColor
		}
		x, y := f.projectInt(poi.LatLng())
		drawPin(f.dc, x, y, col)
		if c.variant.PinDot {
			fx, fy := f.project(poi.LatLng())
			f.dc.DrawCircle(fx, fy, 6)
			f.dc.SetColor(white)
			f.dc.Fill()
		}
	}
}

// drawPin is a round head over a downward point.
func drawPin(dc *gg.Context, x, y float64, col color.Color) {
	dc.DrawCircle(x, y, 12)
	dc.SetColor(col)
	dc.FillPreserve()
	dc.SetColor(white)
	dc.SetLineWidth(1)
	dc.Stroke()

	fillPolygon(dc, col, gg.Point{X: x, Y: y + 20}, gg.Point{X: x - 10, Y: y}, gg.Point{X: x + 10, Y: y})
}

func drawRing(c *Compositor, f *frame) {
	n := len(c.cfg.Pois)
	if n == 0 {
		return
	}
	poi := c.cfg.Pois[min(f.active, n-1)]
	phase := math.Mod(f.reveal+float64(f.active)*0.3, 1)
	radius := int(c.variant.Ring.Base + phase*c.variant.Ring.Growth)
	alpha := int(c.variant.Ring.Alpha * (1 - phase))

	x, y := f.projectInt(poi.LatLng())
	// The 3px stroke sits inside the nominal radius.
	f.dc.DrawCircle(x, y, float64(radius)-2)
	f.dc.SetColor(color.NRGBA{255, 255, 255, uint8(alpha)})
	f.dc.SetLineWidth(3)
	f.dc.Stroke()
}

func (c *Compositor) poiLabels(f *frame) []Label {
	labels := make([]Label, len(c.cfg.Pois))
	for i, poi := range c.cfg.Pois {
		x, y := f.project(poi.LatLng())
		labels[i] = Label{Text: poi.Name, Anchor: image.Pt(int(x), int(y))}
	}
	return labels
}

func drawBoxedLabels(c *Compositor, f *frame) {
	face := f.faces.small
	for _, p := range PlaceLabels(c.poiLabels(f), Measurer(face), DefaultLabelOptions) {
		fillRoundedBox(f.dc, color.NRGBA{0, 0, 0, 180}, p.Box.Min.X, p.Box.Min.Y, p.Box.Max.X, p.Box.Max.Y, 8)
		drawText(f.dc, face, p.Text, float64(p.Position.X), float64(p.Position.Y), white)
	}
}

func drawTagLabels(c *Compositor, f *frame) {
	face := f.faces.small
	for _, p := range PlaceLabels(c.poiLabels(f), Measurer(face), DefaultLabelOptions) {
		text := strings.ToUpper(p.Text)
		w, h := measure(face, text)
		x1, y1 := p.Position.X-10, p.Position.Y-4
		f.dc.DrawRectangle(float64(x1), float64(y1), float64(w+20), float64(h+8))
		f.dc.SetColor(color.NRGBA{180, 0, 8, 230})
		f.dc.Fill()
		drawText(f.dc, face, text, float64(x1+10), float64(y1+4), white)
	}
}

func drawCenterMarker(c *Compositor, f *frame) {
	dc := f.dc
	x, y := f.project(c.cfg.Center.LatLng())

	dc.DrawCircle(x, y, 28)
	dc.SetColor(color.NRGBA{255, 255, 255, 235})
	dc.FillPreserve()
	dc.SetColor(white)
	dc.SetLineWidth(3)
	dc.Stroke()
	dc.DrawCircle(x, y, 16)
	dc.SetColor(color.NRGBA{230, 22, 30, 255})
	dc.Fill()

	text := c.cfg.Style.SocialCenterLabel
	w, h := measure(f.faces.large, text)
	drawOutlinedText(dc, f.faces.large, text, x-float64(w)/2, y-72-float64(h), white, color.NRGBA{205, 22, 22, 255}, 4)
}

func drawSubtitle(c *Compositor, f *frame) {
	text := c.cfg.Style.Subtitle
	if text == "" {
		return
	}
	face := f.faces.regular
	w, h := measure(face, text)
	x := (f.width - w) / 2
	y := f.height - h - c.cfg.Style.SafeMarginPx
	fillRoundedBox(f.dc, color.NRGBA{0, 0, 0, 160}, x-20, y-12, x+w+20, y+h+12, 12)
	drawText(f.dc, face, text, float64(x), float64(y), white)
}

func drawOverlay(c *Compositor, f *frame) {
	if c.overlay == nil {
		return
	}
	x := f.width - c.overlay.Bounds().Dx() - 20
	y := int(float64(f.height) * 0.2)
	f.dc.DrawImage(c.overlay, x, y)
}

func drawCornerAttribution(c *Compositor, f *frame) {
	w, h := measure(f.faces.small, c.attribution)
	drawText(f.dc, f.faces.small, c.attribution, float64(f.width-w-12), float64(f.height-h-12), white)
}

func drawFeedAttribution(c *Compositor, f *frame) {
	_, h := measure(f.faces.small, c.attribution)
	drawText(f.dc, f.faces.small, c.attribution, 24, float64(f.height-h-220), color.NRGBA{255, 255, 255, 210})
}

// drawSocialChrome mimics a short-video app: search bar, action rail,
// caption band and comment box.
func drawSocialChrome(c *Compositor, f *frame) {
	dc, fc := f.dc, f.faces
	w, h := f.width, f.height
	style := c.cfg.Style
	barFg := color.NRGBA{255, 255, 255, 230}

	fillRoundedBox(dc, color.NRGBA{25, 25, 25, 65}, 28, 32, w-28, 126, 20)
	strokeRoundedBox(dc, color.NRGBA{255, 255, 255, 225}, 3, 28, 32, w-28, 126, 20)
	drawText(dc, fc.large, "<", 46, 48, color.NRGBA{255, 255, 255, 240})
	dc.DrawCircle(131, 75, 17)
	dc.SetColor(barFg)
	dc.SetLineWidth(3)
	dc.Stroke()
	dc.DrawLine(141, 87, 153, 99)
	dc.Stroke()
	drawText(dc, fc.regular, style.SocialSearchLeftText, 168, 58, barFg)
	rw, _ := measure(fc.regular, style.SocialSearchRightText)
	drawText(dc, fc.regular, style.SocialSearchRightText, float64(w-40-rw), 58, barFg)

	railX := float64(w - 62)
	counter := color.NRGBA{255, 255, 255, 240}
	drawProfileIcon(dc, fc.small, railX, float64(h-620))
	drawHeartIcon(dc, railX, float64(h-495))
	drawText(dc, fc.small, "991", railX-20, float64(h-448), counter)
	drawChatIcon(dc, railX, float64(h-365))
	drawText(dc, fc.small, "145", railX-20, float64(h-318), counter)
	drawBookmarkIcon(dc, railX, float64(h-235))
	drawText(dc, fc.small, "539", railX-20, float64(h-188), counter)
	drawShareIcon(dc, railX, float64(h-105))
	drawText(dc, fc.small, "878", railX-20, float64(h-58), counter)

	bandY := h - 210
	dc.DrawRectangle(0, float64(bandY), float64(w), 210)
	dc.SetColor(color.NRGBA{0, 0, 0, 185})
	dc.Fill()
	caption := style.Subtitle
	if caption == "" {
		caption = "A quick tour of local amenities"
	}
	drawText(dc, fc.small, style.SocialAccountLabel, 24, float64(bandY+18), barFg)
	drawText(dc, fc.small, caption, 24, float64(bandY+56), color.NRGBA{245, 245, 245, 220})

	commentY := h - 102
	fillRoundedBox(dc, color.NRGBA{18, 18, 18, 240}, 24, commentY, w-24, commentY+72, 35)
	drawText(dc, fc.small, "Add a comment...", 52, float64(commentY+19), color.NRGBA{205, 205, 205, 235})
}

var iconFg = color.NRGBA{255, 255, 255, 245}

func drawProfileIcon(dc *gg.Context, small font.Face, x, y float64) {
	fillEllipseBox(dc, color.NRGBA{210, 240, 255, 225}, x-34, y-34, x+34, y+34)
	fillEllipseBox(dc, color.NRGBA{95, 145, 185, 255}, x-14, y-12, x+14, y+16)
	fillEllipseBox(dc, color.NRGBA{95, 145, 185, 255}, x-16, y+20, x+16, y+28)
	fillEllipseBox(dc, color.NRGBA{228, 26, 38, 255}, x-16, y+28, x+16, y+60)
	drawText(dc, small, "+", x-8, y+31, white)
}

func drawHeartIcon(dc *gg.Context, x, y float64) {
	fillEllipseBox(dc, iconFg, x-13, y-8, x-1, y+5)
	fillEllipseBox(dc, iconFg, x+1, y-8, x+13, y+5)
	fillPolygon(dc, iconFg, gg.Point{X: x - 15, Y: y}, gg.Point{X: x + 15, Y: y}, gg.Point{X: x, Y: y + 24})
}

func drawChatIcon(dc *gg.Context, x, y float64) {
	dc.DrawRoundedRectangle(x-18, y-14, 36, 28, 8)
	dc.SetColor(iconFg)
	dc.SetLineWidth(3)
	dc.Stroke()
	fillPolygon(dc, iconFg, gg.Point{X: x - 5, Y: y + 14}, gg.Point{X: x + 3, Y: y + 14}, gg.Point{X: x - 1, Y: y + 22})
}

func drawBookmarkIcon(dc *gg.Context, x, y float64) {
	strokePolygon(dc, iconFg, 3,
		gg.Point{X: x - 13, Y: y - 20}, gg.Point{X: x + 13, Y: y - 20}, gg.Point{X: x + 13, Y: y + 22},
		gg.Point{X: x, Y: y + 10}, gg.Point{X: x - 13, Y: y + 22})
}

func drawShareIcon(dc *gg.Context, x, y float64) {
	strokePolygon(dc, iconFg, 3,
		gg.Point{X: x - 16, Y: y + 15}, gg.Point{X: x + 4, Y: y + 15}, gg.Point{X: x + 4, Y: y + 25},
		gg.Point{X: x + 22, Y: y}, gg.Point{X: x + 4, Y: y - 25}, gg.Point{X: x + 4, Y: y - 15},
		gg.Point{X: x - 16, Y: y - 15})
}

// drawText draws s with its top-left corner at (x, y).
func drawText(dc *gg.Context, face font.Face, s string, x, y float64, col color.Color) {
	dc.SetFontFace(face)
	dc.SetColor(col)
	dc.DrawString(s, x, y+float64(face.Metrics().Ascent.Ceil()))
}

// drawOutlinedText stamps the stroke color around the glyphs before drawing
// the fill on top.
func drawOutlinedText(dc *gg.Context, face font.Face, s string, x, y float64, fill, stroke color.Color, width float64) {
	for _, r := range []float64{width / 2, width} {
		for deg := 0.0; deg < 360; deg += 30 {
			dx, dy := r*math.Cos(gg.Radians(deg)), r*math.Sin(gg.Radians(deg))
			drawText(dc, face, s, x+dx, y+dy, stroke)
		}
	}
	drawText(dc, face, s, x, y, fill)
}

func fillRoundedBox(dc *gg.Context, col color.Color, x1, y1, x2, y2 int, r float64) {
	dc.DrawRoundedRectangle(float64(x1), float64(y1), float64(x2-x1), float64(y2-y1), r)
	dc.SetColor(col)
	dc.Fill()
}

func strokeRoundedBox(dc *gg.Context, col color.Color, width float64, x1, y1, x2, y2 int, r float64) {
	dc.DrawRoundedRectangle(float64(x1), float64(y1), float64(x2-x1), float64(y2-y1), r)
	dc.SetColor(col)
	dc.SetLineWidth(width)
	dc.Stroke()
}

func fillEllipseBox(dc *gg.Context, col color.Color, x1, y1, x2, y2 float64) {
	dc.DrawEllipse((x1+x2)/2, (y1+y2)/2, (x2-x1)/2, (y2-y1)/2)
	dc.SetColor(col)
	dc.Fill()
}

func polygonPath(dc *gg.Context, pts []gg.Point) {
	dc.NewSubPath()
	for _, p := range pts {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
}

func fillPolygon(dc *gg.Context, col color.Color, pts ...gg.Point) {
	polygonPath(dc, pts)
	dc.SetColor(col)
	dc.Fill()
}

func strokePolygon(dc *gg.Context, col color.Color, width float64, pts ...gg.Point) {
	polygonPath(dc, pts)
	dc.SetColor(col)
	dc.SetLineWidth(width)
	dc.Stroke()
}
