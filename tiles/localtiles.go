package tiles

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LocalTileProvider draws synthetic tiles offline. Each tile shows its
// z/x/y address and north-west corner on a checkerboard tint.
type LocalTileProvider struct{}

func NewLocalTileProvider() *LocalTileProvider {
	return &LocalTileProvider{}
}

func (p *LocalTileProvider) Name() string        { return ProviderLocal }
func (p *LocalTileProvider) Attribution() string { return "Synthetic tiles" }

func (p *LocalTileProvider) GetTile(tile Tile) (image.Image, error) {
	// Create a new 256x256 image (standard tile size)
	img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))

	bgColor := color.NRGBA{200, 220, 255, 255}
	if (tile.X+tile.Y)%2 != 0 {
		bgColor = color.NRGBA{185, 208, 245, 255}
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{bgColor}, image.Point{}, draw.Src)

	nw := TileToLatLng(tile)
	drawText(img, fmt.Sprintf("%d/%d/%d", tile.Zoom, tile.X, tile.Y), 120)
	drawText(img, fmt.Sprintf("%.4f, %.4f", nw.Lat, nw.Lng), 150)

	// Draw a border around the tile
	borderColor := color.NRGBA{100, 100, 100, 255}
	borders := []image.Rectangle{
		image.Rect(0, 0, TileSize, 1),                 // Top
		image.Rect(0, TileSize-1, TileSize, TileSize), // Bottom
		image.Rect(0, 0, 1, TileSize),                 // Left
		image.Rect(TileSize-1, 0, TileSize, TileSize), // Right
	}
	for _, rect := range borders {
		draw.Draw(img, rect, &image.Uniform{borderColor}, image.Point{}, draw.Src)
	}

	return img, nil
}

func drawText(img draw.Image, text string, baseline int) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}

	// Measure text dimensions
	textWidth := d.MeasureString(text).Round()
	textHeight := face.Metrics().Height.Round()

	// Draw text background
	padding := 6
	textBgRect := image.Rect(
		(TileSize-textWidth)/2-padding,
		baseline-textHeight-padding/2,
		(TileSize+textWidth)/2+padding,
		baseline+padding,
	)
	draw.Draw(img, textBgRect, &image.Uniform{color.NRGBA{255, 255, 255, 220}}, image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I((TileSize - textWidth) / 2),
		Y: fixed.I(baseline),
	}
	d.DrawString(text)
}
