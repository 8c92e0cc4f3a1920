package tiles

// Viewport is the world-pixel window of a Width x Height screen centered on
// a point at one zoom level.
type Viewport struct {
	Left, Top     float64
	Width, Height int
	Zoom          int
}

func NewViewport(center LatLng, zoom, width, height int) Viewport {
	cx, cy := CalculateWorldCoordinates(center, float64(zoom))
	return Viewport{
		Left:   cx - float64(width)/2,
		Top:    cy - float64(height)/2,
		Width:  width,
		Height: height,
		Zoom:   zoom,
	}
}

// TileRange returns the inclusive range of raw tile indices the viewport
// touches. Indices may fall outside the world; see NormalizeTile.
func (v Viewport) TileRange() (x0, y0, x1, y1 int) {
	x0, y0 = WorldToTile(v.Left, v.Top)
	x1, y1 = WorldToTile(v.Left+float64(v.Width), v.Top+float64(v.Height))
	return x0, y0, x1, y1
}

// Offset is where the top-left of raw tile (x, y) lands on screen, truncated
// toward zero.
func (v Viewport) Offset(x, y int) (int, int) {
	return int(float64(x*TileSize) - v.Left), int(float64(y*TileSize) - v.Top)
}

// Tiles lists the distinct real tiles needed to fill the viewport.
func (v Viewport) Tiles() []Tile {
	x0, y0, x1, y1 := v.TileRange()
	seen := make(map[Tile]bool)
	var out []Tile
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			t, ok := NormalizeTile(Tile{X: x, Y: y, Zoom: v.Zoom})
			if !ok || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Bounds is the geographic box the viewport shows.
func (v Viewport) Bounds() Bounds {
	z := float64(v.Zoom)
	nw := WorldToLatLng(v.Left, v.Top, z)
	se := WorldToLatLng(v.Left+float64(v.Width), v.Top+float64(v.Height), z)
	return Bounds{MinLat: se.Lat, MinLng: nw.Lng, MaxLat: nw.Lat, MaxLng: se.Lng}
}
