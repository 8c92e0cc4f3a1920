package tiles

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

const (
	TileSize           = 256
	MaxLatitude        = 85.05112878  // Web Mercator limit
	earthCircumference = 40075016.686 // meters at equator
)

// ErrEmptyGeometry is returned when bounds are requested over zero points.
var ErrEmptyGeometry = errors.New("tiles: bounds requested over zero points")

// Tile represents a map tile coordinates
type Tile struct {
	X, Y, Zoom int
}

// LatLng represents a geographical point
type LatLng struct {
	Lat, Lng float64
}

// Bounds is an axis-aligned lat/lng box.
type Bounds struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

// Padded expands the box by the given margins on every side.
func (b Bounds) Padded(padLat, padLng float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - padLat,
		MinLng: b.MinLng - padLng,
		MaxLat: b.MaxLat + padLat,
		MaxLng: b.MaxLng + padLng,
	}
}

// ClampLatitude limits lat to the range Web Mercator can represent.
func ClampLatitude(lat float64) float64 {
	return math.Max(math.Min(lat, MaxLatitude), -MaxLatitude)
}

// LatLngToTile converts geographical coordinates to tile coordinates
func LatLngToTile(ll LatLng, zoom int) Tile {
	x, y := CalculateWorldCoordinates(ll, float64(zoom))
	tx, ty := WorldToTile(x, y)
	return Tile{X: tx, Y: ty, Zoom: zoom}
}

// TileToLatLng converts tile coordinates to geographical coordinates (returns north-west corner of tile)
func TileToLatLng(tile Tile) LatLng {
	n := math.Pow(2, float64(tile.Zoom))
	lonDeg := float64(tile.X)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(tile.Y)/n)))
	return LatLng{Lat: latRad * 180.0 / math.Pi, Lng: lonDeg}
}

// CalculateWorldCoordinates converts geographical coordinates to world pixel coordinates at given zoom level.
// Latitudes beyond the Mercator limit are clamped first.
func CalculateWorldCoordinates(ll LatLng, zoom float64) (float64, float64) {
	scale := float64(TileSize) * math.Pow(2, zoom)
	sinLat := math.Sin(ClampLatitude(ll.Lat) * math.Pi / 180.0)
	worldX := (ll.Lng + 180) / 360 * scale
	worldY := (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * scale
	return worldX, worldY
}

// WorldToTile returns the tile indices containing a world pixel.
func WorldToTile(worldX, worldY float64) (int, int) {
	return int(math.Floor(worldX / TileSize)), int(math.Floor(worldY / TileSize))
}

// CalculateScreenCoordinates places ll inside a width x height viewport centered on center.
func CalculateScreenCoordinates(ll LatLng, zoom int, center LatLng, width, height int) (float64, float64) {
	cx, cy := CalculateWorldCoordinates(center, float64(zoom))
	px, py := CalculateWorldCoordinates(ll, float64(zoom))
	return px - cx + float64(width)/2, py - cy + float64(height)/2
}

// WorldToLatLng converts world pixel coordinates back to geographical coordinates
func WorldToLatLng(worldX, worldY float64, zoom float64) LatLng {
	n := math.Pow(2, zoom)
	lng := (worldX/(float64(TileSize)*n))*360 - 180
	latRad := math.Pi * (1 - 2*worldY/(float64(TileSize)*n))
	lat := 180 / math.Pi * math.Atan(math.Sinh(latRad))
	return LatLng{Lat: lat, Lng: lng}
}

// CalculateMetersPerPixel calculates the meters per pixel at a given latitude and zoom level
func CalculateMetersPerPixel(latitude float64, zoom int) float64 {
	return earthCircumference * math.Cos(latitude*math.Pi/180) / (math.Pow(2, float64(zoom)) * TileSize)
}

// NormalizeTile wraps X around the antimeridian. ok is false when Y falls
// outside the world, in which case no such tile exists.
func NormalizeTile(tile Tile) (Tile, bool) {
	n := 1 << tile.Zoom
	tile.X = ((tile.X % n) + n) % n
	return tile, tile.Y >= 0 && tile.Y < n
}

// BoundsFor returns the componentwise min/max over points.
func BoundsFor(points []LatLng) (Bounds, error) {
	if len(points) == 0 {
		return Bounds{}, ErrEmptyGeometry
	}
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, orb.Point{p.Lng, p.Lat})
	}
	b := mp.Bound()
	return Bounds{
		MinLat: b.Min.Lat(),
		MinLng: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLng: b.Max.Lon(),
	}, nil
}
