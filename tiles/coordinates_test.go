package tiles

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestWorldCoordinatesOrigin(t *testing.T) {
	x, y := CalculateWorldCoordinates(LatLng{}, 1)
	if !approxEqual(x, 256, 1e-9) || !approxEqual(y, 256, 1e-9) {
		t.Errorf("world(0,0,z1) = (%f,%f), want (256,256)", x, y)
	}
}

func TestWorldYIncreasesSouthward(t *testing.T) {
	prev := math.Inf(-1)
	for lat := 85.0; lat >= -85.0; lat -= 5 {
		_, y := CalculateWorldCoordinates(LatLng{Lat: lat}, 4)
		if y < prev {
			t.Fatalf("y(%f) = %f, smaller than y at previous latitude %f", lat, y, prev)
		}
		prev = y
	}
}

func TestWorldCoordinatesClampLatitude(t *testing.T) {
	for _, zoom := range []float64{0, 3, 12} {
		_, yLimit := CalculateWorldCoordinates(LatLng{Lat: MaxLatitude}, zoom)
		_, yPole := CalculateWorldCoordinates(LatLng{Lat: 90}, zoom)
		if yLimit != yPole {
			t.Errorf("zoom %v: y(90) = %f, want clamped %f", zoom, yPole, yLimit)
		}
		_, ySouth := CalculateWorldCoordinates(LatLng{Lat: -89.9}, zoom)
		_, ySouthLimit := CalculateWorldCoordinates(LatLng{Lat: -MaxLatitude}, zoom)
		if ySouth != ySouthLimit {
			t.Errorf("zoom %v: y(-89.9) = %f, want clamped %f", zoom, ySouth, ySouthLimit)
		}
		if !approxEqual(yPole, 0, 1e-3) {
			t.Errorf("zoom %v: y at Mercator limit = %f, want ~0", zoom, yPole)
		}
	}
}

func TestWorldToTileFloors(t *testing.T) {
	cases := []struct {
		x, y   float64
		tx, ty int
	}{
		{0, 0, 0, 0},
		{255.9, 256, 0, 1},
		{-0.5, 513, -1, 2},
	}
	for _, c := range cases {
		tx, ty := WorldToTile(c.x, c.y)
		if tx != c.tx || ty != c.ty {
			t.Errorf("WorldToTile(%v,%v) = (%d,%d), want (%d,%d)", c.x, c.y, tx, ty, c.tx, c.ty)
		}
	}
}

func TestScreenCoordinatesCenter(t *testing.T) {
	center := LatLng{Lat: 51.507222, Lng: -0.1275}
	for zoom := 1; zoom <= 20; zoom++ {
		sx, sy := CalculateScreenCoordinates(center, zoom, center, 1080, 1920)
		if sx != 540 || sy != 960 {
			t.Errorf("zoom %d: center projects to (%f,%f), want (540,960)", zoom, sx, sy)
		}
	}
}

func TestScreenCoordinatesOffset(t *testing.T) {
	center := LatLng{Lat: 0, Lng: 0}
	east := LatLng{Lat: 0, Lng: 360.0 / 1024} // one pixel at zoom 2
	sx, sy := CalculateScreenCoordinates(east, 2, center, 100, 100)
	if !approxEqual(sx, 51, 1e-9) || !approxEqual(sy, 50, 1e-9) {
		t.Errorf("east point = (%f,%f), want (51,50)", sx, sy)
	}
}

func TestLatLngToTile(t *testing.T) {
	tile := LatLngToTile(LatLng{Lat: 51.507222, Lng: -0.1275}, 12)
	if tile.X != 2046 || tile.Y != 1362 || tile.Zoom != 12 {
		t.Errorf("London tile = %+v, want {2046 1362 12}", tile)
	}
	back := TileToLatLng(tile)
	if back.Lat < 51.507222 || back.Lng > -0.1275 {
		t.Errorf("tile NW corner %+v is not north-west of the point", back)
	}
}

func TestNormalizeTile(t *testing.T) {
	tile, ok := NormalizeTile(Tile{X: -1, Y: 1, Zoom: 2})
	if !ok || tile.X != 3 {
		t.Errorf("NormalizeTile(-1,1,2) = %+v,%v, want X=3 ok", tile, ok)
	}
	tile, ok = NormalizeTile(Tile{X: 9, Y: 0, Zoom: 3})
	if !ok || tile.X != 1 {
		t.Errorf("NormalizeTile(9,0,3) = %+v,%v, want X=1 ok", tile, ok)
	}
	if _, ok := NormalizeTile(Tile{X: 0, Y: -1, Zoom: 2}); ok {
		t.Error("Y=-1 reported inside the world")
	}
	if _, ok := NormalizeTile(Tile{X: 0, Y: 4, Zoom: 2}); ok {
		t.Error("Y=4 at zoom 2 reported inside the world")
	}
}

func TestBoundsFor(t *testing.T) {
	b, err := BoundsFor([]LatLng{{Lat: 10, Lng: -5}, {Lat: -2, Lng: 7}, {Lat: 3, Lng: 1}})
	if err != nil {
		t.Fatalf("BoundsFor: %v", err)
	}
	want := Bounds{MinLat: -2, MinLng: -5, MaxLat: 10, MaxLng: 7}
	if b != want {
		t.Errorf("BoundsFor = %+v, want %+v", b, want)
	}

	p := b.Padded(1, 2)
	wantPadded := Bounds{MinLat: -3, MinLng: -7, MaxLat: 11, MaxLng: 9}
	if p != wantPadded {
		t.Errorf("Padded = %+v, want %+v", p, wantPadded)
	}
}

func TestBoundsForEmpty(t *testing.T) {
	if _, err := BoundsFor(nil); !errors.Is(err, ErrEmptyGeometry) {
		t.Errorf("BoundsFor(nil) error = %v, want ErrEmptyGeometry", err)
	}
}

func TestViewportTiles(t *testing.T) {
	v := NewViewport(LatLng{}, 1, 1080, 1920)
	x0, y0, x1, y1 := v.TileRange()
	if x0 != -2 || x1 != 3 || y0 != -3 || y1 != 4 {
		t.Errorf("TileRange = %d,%d..%d,%d", x0, y0, x1, y1)
	}
	got := v.Tiles()
	if len(got) != 4 {
		t.Fatalf("Tiles = %v, want the 4 tiles of zoom 1", got)
	}
	for _, tile := range got {
		if tile.X < 0 || tile.X > 1 || tile.Y < 0 || tile.Y > 1 {
			t.Errorf("tile %+v outside the world", tile)
		}
	}
	if px, py := v.Offset(0, 0); px != 284 || py != 704 {
		t.Errorf("Offset(0,0) = %d,%d, want 284,704", px, py)
	}
}

func TestViewportBounds(t *testing.T) {
	center := LatLng{Lat: 51.5, Lng: -0.12}
	b := NewViewport(center, 14, 800, 600).Bounds()
	if !(b.MinLat < center.Lat && center.Lat < b.MaxLat && b.MinLng < center.Lng && center.Lng < b.MaxLng) {
		t.Errorf("bounds %+v do not contain the center", b)
	}
	x1, _ := CalculateWorldCoordinates(LatLng{Lat: b.MaxLat, Lng: b.MinLng}, 14)
	x2, _ := CalculateWorldCoordinates(LatLng{Lat: b.MinLat, Lng: b.MaxLng}, 14)
	if math.Abs(x2-x1-800) > 1e-6 {
		t.Errorf("bounds span %f px, want 800", x2-x1)
	}
}
